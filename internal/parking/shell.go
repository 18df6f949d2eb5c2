package parking

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Shell drives an InstrumentedFacility from line commands.
type Shell struct {
	facility  *InstrumentedFacility
	telemetry *TelemetryProvider
	scanner   *bufio.Scanner
	out       io.Writer
}

func NewShell(facility *InstrumentedFacility, telemetry *TelemetryProvider, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		facility:  facility,
		telemetry: telemetry,
		scanner:   bufio.NewScanner(in),
		out:       out,
	}
}

func (s *Shell) Run(ctx context.Context) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")

	for s.scanner.Scan() {
		if ctx.Err() != nil {
			break
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}

		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))
		s.processCommand(cmdCtx, input)
		cmdSpan.End()
	}

	span.AddEvent("shell_ended")
}

func (s *Shell) processCommand(ctx context.Context, input string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	command := parts[0]
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("command.name", command))

	switch command {
	case "park":
		s.handlePark(ctx, parts)
	case "exit":
		s.handleExit(ctx, parts)
	case "reserve":
		s.handleReserve(ctx, parts)
	case "cancel":
		s.handleCancel(ctx, parts)
	case "availability":
		s.handleAvailability(ctx)
	case "status":
		s.handleStatus(ctx, parts)
	case "find":
		s.handleFind(ctx, parts)
	default:
		s.printf("Unknown command: %s\n", command)
	}
}

func (s *Shell) handlePark(ctx context.Context, parts []string) {
	if len(parts) != 3 {
		s.printf("Usage: park <license_plate> <category>\n")
		return
	}

	res, err := s.facility.Park(ctx, parts[1], parts[2])
	if err != nil {
		s.printf("Error: %s\n", err.Error())
		return
	}

	if res.Outcome == OutcomeWaitlisted {
		s.printf("No %s slot free, %s is waitlisted at position %d\n",
			res.Vehicle.Category, res.Vehicle.LicensePlate, res.Position)
		return
	}
	s.printf("%s\n", FormatTicket(res.Ticket))
}

func (s *Shell) handleExit(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.printf("Usage: exit <ticket_id>\n")
		return
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		s.printf("Invalid ticket id\n")
		return
	}

	receipt, err := s.facility.Exit(ctx, TicketID(id))
	if err != nil {
		if errors.Is(err, ErrInvalidTicket) {
			s.printf("Unknown ticket %d\n", id)
			return
		}
		s.printf("Error: %s\n", err.Error())
		return
	}

	s.printf("%s\n", FormatReceipt(receipt))
}

func (s *Shell) handleReserve(ctx context.Context, parts []string) {
	if len(parts) < 4 {
		s.printf("Usage: reserve <name> <category> <phone>\n")
		return
	}

	name := strings.Join(parts[1:len(parts)-2], " ")
	category := parts[len(parts)-2]
	phone := parts[len(parts)-1]

	res, err := s.facility.Reserve(ctx, name, category, phone)
	if err != nil {
		s.printf("Error: %s\n", err.Error())
		return
	}

	if res.Outcome == OutcomeFailed {
		s.printf("Sorry, no %s slot available for reservation\n", res.Category)
		return
	}

	r := res.Reservation
	s.printf("Reservation %d: %s slot %d held for %s\n", r.ID, r.Category, r.SlotID, r.Name)
}

func (s *Shell) handleCancel(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.printf("Usage: cancel <reservation_id>\n")
		return
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		s.printf("Invalid reservation id\n")
		return
	}

	res := s.facility.CancelReservation(ctx, ReservationID(id))
	if res.Outcome != OutcomeSuccess {
		s.printf("Reservation %d not found\n", id)
		return
	}
	s.printf("Reservation %d cancelled\n", id)
}

func (s *Shell) handleAvailability(ctx context.Context) {
	availability := s.facility.Availability(ctx)

	s.printf("Category\tAvailable\tOccupied\tTotal\tWaitlist\n")
	for _, c := range Categories {
		a := availability[c]
		s.printf("%-11s\t%d\t\t%d\t\t%d\t%d\n", c, a.Available, a.Occupied, a.Total, a.Waitlist)
	}
}

func (s *Shell) handleStatus(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.printf("Usage: status <category>\n")
		return
	}

	slots, err := s.facility.Slots(ctx, parts[1])
	if err != nil {
		s.printf("Error: %s\n", err.Error())
		return
	}

	printed := 0
	for i := range slots {
		slot := &slots[i]
		if o, ok := slot.Occupancy(); ok {
			if printed == 0 {
				s.printf("Slot No.\tStatus\t\tDetails\n")
			}
			s.printf("%d\t\t%s\t%s (ticket %d)\n", slot.ID, slot.Status(), o.LicensePlate, o.TicketID)
			printed++
		} else if r, ok := slot.Reservation(); ok {
			if printed == 0 {
				s.printf("Slot No.\tStatus\t\tDetails\n")
			}
			s.printf("%d\t\t%s\t%s (reservation %d)\n", slot.ID, slot.Status(), r.Name, r.ID)
			printed++
		}
	}

	if printed == 0 {
		s.printf("All %s slots are free\n", parts[1])
	}
}

func (s *Shell) handleFind(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.printf("Usage: find <license_plate>\n")
		return
	}

	t, err := s.facility.FindTicket(ctx, parts[1])
	if err != nil {
		s.printf("Not found\n")
		return
	}
	s.printf("%s\n", FormatTicket(t))
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
