package parking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"parking-facility/internal/logging"
)

// ReservationNotifier is told about reservations that were made or cancelled.
type ReservationNotifier interface {
	ReservationConfirmed(ctx context.Context, r Reservation)
	ReservationCancelled(ctx context.Context, r Reservation)
}

type InstrumentedFacility struct {
	*Facility
	telemetry *TelemetryProvider
	log       *slog.Logger
	notifier  ReservationNotifier

	// Metrics
	operations        metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	reservedGauge     metric.Int64UpDownCounter
	waitlistGauge     metric.Int64UpDownCounter
	totalSlotsGauge   metric.Int64UpDownCounter
	feeAmount         metric.Float64Histogram
	operationDuration metric.Float64Histogram
}

func NewInstrumentedFacility(facility *Facility, telemetry *TelemetryProvider, log *slog.Logger, notifier ReservationNotifier) (*InstrumentedFacility, error) {
	meter := telemetry.Meter()

	operations, err := meter.Int64Counter("parking_operations_total",
		metric.WithDescription("Total number of facility operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("parking_facility_occupancy",
		metric.WithDescription("Current number of occupied slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	reservedGauge, err := meter.Int64UpDownCounter("parking_facility_reserved",
		metric.WithDescription("Current number of reserved slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	waitlistGauge, err := meter.Int64UpDownCounter("parking_facility_waitlist",
		metric.WithDescription("Current number of waitlisted vehicles"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	totalSlotsGauge, err := meter.Int64UpDownCounter("parking_facility_total_slots",
		metric.WithDescription("Total number of slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	feeAmount, err := meter.Float64Histogram("parking_fee_amount",
		metric.WithDescription("Fees charged at exit"),
		metric.WithUnit("{currency}"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of facility operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	f := &InstrumentedFacility{
		Facility:          facility,
		telemetry:         telemetry,
		log:               log,
		notifier:          notifier,
		operations:        operations,
		occupancyGauge:    occupancyGauge,
		reservedGauge:     reservedGauge,
		waitlistGauge:     waitlistGauge,
		totalSlotsGauge:   totalSlotsGauge,
		feeAmount:         feeAmount,
		operationDuration: operationDuration,
	}

	for _, c := range Categories {
		totalSlotsGauge.Add(context.Background(), int64(facility.Capacity(c)),
			metric.WithAttributes(attribute.String("category", c.String())))
	}

	return f, nil
}

func (f *InstrumentedFacility) Park(ctx context.Context, licensePlate, category string) (ParkResult, error) {
	ctx, span := f.telemetry.Tracer().Start(ctx, "facility.park",
		trace.WithAttributes(
			attribute.String("vehicle.license_plate", licensePlate),
			attribute.String("vehicle.category", category),
		))
	defer span.End()
	defer f.recordPanic(span)

	start := time.Now()
	span.AddEvent("finding_free_slot")

	res, err := f.Facility.Park(licensePlate, category)

	labels := []attribute.KeyValue{
		attribute.String("operation", "park"),
		categoryLabel(res.Vehicle.Category),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
		f.log.WarnContext(ctx, "park rejected", slog.String("license_plate", licensePlate), logging.Err(err))
	} else {
		labels = append(labels, attribute.String("status", string(res.Outcome)))
		catAttr := metric.WithAttributes(attribute.String("category", res.Vehicle.Category.String()))

		switch res.Outcome {
		case OutcomeParked:
			span.SetAttributes(
				attribute.Int64("ticket.id", int64(res.Ticket.ID)),
				attribute.Int("slot.id", res.Ticket.SlotID),
			)
			span.AddEvent("slot_allocated", trace.WithAttributes(attribute.Int("slot_id", res.Ticket.SlotID)))
			f.occupancyGauge.Add(ctx, 1, catAttr)
			f.log.InfoContext(ctx, "vehicle parked",
				slog.String("license_plate", licensePlate),
				slog.String("category", res.Ticket.Category.String()),
				slog.Int("slot_id", res.Ticket.SlotID),
				slog.Int64("ticket_id", int64(res.Ticket.ID)),
			)
		case OutcomeWaitlisted:
			span.AddEvent("waitlisted", trace.WithAttributes(attribute.Int("position", res.Position)))
			f.waitlistGauge.Add(ctx, 1, catAttr)
			f.log.InfoContext(ctx, "vehicle waitlisted",
				slog.String("license_plate", licensePlate),
				slog.String("category", res.Vehicle.Category.String()),
				slog.Int("position", res.Position),
			)
		}
	}

	f.operations.Add(ctx, 1, metric.WithAttributes(labels...))
	f.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return res, err
}

func (f *InstrumentedFacility) Exit(ctx context.Context, id TicketID) (Receipt, error) {
	ctx, span := f.telemetry.Tracer().Start(ctx, "facility.exit",
		trace.WithAttributes(attribute.Int64("ticket.id", int64(id))))
	defer span.End()
	defer f.recordPanic(span)

	start := time.Now()
	span.AddEvent("releasing_slot")

	receipt, err := f.Facility.Exit(id)

	labels := []attribute.KeyValue{
		attribute.String("operation", "exit"),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
		level := slog.LevelWarn
		if errors.Is(err, ErrInvalidDuration) {
			level = slog.LevelError
		}
		f.log.Log(ctx, level, "exit rejected", slog.Int64("ticket_id", int64(id)), logging.Err(err))
	} else {
		category := receipt.Category.String()
		labels = append(labels,
			attribute.String("category", category),
			attribute.String("status", string(receipt.Outcome)),
		)
		catAttr := metric.WithAttributes(attribute.String("category", category))

		span.SetAttributes(
			attribute.String("vehicle.license_plate", receipt.LicensePlate),
			attribute.Float64("parking.duration_hours", receipt.DurationHours),
			attribute.Float64("parking.fee", receipt.Fee),
		)
		span.AddEvent("slot_released")
		f.occupancyGauge.Add(ctx, -1, catAttr)
		f.feeAmount.Record(ctx, receipt.Fee, catAttr)

		f.log.InfoContext(ctx, "vehicle exited",
			slog.Int64("ticket_id", int64(id)),
			slog.String("license_plate", receipt.LicensePlate),
			slog.Float64("duration_hours", receipt.DurationHours),
			slog.Float64("fee", receipt.Fee),
		)

		if p := receipt.Promoted; p != nil {
			span.AddEvent("waitlist_promoted", trace.WithAttributes(
				attribute.String("vehicle.license_plate", p.LicensePlate),
				attribute.Int64("ticket.id", int64(p.ID)),
			))
			f.occupancyGauge.Add(ctx, 1, catAttr)
			f.waitlistGauge.Add(ctx, -1, catAttr)
			f.log.InfoContext(ctx, "waitlisted vehicle promoted",
				slog.String("license_plate", p.LicensePlate),
				slog.Int("slot_id", p.SlotID),
				slog.Int64("ticket_id", int64(p.ID)),
			)
		}
	}

	f.operations.Add(ctx, 1, metric.WithAttributes(labels...))
	f.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return receipt, err
}

func (f *InstrumentedFacility) Reserve(ctx context.Context, name, category, phone string) (ReserveResult, error) {
	ctx, span := f.telemetry.Tracer().Start(ctx, "facility.reserve",
		trace.WithAttributes(attribute.String("reservation.category", category)))
	defer span.End()
	defer f.recordPanic(span)

	start := time.Now()

	res, err := f.Facility.Reserve(name, category, phone)

	labels := []attribute.KeyValue{
		attribute.String("operation", "reserve"),
		categoryLabel(res.Category),
	}

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
		f.log.WarnContext(ctx, "reservation rejected", logging.Err(err))
	case res.Outcome == OutcomeFailed:
		span.AddEvent("no_free_slot")
		labels = append(labels, attribute.String("status", string(res.Outcome)))
		f.log.InfoContext(ctx, "reservation failed, no free slot", slog.String("category", res.Category.String()))
	default:
		r := res.Reservation
		labels = append(labels, attribute.String("status", string(res.Outcome)))
		span.SetAttributes(
			attribute.Int64("reservation.id", int64(r.ID)),
			attribute.Int("slot.id", r.SlotID),
		)
		f.reservedGauge.Add(ctx, 1, metric.WithAttributes(attribute.String("category", r.Category.String())))
		f.log.InfoContext(ctx, "slot reserved",
			slog.Int64("reservation_id", int64(r.ID)),
			slog.String("category", r.Category.String()),
			slog.Int("slot_id", r.SlotID),
		)
		if f.notifier != nil {
			f.notifier.ReservationConfirmed(ctx, r)
		}
	}

	f.operations.Add(ctx, 1, metric.WithAttributes(labels...))
	f.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return res, err
}

func (f *InstrumentedFacility) CancelReservation(ctx context.Context, id ReservationID) CancelResult {
	ctx, span := f.telemetry.Tracer().Start(ctx, "facility.cancel_reservation",
		trace.WithAttributes(attribute.Int64("reservation.id", int64(id))))
	defer span.End()
	defer f.recordPanic(span)

	start := time.Now()

	res := f.Facility.CancelReservation(id)

	labels := []attribute.KeyValue{
		attribute.String("operation", "cancel_reservation"),
		attribute.String("status", string(res.Outcome)),
	}

	if res.Outcome == OutcomeSuccess {
		r := res.Reservation
		labels = append(labels, attribute.String("category", r.Category.String()))
		span.AddEvent("reservation_cancelled")
		f.reservedGauge.Add(ctx, -1, metric.WithAttributes(attribute.String("category", r.Category.String())))
		f.log.InfoContext(ctx, "reservation cancelled",
			slog.Int64("reservation_id", int64(id)),
			slog.String("category", r.Category.String()),
			slog.Int("slot_id", r.SlotID),
		)
		if f.notifier != nil {
			f.notifier.ReservationCancelled(ctx, r)
		}
	} else {
		span.AddEvent("reservation_not_found")
		f.log.InfoContext(ctx, "reservation not found", slog.Int64("reservation_id", int64(id)))
	}

	f.operations.Add(ctx, 1, metric.WithAttributes(labels...))
	f.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return res
}

func (f *InstrumentedFacility) Availability(ctx context.Context) map[Category]CategoryAvailability {
	ctx, span := f.telemetry.Tracer().Start(ctx, "facility.availability")
	defer span.End()

	start := time.Now()

	availability := f.Facility.Availability()

	for _, c := range Categories {
		a := availability[c]
		span.SetAttributes(
			attribute.Int(fmt.Sprintf("availability.%s.available", c), a.Available),
			attribute.Int(fmt.Sprintf("availability.%s.waitlist", c), a.Waitlist),
		)
	}

	f.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("operation", "availability"),
		attribute.String("status", "success"),
	))

	return availability
}

func (f *InstrumentedFacility) Slots(ctx context.Context, category string) ([]Slot, error) {
	_, span := f.telemetry.Tracer().Start(ctx, "facility.slots",
		trace.WithAttributes(attribute.String("category", category)))
	defer span.End()

	slots, err := f.Facility.Slots(category)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return slots, err
}

func (f *InstrumentedFacility) FindTicket(ctx context.Context, licensePlate string) (Ticket, error) {
	_, span := f.telemetry.Tracer().Start(ctx, "facility.find_ticket",
		trace.WithAttributes(attribute.String("vehicle.license_plate", licensePlate)))
	defer span.End()

	t, err := f.Facility.FindTicket(licensePlate)
	if err != nil {
		span.AddEvent("ticket_not_found")
		return t, err
	}

	span.AddEvent("ticket_found", trace.WithAttributes(attribute.Int64("ticket.id", int64(t.ID))))
	return t, nil
}

// categoryLabel keeps metric label values to the known categories; rejected
// input is counted under "invalid".
func categoryLabel(c Category) attribute.KeyValue {
	if !c.Valid() {
		return attribute.String("category", "invalid")
	}
	return attribute.String("category", c.String())
}

// recordPanic marks the span before an invariant violation propagates.
func (f *InstrumentedFacility) recordPanic(span trace.Span) {
	if r := recover(); r != nil {
		if err, ok := r.(error); ok {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, "invariant violation")
		f.log.Error("facility invariant violated", slog.Any("panic", r))
		panic(r)
	}
}
