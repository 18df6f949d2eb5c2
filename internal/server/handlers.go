package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"parking-facility/internal/parking"
)

type Handler struct {
	facility    *parking.InstrumentedFacility
	serviceName string
}

func NewHandler(facility *parking.InstrumentedFacility, serviceName string) *Handler {
	return &Handler{
		facility:    facility,
		serviceName: serviceName,
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
	})
}

func (h *Handler) Park(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ParkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.LicensePlate == "" || req.Category == "" {
		WriteError(ctx, w, http.StatusBadRequest, "License plate and category are required")
		return
	}

	res, err := h.facility.Park(ctx, req.LicensePlate, req.Category)
	if err != nil {
		writeFacilityError(ctx, w, err)
		return
	}

	if res.Outcome == parking.OutcomeWaitlisted {
		WriteSuccess(ctx, w, http.StatusAccepted, "No slot available, vehicle waitlisted", WaitlistedResponse{
			Status:       string(res.Outcome),
			LicensePlate: res.Vehicle.LicensePlate,
			Category:     res.Vehicle.Category.String(),
			Position:     res.Position,
		})
		return
	}

	WriteSuccess(ctx, w, http.StatusCreated, "Vehicle parked successfully", toTicketResponse(res.Ticket))
}

func (h *Handler) Exit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ExitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.TicketID <= 0 {
		WriteError(ctx, w, http.StatusBadRequest, "Ticket id must be greater than 0")
		return
	}

	receipt, err := h.facility.Exit(ctx, parking.TicketID(req.TicketID))
	if err != nil {
		writeFacilityError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, http.StatusOK, "Vehicle exited successfully", toReceiptResponse(receipt))
}

func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" || req.Category == "" || req.Phone == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Name, category and phone are required")
		return
	}

	res, err := h.facility.Reserve(ctx, req.Name, req.Category, req.Phone)
	if err != nil {
		writeFacilityError(ctx, w, err)
		return
	}

	if res.Outcome == parking.OutcomeFailed {
		WriteJSON(w, http.StatusConflict, Response{
			Success: false,
			Error:   "No slot available for reservation",
			Data: ReservationResponse{
				Status:   string(res.Outcome),
				Category: res.Category.String(),
			},
			Meta: extractMeta(ctx),
		})
		return
	}

	WriteSuccess(ctx, w, http.StatusCreated, "Reservation created", ReservationResponse{
		Status:        string(res.Outcome),
		ReservationID: int64(res.Reservation.ID),
		Category:      res.Reservation.Category.String(),
		SlotID:        res.Reservation.SlotID,
	})
}

func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid reservation id")
		return
	}

	res := h.facility.CancelReservation(ctx, parking.ReservationID(id))
	if res.Outcome != parking.OutcomeSuccess {
		WriteError(ctx, w, http.StatusNotFound, "Reservation not found")
		return
	}

	WriteSuccess(ctx, w, http.StatusOK, "Reservation cancelled", ReservationResponse{
		Status:        string(res.Outcome),
		ReservationID: id,
		Category:      res.Reservation.Category.String(),
		SlotID:        res.Reservation.SlotID,
	})
}

func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	availability := h.facility.Availability(ctx)

	resp := make(map[string]AvailabilityResponse, len(availability))
	for c, a := range availability {
		resp[c.String()] = AvailabilityResponse{
			Available: a.Available,
			Occupied:  a.Occupied,
			Reserved:  a.Reserved,
			Total:     a.Total,
			Waitlist:  a.Waitlist,
		}
	}

	WriteSuccess(ctx, w, http.StatusOK, "Availability retrieved successfully", resp)
}

func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	slots, err := h.facility.Slots(ctx, chi.URLParam(r, "category"))
	if err != nil {
		writeFacilityError(ctx, w, err)
		return
	}

	statuses := make([]SlotStatus, 0, len(slots))
	for _, s := range slots {
		statuses = append(statuses, toSlotStatus(s))
	}

	WriteSuccess(ctx, w, http.StatusOK, "Slots retrieved successfully", statuses)
}

func (h *Handler) FindTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	plate := chi.URLParam(r, "plate")
	if plate == "" {
		WriteError(ctx, w, http.StatusBadRequest, "License plate is required")
		return
	}

	t, err := h.facility.FindTicket(ctx, plate)
	if err != nil {
		WriteError(ctx, w, http.StatusNotFound, "Vehicle not found")
		return
	}

	WriteSuccess(ctx, w, http.StatusOK, "Vehicle found", toTicketResponse(t))
}

func writeFacilityError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, parking.ErrInvalidCategory):
		WriteError(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, parking.ErrInvalidTicket):
		WriteError(ctx, w, http.StatusNotFound, err.Error())
	case errors.Is(err, parking.ErrInvalidDuration):
		WriteError(ctx, w, http.StatusUnprocessableEntity, err.Error())
	default:
		WriteError(ctx, w, http.StatusInternalServerError, "Internal server error")
	}
}
