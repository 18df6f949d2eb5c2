package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"parking-facility/internal/parking"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type ParkRequest struct {
	LicensePlate string `json:"license_plate"`
	Category     string `json:"category"`
}

type ExitRequest struct {
	TicketID int64 `json:"ticket_id"`
}

type ReserveRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Phone    string `json:"phone"`
}

type TicketResponse struct {
	TicketID     int64     `json:"ticket_id"`
	Category     string    `json:"category"`
	SlotID       int       `json:"slot_id"`
	LicensePlate string    `json:"license_plate"`
	EntryTime    time.Time `json:"entry_time"`
}

type WaitlistedResponse struct {
	Status       string `json:"status"`
	LicensePlate string `json:"license_plate"`
	Category     string `json:"category"`
	Position     int    `json:"position"`
}

type ReceiptResponse struct {
	Status        string          `json:"status"`
	TicketID      int64           `json:"ticket_id"`
	LicensePlate  string          `json:"license_plate"`
	Category      string          `json:"category"`
	SlotID        int             `json:"slot_id"`
	EntryTime     time.Time       `json:"entry_time"`
	ExitTime      time.Time       `json:"exit_time"`
	DurationHours float64         `json:"duration_hours"`
	Fee           float64         `json:"fee"`
	Promoted      *TicketResponse `json:"promoted,omitempty"`
}

type ReservationResponse struct {
	Status        string `json:"status"`
	ReservationID int64  `json:"reservation_id,omitempty"`
	Category      string `json:"category"`
	SlotID        int    `json:"slot_id,omitempty"`
}

type AvailabilityResponse struct {
	Available int `json:"available"`
	Occupied  int `json:"occupied"`
	Reserved  int `json:"reserved"`
	Total     int `json:"total"`
	Waitlist  int `json:"waitlist"`
}

type SlotStatus struct {
	SlotID        int    `json:"slot_id"`
	Status        string `json:"status"`
	LicensePlate  string `json:"license_plate,omitempty"`
	TicketID      int64  `json:"ticket_id,omitempty"`
	ReservationID int64  `json:"reservation_id,omitempty"`
	HolderName    string `json:"holder_name,omitempty"`
}

func toTicketResponse(t parking.Ticket) TicketResponse {
	return TicketResponse{
		TicketID:     int64(t.ID),
		Category:     t.Category.String(),
		SlotID:       t.SlotID,
		LicensePlate: t.LicensePlate,
		EntryTime:    t.EntryTime,
	}
}

func toReceiptResponse(r parking.Receipt) ReceiptResponse {
	resp := ReceiptResponse{
		Status:        string(r.Outcome),
		TicketID:      int64(r.TicketID),
		LicensePlate:  r.LicensePlate,
		Category:      r.Category.String(),
		SlotID:        r.SlotID,
		EntryTime:     r.EntryTime,
		ExitTime:      r.ExitTime,
		DurationHours: r.DurationHours,
		Fee:           r.Fee,
	}
	if r.Promoted != nil {
		promoted := toTicketResponse(*r.Promoted)
		resp.Promoted = &promoted
	}
	return resp
}

func toSlotStatus(s parking.Slot) SlotStatus {
	status := SlotStatus{
		SlotID: s.ID,
		Status: string(s.Status()),
	}
	if o, ok := s.Occupancy(); ok {
		status.LicensePlate = o.LicensePlate
		status.TicketID = int64(o.TicketID)
	}
	if r, ok := s.Reservation(); ok {
		status.ReservationID = int64(r.ID)
		status.HolderName = r.Name
	}
	return status
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
