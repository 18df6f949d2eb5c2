package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"parking-facility/internal/logging"
	"parking-facility/internal/parking"
)

const maxSendTries = 3

// MessageCreator is the part of the Twilio REST API used to send SMS.
type MessageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// SMSNotifier texts reservation holders. Messages are sent in the background
// and failures are only logged; a reservation never depends on delivery.
type SMSNotifier struct {
	log     *slog.Logger
	api     MessageCreator
	from    string
	initial time.Duration
	wg      sync.WaitGroup
}

func NewTwilioNotifier(log *slog.Logger, accountSID, authToken, from string) *SMSNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return NewSMSNotifier(log, client.Api, from)
}

func NewSMSNotifier(log *slog.Logger, api MessageCreator, from string) *SMSNotifier {
	return &SMSNotifier{
		log:     log,
		api:     api,
		from:    from,
		initial: 500 * time.Millisecond,
	}
}

func (n *SMSNotifier) ReservationConfirmed(ctx context.Context, r parking.Reservation) {
	n.send(ctx, r, fmt.Sprintf("Parking: reservation %d confirmed for %s. Your %s slot is %d.",
		r.ID, r.Name, r.Category, r.SlotID))
}

func (n *SMSNotifier) ReservationCancelled(ctx context.Context, r parking.Reservation) {
	n.send(ctx, r, fmt.Sprintf("Parking: reservation %d for %s slot %d has been cancelled.",
		r.ID, r.Category, r.SlotID))
}

// Wait blocks until every queued message has been attempted.
func (n *SMSNotifier) Wait() {
	n.wg.Wait()
}

func (n *SMSNotifier) send(ctx context.Context, r parking.Reservation, body string) {
	if r.Phone == "" {
		return
	}

	ctx = context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		params := &openapi.CreateMessageParams{}
		params.SetTo(r.Phone)
		params.SetFrom(n.from)
		params.SetBody(body)

		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = n.initial
		bo.MaxInterval = 10 * n.initial

		_, err := backoff.Retry(ctx, func() (*openapi.ApiV2010Message, error) {
			return n.api.CreateMessage(params)
		},
			backoff.WithBackOff(bo),
			backoff.WithMaxTries(maxSendTries),
		)
		if err != nil {
			n.log.ErrorContext(ctx, "failed to send reservation SMS",
				slog.Int64("reservation_id", int64(r.ID)), logging.Err(err))
			return
		}
		n.log.InfoContext(ctx, "reservation SMS sent", slog.Int64("reservation_id", int64(r.ID)))
	}()
}

// LogNotifier records notifications it would have sent. It stands in for
// SMSNotifier when no SMS credentials are configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) ReservationConfirmed(ctx context.Context, r parking.Reservation) {
	n.log.InfoContext(ctx, "reservation confirmation not sent, SMS disabled",
		slog.Int64("reservation_id", int64(r.ID)))
}

func (n *LogNotifier) ReservationCancelled(ctx context.Context, r parking.Reservation) {
	n.log.InfoContext(ctx, "reservation cancellation not sent, SMS disabled",
		slog.Int64("reservation_id", int64(r.ID)))
}
