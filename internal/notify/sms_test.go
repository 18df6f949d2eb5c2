package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"parking-facility/internal/parking"
)

type fakeCreator struct {
	mu       sync.Mutex
	failures int
	sent     []*openapi.CreateMessageParams
	calls    int
}

func (f *fakeCreator) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("twilio unavailable")
	}
	f.sent = append(f.sent, params)
	return &openapi.ApiV2010Message{}, nil
}

func newTestNotifier(api MessageCreator) *SMSNotifier {
	n := NewSMSNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)), api, "+15550000000")
	n.initial = time.Millisecond
	return n
}

var reservation = parking.Reservation{
	ID:       7,
	Name:     "John Doe",
	Phone:    "+15551234567",
	Category: parking.Electric,
	SlotID:   3,
}

func TestReservationConfirmedSendsSMS(t *testing.T) {
	api := &fakeCreator{}
	n := newTestNotifier(api)

	n.ReservationConfirmed(context.Background(), reservation)
	n.Wait()

	require.Len(t, api.sent, 1)
	params := api.sent[0]
	require.NotNil(t, params.To)
	require.NotNil(t, params.From)
	require.NotNil(t, params.Body)
	assert.Equal(t, "+15551234567", *params.To)
	assert.Equal(t, "+15550000000", *params.From)
	assert.Contains(t, *params.Body, "reservation 7 confirmed")
	assert.Contains(t, *params.Body, "electric slot is 3")
}

func TestReservationCancelledRetriesTransientFailures(t *testing.T) {
	api := &fakeCreator{failures: 2}
	n := newTestNotifier(api)

	n.ReservationCancelled(context.Background(), reservation)
	n.Wait()

	assert.Equal(t, 3, api.calls)
	require.Len(t, api.sent, 1)
	assert.Contains(t, *api.sent[0].Body, "cancelled")
}

func TestSendGivesUpAfterMaxTries(t *testing.T) {
	api := &fakeCreator{failures: 10}
	n := newTestNotifier(api)

	n.ReservationConfirmed(context.Background(), reservation)
	n.Wait()

	assert.Equal(t, maxSendTries, api.calls)
	assert.Empty(t, api.sent)
}

func TestNoPhoneSkipsSending(t *testing.T) {
	api := &fakeCreator{}
	n := newTestNotifier(api)

	r := reservation
	r.Phone = ""
	n.ReservationConfirmed(context.Background(), r)
	n.Wait()

	assert.Zero(t, api.calls)
}
