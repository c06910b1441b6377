package conversation

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lakshya-akoode/my-cn-bot/internal/booking"
	"github.com/Lakshya-akoode/my-cn-bot/internal/observability/metrics"
)

type stubExtractor struct {
	result booking.ExtractedSlots
}

func (s *stubExtractor) Extract(ctx context.Context, message string, history []string) (booking.ExtractedSlots, error) {
	return s.result, nil
}

type stubClassifier struct {
	interruptions map[string]bool
}

func (s *stubClassifier) IsInterruption(ctx context.Context, message string, state booking.State) bool {
	return s.interruptions[message]
}

type stubSink struct {
	bookings      []booking.BookingRecord
	cancellations []booking.CancellationRecord
}

func (s *stubSink) SaveBooking(ctx context.Context, rec booking.BookingRecord) error {
	s.bookings = append(s.bookings, rec)
	return nil
}

func (s *stubSink) SaveCancellation(ctx context.Context, rec booking.CancellationRecord) error {
	s.cancellations = append(s.cancellations, rec)
	return nil
}

type stubOracle struct {
	answers []string
	errs    []error
	calls   int
}

func (s *stubOracle) Answer(ctx context.Context, question string) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.answers) {
		return s.answers[i], nil
	}
	if len(s.answers) > 0 {
		return s.answers[len(s.answers)-1], nil
	}
	return "", errors.New("stubOracle: nothing queued")
}

type serviceFixture struct {
	service    *ChatService
	store      *booking.MemoryStore
	sink       *stubSink
	oracle     *stubOracle
	classifier *stubClassifier
	extractor  *stubExtractor
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		store:      booking.NewMemoryStore(nil),
		sink:       &stubSink{},
		oracle:     &stubOracle{answers: []string{"We are located in Park Ridge."}},
		classifier: &stubClassifier{interruptions: map[string]bool{}},
		extractor:  &stubExtractor{},
	}
	machine := booking.NewMachine(f.extractor, f.classifier, f.sink, nil)
	merger := NewMerger(rand.New(rand.NewSource(1)))
	m := metrics.NewChatMetrics(prometheus.NewRegistry())
	f.service = NewChatService(f.store, machine, f.oracle, merger, 20, m, nil)
	return f
}

func TestHandleMessageBookingTurn(t *testing.T) {
	f := newServiceFixture(t)

	reply, err := f.service.HandleMessage(context.Background(), "s1", "Book an appointment", "203.0.113.1")
	require.NoError(t, err)
	assert.Equal(t, "Sure! I can help you with that. What is your name?", reply.Reply)

	sess := f.store.GetOrCreate("s1")
	assert.Equal(t, booking.StateAskName, sess.State)
	assert.Equal(t, "203.0.113.1", sess.ClientAddr)
	assert.False(t, sess.LastSeen.IsZero())
	require.Len(t, sess.History, 2)
	assert.Equal(t, "User: Book an appointment", sess.History[0])
	assert.True(t, strings.HasPrefix(sess.History[1], "Bot: "))
	assert.Zero(t, f.oracle.calls, "booking turns never reach the oracle")
}

func TestHandleMessageInformationalTurn(t *testing.T) {
	f := newServiceFixture(t)

	reply, err := f.service.HandleMessage(context.Background(), "s1", "Where are you located?", "")
	require.NoError(t, err)
	assert.Equal(t, "We are located in Park Ridge.", reply.Reply)
	assert.Empty(t, reply.UIAction)

	sess := f.store.GetOrCreate("s1")
	assert.Equal(t, booking.StateIdle, sess.State)
	assert.False(t, sess.LastFallbackOffered)
}

func TestHandleMessageInterruptionMergesResume(t *testing.T) {
	f := newServiceFixture(t)
	f.classifier.interruptions["Where are you located?"] = true
	ctx := context.Background()

	_, err := f.service.HandleMessage(ctx, "s1", "Book an appointment", "")
	require.NoError(t, err)
	_, err = f.service.HandleMessage(ctx, "s1", "John Doe", "")
	require.NoError(t, err)

	reply, err := f.service.HandleMessage(ctx, "s1", "Where are you located?", "")
	require.NoError(t, err)

	assert.Contains(t, reply.Reply, "We are located in Park Ridge.")
	assert.Contains(t, strings.ToLower(reply.Reply), "what is your phone number?")

	sess := f.store.GetOrCreate("s1")
	assert.Equal(t, booking.StateAskPhone, sess.State)
	assert.Equal(t, "John Doe", sess.Slots[booking.FieldName])
}

func TestHandleMessageFallbackOfferAccepted(t *testing.T) {
	f := newServiceFixture(t)
	f.oracle.answers = []string{"Good question — this actually depends on a few details.\nInstead of guessing, I can connect you with the right person who can guide you properly.\nShall I arrange a quick call?"}
	service := "Teeth Whitening"
	f.extractor.result = booking.ExtractedSlots{Service: &service}
	ctx := context.Background()

	reply, err := f.service.HandleMessage(ctx, "s1", "Do you do payment plans for whitening?", "")
	require.NoError(t, err)
	assert.Contains(t, reply.Reply, FallbackTriggerPhrase)

	sess := f.store.GetOrCreate("s1")
	require.True(t, sess.LastFallbackOffered)

	oracleCallsBefore := f.oracle.calls
	reply, err = f.service.HandleMessage(ctx, "s1", "sure, go ahead", "")
	require.NoError(t, err)

	assert.Equal(t, oracleCallsBefore, f.oracle.calls, "accepting the offer bypasses the oracle")
	assert.Contains(t, reply.Reply, "what is your name?")
	assert.Equal(t, booking.StateAskName, sess.State)
	assert.Equal(t, "Teeth Whitening", sess.Slots[booking.FieldService])
	assert.False(t, sess.LastFallbackOffered, "the offer is consumed")
}

func TestHandleMessageAffirmativeWithoutOfferGoesToOracle(t *testing.T) {
	f := newServiceFixture(t)

	reply, err := f.service.HandleMessage(context.Background(), "s1", "ok sure", "")
	require.NoError(t, err)
	assert.Equal(t, "We are located in Park Ridge.", reply.Reply)
	assert.Equal(t, 1, f.oracle.calls)
}

func TestHandleMessageOracleRetriesOnce(t *testing.T) {
	f := newServiceFixture(t)
	f.oracle.errs = []error{errors.New("transient")}
	f.oracle.answers = []string{"", "We are open on Saturdays."}

	reply, err := f.service.HandleMessage(context.Background(), "s1", "Are you open Saturdays?", "")
	require.NoError(t, err)
	assert.Equal(t, "We are open on Saturdays.", reply.Reply)
	assert.Equal(t, 2, f.oracle.calls)
}

func TestHandleMessageOracleHardFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.oracle.errs = []error{errors.New("down"), errors.New("still down")}

	_, err := f.service.HandleMessage(context.Background(), "s1", "Are you open Saturdays?", "")
	require.Error(t, err)

	// The failed turn leaves no transcript entries.
	sess := f.store.GetOrCreate("s1")
	assert.Empty(t, sess.History)
}

func TestHandleMessageHistoryCapped(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		_, err := f.service.HandleMessage(ctx, "s1", "Where are you located?", "")
		require.NoError(t, err)
	}
	sess := f.store.GetOrCreate("s1")
	assert.Len(t, sess.History, 20)
}

func TestHandleMessageFullBookingEndToEnd(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	turns := []string{
		"Book an appointment",
		"John Doe",
		"5551234567",
		"john@example.com",
		"Dental Cleaning",
		"2026-09-01 10:00",
		"yes",
	}
	var last *ChatReply
	for _, msg := range turns {
		var err error
		last, err = f.service.HandleMessage(ctx, "s1", msg, "")
		require.NoError(t, err, "turn %q", msg)
	}

	assert.Equal(t, "Appointment saved! We look forward to seeing you.", last.Reply)
	require.Len(t, f.sink.bookings, 1)
	assert.Equal(t, "John Doe", f.sink.bookings[0].Name)
	assert.Equal(t, booking.StateIdle, f.store.GetOrCreate("s1").State)
}
