package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Lakshya-akoode/my-cn-bot/pkg/logging"
)

// ExtractedSlots is the slot extractor's result. Nil fields were not found.
type ExtractedSlots struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Service *string `json:"service"`
	Date    *string `json:"date"`
}

// SlotExtractor pulls booking details out of free text, using recent
// transcript entries to resolve references like "this service".
type SlotExtractor interface {
	Extract(ctx context.Context, message string, history []string) (ExtractedSlots, error)
}

// InterruptionClassifier decides whether a mid-flow message answers the
// pending question or is an unrelated query that should go to retrieval.
type InterruptionClassifier interface {
	IsInterruption(ctx context.Context, message string, state State) bool
}

// Reply is a booking-flow response. UIAction, when set, is a rendering hint
// for the web widget.
type Reply struct {
	Message  string
	UIAction string
}

// Machine drives the booking dialogue for one session at a time.
type Machine struct {
	extractor  SlotExtractor
	classifier InterruptionClassifier
	sink       Sink
	logger     *logging.Logger
	now        func() time.Time
}

// NewMachine wires the dialogue state machine with its capabilities.
func NewMachine(extractor SlotExtractor, classifier InterruptionClassifier, sink Sink, logger *logging.Logger) *Machine {
	if extractor == nil {
		panic("booking: slot extractor cannot be nil")
	}
	if classifier == nil {
		panic("booking: interruption classifier cannot be nil")
	}
	if sink == nil {
		panic("booking: sink cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Machine{
		extractor:  extractor,
		classifier: classifier,
		sink:       sink,
		logger:     logger,
		now:        time.Now,
	}
}

// Step advances the session with one inbound message. A nil reply means the
// message is not part of the booking flow and should be answered by
// retrieval instead. The caller must hold the session's turn lock.
//
// The decision order is load-bearing: cancellation beats interruption
// detection, which beats edit detection, which beats treating the message as
// a slot answer.
func (m *Machine) Step(ctx context.Context, s *Session, raw string) (*Reply, error) {
	if s.State == StateIdle {
		return m.stepIdle(ctx, s, raw)
	}

	// Declining at final confirmation is handled by the confirm branch below
	// and records no reason; the dedicated cancel flow collects one.
	confirmDecline := s.State == StateConfirm && IsDeclineToken(raw)
	if HasCancelKeyword(raw) && s.State != StateAskCancelReason && !confirmDecline {
		s.State = StateAskCancelReason
		return promptReply(Resolve(s)), nil
	}

	if m.classifier.IsInterruption(ctx, raw, s.State) {
		return nil, nil
	}

	if s.State != StateAskEditField && s.State != StateAskCancelReason && HasEditKeyword(raw) {
		if field, ok := MatchEditField(raw); ok {
			delete(s.Slots, field)
			s.State = askStateFor(field)
			return promptReply(Resolve(s)), nil
		}
		s.State = StateAskEditField
		return promptReply(Resolve(s)), nil
	}

	switch s.State {
	case StateAskCancelReason:
		return m.finishCancellation(ctx, s, raw)

	case StateAskEditField:
		if field, ok := MatchEditFieldLoose(raw); ok {
			delete(s.Slots, field)
			s.State = askStateFor(field)
			return promptReply(Resolve(s)), nil
		}
		return promptReply(Resolve(s)), nil

	case StateAskName, StateAskPhone, StateAskEmail, StateAskService, StateAskDate:
		field, _ := fieldForAskState(s.State)
		s.Slots[field] = raw
		s.State = nextAskState(s.State)
		return promptReply(Resolve(s)), nil

	case StateConfirm:
		return m.stepConfirm(ctx, s, raw)
	}

	return nil, nil
}

// stepIdle checks for booking intent and, when present, seeds slots from
// whatever the opening message already contains.
func (m *Machine) stepIdle(ctx context.Context, s *Session, raw string) (*Reply, error) {
	if !HasBookingKeyword(raw) {
		return nil, nil
	}

	extracted, err := m.extractor.Extract(ctx, raw, s.RecentHistory(5))
	if err != nil {
		// Degrade to asking every slot in order.
		m.logger.Warn("booking: slot extraction failed", "session_id", s.ID, "error", err)
		extracted = ExtractedSlots{}
	}
	m.seedSlots(s, extracted)

	s.State = StateAskName
	return promptReply(Resolve(s)), nil
}

func (m *Machine) seedSlots(s *Session, extracted ExtractedSlots) {
	setIf := func(field Field, value *string) {
		if value == nil {
			return
		}
		v := strings.TrimSpace(*value)
		if v == "" {
			return
		}
		if field == FieldService && IsGenericService(v) {
			return
		}
		s.Slots[field] = v
	}
	setIf(FieldName, extracted.Name)
	setIf(FieldPhone, extracted.Phone)
	setIf(FieldEmail, extracted.Email)
	setIf(FieldService, extracted.Service)
	setIf(FieldDate, extracted.Date)
}

// StartFromOffer jumps straight into the flow after the user accepted the
// "arrange a quick call" offer, recovering the discussed service from recent
// history when the extractor can find one.
func (m *Machine) StartFromOffer(ctx context.Context, s *Session, raw string) *Reply {
	extracted, err := m.extractor.Extract(ctx, raw, s.RecentHistory(5))
	if err != nil {
		m.logger.Warn("booking: offer-accept extraction failed", "session_id", s.ID, "error", err)
		extracted = ExtractedSlots{}
	}
	s.Slots = make(map[Field]string)
	m.seedSlots(s, ExtractedSlots{Service: extracted.Service})

	s.State = StateAskName
	return promptReply(Resolve(s))
}

func (m *Machine) finishCancellation(ctx context.Context, s *Session, reason string) (*Reply, error) {
	rec := CancellationRecord{
		Name:      s.Slots[FieldName],
		Phone:     s.Slots[FieldPhone],
		Email:     s.Slots[FieldEmail],
		Service:   s.Slots[FieldService],
		Date:      s.Slots[FieldDate],
		Reason:    reason,
		CreatedAt: m.now().UTC(),
		IPAddress: s.ClientAddr,
	}
	if err := m.sink.SaveCancellation(ctx, rec); err != nil {
		return nil, fmt.Errorf("booking: save cancellation: %w", err)
	}

	s.Reset()
	return &Reply{Message: "Your booking has been cancelled. Thank you for letting us know."}, nil
}

func (m *Machine) stepConfirm(ctx context.Context, s *Session, raw string) (*Reply, error) {
	switch {
	case IsConfirmToken(raw):
		rec := BookingRecord{
			Name:      s.Slots[FieldName],
			Phone:     s.Slots[FieldPhone],
			Email:     s.Slots[FieldEmail],
			Service:   s.Slots[FieldService],
			Date:      s.Slots[FieldDate],
			CreatedAt: m.now().UTC(),
			IPAddress: s.ClientAddr,
		}
		if err := m.sink.SaveBooking(ctx, rec); err != nil {
			return nil, fmt.Errorf("booking: save booking: %w", err)
		}
		s.Reset()
		return &Reply{Message: "Appointment saved! We look forward to seeing you."}, nil

	case IsDeclineToken(raw):
		s.Reset()
		return &Reply{Message: "Booking cancelled."}, nil

	default:
		return &Reply{Message: "Please type 'yes' to save the appointment or 'cancel' to stop."}, nil
	}
}

func promptReply(p Prompt) *Reply {
	return &Reply{Message: p.Message, UIAction: p.UIAction}
}
