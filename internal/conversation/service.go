package conversation

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Lakshya-akoode/my-cn-bot/internal/booking"
	"github.com/Lakshya-akoode/my-cn-bot/internal/observability/metrics"
	"github.com/Lakshya-akoode/my-cn-bot/pkg/logging"
)

// AnswerOracle is the informational-answer capability consumed per turn.
type AnswerOracle interface {
	Answer(ctx context.Context, question string) (string, error)
}

// ChatReply is the wire-level result of one turn.
type ChatReply struct {
	Reply    string `json:"reply"`
	UIAction string `json:"ui_action,omitempty"`
}

// ChatService runs one conversation turn: booking flow first, then the
// retrieval path, then merging the two when the user was mid-booking.
// Turns for the same session id are serialized; turns across sessions run
// concurrently.
type ChatService struct {
	store        booking.Store
	machine      *booking.Machine
	oracle       AnswerOracle
	merger       *Merger
	historyLimit int
	metrics      *metrics.ChatMetrics
	logger       *logging.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

func NewChatService(store booking.Store, machine *booking.Machine, oracle AnswerOracle, merger *Merger, historyLimit int, m *metrics.ChatMetrics, logger *logging.Logger) *ChatService {
	if store == nil {
		panic("conversation: chat service requires a session store")
	}
	if machine == nil {
		panic("conversation: chat service requires a booking machine")
	}
	if oracle == nil {
		panic("conversation: chat service requires an answer oracle")
	}
	if merger == nil {
		panic("conversation: chat service requires a merger")
	}
	if historyLimit <= 0 {
		historyLimit = 20
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatService{
		store:        store,
		machine:      machine,
		oracle:       oracle,
		merger:       merger,
		historyLimit: historyLimit,
		metrics:      m,
		logger:       logger,
		tracer:       otel.Tracer("conversation"),
		now:          time.Now,
	}
}

// HandleMessage processes a single user message for a session and returns
// the assistant's reply.
func (s *ChatService) HandleMessage(ctx context.Context, sessionID, message, clientAddr string) (*ChatReply, error) {
	ctx, span := s.tracer.Start(ctx, "chat.handle_message")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	start := s.now()
	unlock := s.store.Lock(sessionID)
	defer unlock()

	sess := s.store.GetOrCreate(sessionID)
	sess.ClientAddr = clientAddr
	sess.LastSeen = s.now()

	reply, outcome, err := s.step(ctx, sess, message)
	if err != nil {
		s.metrics.ObserveTurn("error", s.now().Sub(start).Seconds())
		return nil, err
	}

	sess.AppendHistory(s.historyLimit, "User: "+message, "Bot: "+reply.Message)
	sess.LastFallbackOffered = strings.Contains(reply.Message, FallbackTriggerPhrase)

	span.SetAttributes(
		attribute.String("turn.outcome", outcome),
		attribute.String("session.state", string(sess.State)),
	)
	s.metrics.ObserveTurn(outcome, s.now().Sub(start).Seconds())
	s.logger.Info("conversation: turn handled",
		"session_id", sessionID, "outcome", outcome, "state", sess.State)

	return &ChatReply{Reply: reply.Message, UIAction: reply.UIAction}, nil
}

func (s *ChatService) step(ctx context.Context, sess *booking.Session, message string) (*booking.Reply, string, error) {
	reply, err := s.machine.Step(ctx, sess, message)
	if err != nil {
		return nil, "", err
	}
	if reply != nil {
		return reply, "booking", nil
	}

	// The machine declined the turn. An affirmative follow-up to a prior
	// "arrange a call" offer starts a booking directly, skipping retrieval.
	if sess.State == booking.StateIdle && sess.LastFallbackOffered && booking.HasAffirmativeToken(message) {
		return s.machine.StartFromOffer(ctx, sess, message), "offer_accepted", nil
	}

	answer, err := s.answerWithRetry(ctx, message)
	if err != nil {
		return nil, "", err
	}

	if sess.State != booking.StateIdle {
		merged, uiAction := s.merger.Merge(answer, sess)
		return &booking.Reply{Message: merged, UIAction: uiAction}, "answer_resumed", nil
	}
	return &booking.Reply{Message: answer}, "answer", nil
}

// answerWithRetry retries the oracle once before surfacing the failure.
func (s *ChatService) answerWithRetry(ctx context.Context, message string) (string, error) {
	answer, err := s.oracle.Answer(ctx, message)
	if err == nil {
		return answer, nil
	}
	s.logger.Warn("conversation: oracle failed, retrying once", "error", err)
	return s.oracle.Answer(ctx, message)
}
