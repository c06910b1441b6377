package conversation

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Lakshya-akoode/my-cn-bot/internal/booking"
	"github.com/Lakshya-akoode/my-cn-bot/pkg/logging"
)

// cancelishTokens, sent as the whole message, never count as interruptions;
// cancellation is decided before the interruption check runs.
var cancelishTokens = []string{"cancel", "stop", "exit", "quit"}

// statesExpectingLongAnswers are the stages where even a one- or two-word
// message can be a question rather than an answer, so the classifier is
// always consulted.
var statesExpectingLongAnswers = map[booking.State]struct{}{
	booking.StateAskService:      {},
	booking.StateAskEditField:    {},
	booking.StateAskCancelReason: {},
}

// Classifier decides whether a mid-booking message answers the pending
// question or changes the subject. It errs on the side of "answer": any
// classifier failure keeps the booking flow moving.
type Classifier struct {
	llm    LLMClient
	logger *logging.Logger
}

func NewClassifier(llm LLMClient, logger *logging.Logger) *Classifier {
	if llm == nil {
		panic("conversation: classifier requires an llm client")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Classifier{llm: llm, logger: logger}
}

var _ booking.InterruptionClassifier = (*Classifier)(nil)

func (c *Classifier) IsInterruption(ctx context.Context, message string, state booking.State) bool {
	msg := strings.ToLower(strings.TrimSpace(message))
	for _, tok := range cancelishTokens {
		if msg == tok {
			return false
		}
	}

	if len(strings.Fields(msg)) < 3 {
		if _, ok := statesExpectingLongAnswers[state]; !ok {
			// Short tokens are names, numbers and dates, not questions.
			return false
		}
	}

	tracer := otel.Tracer("conversation")
	ctx, span := tracer.Start(ctx, "classifier.is_interruption")
	defer span.End()
	span.SetAttributes(attribute.String("session.state", string(state)))

	prompt := fmt.Sprintf(interruptionPromptTemplate, state, message)
	resp, err := c.llm.Complete(ctx, LLMRequest{
		Messages:  []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
		MaxTokens: 8,
	})
	if err != nil {
		c.logger.Warn("conversation: interruption check failed, treating as answer",
			"state", state, "error", err)
		return false
	}

	verdict := strings.ToLower(strings.TrimSpace(resp.Text))
	return strings.HasPrefix(verdict, "true")
}
