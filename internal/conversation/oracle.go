package conversation

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Lakshya-akoode/my-cn-bot/pkg/logging"
)

// Oracle answers informational questions by retrieving the most relevant
// site chunks and prompting the LLM with them as the only allowed context.
type Oracle struct {
	retriever Retriever
	llm       LLMClient
	clinicID  string
	topK      int
	logger    *logging.Logger
}

func NewOracle(retriever Retriever, llm LLMClient, clinicID string, topK int, logger *logging.Logger) *Oracle {
	if retriever == nil {
		panic("conversation: oracle requires a retriever")
	}
	if llm == nil {
		panic("conversation: oracle requires an llm client")
	}
	if topK <= 0 {
		topK = 4
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Oracle{
		retriever: retriever,
		llm:       llm,
		clinicID:  clinicID,
		topK:      topK,
		logger:    logger,
	}
}

// Answer produces a grounded reply to a free-text question.
func (o *Oracle) Answer(ctx context.Context, question string) (string, error) {
	tracer := otel.Tracer("conversation")
	ctx, span := tracer.Start(ctx, "oracle.answer")
	defer span.End()

	passages, err := o.retriever.Search(ctx, o.clinicID, question, o.topK)
	if err != nil {
		// Answering with no context still produces the safe fallback reply.
		o.logger.Warn("conversation: retrieval failed, answering without context", "error", err)
		passages = nil
	}
	span.SetAttributes(attribute.Int("retrieval.passages", len(passages)))

	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", strings.Join(passages, "\n"), question)
	resp, err := o.llm.Complete(ctx, LLMRequest{
		System:   []string{systemPrompt},
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("conversation: answer generation: %w", err)
	}
	return resp.Text, nil
}
