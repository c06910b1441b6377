package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Lakshya-akoode/my-cn-bot/internal/booking"
	"github.com/Lakshya-akoode/my-cn-bot/pkg/logging"
)

// Extractor pulls booking fields out of free text with a single LLM call.
// Failures degrade to an empty result so the flow falls back to asking for
// each field explicitly.
type Extractor struct {
	llm    LLMClient
	logger *logging.Logger
}

func NewExtractor(llm LLMClient, logger *logging.Logger) *Extractor {
	if llm == nil {
		panic("conversation: extractor requires an llm client")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Extractor{llm: llm, logger: logger}
}

var _ booking.SlotExtractor = (*Extractor)(nil)

func (e *Extractor) Extract(ctx context.Context, message string, history []string) (booking.ExtractedSlots, error) {
	tracer := otel.Tracer("conversation")
	ctx, span := tracer.Start(ctx, "extractor.extract")
	defer span.End()

	prompt := fmt.Sprintf(extractionPromptTemplate, strings.Join(history, "\n"), message)
	resp, err := e.llm.Complete(ctx, LLMRequest{
		Messages:  []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
		MaxTokens: 256,
	})
	if err != nil {
		return booking.ExtractedSlots{}, fmt.Errorf("conversation: slot extraction: %w", err)
	}

	payload := extractJSONPayload(resp.Text)
	var slots booking.ExtractedSlots
	if err := json.Unmarshal([]byte(payload), &slots); err != nil {
		e.logger.Warn("conversation: extractor returned non-JSON output, treating as empty",
			"error", err)
		span.SetAttributes(attribute.Bool("extractor.parse_failed", true))
		return booking.ExtractedSlots{}, nil
	}
	return slots, nil
}

// extractJSONPayload strips markdown code fences the model may wrap its JSON
// in, then narrows to the outermost braces.
func extractJSONPayload(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	} else if strings.Contains(s, "```") {
		parts := strings.SplitN(s, "```", 3)
		if len(parts) >= 2 {
			s = parts[1]
		}
	}
	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start >= 0 && end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}
