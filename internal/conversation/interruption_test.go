package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Lakshya-akoode/my-cn-bot/internal/booking"
)

func TestCancelishTokensNeverInterrupt(t *testing.T) {
	llm := &fakeLLM{responses: []string{"True"}}
	c := NewClassifier(llm, nil)

	for _, msg := range []string{"cancel", "Stop", " exit ", "quit"} {
		assert.False(t, c.IsInterruption(context.Background(), msg, booking.StateAskCancelReason), "message %q", msg)
	}
	// The LLM was never consulted.
	assert.Empty(t, llm.requests)
}

func TestMessagesContainingCancelWordsAreStillClassified(t *testing.T) {
	llm := &fakeLLM{responses: []string{"False", "False"}}
	c := NewClassifier(llm, nil)
	ctx := context.Background()

	// Only the bare token short-circuits; a sentence that merely contains
	// one is a real answer and goes through the classifier.
	assert.False(t, c.IsInterruption(ctx, "I need to stop coming here", booking.StateAskCancelReason))
	assert.False(t, c.IsInterruption(ctx, "the exit on main street is closed", booking.StateAskCancelReason))
	assert.Len(t, llm.requests, 2)
}

func TestShortAnswersSkipClassifier(t *testing.T) {
	llm := &fakeLLM{responses: []string{"True"}}
	c := NewClassifier(llm, nil)

	assert.False(t, c.IsInterruption(context.Background(), "John Doe", booking.StateAskName))
	assert.False(t, c.IsInterruption(context.Background(), "5551234", booking.StateAskPhone))
	assert.Empty(t, llm.requests)
}

func TestShortMessagesStillClassifiedInOpenStates(t *testing.T) {
	llm := &fakeLLM{responses: []string{"True", "True", "True"}}
	c := NewClassifier(llm, nil)
	ctx := context.Background()

	assert.True(t, c.IsInterruption(ctx, "prices?", booking.StateAskService))
	assert.True(t, c.IsInterruption(ctx, "prices?", booking.StateAskEditField))
	assert.True(t, c.IsInterruption(ctx, "prices?", booking.StateAskCancelReason))
	assert.Len(t, llm.requests, 3)
}

func TestClassifierVerdictParsing(t *testing.T) {
	cases := []struct {
		verdict string
		want    bool
	}{
		{"True", true},
		{"true", true},
		{"True.", true},
		{"False", false},
		{"false", false},
		{"I think so", false},
	}
	for _, tc := range cases {
		llm := &fakeLLM{responses: []string{tc.verdict}}
		c := NewClassifier(llm, nil)
		got := c.IsInterruption(context.Background(), "Where are you located?", booking.StateAskPhone)
		assert.Equal(t, tc.want, got, "verdict %q", tc.verdict)
	}
}

func TestClassifierFailureTreatedAsAnswer(t *testing.T) {
	llm := &fakeLLM{err: errors.New("upstream down")}
	c := NewClassifier(llm, nil)

	assert.False(t, c.IsInterruption(context.Background(), "What are your opening hours today?", booking.StateAskEmail))
}
