package conversation

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lakshya-akoode/my-cn-bot/internal/booking"
)

func askPhoneSession() *booking.Session {
	s := &booking.Session{
		ID:    "m1",
		State: booking.StateAskPhone,
		Slots: map[booking.Field]string{booking.FieldName: "John"},
	}
	return s
}

func TestMergeAppendsTransitionAndResume(t *testing.T) {
	m := NewMerger(rand.New(rand.NewSource(1)))
	s := askPhoneSession()

	merged, uiAction := m.Merge("We are located in Park Ridge.", s)

	assert.True(t, strings.HasPrefix(merged, "We are located in Park Ridge.\n\n"))
	assert.Empty(t, uiAction)

	// Exactly one known transition phrase, followed by the lower-cased
	// resume question.
	var matched bool
	for _, phrase := range transitionPhrases {
		if strings.Contains(merged, phrase+" what is your phone number?") {
			matched = true
		}
	}
	assert.True(t, matched, "merged reply %q", merged)
}

func TestMergeDeterministicWithSeed(t *testing.T) {
	a := NewMerger(rand.New(rand.NewSource(7)))
	b := NewMerger(rand.New(rand.NewSource(7)))

	mergedA, _ := a.Merge("answer", askPhoneSession())
	mergedB, _ := b.Merge("answer", askPhoneSession())
	assert.Equal(t, mergedA, mergedB)
}

func TestMergeRewritesFallbackOffer(t *testing.T) {
	m := NewMerger(rand.New(rand.NewSource(1)))
	s := askPhoneSession()

	answer := "Good question — this actually depends on a few details.\nInstead of guessing, I can connect you with the right person who can guide you properly.\nShall I arrange a quick call?"
	merged, _ := m.Merge(answer, s)

	assert.NotContains(t, merged, FallbackTriggerPhrase)
	assert.Contains(t, strings.ToLower(merged), "doctor can explain")
	assert.Contains(t, strings.ToLower(merged), "what is your phone number?")
}

func TestMergePropagatesUIAction(t *testing.T) {
	m := NewMerger(rand.New(rand.NewSource(1)))
	s := &booking.Session{
		ID:    "m2",
		State: booking.StateAskDate,
		Slots: map[booking.Field]string{
			booking.FieldName:    "John",
			booking.FieldPhone:   "5551234",
			booking.FieldEmail:   "j@example.com",
			booking.FieldService: "Botox",
		},
	}

	merged, uiAction := m.Merge("We open at 10 AM.", s)
	require.Equal(t, booking.UIActionDatePicker, uiAction)
	assert.Contains(t, strings.ToLower(merged), "when would you like to come in?")
}
