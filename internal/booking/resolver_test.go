package booking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionWith(state State, slots map[Field]string) *Session {
	s := newSession("test")
	s.State = state
	for k, v := range slots {
		s.Slots[k] = v
	}
	return s
}

func TestResolveAsksNameFirst(t *testing.T) {
	s := sessionWith(StateAskName, nil)
	p := Resolve(s)
	assert.Equal(t, "Sure! I can help you with that. What is your name?", p.Message)
	assert.Equal(t, "What is your name?", p.ResumeMessage)
	assert.Empty(t, p.UIAction)
	assert.Equal(t, StateAskName, s.State)
}

func TestResolvePersonalizesWithService(t *testing.T) {
	s := sessionWith(StateAskName, map[Field]string{FieldService: "Botox"})
	p := Resolve(s)
	assert.Equal(t, "I can definitely help you book a Botox. First, what is your name?", p.Message)
}

func TestResolveSkipsFilledSlots(t *testing.T) {
	s := sessionWith(StateAskName, map[Field]string{
		FieldName:  "John Doe",
		FieldPhone: "5551234",
	})
	p := Resolve(s)
	assert.Equal(t, "Got it. What is your email address?", p.Message)
	assert.Equal(t, StateAskEmail, s.State, "skipping must advance the state")
}

func TestResolveIdempotent(t *testing.T) {
	s := sessionWith(StateAskName, map[Field]string{
		FieldName:  "John",
		FieldPhone: "5551234",
		FieldEmail: "j@example.com",
	})
	first := Resolve(s)
	second := Resolve(s)
	assert.Equal(t, first, second)
	assert.Equal(t, StateAskService, s.State)
}

func TestResolveDateQuestionCarriesDatePicker(t *testing.T) {
	s := sessionWith(StateAskDate, map[Field]string{FieldName: "John"})
	p := Resolve(s)
	assert.Equal(t, UIActionDatePicker, p.UIAction)
	assert.Equal(t, "And when would you like to come in? (Date and Time)", p.Message)

	s = sessionWith(StateAskDate, map[Field]string{FieldService: "Botox"})
	p = Resolve(s)
	assert.Equal(t, "When would you like to schedule your Botox? (Date and Time)", p.Message)
}

func TestResolveConfirmSummary(t *testing.T) {
	s := sessionWith(StateAskName, map[Field]string{
		FieldName:    "John",
		FieldPhone:   "5551234",
		FieldEmail:   "j@example.com",
		FieldService: "Botox",
		FieldDate:    "2026-09-01 10:00",
	})
	p := Resolve(s)
	require.Equal(t, StateConfirm, s.State)
	assert.True(t, strings.HasPrefix(p.Message, "Please confirm details:"))
	for _, part := range []string{"- Name: John", "- Phone: 5551234", "- Email: j@example.com", "- Service: Botox", "- Date: 2026-09-01 10:00"} {
		assert.Contains(t, p.Message, part)
	}
	assert.Contains(t, p.Message, "Type 'yes' to confirm or 'cancel' to stop.")
}

func TestResolveFixedPrompts(t *testing.T) {
	p := Resolve(sessionWith(StateAskEditField, map[Field]string{FieldName: "John"}))
	assert.Equal(t, "What would you like to update? You can say name, phone, email, service or date.", p.Message)

	p = Resolve(sessionWith(StateAskCancelReason, nil))
	assert.Equal(t, "I'm sorry to hear that. Could you tell me the reason for cancelling?", p.Message)
}
