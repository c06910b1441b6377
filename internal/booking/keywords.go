package booking

import (
	"regexp"
	"strings"
)

// Keyword sets are matched against the lower-cased message. Booking, cancel
// and edit detection are substring matches; edit-target fields require whole
// words so "I changed my email" does not hit "name".
var (
	bookingKeywords = []string{"book", "appointment", "schedule", "visit", "reservation"}
	cancelKeywords  = []string{"cancel", "stop", "exit", "quit", "abort", "no booking"}
	editKeywords    = []string{"edit", "change", "modify", "update", "correct", "wrong"}
)

var confirmTokens = map[string]struct{}{
	"yes": {}, "y": {}, "confirm": {}, "ok": {},
}

var declineTokens = map[string]struct{}{
	"no": {}, "cancel": {}, "stop": {},
}

// fieldWords lists the words that identify each editable field, in canonical
// slot order so earlier fields win on ambiguous messages.
var fieldWords = []struct {
	field Field
	words []string
}{
	{FieldName, []string{"name"}},
	{FieldPhone, []string{"phone", "number"}},
	{FieldEmail, []string{"email", "mail"}},
	{FieldService, []string{"service"}},
	{FieldDate, []string{"date", "time"}},
}

var fieldWordPatterns = buildFieldWordPatterns()

func buildFieldWordPatterns() map[Field]*regexp.Regexp {
	patterns := make(map[Field]*regexp.Regexp, len(fieldWords))
	for _, fw := range fieldWords {
		patterns[fw.field] = regexp.MustCompile(`\b(?:` + strings.Join(fw.words, "|") + `)\b`)
	}
	return patterns
}

// genericServiceNames are placeholder terms the extractor must not accept as
// a service slot value.
var genericServiceNames = map[string]struct{}{
	"appointment": {}, "booking": {}, "consultation": {},
	"service": {}, "visit": {}, "checkup": {},
}

func containsAny(msg string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(msg, k) {
			return true
		}
	}
	return false
}

// HasBookingKeyword reports booking intent in an idle message.
func HasBookingKeyword(message string) bool {
	return containsAny(strings.ToLower(message), bookingKeywords)
}

// HasCancelKeyword reports a request to abandon the booking flow.
func HasCancelKeyword(message string) bool {
	return containsAny(strings.ToLower(message), cancelKeywords)
}

// HasEditKeyword reports a request to change an already-collected field.
func HasEditKeyword(message string) bool {
	return containsAny(strings.ToLower(message), editKeywords)
}

// MatchEditField identifies the field an edit request targets using
// whole-word matching, in canonical slot order.
func MatchEditField(message string) (Field, bool) {
	msg := strings.ToLower(message)
	for _, fw := range fieldWords {
		if fieldWordPatterns[fw.field].MatchString(msg) {
			return fw.field, true
		}
	}
	return "", false
}

// MatchEditFieldLoose identifies a field by plain substring match. Used in
// the edit-disambiguation state, where the user was just asked which field
// to change and terse answers like "the date" are expected.
func MatchEditFieldLoose(message string) (Field, bool) {
	msg := strings.ToLower(message)
	for _, fw := range fieldWords {
		for _, w := range fw.words {
			if strings.Contains(msg, w) {
				return fw.field, true
			}
		}
	}
	return "", false
}

// IsConfirmToken reports whether the message is an exact commit token.
func IsConfirmToken(message string) bool {
	_, ok := confirmTokens[strings.ToLower(strings.TrimSpace(message))]
	return ok
}

// IsDeclineToken reports whether the message is an exact decline token for
// the confirmation prompt.
func IsDeclineToken(message string) bool {
	_, ok := declineTokens[strings.ToLower(strings.TrimSpace(message))]
	return ok
}

var affirmativePattern = regexp.MustCompile(`\b(?:yes|yeah|yep|sure|ok|okay|y|please|go ahead|arrange)\b`)

// HasAffirmativeToken reports whether the message accepts an offer, such as
// the "arrange a quick call" fallback.
func HasAffirmativeToken(message string) bool {
	return affirmativePattern.MatchString(strings.ToLower(message))
}

// IsGenericService reports whether a candidate service value is a
// placeholder term rather than a real service name.
func IsGenericService(service string) bool {
	_, ok := genericServiceNames[strings.ToLower(strings.TrimSpace(service))]
	return ok
}
