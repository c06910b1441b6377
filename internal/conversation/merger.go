package conversation

import (
	"math/rand"
	"strings"
	"sync"

	"github.com/Lakshya-akoode/my-cn-bot/internal/booking"
)

var transitionPhrases = []string{
	"Anyway, back to your booking,",
	"Getting back to where we were,",
	"Continuing with your appointment,",
	"Now, let's get back on track,",
}

// Merger stitches an informational answer together with the pending booking
// question so an interruption never strands the flow. The random source is
// injected so replies are reproducible under test.
type Merger struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewMerger(rng *rand.Rand) *Merger {
	if rng == nil {
		panic("conversation: merger requires a random source")
	}
	return &Merger{rng: rng}
}

// Merge rewrites the "arrange a call" offer for mid-booking turns, then
// appends a transition phrase and the session's resume question. The
// returned uiAction comes from the resolved prompt.
func (m *Merger) Merge(answer string, s *booking.Session) (string, string) {
	if strings.Contains(answer, FallbackTriggerPhrase) {
		answer = midBookingFallbackReply
	}

	prompt := booking.Resolve(s)

	m.mu.Lock()
	phrase := transitionPhrases[m.rng.Intn(len(transitionPhrases))]
	m.mu.Unlock()

	merged := answer + "\n\n" + phrase + " " + strings.ToLower(prompt.ResumeMessage)
	return merged, prompt.UIAction
}
