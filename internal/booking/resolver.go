package booking

import "fmt"

// UIActionDatePicker asks the web widget to show its date picker alongside
// the date question.
const UIActionDatePicker = "date_picker"

// Prompt is the resolver's output: the full question, a short variant used
// when resuming after an interruption, and an optional UI hint.
type Prompt struct {
	Message       string
	ResumeMessage string
	UIAction      string
}

// Resolve walks the canonical slot order from the session's current state,
// skipping states whose slot is already filled (advancing State each time it
// skips), and returns the question for the first unmet requirement. Calling
// it again without intervening mutation returns the same prompt.
func Resolve(s *Session) Prompt {
	switch s.State {
	case StateAskEditField:
		return Prompt{
			Message:       "What would you like to update? You can say name, phone, email, service or date.",
			ResumeMessage: "What would you like to update?",
		}
	case StateAskCancelReason:
		return Prompt{
			Message:       "I'm sorry to hear that. Could you tell me the reason for cancelling?",
			ResumeMessage: "Could you tell me the reason for cancelling?",
		}
	}

	for {
		switch s.State {
		case StateAskName:
			if s.Slots[FieldName] != "" {
				s.State = StateAskPhone
				continue
			}
			if service := s.Slots[FieldService]; service != "" {
				return Prompt{
					Message:       fmt.Sprintf("I can definitely help you book a %s. First, what is your name?", service),
					ResumeMessage: "What is your name?",
				}
			}
			return Prompt{
				Message:       "Sure! I can help you with that. What is your name?",
				ResumeMessage: "What is your name?",
			}

		case StateAskPhone:
			if s.Slots[FieldPhone] != "" {
				s.State = StateAskEmail
				continue
			}
			return Prompt{
				Message:       fmt.Sprintf("Thanks %s. What is your phone number?", s.Slots[FieldName]),
				ResumeMessage: "What is your phone number?",
			}

		case StateAskEmail:
			if s.Slots[FieldEmail] != "" {
				s.State = StateAskService
				continue
			}
			return Prompt{
				Message:       "Got it. What is your email address?",
				ResumeMessage: "What is your email address?",
			}

		case StateAskService:
			if s.Slots[FieldService] != "" {
				s.State = StateAskDate
				continue
			}
			return Prompt{
				Message:       fmt.Sprintf("Thanks %s. What service are you interested in?", s.Slots[FieldName]),
				ResumeMessage: "What service are you interested in?",
			}

		case StateAskDate:
			if s.Slots[FieldDate] != "" {
				s.State = StateConfirm
				continue
			}
			message := "And when would you like to come in? (Date and Time)"
			if service := s.Slots[FieldService]; service != "" {
				message = fmt.Sprintf("When would you like to schedule your %s? (Date and Time)", service)
			}
			return Prompt{
				Message:       message,
				ResumeMessage: "When would you like to come in?",
				UIAction:      UIActionDatePicker,
			}

		case StateConfirm:
			return Prompt{
				Message: fmt.Sprintf(
					"Please confirm details:\n- Name: %s\n- Phone: %s\n- Email: %s\n- Service: %s\n- Date: %s\n\nType 'yes' to confirm or 'cancel' to stop.",
					s.Slots[FieldName], s.Slots[FieldPhone], s.Slots[FieldEmail], s.Slots[FieldService], s.Slots[FieldDate],
				),
				ResumeMessage: "Could you confirm your booking details?",
			}

		default:
			return Prompt{Message: "Something went wrong."}
		}
	}
}
