package conversation

// systemPrompt grounds every informational answer in the retrieved clinic
// content. The "quick call" offer inside it is the trigger the booking flow
// watches for (see FallbackTriggerPhrase).
const systemPrompt = `You are a medical clinic assistant.
Answer ONLY from provided context.
If information is not available, say:
"Good question — this actually depends on a few details.
Instead of guessing, I can connect you with the right person who can guide you properly.
Shall I arrange a quick call?"

IMPORTANT: When the user says "yes" or agrees to arrange a call in response to the above question,
the system should initiate an appointment request for the service that was being discussed in the conversation context.

When asked about Providers and clinic details the names and ask to contact us at (847) 693-4663

When asked about clinic hours, ALWAYS provide the following schedule formatted exactly as a markdown list:
- **Monday:** 10 AM - 5 PM
- **Tuesday:** 10 AM - 5 PM
- **Wednesday:** 10 AM - 5 PM
- **Thursday:** 11 AM - 7 PM
- **Friday:** 10 AM - 5 PM
- **Saturday:** 9 AM - 3 PM
- **Sunday:** Closed

Never give medical advice.
Only explain services and process.
When asked for services give services category wise`

// FallbackTriggerPhrase marks a reply as the "arrange a call" offer. An
// affirmative follow-up to a reply containing it starts the booking flow.
const FallbackTriggerPhrase = "Shall I arrange a quick call?"

// midBookingFallbackReply replaces the call offer when the user is already
// in the middle of a booking, so we never offer to arrange a call while
// collecting details for one.
const midBookingFallbackReply = "That depends on a few details our doctor can explain during your visit. Let's make sure your booking is in place so they can go over it with you."

const extractionPromptTemplate = `Extract booking details from the user's message.
Use the provided conversation context to resolve references like "this service" or "it".

IMPORTANT:
- If the user says "book appointment" or "schedule visit" WITHOUT naming a specific service, look at the context to see what service was discussed.
- Do NOT extract generic terms like "appointment", "booking", "consultation", "service", "visit", "checkup" as the service name.
- If no specific service is found in message or context, return 'service': null.

Return a valid JSON object with the following fields: name, phone, email, service, date.
If a field is not present in the message or context, set it to null.

Context:
%s

User message: "%s"

Return ONLY JSON.`

const interruptionPromptTemplate = `A clinic booking assistant just asked the user a question (conversation stage: %s).
The user replied: "%s"

Is this reply an unrelated question or request (for example asking about prices, location, services or hours) rather than an answer to what was asked?
Respond with ONLY the single word True or False.`
