// Package backend implements the NLP backend adapter capability: given an
// utterance, a conversation id, and a language tag, invoke a live backend
// and return its response as JSON text. Two variants share the capability —
// Dialogflow direct and the VAP gateway — dispatched behind one interface so
// the executor and worker pool never need to know which backend a test
// targets.
package backend

import "context"

// Backend is implemented once per suite type. Implementations mint their
// credentials eagerly at construction time (NewDialogflow/NewVAP) so that
// authentication failures abort the suite before any worker starts, per the
// orchestrator's failure-isolation contract.
type Backend interface {
	// Invoke sends utterance as the next turn of conversation convID and
	// returns the backend's response body as canonical JSON text, plus the
	// real intent display name read from that response.
	Invoke(ctx context.Context, utterance, convID, lang string) (responseJSON, intentName string, err error)
}
