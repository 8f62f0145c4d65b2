// Package executor drives one Test through its assertions, one turn at a
// time, against a single NLP backend adapter. Each Executor owns its Test
// exclusively from dispatch until it publishes a terminal result on the
// orchestrator's shared result channel.
package executor

import (
	"context"

	"github.com/google/uuid"

	"github.com/jabber-tools/nlptestrunner/internal/assertion"
	"github.com/jabber-tools/nlptestrunner/internal/backend"
	"github.com/jabber-tools/nlptestrunner/internal/model"
	"github.com/jabber-tools/nlptestrunner/internal/nlperr"
)

// Executor is the per-test state machine. ConversationID is minted once at
// construction and reused for every turn so the backend sees one continuous
// dialog.
type Executor struct {
	test           *model.Test
	backend        backend.Backend
	conversationID string
	cursor         int
	results        chan<- *model.Test
}

// New constructs an executor for test, cloning nothing — callers are
// expected to hand it a Test already cloned and stamped with its execution
// index by the orchestrator.
func New(test *model.Test, be backend.Backend, results chan<- *model.Test) *Executor {
	return &Executor{
		test:           test,
		backend:        be,
		conversationID: uuid.NewString(),
		results:        results,
	}
}

// ConversationID reports the UUID this executor minted for its test.
func (e *Executor) ConversationID() string { return e.conversationID }

// Run drives the executor to completion, publishing exactly once.
func (e *Executor) Run(ctx context.Context) {
	for {
		if done := e.executeNextAssertion(ctx); done {
			return
		}
	}
}

// executeNextAssertion implements one step of the driver operation: invoke
// the backend for the assertion at the cursor, run its response checks, and
// advance. It returns true once the test has reached a terminal state and
// has been published.
func (e *Executor) executeNextAssertion(ctx context.Context) bool {
	if e.cursor >= len(e.test.Assertions) {
		e.test.Result = model.Ok
		e.publish()
		return true
	}

	a := e.test.Assertions[e.cursor]

	lang := e.test.Lang
	if lang == "" {
		lang = "en"
	}

	raw, intentName, err := e.backend.Invoke(ctx, a.UserSays, e.conversationID, lang)
	if err != nil {
		a.Outcome = model.AssertionOutcome{Kind: model.AssertionKoIntentNameMismatch, Err: err}
		e.test.Result = model.Ko
		e.cursor = len(e.test.Assertions)
		e.publish()
		return true
	}

	if err := matchIntent(a, intentName, raw); err != nil {
		a.Outcome = model.AssertionOutcome{Kind: model.AssertionKoIntentNameMismatch, RawResponse: raw, Err: err}
		e.test.Result = model.Ko
		e.cursor = len(e.test.Assertions)
		e.publish()
		return true
	}

	for _, rc := range a.ResponseChecks {
		if cerr := assertion.Evaluate(rc, raw); cerr != nil {
			a.Outcome = model.AssertionOutcome{Kind: model.AssertionKoResponseCheckError, RawResponse: raw, Err: cerr}
			e.test.Result = model.Ko
			e.cursor = len(e.test.Assertions)
			e.publish()
			return true
		}
	}

	a.Outcome = model.AssertionOutcome{Kind: model.AssertionOk, RawResponse: raw}
	e.cursor++
	return false
}

// matchIntent applies the intent-match rule: an absent intent name and an
// unaccepted intent name are distinct, differently-worded failures.
func matchIntent(a *model.Assertion, intentName, raw string) error {
	if intentName == "" {
		return nlperr.Newf(nlperr.KindInvalidAssertion, "No intent name received. Expected: '%s'", joinIntents(a.BotRespondsWith)).WithRaw(raw)
	}
	if !a.AcceptsIntent(intentName) {
		return nlperr.Newf(nlperr.KindInvalidAssertion, "Wrong intent name received. Expected one of: '%s', got: '%s'", joinIntents(a.BotRespondsWith), intentName).WithRaw(raw)
	}
	return nil
}

func joinIntents(intents []string) string {
	out := ""
	for i, in := range intents {
		if i > 0 {
			out += ","
		}
		out += in
	}
	return out
}

func (e *Executor) publish() {
	e.results <- e.test
}
