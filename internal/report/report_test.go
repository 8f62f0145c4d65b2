package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jabber-tools/nlptestrunner/internal/model"
	"github.com/jabber-tools/nlptestrunner/internal/nlperr"
)

func sampleTests() []*model.Test {
	return []*model.Test{
		{
			Name:   "greets",
			Result: model.Ok,
			Assertions: []*model.Assertion{
				{UserSays: "hi", BotRespondsWith: []string{"Welcome"}, Outcome: model.AssertionOutcome{Kind: model.AssertionOk, RawResponse: "{}"}},
			},
		},
		{
			Name:   "fails",
			Result: model.Ko,
			Assertions: []*model.Assertion{
				{
					UserSays:        "bye",
					BotRespondsWith: []string{"Goodbye"},
					Outcome: model.AssertionOutcome{
						Kind:        model.AssertionKoIntentNameMismatch,
						RawResponse: `{"queryResult":{}}`,
						Err:         nlperr.New(nlperr.KindInvalidAssertion, "No intent name received. Expected: 'Goodbye'"),
					},
				},
			},
		},
	}
}

func TestWriteConsoleMentionsBothOutcomes(t *testing.T) {
	var buf bytes.Buffer
	WriteConsole(&buf, "suite", sampleTests())
	out := buf.String()
	require.Contains(t, out, "greets")
	require.Contains(t, out, "fails")
	require.Contains(t, out, "No intent name received")
	require.Contains(t, out, "1 passed, 1 failed")
}

func TestWriteJSONRoundTripsErrorKind(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleTests()))
	require.Contains(t, buf.String(), `"errorKind": "InvalidTestAssertionEvaluation"`)
	require.Contains(t, buf.String(), `"result": "Ko"`)
}

func TestWriteHTMLContainsSuiteAndFailureDetails(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, "suite", sampleTests()))
	out := buf.String()
	require.Contains(t, out, "<title>suite")
	require.Contains(t, out, "No intent name received")
	require.Contains(t, out, "raw response")
}
