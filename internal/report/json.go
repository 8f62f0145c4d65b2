package report

import (
	"encoding/json"
	"io"

	"github.com/jabber-tools/nlptestrunner/internal/model"
	"github.com/jabber-tools/nlptestrunner/internal/nlperr"
)

// jsonTest is the serializable projection of model.Test — model.Test itself
// carries a plain `error` in AssertionOutcome, which encoding/json cannot
// render usefully on its own. Each assertion's response checks are not
// included in the projection.
type jsonTest struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Lang        string          `json:"lang"`
	ExecIndex   int             `json:"execIndex"`
	Result      string          `json:"result"`
	Assertions  []jsonAssertion `json:"assertions"`
}

type jsonAssertion struct {
	UserSays        string   `json:"userSays"`
	BotRespondsWith []string `json:"botRespondsWith"`
	Outcome         string   `json:"outcome"`
	RawResponse     string   `json:"rawResponse,omitempty"`
	ErrorKind       string   `json:"errorKind,omitempty"`
	ErrorMessage    string   `json:"errorMessage,omitempty"`
}

func toJSONTests(tests []*model.Test) []jsonTest {
	out := make([]jsonTest, 0, len(tests))
	for _, t := range tests {
		out = append(out, jsonTest{
			Name:        t.Name,
			Description: t.Description,
			Lang:        t.Lang,
			ExecIndex:   t.ExecIndex,
			Result:      t.Result.String(),
			Assertions:  toJSONAssertions(t.Assertions),
		})
	}
	return out
}

func toJSONAssertions(assertions []*model.Assertion) []jsonAssertion {
	out := make([]jsonAssertion, 0, len(assertions))
	for _, a := range assertions {
		ja := jsonAssertion{
			UserSays:        a.UserSays,
			BotRespondsWith: a.BotRespondsWith,
			RawResponse:     a.Outcome.RawResponse,
		}
		switch a.Outcome.Kind {
		case model.AssertionOk:
			ja.Outcome = "ok"
		case model.AssertionKoIntentNameMismatch:
			ja.Outcome = "koIntentNameMismatch"
		case model.AssertionKoResponseCheckError:
			ja.Outcome = "koResponseCheckError"
		default:
			ja.Outcome = "unset"
		}
		if a.Outcome.Err != nil {
			ja.ErrorMessage = a.Outcome.Err.Error()
			if nerr, ok := a.Outcome.Err.(*nlperr.Error); ok {
				ja.ErrorKind = string(nerr.Kind)
			}
		}
		out = append(out, ja)
	}
	return out
}

// WriteJSON pretty-prints the full suite result as a JSON array of tests.
func WriteJSON(w io.Writer, tests []*model.Test) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toJSONTests(tests))
}
