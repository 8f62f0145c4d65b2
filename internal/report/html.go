package report

import (
	"html/template"
	"io"

	"github.com/jabber-tools/nlptestrunner/internal/model"
)

const htmlReportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.SuiteName}} — test report</title>
<style>
body { font-family: -apple-system, sans-serif; margin: 2rem; color: #222; }
h1 { font-size: 1.2rem; }
.summary { color: #666; margin-bottom: 1rem; }
details { border: 1px solid #ddd; border-radius: 4px; margin-bottom: 0.5rem; padding: 0.5rem 0.75rem; }
details summary { cursor: pointer; font-weight: 600; }
.ok { color: #1a7f37; }
.ko { color: #c4291c; }
table { border-collapse: collapse; width: 100%; margin-top: 0.5rem; }
td, th { border: 1px solid #e2e2e2; padding: 4px 8px; text-align: left; font-size: 0.9rem; }
pre { white-space: pre-wrap; background: #f6f8fa; padding: 0.5rem; border-radius: 4px; }
</style>
</head>
<body>
<h1>{{.SuiteName}}</h1>
<div class="summary">{{.Total}} tests, {{.Passed}} passed, {{.Failed}} failed</div>
{{range .Tests}}
<details {{if eq .Result "Ko"}}open{{end}}>
<summary class="{{if eq .Result "Ok"}}ok{{else}}ko{{end}}">{{.Name}} — {{.Result}}</summary>
<table>
<tr><th>userSays</th><th>accepted intents</th><th>outcome</th><th>checks</th></tr>
{{range .Assertions}}
<tr>
<td>{{.UserSays}}</td>
<td>{{range $i, $intent := .BotRespondsWith}}{{if $i}}, {{end}}{{$intent}}{{end}}</td>
<td>{{.OutcomeLabel}}</td>
<td>{{.ErrorMessage}}</td>
</tr>
{{end}}
</table>
{{if .RawResponse}}
<details><summary>raw response</summary><pre>{{.RawResponse}}</pre></details>
{{end}}
</details>
{{end}}
</body>
</html>
`

type htmlTest struct {
	Name        string
	Result      string
	Assertions  []htmlAssertion
	RawResponse string
}

type htmlAssertion struct {
	UserSays        string
	BotRespondsWith []string
	OutcomeLabel    string
	ErrorMessage    string
	RawResponse     string
}

type htmlData struct {
	SuiteName string
	Total     int
	Passed    int
	Failed    int
	Tests     []htmlTest
}

// WriteHTML renders a single self-contained HTML document with one
// collapsible section per test.
func WriteHTML(w io.Writer, suiteName string, tests []*model.Test) error {
	tmpl, err := template.New("report").Parse(htmlReportTemplate)
	if err != nil {
		return err
	}

	data := htmlData{SuiteName: suiteName}
	for _, t := range tests {
		ht := htmlTest{Name: t.Name, Result: t.Result.String()}
		if t.Result == model.Ok {
			data.Passed++
		} else {
			data.Failed++
		}
		for _, a := range t.Assertions {
			ha := htmlAssertion{
				UserSays:        a.UserSays,
				BotRespondsWith: a.BotRespondsWith,
				RawResponse:     a.Outcome.RawResponse,
			}
			switch a.Outcome.Kind {
			case model.AssertionOk:
				ha.OutcomeLabel = "ok"
			case model.AssertionKoIntentNameMismatch:
				ha.OutcomeLabel = "intent mismatch"
			case model.AssertionKoResponseCheckError:
				ha.OutcomeLabel = "response check failed"
			default:
				ha.OutcomeLabel = "unset"
			}
			if a.Outcome.Err != nil {
				ha.ErrorMessage = a.Outcome.Err.Error()
			}
			if ha.RawResponse != "" {
				ht.RawResponse = ha.RawResponse
			}
			ht.Assertions = append(ht.Assertions, ha)
		}
		data.Total++
		data.Tests = append(data.Tests, ht)
	}

	return tmpl.Execute(w, data)
}
