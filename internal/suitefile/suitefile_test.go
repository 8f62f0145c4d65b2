package suitefile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jabber-tools/nlptestrunner/internal/model"
)

const validSuite = `
suite-spec:
  name: welcome-suite
  type: DialogFlow
  config:
    - credentials_file: /tmp/creds.json
tests:
  - name: says hello
    desc: greets the bot
    assertions:
      - userSays: hi
        botRespondsWith: Welcome
        responseChecks:
          - expression: queryResult.action
            operator: equals
            value: input.welcome
  - name: multi intent
    assertions:
      - userSays: hi there
        botRespondsWith: [Welcome, Greeting]
`

func TestLoadValidSuite(t *testing.T) {
	suite, err := Load(strings.NewReader(validSuite))
	require.NoError(t, err)
	require.Equal(t, "welcome-suite", suite.Name)
	require.Equal(t, model.SuiteDialogflow, suite.Type)
	require.Equal(t, "/tmp/creds.json", suite.Config["credentials_file"])
	require.Len(t, suite.Tests, 2)
	require.Equal(t, []string{"Welcome"}, suite.Tests[0].Assertions[0].BotRespondsWith)
	require.Equal(t, []string{"Welcome", "Greeting"}, suite.Tests[1].Assertions[0].BotRespondsWith)
	require.Equal(t, "en", suite.Tests[1].Lang, "lang defaults to en when omitted")
}

func TestLoadMissingSuiteName(t *testing.T) {
	_, err := Load(strings.NewReader(`
suite-spec:
  type: DialogFlow
tests:
  - name: t
    assertions:
      - userSays: hi
        botRespondsWith: Welcome
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Suite name not specified")
}

func TestLoadUnknownSuiteType(t *testing.T) {
	_, err := Load(strings.NewReader(`
suite-spec:
  name: x
  type: Bogus
tests:
  - name: t
    assertions:
      - userSays: hi
        botRespondsWith: Welcome
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Unknown suite type found: Bogus")
}

func TestLoadMissingBotRespondsWith(t *testing.T) {
	_, err := Load(strings.NewReader(`
suite-spec:
  name: x
  type: DialogFlow
tests:
  - name: greets
    assertions:
      - userSays: hi
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Test assertions missing botRespondsWith for greets")
}

func TestLoadRejectsUnknownField(t *testing.T) {
	_, err := Load(strings.NewReader(`
suite-spec:
  name: x
  type: DialogFlow
  bogusField: yes
tests:
  - name: t
    assertions:
      - userSays: hi
        botRespondsWith: Welcome
`))
	require.Error(t, err)
}

func TestLoadNumericCheckValue(t *testing.T) {
	suite, err := Load(strings.NewReader(`
suite-spec:
  name: x
  type: DialogFlow
tests:
  - name: t
    assertions:
      - userSays: hi
        botRespondsWith: Welcome
        responseChecks:
          - expression: queryResult.outputContexts
            operator: length
            value: 1
`))
	require.NoError(t, err)
	check := suite.Tests[0].Assertions[0].ResponseChecks[0]
	require.Equal(t, model.ValueNumber, check.Value.Kind)
	require.Equal(t, float64(1), check.Value.Number)
}
