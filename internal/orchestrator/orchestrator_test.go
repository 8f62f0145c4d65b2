package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jabber-tools/nlptestrunner/internal/executor"
	"github.com/jabber-tools/nlptestrunner/internal/model"
)

func TestBuildBackendMissingDialogflowKey(t *testing.T) {
	suite := &model.Suite{Type: model.SuiteDialogflow, Config: map[string]string{}}
	_, err := buildBackend(suite)
	require.Error(t, err)
	require.Contains(t, err.Error(), "credentials_file config value not found")
}

func TestBuildBackendMissingVAPKeys(t *testing.T) {
	suite := &model.Suite{Type: model.SuiteVAP, Config: map[string]string{}}
	_, err := buildBackend(suite)
	require.Error(t, err)
	msg := err.Error()
	require.Contains(t, msg, "vap_access_token config value not found")
	require.Contains(t, msg, "vap_url config value not found")
	require.Contains(t, msg, "vap_svc_account_email config value not found")
	require.Contains(t, msg, "vap_svc_account_password config value not found")
}

func TestBuildBackendUnknownSuiteType(t *testing.T) {
	suite := &model.Suite{Type: model.SuiteType("bogus")}
	_, err := buildBackend(suite)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Unknown suite type found: bogus")
}

func TestCloneTestStampsExecIndexAndIsolatesAssertions(t *testing.T) {
	original := &model.Test{
		Name: "t",
		Assertions: []*model.Assertion{
			{UserSays: "hi", BotRespondsWith: []string{"Welcome"}},
		},
	}
	clone := cloneTest(original, 7)
	require.Equal(t, 7, clone.ExecIndex)
	require.Equal(t, 0, original.ExecIndex)

	clone.Assertions[0].Outcome = model.AssertionOutcome{Kind: model.AssertionOk}
	require.Equal(t, model.AssertionUnset, original.Assertions[0].Outcome.Kind, "executor mutation must not leak back into the suite's original Test")
}

// fakeBackend returns an empty response and no intent name, so every turn
// fails the intent match and tests with assertions end Ko; a test with no
// assertions ends Ok. Either way each test reaches a terminal result.
type fakeBackend struct{}

func (fakeBackend) Invoke(ctx context.Context, utterance, convID, lang string) (string, string, error) {
	return `{}`, "", nil
}

func TestRunPublishesExactlyOnePerTest(t *testing.T) {
	suite := &model.Suite{
		Name: "s",
		Type: model.SuiteDialogflow,
		Tests: []*model.Test{
			{Name: "a", Assertions: []*model.Assertion{{UserSays: "hi", BotRespondsWith: []string{""}}}},
			{Name: "b", Assertions: []*model.Assertion{{UserSays: "hi", BotRespondsWith: []string{""}}}},
			{Name: "c", Assertions: nil},
		},
	}

	results := make(chan *model.Test, len(suite.Tests))

	o := &Orchestrator{suite: suite, results: results}
	for i, tst := range suite.Tests {
		clone := cloneTest(tst, i)
		o.executors = append(o.executors, executor.New(clone, fakeBackend{}, results))
	}

	out, err := o.Run(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for _, res := range out {
		require.NotEqual(t, model.Unset, res.Result)
	}
}
