// Package orchestrator wires a parsed suite to its backend, constructs one
// executor per test, and drives them through the worker pool.
package orchestrator

import (
	"context"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/jabber-tools/nlptestrunner/internal/backend"
	"github.com/jabber-tools/nlptestrunner/internal/executor"
	"github.com/jabber-tools/nlptestrunner/internal/model"
	"github.com/jabber-tools/nlptestrunner/internal/nlperr"
	"github.com/jabber-tools/nlptestrunner/internal/pool"
)

// Orchestrator owns the constructed executors for one suite run and the
// receiving end of their shared result channel.
type Orchestrator struct {
	suite     *model.Suite
	executors []*executor.Executor
	results   chan *model.Test

	mu   sync.Mutex
	pool *pool.Pool
}

// New validates the suite's backend configuration, mints the backend
// adapter, and constructs one executor per test with its execution index
// stamped. Any construction failure — missing config keys or credential
// acquisition — aborts before a worker ever starts.
func New(suite *model.Suite) (*Orchestrator, error) {
	be, err := buildBackend(suite)
	if err != nil {
		return nil, err
	}

	results := make(chan *model.Test, len(suite.Tests))
	executors := make([]*executor.Executor, 0, len(suite.Tests))
	for i, t := range suite.Tests {
		clone := cloneTest(t, i)
		executors = append(executors, executor.New(clone, be, results))
	}

	return &Orchestrator{suite: suite, executors: executors, results: results}, nil
}

func cloneTest(t *model.Test, execIndex int) *model.Test {
	assertions := make([]*model.Assertion, len(t.Assertions))
	for i, a := range t.Assertions {
		clone := *a
		assertions[i] = &clone
	}
	return &model.Test{
		Name:        t.Name,
		Description: t.Description,
		Lang:        t.Lang,
		Assertions:  assertions,
		ExecIndex:   execIndex,
	}
}

// requiredKey fetches a config value or appends a GenericError with the
// spec's exact missing-key message.
func requiredKey(cfg map[string]string, key string, errs *multierror.Error) (string, *multierror.Error) {
	v, ok := cfg[key]
	if !ok || v == "" {
		errs = multierror.Append(errs, nlperr.Generic(key+" config value not found"))
	}
	return v, errs
}

func buildBackend(suite *model.Suite) (backend.Backend, error) {
	var errs *multierror.Error

	switch suite.Type {
	case model.SuiteDialogflow:
		var credsFile string
		credsFile, errs = requiredKey(suite.Config, "credentials_file", errs)
		if errs.ErrorOrNil() != nil {
			return nil, errs.ErrorOrNil()
		}
		return backend.NewDialogflow(credsFile, suite.Config["http_proxy"])

	case model.SuiteVAP:
		var accessToken, baseURL, email string
		accessToken, errs = requiredKey(suite.Config, "vap_access_token", errs)
		baseURL, errs = requiredKey(suite.Config, "vap_url", errs)
		email, errs = requiredKey(suite.Config, "vap_svc_account_email", errs)

		password := suite.Config["vap_svc_account_password"]
		if password == "" {
			password = os.Getenv("VAP_SVC_ACCOUNT_PASSWORD")
		}
		if password == "" {
			errs = multierror.Append(errs, nlperr.Generic("vap_svc_account_password config value not found"))
		}

		if errs.ErrorOrNil() != nil {
			return nil, errs.ErrorOrNil()
		}

		return backend.NewVAP(backend.VAPConfig{
			BaseURL:             baseURL,
			AccessToken:         accessToken,
			ServiceAccountEmail: email,
			ServiceAccountPass:  password,
			ChannelID:           suite.Config["vap_channel_id"],
			Country:             suite.Config["vap_country"],
			ContextExtra:        suite.Config["vap_context_extra"],
			HTTPProxy:           suite.Config["http_proxy"],
		})

	default:
		return nil, nlperr.Newf(nlperr.KindGeneric, "Unknown suite type found: %s", suite.Type)
	}
}

// Run submits every executor to the pool and collects exactly one result
// per executor, in whatever order they complete, or returns early with an
// error once ctx is cancelled. ctx is threaded all the
// way down into each job so a caller cancellation reaches an in-flight
// backend call, not just the pool's between-job Cancel check.
func (o *Orchestrator) Run(ctx context.Context, workers int) ([]*model.Test, error) {
	p := pool.New(ctx, workers)
	o.mu.Lock()
	o.pool = p
	o.mu.Unlock()

	for _, ex := range o.executors {
		e := ex
		p.Submit(func(ctx context.Context) {
			e.Run(ctx)
		})
	}

	out := make([]*model.Test, 0, len(o.executors))
	for range o.executors {
		select {
		case t, ok := <-o.results:
			if !ok {
				p.Shutdown()
				return out, nlperr.New(nlperr.KindGeneric, "result channel disconnected before all tests reported")
			}
			out = append(out, t)
		case <-ctx.Done():
			// Jobs skipped after Cancel never publish, so stop waiting.
			p.Shutdown()
			return out, nlperr.Wrap(nlperr.KindGeneric, "suite run cancelled before all tests reported", ctx.Err())
		}
	}

	p.Shutdown()
	return out, nil
}

// Cancel flips the underlying pool's shared running flag so jobs still in
// the queue are skipped; a job already running is not interrupted by it.
// It is a no-op if called before Run has started the
// pool. Wired to the binary's SIGINT handler — see cmd/nlptest.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pool != nil {
		o.pool.Cancel()
	}
}

// Suite returns the parsed suite this orchestrator was built from.
func (o *Orchestrator) Suite() *model.Suite { return o.suite }
