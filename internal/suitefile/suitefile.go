// Package suitefile parses and validates the YAML suite file format into
// the in-memory model.Suite representation.
package suitefile

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/jabber-tools/nlptestrunner/internal/model"
)

// wireSuite mirrors the top-level YAML document shape.
type wireSuite struct {
	SuiteSpec wireSuiteSpec `yaml:"suite-spec"`
	Tests     []wireTest    `yaml:"tests"`
}

type wireSuiteSpec struct {
	Name   string               `yaml:"name"`
	Type   string               `yaml:"type"`
	Config []map[string]string `yaml:"config"`
}

type wireTest struct {
	Name       string          `yaml:"name"`
	Desc       string          `yaml:"desc"`
	Lang       string          `yaml:"lang"`
	Assertions []wireAssertion `yaml:"assertions"`
}

type wireAssertion struct {
	UserSays        string              `yaml:"userSays"`
	BotRespondsWith yaml.Node           `yaml:"botRespondsWith"`
	ResponseChecks  []wireResponseCheck `yaml:"responseChecks"`
}

type wireResponseCheck struct {
	Expression string    `yaml:"expression"`
	Operator   string    `yaml:"operator"`
	Value      yaml.Node `yaml:"value"`
}

// LoadFile reads and validates a suite file from disk.
func LoadFile(path string) (*model.Suite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open suite file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a suite document with strict unknown-field rejection and
// runs the structural validations the spec requires.
func Load(r io.Reader) (*model.Suite, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read suite file: %w", err)
	}

	if err := validateSemantic(data); err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var wire wireSuite
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode suite file: %w", err)
	}

	suite, verrs := toModel(&wire)
	if verrs != nil {
		return nil, verrs
	}
	return suite, nil
}

func toModel(wire *wireSuite) (*model.Suite, error) {
	var errs *multierror.Error

	if wire.SuiteSpec.Name == "" {
		errs = multierror.Append(errs, fmt.Errorf("Suite name not specified"))
	}

	suiteType := model.SuiteType(wire.SuiteSpec.Type)
	if suiteType != model.SuiteDialogflow && suiteType != model.SuiteVAP {
		errs = multierror.Append(errs, fmt.Errorf("Unknown suite type found: %s", wire.SuiteSpec.Type))
	}

	config := make(map[string]string, len(wire.SuiteSpec.Config))
	for _, entry := range wire.SuiteSpec.Config {
		for k, v := range entry {
			config[k] = v
		}
	}

	if len(wire.Tests) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("Suite must contain at least one test"))
	}

	tests := make([]*model.Test, 0, len(wire.Tests))
	for _, wt := range wire.Tests {
		test, terr := toModelTest(wt)
		if terr != nil {
			errs = multierror.Append(errs, terr)
			continue
		}
		tests = append(tests, test)
	}

	if errs.ErrorOrNil() != nil {
		return nil, errs.ErrorOrNil()
	}

	return &model.Suite{
		Name:   wire.SuiteSpec.Name,
		Type:   suiteType,
		Config: config,
		Tests:  tests,
	}, nil
}

func toModelTest(wt wireTest) (*model.Test, error) {
	var errs *multierror.Error

	if wt.Name == "" {
		errs = multierror.Append(errs, fmt.Errorf("Test name not specified"))
	}

	if len(wt.Assertions) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("Test assertions missing botRespondsWith for %s", wt.Name))
	}

	lang := wt.Lang
	if lang == "" {
		lang = "en"
	}

	assertions := make([]*model.Assertion, 0, len(wt.Assertions))
	for _, wa := range wt.Assertions {
		a, aerr := toModelAssertion(wa, wt.Name)
		if aerr != nil {
			errs = multierror.Append(errs, aerr)
			continue
		}
		assertions = append(assertions, a)
	}

	if errs.ErrorOrNil() != nil {
		return nil, errs.ErrorOrNil()
	}

	return &model.Test{
		Name:        wt.Name,
		Description: wt.Desc,
		Lang:        lang,
		Assertions:  assertions,
	}, nil
}

func toModelAssertion(wa wireAssertion, testName string) (*model.Assertion, error) {
	if wa.UserSays == "" {
		return nil, fmt.Errorf("Assertion missing userSays for %s", testName)
	}

	intents, err := decodeIntents(wa.BotRespondsWith)
	if err != nil {
		return nil, fmt.Errorf("Test assertions missing botRespondsWith for %s: %w", testName, err)
	}
	if len(intents) == 0 {
		return nil, fmt.Errorf("Test assertions missing botRespondsWith for %s", testName)
	}

	checks := make([]model.ResponseCheck, 0, len(wa.ResponseChecks))
	for _, wc := range wa.ResponseChecks {
		check, cerr := toModelCheck(wc)
		if cerr != nil {
			return nil, cerr
		}
		checks = append(checks, check)
	}

	return &model.Assertion{
		UserSays:        wa.UserSays,
		BotRespondsWith: intents,
		ResponseChecks:  checks,
	}, nil
}

// decodeIntents accepts the botRespondsWith scalar-or-sequence shorthand: a
// single string, or a non-empty sequence of non-empty strings.
func decodeIntents(node yaml.Node) ([]string, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return nil, err
		}
		if s == "" {
			return nil, nil
		}
		return []string{s}, nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return nil, err
		}
		for _, s := range list {
			if s == "" {
				return nil, fmt.Errorf("botRespondsWith entries must be non-empty")
			}
		}
		return list, nil
	default:
		return nil, fmt.Errorf("botRespondsWith must be a string or a sequence of strings")
	}
}

func toModelCheck(wc wireResponseCheck) (model.ResponseCheck, error) {
	if wc.Expression == "" {
		return model.ResponseCheck{}, fmt.Errorf("response check missing expression")
	}

	op := model.CheckOperator(wc.Operator)
	switch op {
	case model.OpEquals, model.OpNotEquals, model.OpIncludes, model.OpJSONEquals, model.OpLength:
	default:
		return model.ResponseCheck{}, fmt.Errorf("Unknown operator found: %s", wc.Operator)
	}

	value, err := decodeCheckValue(wc.Value)
	if err != nil {
		return model.ResponseCheck{}, err
	}

	return model.ResponseCheck{Expression: wc.Expression, Operator: op, Value: value}, nil
}

func decodeCheckValue(node yaml.Node) (model.CheckValue, error) {
	switch node.Tag {
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return model.CheckValue{}, err
		}
		return model.BoolValue(b), nil
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return model.CheckValue{}, err
		}
		return model.NumberValue(f), nil
	default:
		var s string
		if err := node.Decode(&s); err != nil {
			return model.CheckValue{}, err
		}
		return model.StringValue(s), nil
	}
}
