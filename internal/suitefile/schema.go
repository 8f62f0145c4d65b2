package suitefile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// suiteSchemaJSON is the semantic shape of a suite file. It carries no enum
// on operator or suite type and no non-empty sequence constraints; those
// are checked by the domain phase in suitefile.go. Deliberately loose on presence/non-emptiness of suite-spec.name,
// suite-spec.type, and botRespondsWith — those produce the spec's
// exact-worded domain errors ("Suite name not specified", "Unknown suite
// type found: X", "Test assertions missing botRespondsWith for <name>") and
// must not be preempted by a generic schema failure. This phase only
// catches shapes a Go struct decode cannot express on its own: a response
// check's value must be a scalar of one of the four accepted kinds, and a
// config entry must be a single-key mapping.
const suiteSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "suite-spec": {
      "type": "object",
      "properties": {
        "config": {
          "type": "array",
          "items": {"type": "object", "minProperties": 1, "maxProperties": 1}
        }
      }
    },
    "tests": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "assertions": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {
                "responseChecks": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "properties": {
                      "value": {"type": ["boolean", "integer", "number", "string"]}
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

var compiledSuiteSchema *sjsonschema.Schema

func init() {
	var schemaDoc interface{}
	if err := json.Unmarshal([]byte(suiteSchemaJSON), &schemaDoc); err != nil {
		panic(fmt.Sprintf("suitefile: embedded schema is invalid JSON: %v", err))
	}
	c := sjsonschema.NewCompiler()
	if err := c.AddResource("suite-spec.json", schemaDoc); err != nil {
		panic(fmt.Sprintf("suitefile: failed to register embedded schema: %v", err))
	}
	sch, err := c.Compile("suite-spec.json")
	if err != nil {
		panic(fmt.Sprintf("suitefile: failed to compile embedded schema: %v", err))
	}
	compiledSuiteSchema = sch
}

// validateSemantic checks the raw YAML document against the embedded JSON
// Schema before domain validation runs, mirroring the teacher's
// structural/semantic/domain validation pipeline.
func validateSemantic(data []byte) error {
	var generic interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("decode suite file: %w", err)
	}

	jsonBytes, err := json.Marshal(generic)
	if err != nil {
		return fmt.Errorf("marshal suite file for schema validation: %w", err)
	}

	var doc interface{}
	if err := json.NewDecoder(bytes.NewReader(jsonBytes)).Decode(&doc); err != nil {
		return fmt.Errorf("unmarshal suite file for schema validation: %w", err)
	}

	if err := compiledSuiteSchema.Validate(doc); err != nil {
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			var causes []string
			for _, c := range flattenSchemaErrors(ve) {
				causes = append(causes, fmt.Sprintf("%s: %v", strings.Join(c.InstanceLocation, "/"), c.ErrorKind))
			}
			return fmt.Errorf("suite file failed schema validation: %s", strings.Join(causes, "; "))
		}
		return fmt.Errorf("suite file failed schema validation: %w", err)
	}
	return nil
}

func flattenSchemaErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenSchemaErrors(cause)...)
	}
	return flat
}
