package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// builtinCallers and builtinAligners name the plugins with a compiled
// options schema. Any other name skips schema validation here; caller.New
// and aligner.New then accept it only if it was added with Register.
var builtinCallers = map[string]string{"real": realCallerSchema, "no_op": noOpSchema}
var builtinAligners = map[string]string{"mappy": mappyAlignerSchema, "mappy_rs": mappyRSAlignerSchema, "no_op": noOpSchema}

const noOpSchema = `{"type": "object"}`

const realCallerSchema = `{
  "type": "object",
  "properties": {
    "address": {"type": "string"},
    "model": {"type": "string"}
  },
  "required": ["address", "model"]
}`

const mappyAlignerSchema = `{
  "type": "object",
  "properties": {
    "reference": {"type": "string"}
  },
  "required": ["reference"]
}`

const mappyRSAlignerSchema = `{
  "type": "object",
  "properties": {
    "reference": {"type": "string"},
    "threads": {"type": "integer", "minimum": 1}
  },
  "required": ["reference", "threads"]
}`

// validatePluginOptions marshals options to JSON and checks them against
// the named built-in plugin's compiled schema, folding any violation into
// a descriptive ConfigInvalid-style message naming the offending field.
func validatePluginOptions(role, name string, options map[string]any, schemas map[string]string) []string {
	raw, ok := schemas[name]
	if !ok {
		return nil // not a built-in: no schema to check against
	}

	compiler := jsonschema.NewCompiler()
	url := "mem://" + role + "/" + name + ".json"
	if err := compiler.AddResource(url, strings.NewReader(raw)); err != nil {
		return []string{fmt.Sprintf("%s %q: internal schema error: %v", role, name, err)}
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return []string{fmt.Sprintf("%s %q: internal schema error: %v", role, name, err)}
	}

	encoded, err := json.Marshal(options)
	if err != nil {
		return []string{fmt.Sprintf("%s %q options: %v", role, name, err)}
	}
	var payload any
	if err := json.Unmarshal(encoded, &payload); err != nil {
		return []string{fmt.Sprintf("%s %q options: %v", role, name, err)}
	}

	if err := schema.Validate(payload); err != nil {
		return []string{fmt.Sprintf("%s %q options invalid: %v", role, name, err)}
	}
	return nil
}
