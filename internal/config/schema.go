package config

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const schemaURL = "starteritems.schema.json"

const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "clear_inventory_before_giving_items": {"type": "boolean"},
    "starter_items": {"type": "array", "items": {"type": "string"}},
    "first_join_messages": {"$ref": "#/definitions/messages"},
    "welcome_messages": {"$ref": "#/definitions/messages"},
    "server_start_commands": {"type": "array", "items": {"type": "string"}},
    "unknown_item_policy": {"type": "string"},
    "inventory_full_policy": {"type": "string"},
    "delayed_clear_ticks": {"type": "integer", "minimum": 1}
  },
  "definitions": {
    "messages": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["text"],
        "additionalProperties": false,
        "properties": {
          "text": {"type": "string"},
          "color": {"type": ["string", "integer"]}
        }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString(schemaURL, schemaJSON)
	})
	return schema, schemaErr
}

// validateSchema checks the raw file structure before it is decoded into Config,
// so unknown keys and wrongly typed values are reported by name.
func validateSchema(raw []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	// Round-trip through JSON so the validator sees JSON value types.
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return s.Validate(v)
}
