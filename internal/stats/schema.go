package stats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// documentSchema describes the persisted snapshot document. Version support
// and blank locale codes are checked by FromDocument.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "strings_total", "states"],
  "additionalProperties": false,
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "strings_total": {"type": "integer", "minimum": 0},
    "states": {
      "type": "object",
      "propertyNames": {"enum": ["approved", "pending", "new"]},
      "additionalProperties": {"$ref": "#/$defs/bucket"}
    }
  },
  "$defs": {
    "tally": {
      "type": "object",
      "required": ["translations_count", "words_count"],
      "properties": {
        "translations_count": {"type": "integer", "minimum": 0},
        "words_count": {"type": "integer", "minimum": 0}
      }
    },
    "bucket": {
      "allOf": [{"$ref": "#/$defs/tally"}],
      "properties": {
        "locales": {
          "type": "object",
          "propertyNames": {"minLength": 1},
          "additionalProperties": {"$ref": "#/$defs/tally"}
        }
      }
    }
  }
}`

var compiledDocumentSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("stats_snapshot.json", strings.NewReader(documentSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile("stats_snapshot.json")
})

// validateDocument checks a raw payload against the document schema.
func validateDocument(data []byte) error {
	schema, err := compiledDocumentSchema()
	if err != nil {
		return fmt.Errorf("%w: schema: %v", ErrSnapshotInvalid, err)
	}
	var raw any
	// UseNumber keeps integers distinguishable from fractions.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotInvalid, err)
	}
	if err := schema.Validate(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotInvalid, err)
	}
	return nil
}
