package canvas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// canvasSchema describes the JSON Canvas format as Obsidian writes it.
// Unknown extra properties and node types are allowed; only structural
// requirements are enforced so plugin node kinds and future format additions
// do not break validation.
const canvasSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"nodes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "type", "x", "y", "width", "height"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"type": {"type": "string", "minLength": 1},
					"x": {"type": "number"},
					"y": {"type": "number"},
					"width": {"type": "number"},
					"height": {"type": "number"},
					"text": {"type": "string"},
					"file": {"type": "string"},
					"url": {"type": "string"},
					"label": {"type": "string"}
				}
			}
		},
		"edges": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "fromNode", "toNode"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"fromNode": {"type": "string"},
					"toNode": {"type": "string"},
					"fromSide": {"type": "string", "enum": ["top", "right", "bottom", "left"]},
					"toSide": {"type": "string", "enum": ["top", "right", "bottom", "left"]},
					"label": {"type": "string"}
				}
			}
		}
	}
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("canvas.schema.json", strings.NewReader(canvasSchema)); err != nil {
		panic(fmt.Sprintf("canvas schema resource: %v", err))
	}
	return compiler.MustCompile("canvas.schema.json")
}

// validateSchema checks raw canvas JSON against the format schema.
func validateSchema(data []byte) error {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("invalid canvas JSON: %w", err)
	}

	if err := compiledSchema.Validate(doc); err != nil {
		return fmt.Errorf("canvas schema: %w", err)
	}
	return nil
}
