// Package validation checks extractor decision payloads against a JSON schema
// before they are trusted by the conversation manager.
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// decisionSchema describes the structured output the extractor must produce.
// A field-presence/type check is all that is needed; values are interpreted
// by the merge policy.
const decisionSchema = `{
	"type": "object",
	"required": ["responseToUser", "updatedPreferences", "isReady", "isValidDestination"],
	"properties": {
		"responseToUser": {"type": "string"},
		"updatedPreferences": {
			"type": "object",
			"properties": {
				"destination": {"type": ["string", "null"]},
				"duration":    {"type": ["string", "null"]},
				"interests":   {"type": ["string", "null"]},
				"budget":      {"type": ["string", "null"]}
			},
			"additionalProperties": false
		},
		"missingInfo": {
			"type": "array",
			"items": {"type": "string"}
		},
		"isReady":            {"type": "boolean"},
		"isValidDestination": {"type": "boolean"},
		"isOffTopic":         {"type": "boolean"}
	}
}`

var decisionSchemaLoader = gojsonschema.NewStringLoader(decisionSchema)

// ValidateDecisionPayload validates raw extractor output. A non-nil error
// means the payload must be treated as an extraction failure.
func ValidateDecisionPayload(raw []byte) error {
	documentLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(decisionSchemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("decision validation failed: %v", errs)
	}

	return nil
}
