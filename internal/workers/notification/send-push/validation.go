package sendpush

import (
	"delivery-notifier/internal/common/errors"
	"delivery-notifier/internal/common/validation"
)

var inputSchemaDefinition = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"userIds"},
	"properties": map[string]interface{}{
		"userIds": map[string]interface{}{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]interface{}{"type": "string", "minLength": 1},
		},
		// callers send null for "not set"; only userIds is mandatory
		"title": map[string]interface{}{"type": []interface{}{"string", "null"}},
		"body":  map[string]interface{}{"type": []interface{}{"string", "null"}},
		"data":  map[string]interface{}{"type": []interface{}{"object", "null"}},
	},
}

var inputSchema = validation.MustCompile(inputSchemaDefinition)

// GetInputSchema exposes the compiled request schema to the HTTP layer.
func GetInputSchema() *validation.Schema {
	return inputSchema
}

// ValidateInput checks a decoded request. Violations come back as VALIDATION_FAILED.
func ValidateInput(doc interface{}) error {
	res, err := inputSchema.Validate(doc)
	if err != nil {
		return errors.NewValidationError(err.Error())
	}
	if !res.Valid {
		return errors.NewValidationError(res.Error())
	}
	return nil
}

// uniqueIDs drops duplicates and keeps first-seen order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
