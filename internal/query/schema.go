package query

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/sells-group/lead-scorer/internal/model"
)

// prefsSchema describes the JSON accepted in the prefs request parameter.
const prefsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "industries": {"type": "array", "items": {"type": "string"}},
    "countries":  {"type": "array", "items": {"type": "string"}},
    "states":     {"type": "array", "items": {"type": "string"}},
    "rev_min":    {"type": ["number", "null"], "minimum": 0},
    "rev_max":    {"type": ["number", "null"], "minimum": 0}
  }
}`

var prefsSchemaLoader = gojsonschema.NewStringLoader(prefsSchema)

// validatePrefsJSON checks raw prefs JSON against prefsSchema. Syntax errors
// and schema violations come back as field errors under "prefs".
func validatePrefsJSON(raw []byte) []model.FieldError {
	result, err := gojsonschema.Validate(prefsSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return []model.FieldError{{Field: "prefs", Message: fmt.Sprintf("malformed JSON: %v", err)}}
	}
	if result.Valid() {
		return nil
	}

	var errs []model.FieldError
	for _, re := range result.Errors() {
		field := "prefs"
		if f := re.Field(); f != "" && f != "(root)" {
			field = "prefs." + f
		}
		errs = append(errs, model.FieldError{Field: field, Message: re.Description()})
	}
	return errs
}
