package toolexecutor

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ParametersSchema builds the JSON Schema map of a tool's arguments, the form
// providers receive as function parameters.
func ParametersSchema(spec ToolSpec) map[string]interface{} {
	properties := make(map[string]interface{}, len(spec.Parameters))
	required := []string{}

	for _, param := range spec.Parameters {
		paramSchema := map[string]interface{}{
			"type":        jsonType(param.Type),
			"description": param.Description,
		}
		if param.Default != nil {
			paramSchema["default"] = param.Default
		}
		if len(param.Enum) > 0 {
			paramSchema["enum"] = param.Enum
		}

		properties[param.Name] = paramSchema

		if param.Required {
			required = append(required, param.Name)
		}
	}

	schemaMap := map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           properties,
	}
	if len(required) > 0 {
		schemaMap["required"] = required
	}
	return schemaMap
}

// generateJSONSchema returns the schema map together with its compiled form,
// which re-checks coerced arguments before a plan is accepted.
func generateJSONSchema(spec ToolSpec) (map[string]interface{}, *gojsonschema.Schema, error) {
	schemaMap := ParametersSchema(spec)

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
	if err != nil {
		return nil, nil, err
	}

	return schemaMap, schema, nil
}

func jsonType(t ParamType) string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeBoolean:
		return "boolean"
	default:
		return "string"
	}
}

// validateAgainstSchema validates coerced arguments against a compiled schema
func validateAgainstSchema(schema *gojsonschema.Schema, args Args) error {
	if schema == nil {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(map[string]interface{}(args)))
	if err != nil {
		return err
	}

	if !result.Valid() {
		errors := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			errors = append(errors, e.String())
		}
		return fmt.Errorf("schema validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}
