package component

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError represents a validation error for a specific configuration field.
// It provides structured error information that can be displayed to users
// and mapped to specific form fields in the UI.
//
// Error codes are standardized across frontend and backend:
//   - "required": Field is required but missing
//   - "min": Numeric value below minimum threshold
//   - "max": Numeric value above maximum threshold
//   - "enum": Value not in allowed enum values
//   - "type": Value doesn't match expected type (string, int, bool, etc.)
type ValidationError struct {
	Field   string `json:"field"`   // Name of the field that failed validation
	Message string `json:"message"` // Human-readable error message
	Code    string `json:"code"`    // Machine-readable error code (see above)
}

// ValidateConfig validates a configuration map against a ConfigSchema.
// It checks required fields, type constraints, min/max bounds, and enum values.
//
// The ConfigSchema is compiled to a draft-07 JSON Schema document and evaluated
// with gojsonschema, so components get the same validation semantics as any
// standard JSON Schema tooling. The validation is lenient - unknown fields are
// allowed to support backward compatibility and future schema evolution. Only
// explicitly defined properties are validated against their schema constraints.
//
// Returns a slice of ValidationError containing all validation failures found.
// An empty slice indicates the configuration is valid.
//
// Example usage:
//
//	schema := component.ConfigSchema{
//	    Properties: map[string]component.PropertySchema{
//	        "port": {
//	            Type:     "int",
//	            Minimum:  ptrInt(1),
//	            Maximum:  ptrInt(65535),
//	            Category: "basic",
//	        },
//	    },
//	    Required: []string{"port"},
//	}
//
//	config := map[string]any{"port": 99999}
//	errors := component.ValidateConfig(config, schema)
//	if len(errors) > 0 {
//	    // Handle validation errors
//	    fmt.Printf("Validation failed: %s\n", errors[0].Message)
//	}
func ValidateConfig(config map[string]any, schema ConfigSchema) []ValidationError {
	if config == nil {
		config = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(buildSchemaDocument(schema))
	configLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, configLoader)
	if err != nil {
		// Schema compilation failures indicate a broken component schema,
		// not a broken config. Surface them as a single error.
		return []ValidationError{{
			Field:   "",
			Message: fmt.Sprintf("schema validation failed: %v", err),
			Code:    "schema",
		}}
	}

	if result.Valid() {
		return nil
	}

	errors := make([]ValidationError, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		errors = append(errors, toValidationError(resultErr))
	}

	return errors
}

// buildSchemaDocument compiles a ConfigSchema into a draft-07 JSON Schema document
func buildSchemaDocument(schema ConfigSchema) map[string]any {
	properties := make(map[string]any, len(schema.Properties))
	for name, prop := range schema.Properties {
		properties[name] = buildPropertyDocument(prop)
	}

	document := map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": true, // Lenient: unknown fields are allowed
	}
	if len(schema.Required) > 0 {
		document["required"] = schema.Required
	}

	return document
}

// buildPropertyDocument compiles a single PropertySchema into JSON Schema keywords
func buildPropertyDocument(prop PropertySchema) map[string]any {
	doc := make(map[string]any)

	switch prop.Type {
	case "string", "enum":
		doc["type"] = "string"
	case "int":
		doc["type"] = "integer"
	case "float":
		doc["type"] = "number"
	case "bool":
		doc["type"] = "boolean"
	case "array":
		doc["type"] = "array"
	case "object", "ports":
		doc["type"] = "object"
	default:
		// Unknown property types stay unconstrained
	}

	if len(prop.Enum) > 0 {
		enum := make([]any, len(prop.Enum))
		for i, v := range prop.Enum {
			enum[i] = v
		}
		doc["enum"] = enum
	}

	// Min/Max only apply to numeric types, matching the schema contract
	if prop.Type == "int" || prop.Type == "float" {
		if prop.Minimum != nil {
			doc["minimum"] = *prop.Minimum
		}
		if prop.Maximum != nil {
			doc["maximum"] = *prop.Maximum
		}
	}

	return doc
}

// toValidationError maps a gojsonschema result error to the stable
// field/message/code contract callers assert on.
func toValidationError(resultErr gojsonschema.ResultError) ValidationError {
	field := resultErr.Field()
	details := resultErr.Details()

	switch resultErr.Type() {
	case "required":
		return ValidationError{
			Field:   field,
			Message: fmt.Sprintf("Field %q is required", field),
			Code:    "required",
		}
	case "invalid_type":
		return ValidationError{
			Field:   field,
			Message: fmt.Sprintf("Field %q must be of type %v", field, details["expected"]),
			Code:    "type",
		}
	case "number_gte":
		return ValidationError{
			Field:   field,
			Message: fmt.Sprintf("Field %q must be >= %v", field, details["min"]),
			Code:    "min",
		}
	case "number_lte":
		return ValidationError{
			Field:   field,
			Message: fmt.Sprintf("Field %q must be <= %v", field, details["max"]),
			Code:    "max",
		}
	case "enum":
		return ValidationError{
			Field:   field,
			Message: fmt.Sprintf("Field %q must be one of: %v", field, details["allowed"]),
			Code:    "enum",
		}
	default:
		return ValidationError{
			Field:   field,
			Message: resultErr.Description(),
			Code:    resultErr.Type(),
		}
	}
}

// GetPropertyValue safely extracts a property value from a configuration map.
//
// Returns the value and true if the key exists, or nil and false if the key
// is not present in the map. This function is nil-safe - passing a nil config
// will return (nil, false).
//
// Example:
//
//	config := map[string]any{"port": 8080, "host": "localhost"}
//	if port, exists := component.GetPropertyValue(config, "port"); exists {
//	    fmt.Printf("Port: %v\n", port)
//	}
func GetPropertyValue(config map[string]any, key string) (any, bool) {
	if config == nil {
		return nil, false
	}
	value, exists := config[key]
	return value, exists
}
