package component

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"reflect"

	"github.com/c360/neurostreams/errors"
)

// Platform limits applied to every component config.
const (
	MaxStringLength = 1024        // longest string value or object key
	MaxJSONSize     = 1024 * 1024 // largest raw config payload
	MinPort         = 1
	MaxPort         = 65535
)

// ConfigValidator bounds-checks raw component config before it reaches a
// factory. Limits guard the deserializer against oversized payloads, deep
// nesting, and control characters smuggled into string values.
type ConfigValidator struct {
	maxDepth     int
	maxArraySize int
	maxStringLen int
	maxJSONSize  int
}

// NewConfigValidator returns a validator with the platform limits.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		maxDepth:     10,
		maxArraySize: 1000,
		maxStringLen: MaxStringLength,
		maxJSONSize:  MaxJSONSize,
	}
}

// ValidateConfig checks raw JSON against the platform limits without
// binding it to a struct. An empty config is valid; components fall back to
// their defaults.
func (v *ConfigValidator) ValidateConfig(rawConfig json.RawMessage) error {
	if len(rawConfig) > v.maxJSONSize {
		return errors.WrapInvalid(
			fmt.Errorf("config size %d exceeds maximum %d", len(rawConfig), v.maxJSONSize),
			"ConfigValidator", "ValidateConfig", "size check")
	}
	if len(rawConfig) == 0 {
		return nil
	}

	// UseNumber defers numeric conversion until the range check runs.
	decoder := json.NewDecoder(bytes.NewReader(rawConfig))
	decoder.UseNumber()

	var config any
	if err := decoder.Decode(&config); err != nil {
		return errors.WrapInvalid(err, "ConfigValidator", "ValidateConfig", "JSON parsing")
	}

	if err := v.validateValue(config, 0); err != nil {
		return errors.Wrap(err, "ConfigValidator", "ValidateConfig", "deep validation")
	}
	return nil
}

// validateValue walks one decoded JSON value, bounding depth, sizes, and
// string content.
func (v *ConfigValidator) validateValue(value any, depth int) error {
	if depth > v.maxDepth {
		return errors.WrapInvalid(
			fmt.Errorf("JSON nesting depth %d exceeds maximum %d", depth, v.maxDepth),
			"ConfigValidator", "validateValue", "depth check")
	}

	switch val := value.(type) {
	case string:
		if len(val) > v.maxStringLen {
			return errors.WrapInvalid(
				fmt.Errorf("string length %d exceeds maximum %d", len(val), v.maxStringLen),
				"ConfigValidator", "validateValue", "string length check")
		}
		return v.validateStringContent(val)

	case json.Number:
		if _, err := val.Int64(); err == nil {
			return nil
		}
		if _, err := val.Float64(); err != nil {
			return errors.WrapInvalid(err, "ConfigValidator", "validateValue", "number range check")
		}
		return nil

	case []any:
		if len(val) > v.maxArraySize {
			return errors.WrapInvalid(
				fmt.Errorf("array size %d exceeds maximum %d", len(val), v.maxArraySize),
				"ConfigValidator", "validateValue", "array size check")
		}
		for i, elem := range val {
			if err := v.validateValue(elem, depth+1); err != nil {
				return errors.Wrap(err, "ConfigValidator", "validateValue",
					fmt.Sprintf("array element %d", i))
			}
		}
		return nil

	case map[string]any:
		for key, field := range val {
			if len(key) > v.maxStringLen {
				return errors.WrapInvalid(
					fmt.Errorf("key %q exceeds maximum length", key),
					"ConfigValidator", "validateValue", "key length check")
			}
			if err := v.validateStringContent(key); err != nil {
				return errors.Wrap(err, "ConfigValidator", "validateValue", "key content check")
			}
			if err := v.validateValue(field, depth+1); err != nil {
				return errors.Wrap(err, "ConfigValidator", "validateValue",
					fmt.Sprintf("object field %q", key))
			}
		}
		return nil

	case bool, nil:
		return nil

	default:
		return errors.WrapInvalid(
			fmt.Errorf("unexpected type %T in config", value),
			"ConfigValidator", "validateValue", "type check")
	}
}

// validateStringContent rejects NUL and control characters. Tab, newline,
// and carriage return stay legal so multi-line descriptions survive.
func (v *ConfigValidator) validateStringContent(s string) error {
	for _, r := range s {
		switch {
		case r == 0:
			return errors.WrapInvalid(
				fmt.Errorf("string contains null byte"),
				"ConfigValidator", "validateStringContent", "null byte check")
		case r < 0x20 && r != '\n' && r != '\r' && r != '\t':
			return errors.WrapInvalid(
				fmt.Errorf("string contains control character 0x%02x", r),
				"ConfigValidator", "validateStringContent", "control character check")
		}
	}
	return nil
}

// ValidateFactoryConfig is the gate every factory-bound config passes
// through before unmarshaling.
func ValidateFactoryConfig(rawConfig json.RawMessage) error {
	return NewConfigValidator().ValidateConfig(rawConfig)
}

// SafeUnmarshal validates raw JSON, unmarshals it into target, and runs the
// target's own Validate when it implements Validatable. An empty config
// leaves the target's defaults untouched.
func SafeUnmarshal(rawConfig json.RawMessage, target any) error {
	if err := ValidateFactoryConfig(rawConfig); err != nil {
		return errors.Wrap(err, "ConfigValidator", "SafeUnmarshal", "config validation")
	}
	if len(rawConfig) == 0 {
		return nil
	}

	if target == nil || reflect.TypeOf(target).Kind() != reflect.Ptr {
		return errors.WrapInvalid(
			fmt.Errorf("target must be a pointer, got %T", target),
			"ConfigValidator", "SafeUnmarshal", "target type check")
	}

	if err := json.Unmarshal(rawConfig, target); err != nil {
		return errors.WrapInvalid(err, "ConfigValidator", "SafeUnmarshal", "JSON unmarshaling")
	}

	if validatable, ok := target.(Validatable); ok {
		if err := validatable.Validate(); err != nil {
			return errors.Wrap(err, "ConfigValidator", "SafeUnmarshal", "struct validation")
		}
	}
	return nil
}

// Validatable lets a config struct veto values that are individually legal
// JSON but wrong for the component, like thresholds outside the unit range.
type Validatable interface {
	Validate() error
}

// ValidateComponentName checks factory and instance names. Names travel in
// log lines, file paths, and NATS subjects, so only alphanumerics, dash,
// underscore, and dot are allowed.
func ValidateComponentName(name string) error {
	if name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ConfigValidator", "ValidateComponentName", "empty name")
	}
	if len(name) > MaxStringLength {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ConfigValidator", "ValidateComponentName", "name too long")
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return errors.WrapInvalid(
				errors.ErrInvalidConfig, "ConfigValidator", "ValidateComponentName",
				"invalid name characters")
		}
	}
	return nil
}

// ValidatePortNumber rejects ports outside the bindable range.
func ValidatePortNumber(port int) error {
	if port < MinPort || port > MaxPort {
		return errors.WrapInvalid(
			fmt.Errorf("port %d outside valid range %d-%d", port, MinPort, MaxPort),
			"ConfigValidator", "ValidatePortNumber", "port range validation")
	}
	return nil
}

// ValidateNetworkConfig checks a socket binding before a component opens it.
// An empty address and "*" mean every interface; anything else must be a
// literal IP.
func ValidateNetworkConfig(port int, bindAddr string) error {
	if err := ValidatePortNumber(port); err != nil {
		return err
	}
	if bindAddr == "" || bindAddr == "*" {
		return nil
	}
	if net.ParseIP(bindAddr) == nil {
		return errors.WrapInvalid(
			fmt.Errorf("bind address %q is not an IP address", bindAddr),
			"ConfigValidator", "ValidateNetworkConfig", "address check")
	}
	return nil
}
