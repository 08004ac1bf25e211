package component

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/c360/neurostreams/errors"
)

// SchemaDirectives is the parsed form of a `schema` struct tag. Components
// annotate their config fields with these tags and the registry turns them
// into the ConfigSchema served to the control surface.
type SchemaDirectives struct {
	Type        string   // one of the schema types; the only mandatory directive
	Description string   // operator-facing text; callers fall back to the field name
	Category    string   // "basic" or "advanced" grouping in the UI
	Default     any      // raw tag string until convertDefault resolves it
	Enum        []string // allowed values for enum fields
	Min         *int     // inclusive numeric bound, nil when unset
	Max         *int     // inclusive numeric bound, nil when unset
	Required    bool     // field must appear in supplied config
	ReadOnly    bool     // display-only in the UI
	Editable    bool     // user-tunable PortDefinition field
}

// PortFieldInfo tells the UI how to render one PortDefinition field.
type PortFieldInfo struct {
	Type     string `json:"type"`
	Editable bool   `json:"editable"`
}

// validSchemaTypes lists the field types the control surface knows how to
// render.
var validSchemaTypes = map[string]bool{
	"string": true,
	"int":    true,
	"bool":   true,
	"float":  true,
	"enum":   true,
	"array":  true,
	"object": true,
	"ports":  true,
}

// ParseSchemaTag parses one `schema` tag into directives.
//
// A tag is a comma-separated list of directives. Value directives use
// key:value and flags stand alone. Enum lists separate their values with
// pipes:
//
//	schema:"type:float,description:Confidence needed to activate,min:0,max:1"
//	schema:"type:int,description:UDP listen port,min:1024,max:65535,default:7400"
//	schema:"type:enum,description:Log level,enum:debug|info|warn|error,default:info"
//	schema:"required,type:string,description:Subject commands publish on"
//
// Value directives: type, description, category, default, min, max, enum.
// Flags: readonly, editable, required. The type directive is mandatory and
// everything else is optional. Unknown directives, malformed values, and an
// empty tag are errors.
func ParseSchemaTag(tag string) (SchemaDirectives, error) {
	var directives SchemaDirectives

	if tag == "" {
		return directives, errors.WrapInvalid(
			fmt.Errorf("empty schema tag"),
			"SchemaTag", "ParseSchemaTag", "tag validation",
		)
	}

	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, hasValue := strings.Cut(part, ":")
		if err := directives.apply(strings.TrimSpace(key), strings.TrimSpace(value), hasValue); err != nil {
			return directives, err
		}
	}

	if directives.Type == "" {
		return directives, errors.WrapInvalid(
			fmt.Errorf("missing type directive"),
			"SchemaTag", "ParseSchemaTag", "tag validation",
		)
	}

	return directives, nil
}

// apply records a single directive. Directives without a value are flags;
// the rest carry key:value pairs.
func (d *SchemaDirectives) apply(key, value string, hasValue bool) error {
	if !hasValue {
		switch key {
		case "readonly":
			d.ReadOnly = true
		case "editable":
			d.Editable = true
		case "required":
			d.Required = true
		default:
			return errors.WrapInvalid(
				fmt.Errorf("unknown flag: %s", key),
				"SchemaTag", "ParseSchemaTag", "flag parsing",
			)
		}
		return nil
	}

	if value == "" {
		return errors.WrapInvalid(
			fmt.Errorf("empty value for directive: %s", key),
			"SchemaTag", "ParseSchemaTag", "directive parsing",
		)
	}

	switch key {
	case "type":
		if !validSchemaTypes[value] {
			return errors.WrapInvalid(
				fmt.Errorf("invalid type: %s", value),
				"SchemaTag", "ParseSchemaTag", "type validation",
			)
		}
		d.Type = value

	case "description":
		d.Description = value

	case "category":
		if value != "basic" && value != "advanced" {
			return errors.WrapInvalid(
				fmt.Errorf("invalid category: %s (must be 'basic' or 'advanced')", value),
				"SchemaTag", "ParseSchemaTag", "category validation",
			)
		}
		d.Category = value

	case "default":
		// Kept as a string here; convertDefault resolves it once the
		// field type is known.
		d.Default = value

	case "min":
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.WrapInvalid(
				fmt.Errorf("invalid min value: %s", value),
				"SchemaTag", "ParseSchemaTag", "min parsing",
			)
		}
		d.Min = &n

	case "max":
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.WrapInvalid(
				fmt.Errorf("invalid max value: %s", value),
				"SchemaTag", "ParseSchemaTag", "max parsing",
			)
		}
		d.Max = &n

	case "enum":
		values := strings.Split(value, "|")
		for i := range values {
			values[i] = strings.TrimSpace(values[i])
		}
		d.Enum = values

	default:
		return errors.WrapInvalid(
			fmt.Errorf("unknown directive: %s", key),
			"SchemaTag", "ParseSchemaTag", "directive validation",
		)
	}

	return nil
}

// GenerateConfigSchema builds a ConfigSchema by reflecting over a config
// struct's tags. Components call it once from a package-level var so the
// reflection cost is paid at init, not per discovery request:
//
//	type Config struct {
//	    OnThreshold float64 `json:"onThreshold" schema:"type:float,description:Confidence needed to activate,min:0,max:1"`
//	    UDPPort     int     `json:"udpPort" schema:"type:int,description:Headset listen port,min:1024,max:65535,default:7400"`
//	}
//
//	var configSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))
//
// A field is included when it carries both a json tag and a schema tag.
// Fields tagged json:"-", fields without a schema tag, and fields whose tag
// fails to parse are left out rather than failing the whole struct. Fields
// typed "ports" get PortDefinition metadata attached so the UI can tell
// editable port settings from fixed ones. Pointer types are dereferenced;
// non-struct types yield an empty schema.
func GenerateConfigSchema(configType reflect.Type) ConfigSchema {
	schema := ConfigSchema{
		Properties: make(map[string]PropertySchema),
		Required:   []string{},
	}

	if configType.Kind() == reflect.Ptr {
		configType = configType.Elem()
	}
	if configType.Kind() != reflect.Struct {
		return schema
	}

	for i := 0; i < configType.NumField(); i++ {
		field := configType.Field(i)

		name := jsonFieldName(field)
		if name == "" {
			continue
		}

		tag := field.Tag.Get("schema")
		if tag == "" {
			continue
		}
		directives, err := ParseSchemaTag(tag)
		if err != nil {
			// A broken tag drops its field, not the whole schema.
			continue
		}

		prop := PropertySchema{
			Type:        directives.Type,
			Description: directives.Description,
			Category:    directives.Category,
			Default:     convertDefault(directives.Default, directives.Type),
			Minimum:     directives.Min,
			Maximum:     directives.Max,
			Enum:        directives.Enum,
		}
		if prop.Description == "" {
			prop.Description = name
		}
		if directives.Type == "ports" {
			prop.PortFields = GeneratePortFieldSchema()
		}

		schema.Properties[name] = prop
		if directives.Required {
			schema.Required = append(schema.Required, name)
		}
	}

	return schema
}

// GeneratePortFieldSchema reflects over PortDefinition to describe which of
// its fields an operator may edit. Wiring like the message subject is
// tunable; identity fields like the port name are fixed by the component and
// rendered read-only. Untagged fields fall back to a read-only string so a
// new PortDefinition field shows up in the UI without becoming editable by
// accident.
func GeneratePortFieldSchema() map[string]PortFieldInfo {
	portType := reflect.TypeOf(PortDefinition{})
	fields := make(map[string]PortFieldInfo, portType.NumField())

	for i := 0; i < portType.NumField(); i++ {
		field := portType.Field(i)

		name := jsonFieldName(field)
		if name == "" {
			continue
		}

		tag := field.Tag.Get("schema")
		if tag == "" {
			fields[name] = PortFieldInfo{Type: "string", Editable: false}
			continue
		}
		directives, err := ParseSchemaTag(tag)
		if err != nil {
			continue
		}

		fields[name] = PortFieldInfo{
			Type:     directives.Type,
			Editable: directives.Editable,
		}
	}

	return fields
}

// jsonFieldName returns the wire name from a field's json tag, or "" when
// the field is omitted from serialization.
func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	return name
}

// convertDefault turns the raw default captured during tag parsing into a
// value matching the declared type. A default that does not parse yields nil
// rather than a wrong-typed value in the schema.
func convertDefault(value any, fieldType string) any {
	if value == nil {
		return nil
	}

	s, ok := value.(string)
	if !ok {
		return value
	}

	switch fieldType {
	case "string", "enum":
		return s

	case "int":
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		return nil

	case "bool":
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		return nil

	case "float":
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return nil

	case "array":
		// A comma inside the tag would end the directive, so array
		// defaults carry at most one element.
		if s == "" {
			return []string{}
		}
		return []string{s}

	case "object", "ports":
		// Structured defaults come from config files, not tags.
		return nil

	default:
		return s
	}
}
