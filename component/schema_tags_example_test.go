package component_test

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/c360/neurostreams/component"
)

// ExampleGenerateConfigSchema annotates a filter config the way pipeline
// components do and renders the schema the control surface receives.
func ExampleGenerateConfigSchema() {
	type FilterConfig struct {
		OnThreshold  float64 `json:"onThreshold"  schema:"type:float,description:Confidence needed to activate,min:0,max:1,default:0.6,category:basic"`
		OffThreshold float64 `json:"offThreshold" schema:"type:float,description:Confidence below which the gate releases,min:0,max:1,default:0.3,category:basic"`
		DebounceMs   int     `json:"debounceMs"   schema:"type:int,description:Milliseconds a candidate must hold before committing,min:0,default:150,category:advanced"`
		Subject      string  `json:"subject"      schema:"required,type:string,description:Subject commands publish on"`
	}

	// Generated once at package init; served on every discovery request.
	schema := component.GenerateConfigSchema(reflect.TypeOf(FilterConfig{}))

	out, _ := json.MarshalIndent(schema, "", "  ")
	fmt.Println(string(out))
}

func ExampleParseSchemaTag() {
	directives, err := component.ParseSchemaTag(
		"type:int,description:Headset listen port,min:1024,max:65535,default:7400")
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Printf("Type: %s\n", directives.Type)
	fmt.Printf("Description: %s\n", directives.Description)
	fmt.Printf("Range: %d-%d\n", *directives.Min, *directives.Max)
	fmt.Printf("Default: %s\n", directives.Default)

	// Output:
	// Type: int
	// Description: Headset listen port
	// Range: 1024-65535
	// Default: 7400
}

func ExampleParseSchemaTag_enum() {
	directives, _ := component.ParseSchemaTag(
		"type:enum,description:Wire format accepted,enum:osc|csv|auto,default:auto")

	fmt.Printf("Enum values: %v\n", directives.Enum)
	fmt.Printf("Default: %s\n", directives.Default)

	// Output:
	// Enum values: [osc csv auto]
	// Default: auto
}

func ExampleParseSchemaTag_flags() {
	directives, _ := component.ParseSchemaTag(
		"editable,type:string,description:Subject pattern for decoded samples")

	fmt.Printf("Type: %s\n", directives.Type)
	fmt.Printf("Editable: %v\n", directives.Editable)

	// Output:
	// Type: string
	// Editable: true
}
