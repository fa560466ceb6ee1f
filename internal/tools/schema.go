package tools

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// CallInput is the single parameter every generated tool accepts.
type CallInput struct {
	Args []any `json:"args,omitempty" mapstructure:"args" jsonschema_description:"Function arguments as an array, in ABI order. Example: [\"0x123...\", 100, true]"`
}

// CallInputSchema is the JSON Schema shared by all generated tools.
var CallInputSchema = GenerateSchema[CallInput]()

// GenerateSchema derives an inline JSON Schema from T.
func GenerateSchema[T any]() json.RawMessage {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	schema.Version = ""
	if args, ok := schema.Properties.Get("args"); ok && args != nil {
		args.Default = []any{}
	}
	out, err := json.Marshal(schema)
	if err != nil {
		panic(err)
	}
	return out
}
