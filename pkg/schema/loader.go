package schema

import (
	_ "embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// FileName is where `qdash init` writes the payload schema.
const FileName = "payload.schema.json"

//go:embed payload.schema.json
var payloadSchema []byte

// PayloadSchema returns the JSON schema of the model payload.
func PayloadSchema() []byte {
	out := make([]byte, len(payloadSchema))
	copy(out, payloadSchema)
	return out
}

// ValidatePayloadJSON checks raw JSON text against the embedded schema and
// returns one message per violation.
func ValidatePayloadJSON(raw []byte) ([]string, error) {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(payloadSchema), gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validate payload: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, e.String())
	}
	return errs, nil
}
