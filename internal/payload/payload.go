package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/ogulcanaydogan/qdash/internal/store"
	"github.com/ogulcanaydogan/qdash/pkg/schema"
	"github.com/ogulcanaydogan/qdash/pkg/types"
)

var ErrSchemaMismatch = errors.New("payload schema mismatch")

// Predictor is the part of a fitted model the payload needs.
type Predictor interface {
	Classes() []int
	PredictProba(row []float64) []float64
}

// Build scores every row of x and rounds each probability to decimals
// places. Rounded vectors are not renormalised.
func Build(m Predictor, x [][]float64, y []int, decimals int) (types.Payload, error) {
	if len(x) != len(y) {
		return types.Payload{}, fmt.Errorf("build payload: %d rows but %d labels", len(x), len(y))
	}
	p := types.Payload{
		ClassNames: m.Classes(),
		TestCases:  make([]types.TestCase, 0, len(x)),
	}
	for i, row := range x {
		proba := m.PredictProba(row)
		if len(proba) != len(p.ClassNames) {
			return types.Payload{}, fmt.Errorf("build payload: row %d has %d scores for %d classes", i, len(proba), len(p.ClassNames))
		}
		scores := make([]float64, len(proba))
		for j, v := range proba {
			r, err := stats.Round(v, decimals)
			if err != nil {
				return types.Payload{}, fmt.Errorf("build payload: row %d score %d: %w", i, j, err)
			}
			scores[j] = r
		}
		p.TestCases = append(p.TestCases, types.TestCase{TrueClass: y[i], Scores: scores})
	}
	return p, nil
}

// Compact returns the compact JSON text of p.
func Compact(p types.Payload) ([]byte, error) {
	if p.TestCases == nil {
		p.TestCases = []types.TestCase{}
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return raw, nil
}

func Write(path string, p types.Payload) error {
	if err := Validate(p); err != nil {
		return err
	}
	raw, err := Compact(p)
	if err != nil {
		return err
	}
	if err := store.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

// Load reads and validates a payload file. A missing file returns an error
// satisfying errors.Is(err, os.ErrNotExist).
func Load(path string) (types.Payload, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.Payload{}, fmt.Errorf("read payload %s: %w", path, err)
	}
	p, err := Decode(raw)
	if err != nil {
		return types.Payload{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func Decode(raw []byte) (types.Payload, error) {
	violations, err := schema.ValidatePayloadJSON(raw)
	if err != nil {
		return types.Payload{}, fmt.Errorf("%w: malformed JSON: %v", ErrSchemaMismatch, err)
	}
	if len(violations) > 0 {
		return types.Payload{}, fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(violations, "; "))
	}
	var p types.Payload
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return types.Payload{}, fmt.Errorf("%w: %s must be a JSON %s, got %s", ErrSchemaMismatch, typeErr.Field, jsonKind(typeErr.Type), typeErr.Value)
		}
		return types.Payload{}, fmt.Errorf("%w: decode: %v", ErrSchemaMismatch, err)
	}
	if err := checkAlignment(p); err != nil {
		return types.Payload{}, err
	}
	return p, nil
}

// jsonKind names the JSON form a Go field type accepts.
func jsonKind(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "integer without a fraction or exponent"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice:
		return "array"
	default:
		return t.String()
	}
}

// Validate checks an in-memory payload against the schema and the
// class/score alignment rules.
func Validate(p types.Payload) error {
	raw, err := Compact(p)
	if err != nil {
		return err
	}
	violations, err := schema.ValidatePayloadJSON(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if len(violations) > 0 {
		return fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(violations, "; "))
	}
	return checkAlignment(p)
}

func checkAlignment(p types.Payload) error {
	for i := 1; i < len(p.ClassNames); i++ {
		if p.ClassNames[i] <= p.ClassNames[i-1] {
			return fmt.Errorf("%w: class_names must be strictly ascending, got %v", ErrSchemaMismatch, p.ClassNames)
		}
	}
	for i, tc := range p.TestCases {
		if len(tc.Scores) != len(p.ClassNames) {
			return fmt.Errorf("%w: test_cases[%d] has %d scores for %d classes", ErrSchemaMismatch, i, len(tc.Scores), len(p.ClassNames))
		}
		if p.ClassIndex(tc.TrueClass) < 0 {
			return fmt.Errorf("%w: test_cases[%d] true_class %d is not in class_names", ErrSchemaMismatch, i, tc.TrueClass)
		}
	}
	return nil
}
