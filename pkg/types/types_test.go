package types

import (
	"encoding/json"
	"testing"
)

func TestPayloadJSONFieldNames(t *testing.T) {
	p := Payload{
		ClassNames: []int{3, 4},
		TestCases:  []TestCase{{TrueClass: 4, Scores: []float64{0.1, 0.9}}},
	}
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"class_names":[3,4],"test_cases":[{"true_class":4,"scores":[0.1,0.9]}]}`
	if string(raw) != want {
		t.Fatalf("marshal = %s, want %s", raw, want)
	}
}

func TestClassIndex(t *testing.T) {
	p := Payload{ClassNames: []int{3, 5, 8}}
	tests := []struct {
		label int
		want  int
	}{
		{3, 0}, {5, 1}, {8, 2}, {4, -1},
	}
	for _, tt := range tests {
		if got := p.ClassIndex(tt.label); got != tt.want {
			t.Errorf("ClassIndex(%d) = %d, want %d", tt.label, got, tt.want)
		}
	}
}

func TestPredictedPicksArgmax(t *testing.T) {
	tc := TestCase{TrueClass: 5, Scores: []float64{0.2, 0.5, 0.3}}
	if got := tc.Predicted([]int{4, 5, 6}); got != 5 {
		t.Fatalf("Predicted = %d, want 5", got)
	}
}

func TestPredictedTieResolvesToLowestLabel(t *testing.T) {
	tc := TestCase{Scores: []float64{0.5, 0.5}}
	if got := tc.Predicted([]int{6, 7}); got != 6 {
		t.Fatalf("Predicted = %d, want 6", got)
	}
}

func TestConfidence(t *testing.T) {
	tc := TestCase{Scores: []float64{0.1, 0.75, 0.15}}
	if got := tc.Confidence(); got != 0.75 {
		t.Fatalf("Confidence = %v, want 0.75", got)
	}
	if got := (TestCase{}).Confidence(); got != 0 {
		t.Fatalf("empty Confidence = %v, want 0", got)
	}
}
