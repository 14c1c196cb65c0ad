package types

// Payload is the contract between the data pipeline and dashboard assembly.
// Scores[i] of every test case is the probability of ClassNames[i].
type Payload struct {
	ClassNames []int      `json:"class_names"`
	TestCases  []TestCase `json:"test_cases"`
}

type TestCase struct {
	TrueClass int       `json:"true_class"`
	Scores    []float64 `json:"scores"`
}

const (
	DefaultPayloadPath  = "model_data.json"
	DefaultTemplatePath = "dashboard_template.html"
	DefaultOutputPath   = "dashboard.html"
	Placeholder         = "{{JSON_PAYLOAD}}"
)

// ClassIndex returns the score column for label, or -1.
func (p Payload) ClassIndex(label int) int {
	for i, c := range p.ClassNames {
		if c == label {
			return i
		}
	}
	return -1
}

// Predicted returns the label with the highest score. Ties resolve to the
// lowest label.
func (tc TestCase) Predicted(classNames []int) int {
	best := -1
	for i, s := range tc.Scores {
		if i >= len(classNames) {
			break
		}
		if best < 0 || s > tc.Scores[best] {
			best = i
		}
	}
	if best < 0 {
		return 0
	}
	return classNames[best]
}

// Confidence is the top score of the test case.
func (tc TestCase) Confidence() float64 {
	top := 0.0
	for _, s := range tc.Scores {
		if s > top {
			top = s
		}
	}
	return top
}
