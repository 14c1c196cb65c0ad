package metrics

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/ogulcanaydogan/qdash/pkg/types"
)

type ClassSupport struct {
	Label     int     `json:"label"`
	Support   int     `json:"support"`
	Predicted int     `json:"predicted"`
	MeanScore float64 `json:"mean_score"`
}

// PayloadSummary describes an exported payload without the model.
type PayloadSummary struct {
	TestCases        int            `json:"test_cases"`
	Classes          []ClassSupport `json:"classes"`
	Accuracy         float64        `json:"accuracy"`
	MeanConfidence   float64        `json:"mean_confidence"`
	MedianConfidence float64        `json:"median_confidence"`
	P10Confidence    float64        `json:"p10_confidence"`
	MaxScoreSumDrift float64        `json:"max_score_sum_drift"`
}

// Summarize expects a payload that already passed validation.
func Summarize(p types.Payload) (PayloadSummary, error) {
	s := PayloadSummary{TestCases: len(p.TestCases)}
	if len(p.TestCases) == 0 {
		for _, c := range p.ClassNames {
			s.Classes = append(s.Classes, ClassSupport{Label: c})
		}
		return s, nil
	}

	support := make([]int, len(p.ClassNames))
	predicted := make([]int, len(p.ClassNames))
	scoreSums := make([]float64, len(p.ClassNames))
	confidences := make([]float64, 0, len(p.TestCases))
	correct := 0
	for _, tc := range p.TestCases {
		if i := p.ClassIndex(tc.TrueClass); i >= 0 {
			support[i]++
		}
		pred := tc.Predicted(p.ClassNames)
		if i := p.ClassIndex(pred); i >= 0 && len(tc.Scores) > 0 {
			predicted[i]++
		}
		if pred == tc.TrueClass {
			correct++
		}
		sum := 0.0
		for i, v := range tc.Scores {
			scoreSums[i] += v
			sum += v
		}
		if d := abs(sum - 1); d > s.MaxScoreSumDrift {
			s.MaxScoreSumDrift = d
		}
		confidences = append(confidences, tc.Confidence())
	}

	n := float64(len(p.TestCases))
	for i, c := range p.ClassNames {
		s.Classes = append(s.Classes, ClassSupport{
			Label:     c,
			Support:   support[i],
			Predicted: predicted[i],
			MeanScore: scoreSums[i] / n,
		})
	}
	s.Accuracy = float64(correct) / n

	var err error
	if s.MeanConfidence, err = stats.Mean(confidences); err != nil {
		return PayloadSummary{}, fmt.Errorf("summarize: mean confidence: %w", err)
	}
	if s.MedianConfidence, err = stats.Median(confidences); err != nil {
		return PayloadSummary{}, fmt.Errorf("summarize: median confidence: %w", err)
	}
	// stats.Percentile rejects ranks below the first element
	if len(confidences) >= 10 {
		s.P10Confidence, err = stats.Percentile(confidences, 10)
	} else {
		s.P10Confidence, err = stats.Min(confidences)
	}
	if err != nil {
		return PayloadSummary{}, fmt.Errorf("summarize: p10 confidence: %w", err)
	}
	return s, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
