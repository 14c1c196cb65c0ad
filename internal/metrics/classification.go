package metrics

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"
)

type ClassMetrics struct {
	Label     int     `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

type Average struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

type Report struct {
	Classes     []ClassMetrics `json:"classes"`
	Accuracy    float64        `json:"accuracy"`
	MacroAvg    Average        `json:"macro_avg"`
	WeightedAvg Average        `json:"weighted_avg"`
}

// Classify computes per-class precision, recall and F1 over the union of
// labels in yTrue and yPred. A zero denominator yields 0.
func Classify(yTrue, yPred []int) (Report, error) {
	if len(yTrue) != len(yPred) {
		return Report{}, fmt.Errorf("classify: %d true labels but %d predictions", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return Report{}, fmt.Errorf("classify: no samples")
	}

	tp := make(map[int]int)
	predicted := make(map[int]int)
	actual := make(map[int]int)
	correct := 0
	for i := range yTrue {
		actual[yTrue[i]]++
		predicted[yPred[i]]++
		if yTrue[i] == yPred[i] {
			tp[yTrue[i]]++
			correct++
		}
	}
	labels := make([]int, 0, len(actual))
	for l := range actual {
		labels = append(labels, l)
	}
	for l := range predicted {
		if _, ok := actual[l]; !ok {
			labels = append(labels, l)
		}
	}
	sort.Ints(labels)

	r := Report{Accuracy: float64(correct) / float64(len(yTrue))}
	precisions := make([]float64, 0, len(labels))
	recalls := make([]float64, 0, len(labels))
	f1s := make([]float64, 0, len(labels))
	var wp, wr, wf float64
	for _, l := range labels {
		m := ClassMetrics{
			Label:     l,
			Precision: ratio(tp[l], predicted[l]),
			Recall:    ratio(tp[l], actual[l]),
			Support:   actual[l],
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes = append(r.Classes, m)
		precisions = append(precisions, m.Precision)
		recalls = append(recalls, m.Recall)
		f1s = append(f1s, m.F1)
		w := float64(m.Support)
		wp += m.Precision * w
		wr += m.Recall * w
		wf += m.F1 * w
	}

	var err error
	r.MacroAvg.Support = len(yTrue)
	if r.MacroAvg.Precision, err = stats.Mean(precisions); err != nil {
		return Report{}, fmt.Errorf("classify: macro precision: %w", err)
	}
	if r.MacroAvg.Recall, err = stats.Mean(recalls); err != nil {
		return Report{}, fmt.Errorf("classify: macro recall: %w", err)
	}
	if r.MacroAvg.F1, err = stats.Mean(f1s); err != nil {
		return Report{}, fmt.Errorf("classify: macro f1: %w", err)
	}
	n := float64(len(yTrue))
	r.WeightedAvg = Average{Precision: wp / n, Recall: wr / n, F1: wf / n, Support: len(yTrue)}
	return r, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
