package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ogulcanaydogan/qdash/internal/metrics"
)

// BuildText renders r as a fixed-width table for the terminal.
func BuildText(r metrics.Report) string {
	width := len("weighted avg")
	var b strings.Builder
	fmt.Fprintf(&b, "%*s %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	for _, c := range r.Classes {
		fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, strconv.Itoa(c.Label), c.Precision, c.Recall, c.F1, c.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s %9s %9s %9.2f %9d\n", width, "accuracy", "", "", r.Accuracy, r.MacroAvg.Support)
	for _, row := range []struct {
		name string
		avg  metrics.Average
	}{{"macro avg", r.MacroAvg}, {"weighted avg", r.WeightedAvg}} {
		fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, row.name, row.avg.Precision, row.avg.Recall, row.avg.F1, row.avg.Support)
	}
	return b.String()
}
