package report

import (
	"fmt"
	"strings"

	"github.com/ogulcanaydogan/qdash/internal/metrics"
	"github.com/ogulcanaydogan/qdash/internal/pipeline"
	"github.com/ogulcanaydogan/qdash/internal/store"
)

func BuildMarkdown(res pipeline.Result) string {
	var b strings.Builder
	b.WriteString("# Model Performance Report\n\n")
	b.WriteString(fmt.Sprintf("- Run: `%s`\n", res.RunID))
	b.WriteString(fmt.Sprintf("- Source: %s\n", res.Source))
	b.WriteString(fmt.Sprintf("- Rows: `%d` (train `%d`, test `%d`)\n", res.Rows, res.TrainRows, res.TestRows))
	b.WriteString(fmt.Sprintf("- Classes: `%s`\n", joinInts(res.Classes)))
	b.WriteString(fmt.Sprintf("- Trees: `%d` (mean depth `%.1f`, max depth `%d`)\n", res.Forest.Trees, res.Forest.MeanDepth, res.Forest.MaxDepth))
	b.WriteString(fmt.Sprintf("- Payload: `%s` (`%s`)\n\n", res.PayloadPath, res.Digest))

	b.WriteString("## Test Set\n\n")
	b.WriteString("| Class | Precision | Recall | F1 | Support |\n")
	b.WriteString("|---:|---:|---:|---:|---:|\n")
	for _, c := range res.Report.Classes {
		b.WriteString(fmt.Sprintf("| %d | %.2f | %.2f | %.2f | %d |\n", c.Label, c.Precision, c.Recall, c.F1, c.Support))
	}
	b.WriteString(fmt.Sprintf("| macro avg | %.2f | %.2f | %.2f | %d |\n", res.Report.MacroAvg.Precision, res.Report.MacroAvg.Recall, res.Report.MacroAvg.F1, res.Report.MacroAvg.Support))
	b.WriteString(fmt.Sprintf("| weighted avg | %.2f | %.2f | %.2f | %d |\n", res.Report.WeightedAvg.Precision, res.Report.WeightedAvg.Recall, res.Report.WeightedAvg.F1, res.Report.WeightedAvg.Support))
	b.WriteString(fmt.Sprintf("\n- Accuracy: **%.4f**\n", res.Report.Accuracy))
	return b.String()
}

func BuildSummaryMarkdown(path string, s metrics.PayloadSummary) string {
	var b strings.Builder
	b.WriteString("# Payload Summary\n\n")
	b.WriteString(fmt.Sprintf("- Payload: `%s`\n", path))
	b.WriteString(fmt.Sprintf("- Test Cases: `%d`\n", s.TestCases))
	b.WriteString(fmt.Sprintf("- Accuracy (argmax): **%.4f**\n", s.Accuracy))
	b.WriteString(fmt.Sprintf("- Confidence: mean `%.4f`, median `%.4f`, p10 `%.4f`\n", s.MeanConfidence, s.MedianConfidence, s.P10Confidence))
	b.WriteString(fmt.Sprintf("- Max score-sum drift: `%.4f`\n\n", s.MaxScoreSumDrift))

	b.WriteString("## Classes\n\n")
	b.WriteString("| Class | Support | Predicted | Mean Score |\n")
	b.WriteString("|---:|---:|---:|---:|\n")
	for _, c := range s.Classes {
		b.WriteString(fmt.Sprintf("| %d | %d | %d | %.4f |\n", c.Label, c.Support, c.Predicted, c.MeanScore))
	}
	return b.String()
}

func WriteMarkdown(path, content string) error {
	return store.WriteFile(path, []byte(content), 0o644)
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
