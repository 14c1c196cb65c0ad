package main

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ogulcanaydogan/qdash/internal/config"
	"github.com/ogulcanaydogan/qdash/internal/dashboard"
	"github.com/ogulcanaydogan/qdash/internal/metrics"
	"github.com/ogulcanaydogan/qdash/internal/payload"
	"github.com/ogulcanaydogan/qdash/internal/pipeline"
	"github.com/ogulcanaydogan/qdash/internal/report"
	"github.com/ogulcanaydogan/qdash/internal/store"
	"github.com/ogulcanaydogan/qdash/pkg/schema"
)

func newInitCommand(st *cliState) *cobra.Command {
	var templatePath string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config, dashboard template and payload schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Default()
			if templatePath != "" {
				cfg.Dashboard.TemplatePath = templatePath
			}
			rawCfg, err := cfg.YAML()
			if err != nil {
				return err
			}
			configPath := st.configPath
			if configPath == "" {
				configPath = config.DefaultPath
			}
			for _, f := range []struct {
				path string
				data []byte
			}{
				{configPath, rawCfg},
				{cfg.Dashboard.TemplatePath, dashboard.DefaultTemplate()},
				{filepath.Join(filepath.Dir(configPath), schema.FileName), schema.PayloadSchema()},
			} {
				wrote, err := store.WriteIfAbsent(f.path, f.data, 0o644)
				if err != nil {
					return err
				}
				if wrote {
					fmt.Fprintln(cmd.OutOrStdout(), f.path)
				} else {
					st.logger.Info("kept existing file", zap.String("path", f.path))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&templatePath, "template", "", "template output path")
	return cmd
}

func newDataCommand(st *cliState) *cobra.Command {
	var url, outPath, reportOut, reportFormat string
	var seed int64
	var estimators, determinismCheck int
	var testSize float64
	var skipReport bool

	cmd := &cobra.Command{
		Use:   "data",
		Short: "Fetch the dataset, train the classifier and export test-set predictions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat("report-format", reportFormat, "text", "md", "json"); err != nil {
				return err
			}
			cfg := st.cfg.Data
			flags := cmd.Flags()
			if flags.Changed("url") {
				cfg.DatasetURL = url
			}
			if flags.Changed("out") {
				cfg.PayloadPath = outPath
			}
			if flags.Changed("seed") {
				cfg.Seed = seed
			}
			if flags.Changed("estimators") {
				cfg.Estimators = estimators
			}
			if flags.Changed("test-size") {
				cfg.TestSize = testSize
			}
			if err := (config.Config{Data: cfg, Dashboard: st.cfg.Dashboard}).Validate(); err != nil {
				return err
			}

			res, err := pipeline.RunData(cmd.Context(), pipeline.Options{
				Config:           cfg,
				DeterminismCheck: determinismCheck,
			}, st.logger)
			if err != nil {
				st.logger.Error("data pipeline failed; no payload written",
					zap.String("source", cfg.DatasetURL),
					zap.Error(err))
				return exitError(err)
			}

			out := cmd.OutOrStdout()
			if !skipReport {
				fmt.Fprintln(out, report.BuildText(res.Report))
			}
			if reportOut != "" {
				if err := writeRunReport(reportOut, reportFormat, res); err != nil {
					return err
				}
				fmt.Fprintln(out, reportOut)
			}
			fmt.Fprintln(out, res.PayloadPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "dataset URL or local CSV path")
	cmd.Flags().StringVar(&outPath, "out", "", "payload output path")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for split and forest")
	cmd.Flags().IntVar(&estimators, "estimators", 0, "number of trees")
	cmd.Flags().Float64Var(&testSize, "test-size", 0, "held-out fraction")
	cmd.Flags().IntVar(&determinismCheck, "determinism-check", 1, "train this many times and compare payload digests")
	cmd.Flags().BoolVar(&skipReport, "skip-report", false, "do not print the classification report")
	cmd.Flags().StringVar(&reportOut, "report-out", "", "also write the run report to this path")
	cmd.Flags().StringVar(&reportFormat, "report-format", "md", "format for --report-out (text|md|json)")
	return cmd
}

func writeRunReport(path, format string, res pipeline.Result) error {
	switch format {
	case "json":
		return report.WriteJSON(path, res)
	case "text":
		return report.WriteMarkdown(path, report.BuildText(res.Report))
	default:
		return report.WriteMarkdown(path, report.BuildMarkdown(res))
	}
}

func newDashboardCommand(st *cliState) *cobra.Command {
	var inPath, templatePath, outPath, placeholder string
	var allowMissing bool
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Inject the exported payload into the HTML template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := dashboard.Options{
				PayloadPath:             st.cfg.Dashboard.PayloadPath,
				TemplatePath:            st.cfg.Dashboard.TemplatePath,
				OutputPath:              st.cfg.Dashboard.OutputPath,
				Placeholder:             st.cfg.Dashboard.Placeholder,
				AllowMissingPlaceholder: st.cfg.Dashboard.AllowMissingPlaceholder,
			}
			flags := cmd.Flags()
			if flags.Changed("in") {
				opts.PayloadPath = inPath
			}
			if flags.Changed("template") {
				opts.TemplatePath = templatePath
			}
			if flags.Changed("out") {
				opts.OutputPath = outPath
			}
			if flags.Changed("placeholder") {
				opts.Placeholder = placeholder
			}
			if flags.Changed("allow-missing-placeholder") {
				opts.AllowMissingPlaceholder = allowMissing
			}
			if opts.Placeholder == "" {
				return fmt.Errorf("--placeholder must not be empty")
			}

			res, err := dashboard.Assemble(opts, st.logger)
			if err != nil {
				st.logger.Error("dashboard assembly failed; no output written", zap.Error(err))
				return exitError(err)
			}
			abs, err := filepath.Abs(res.OutputPath)
			if err != nil {
				abs = res.OutputPath
			}
			fmt.Fprintln(cmd.OutOrStdout(), abs)
			return nil
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "payload JSON input")
	cmd.Flags().StringVar(&templatePath, "template", "", "HTML template input")
	cmd.Flags().StringVar(&outPath, "out", "", "dashboard HTML output")
	cmd.Flags().StringVar(&placeholder, "placeholder", "", "token replaced by the payload")
	cmd.Flags().BoolVar(&allowMissing, "allow-missing-placeholder", false, "write the template unchanged when the token is absent")
	return cmd
}

func newReportCommand(st *cliState) *cobra.Command {
	var inPath, outPath, format string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize an exported payload",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat("format", format, "md", "json"); err != nil {
				return err
			}
			if inPath == "" {
				inPath = st.cfg.Dashboard.PayloadPath
			}
			p, err := payload.Load(inPath)
			if err != nil {
				return exitError(err)
			}
			s, err := metrics.Summarize(p)
			if err != nil {
				return err
			}
			if format == "json" {
				if outPath == "" {
					outPath = "payload_summary.json"
				}
				if err := report.WriteJSON(outPath, s); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), outPath)
				return nil
			}
			md := report.BuildSummaryMarkdown(inPath, s)
			if outPath == "" {
				fmt.Fprint(cmd.OutOrStdout(), md)
				return nil
			}
			if err := report.WriteMarkdown(outPath, md); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "payload JSON input (default from config)")
	cmd.Flags().StringVar(&outPath, "out", "", "summary output path (markdown goes to stdout when empty)")
	cmd.Flags().StringVar(&format, "format", "md", "output format (md|json)")
	return cmd
}

func checkFormat(flag, value string, allowed ...string) error {
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("unsupported --%s %q (want %s)", flag, value, strings.Join(allowed, "|"))
	}
	return nil
}
