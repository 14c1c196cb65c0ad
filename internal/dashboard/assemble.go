package dashboard

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/ogulcanaydogan/qdash/internal/payload"
	"github.com/ogulcanaydogan/qdash/internal/store"
	"github.com/ogulcanaydogan/qdash/pkg/types"
)

var (
	ErrMissingInput       = errors.New("missing input")
	ErrPlaceholderMissing = errors.New("placeholder missing from template")
)

//go:embed assets/dashboard_template.html
var defaultTemplate []byte

// DefaultTemplate returns the built-in template written by `qdash init`.
func DefaultTemplate() []byte {
	out := make([]byte, len(defaultTemplate))
	copy(out, defaultTemplate)
	return out
}

type Options struct {
	PayloadPath             string
	TemplatePath            string
	OutputPath              string
	Placeholder             string
	AllowMissingPlaceholder bool
}

type Result struct {
	OutputPath   string
	TestCases    int
	Classes      int
	Replacements int
	Bytes        int
}

// Assemble merges the payload into the template and writes the output.
// Nothing is written when an input is missing or invalid.
func Assemble(opts Options, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Placeholder == "" {
		opts.Placeholder = types.Placeholder
	}

	logger.Info("reading payload", zap.String("path", opts.PayloadPath))
	p, err := payload.Load(opts.PayloadPath)
	if errors.Is(err, os.ErrNotExist) {
		return Result{}, fmt.Errorf("%w: payload %q not found; run `qdash data` first", ErrMissingInput, opts.PayloadPath)
	}
	if err != nil {
		return Result{}, err
	}

	logger.Info("reading template", zap.String("path", opts.TemplatePath))
	tmpl, err := os.ReadFile(opts.TemplatePath)
	if errors.Is(err, os.ErrNotExist) {
		return Result{}, fmt.Errorf("%w: template %q not found; run `qdash init` or check the path", ErrMissingInput, opts.TemplatePath)
	}
	if err != nil {
		return Result{}, fmt.Errorf("read template %s: %w", opts.TemplatePath, err)
	}

	jsonText, err := payload.Compact(p)
	if err != nil {
		return Result{}, err
	}
	html, n := Inject(string(tmpl), opts.Placeholder, string(jsonText))
	switch {
	case n == 0 && !opts.AllowMissingPlaceholder:
		return Result{}, fmt.Errorf("%w: %q not found in %s", ErrPlaceholderMissing, opts.Placeholder, opts.TemplatePath)
	case n == 0:
		logger.Warn("placeholder not found, writing template unchanged",
			zap.String("placeholder", opts.Placeholder),
			zap.String("template", opts.TemplatePath))
	case n > 1:
		logger.Warn("placeholder occurs more than once, replacing the first only",
			zap.String("placeholder", opts.Placeholder),
			zap.Int("occurrences", n))
	}

	if err := store.WriteFile(opts.OutputPath, []byte(html), 0o644); err != nil {
		return Result{}, fmt.Errorf("write dashboard: %w", err)
	}
	res := Result{
		OutputPath:   opts.OutputPath,
		TestCases:    len(p.TestCases),
		Classes:      len(p.ClassNames),
		Replacements: min(n, 1),
		Bytes:        len(html),
	}
	logger.Info("dashboard written",
		zap.String("path", res.OutputPath),
		zap.Int("bytes", res.Bytes),
		zap.Int("test_cases", res.TestCases))
	return res, nil
}

// Inject replaces the first occurrence of placeholder with text and returns
// the number of occurrences found in tmpl.
func Inject(tmpl, placeholder, text string) (string, int) {
	n := strings.Count(tmpl, placeholder)
	if n == 0 {
		return tmpl, 0
	}
	return strings.Replace(tmpl, placeholder, text, 1), n
}
