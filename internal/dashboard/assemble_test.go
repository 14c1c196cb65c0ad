package dashboard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ogulcanaydogan/qdash/internal/payload"
	"github.com/ogulcanaydogan/qdash/pkg/types"
)

const samplePayload = `{"class_names": [3, 4], "test_cases": [{"true_class": 4, "scores": [0.1, 0.9]}]}`

type fixture struct {
	dir  string
	opts Options
}

func newFixture(t *testing.T, payloadText, templateText string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{dir: dir, opts: Options{
		PayloadPath:  filepath.Join(dir, "model_data.json"),
		TemplatePath: filepath.Join(dir, "dashboard_template.html"),
		OutputPath:   filepath.Join(dir, "dashboard.html"),
		Placeholder:  "{{JSON_PAYLOAD}}",
	}}
	if payloadText != "" {
		require.NoError(t, os.WriteFile(f.opts.PayloadPath, []byte(payloadText), 0o644))
	}
	if templateText != "" {
		require.NoError(t, os.WriteFile(f.opts.TemplatePath, []byte(templateText), 0o644))
	}
	return f
}

func (f fixture) output(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile(f.opts.OutputPath)
	require.NoError(t, err)
	return string(raw)
}

func (f fixture) assertNoOutput(t *testing.T) {
	t.Helper()
	_, err := os.Stat(f.opts.OutputPath)
	assert.True(t, os.IsNotExist(err), "output must not be created")
}

func TestAssembleEmbedsPayload(t *testing.T) {
	f := newFixture(t, samplePayload, "<html>{{JSON_PAYLOAD}}</html>")

	res, err := Assemble(f.opts, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, `<html>{"class_names":[3,4],"test_cases":[{"true_class":4,"scores":[0.1,0.9]}]}</html>`, f.output(t))
	assert.Equal(t, 1, res.TestCases)
	assert.Equal(t, 2, res.Classes)
	assert.Equal(t, 1, res.Replacements)
	assert.Equal(t, f.opts.OutputPath, res.OutputPath)
}

func TestAssembleLeavesRestOfTemplateByteIdentical(t *testing.T) {
	tmpl := "line1\r\n\t<script>const DATA = {{JSON_PAYLOAD}};</script>\n{{ other }} ünïcode\n"
	f := newFixture(t, samplePayload, tmpl)

	_, err := Assemble(f.opts, nil)
	require.NoError(t, err)

	jsonText, err := payload.Compact(mustDecode(t, samplePayload))
	require.NoError(t, err)
	assert.Equal(t, strings.Replace(tmpl, "{{JSON_PAYLOAD}}", string(jsonText), 1), f.output(t))
}

func TestAssembleMissingPayload(t *testing.T) {
	f := newFixture(t, "", "<html>{{JSON_PAYLOAD}}</html>")

	_, err := Assemble(f.opts, nil)
	require.ErrorIs(t, err, ErrMissingInput)
	assert.Contains(t, err.Error(), f.opts.PayloadPath)
	assert.Contains(t, err.Error(), "qdash data")
	f.assertNoOutput(t)
}

func TestAssembleMissingTemplate(t *testing.T) {
	f := newFixture(t, samplePayload, "")

	_, err := Assemble(f.opts, nil)
	require.ErrorIs(t, err, ErrMissingInput)
	assert.Contains(t, err.Error(), f.opts.TemplatePath)
	f.assertNoOutput(t)
}

func TestAssembleInvalidPayload(t *testing.T) {
	f := newFixture(t, `{"class_names":[3,4],"test_cases":[{"true_class":4,"scores":[1]}]}`, "{{JSON_PAYLOAD}}")

	_, err := Assemble(f.opts, nil)
	require.ErrorIs(t, err, payload.ErrSchemaMismatch)
	f.assertNoOutput(t)
}

func TestAssembleMissingPlaceholderFailsByDefault(t *testing.T) {
	f := newFixture(t, samplePayload, "<html>no token here</html>")

	_, err := Assemble(f.opts, nil)
	require.ErrorIs(t, err, ErrPlaceholderMissing)
	f.assertNoOutput(t)
}

func TestAssembleMissingPlaceholderAllowedWritesTemplateUnchanged(t *testing.T) {
	f := newFixture(t, samplePayload, "<html>no token here</html>")
	f.opts.AllowMissingPlaceholder = true
	core, logs := observer.New(zapcore.WarnLevel)

	res, err := Assemble(f.opts, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Replacements)
	assert.Equal(t, "<html>no token here</html>", f.output(t))
	assert.Equal(t, 1, logs.FilterMessageSnippet("placeholder not found").Len())
}

func TestAssembleReplacesFirstOccurrenceOnly(t *testing.T) {
	f := newFixture(t, samplePayload, "a {{JSON_PAYLOAD}} b {{JSON_PAYLOAD}}")
	core, logs := observer.New(zapcore.WarnLevel)

	res, err := Assemble(f.opts, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Replacements)
	out := f.output(t)
	assert.True(t, strings.HasPrefix(out, `a {"class_names"`))
	assert.True(t, strings.HasSuffix(out, " b {{JSON_PAYLOAD}}"))
	assert.Equal(t, 1, logs.FilterMessageSnippet("more than once").Len())
}

func TestAssembleOverwritesExistingOutput(t *testing.T) {
	f := newFixture(t, samplePayload, "{{JSON_PAYLOAD}}")
	require.NoError(t, os.WriteFile(f.opts.OutputPath, []byte("stale dashboard content"), 0o644))

	_, err := Assemble(f.opts, nil)
	require.NoError(t, err)
	assert.NotContains(t, f.output(t), "stale")
}

func TestAssembleCustomPlaceholder(t *testing.T) {
	f := newFixture(t, samplePayload, "<x>@@DATA@@</x>")
	f.opts.Placeholder = "@@DATA@@"

	_, err := Assemble(f.opts, nil)
	require.NoError(t, err)
	assert.Contains(t, f.output(t), `<x>{"class_names":[3,4]`)
}

func TestInject(t *testing.T) {
	out, n := Inject("<p>{{JSON_PAYLOAD}}</p>", "{{JSON_PAYLOAD}}", "[]")
	assert.Equal(t, "<p>[]</p>", out)
	assert.Equal(t, 1, n)

	out, n = Inject("<p></p>", "{{JSON_PAYLOAD}}", "[]")
	assert.Equal(t, "<p></p>", out)
	assert.Equal(t, 0, n)
}

func TestDefaultTemplateHasSinglePlaceholder(t *testing.T) {
	tmpl := string(DefaultTemplate())
	assert.Equal(t, 1, strings.Count(tmpl, "{{JSON_PAYLOAD}}"))
	assert.True(t, strings.HasPrefix(tmpl, "<!DOCTYPE html>"))
}

func mustDecode(t *testing.T, raw string) types.Payload {
	t.Helper()
	p, err := payload.Decode([]byte(raw))
	require.NoError(t, err)
	return p
}
