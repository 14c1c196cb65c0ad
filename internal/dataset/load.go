package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
)

type LoadOptions struct {
	Separator    rune
	TargetColumn string
	Client       *http.Client
}

// Fetch loads a delimited file from an http(s) URL or a local path. Every
// failure wraps ErrDataUnavailable.
func Fetch(ctx context.Context, source string, opts LoadOptions) (*Dataset, error) {
	body, err := open(ctx, source, opts.Client)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}
	defer body.Close()
	ds, err := Parse(body, opts.Separator, opts.TargetColumn)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return ds, nil
}

func open(ctx context.Context, source string, client *http.Client) (io.ReadCloser, error) {
	u, err := url.Parse(source)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		if err == nil && u.Scheme == "file" {
			source = u.Path
		}
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", source, err)
		}
		return f, nil
	}
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", source, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", source, resp.Status)
	}
	return resp.Body, nil
}

// Parse reads a header row followed by numeric rows. The target column must
// hold integral values.
func Parse(r io.Reader, sep rune, target string) (*Dataset, error) {
	if sep == 0 {
		sep = ';'
	}
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty input", ErrDataUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrDataUnavailable, err)
	}
	header = append([]string(nil), header...)
	targetIdx := -1
	names := make([]string, 0, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == target {
			if targetIdx >= 0 {
				return nil, fmt.Errorf("%w: target column %q appears twice", ErrDataUnavailable, target)
			}
			targetIdx = i
			continue
		}
		names = append(names, h)
	}
	if targetIdx < 0 {
		return nil, fmt.Errorf("%w: target column %q not found in header", ErrDataUnavailable, target)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no feature columns besides %q", ErrDataUnavailable, target)
	}

	ds := &Dataset{FeatureNames: names, Target: target}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
		}
		line, _ := cr.FieldPos(0)
		row := make([]float64, 0, len(names))
		var label int
		for i, cell := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: line %d column %q: invalid number %q", ErrDataUnavailable, line, strings.TrimSpace(header[i]), cell)
			}
			if i == targetIdx {
				if v != math.Trunc(v) {
					return nil, fmt.Errorf("%w: line %d: target %q is not an integer", ErrDataUnavailable, line, cell)
				}
				label = int(v)
				continue
			}
			row = append(row, v)
		}
		ds.X = append(ds.X, row)
		ds.Y = append(ds.Y, label)
	}
	if ds.Len() == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrDataUnavailable)
	}
	return ds, nil
}
