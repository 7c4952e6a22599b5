package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
)

// EncodeReport writes r as indented JSON. Korean labels are written as-is.
func EncodeReport(w io.Writer, r SecurityReport) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// DecodeReport reads a report written by EncodeReport.
func DecodeReport(rd io.Reader) (SecurityReport, error) {
	var r SecurityReport
	dec := json.NewDecoder(rd)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return SecurityReport{}, fmt.Errorf("decode report: %w", err)
	}
	if r.Results == nil {
		r.Results = []CheckResult{}
	}
	return r, nil
}

// WriteReport saves r at path, replacing any previous run.
func WriteReport(fs afero.Fs, path string, r SecurityReport) error {
	var buf bytes.Buffer
	if err := EncodeReport(&buf, r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// ReadReport loads a report saved by WriteReport.
func ReadReport(fs afero.Fs, path string) (SecurityReport, error) {
	f, err := fs.Open(path)
	if err != nil {
		return SecurityReport{}, fmt.Errorf("open report %s: %w", path, err)
	}
	defer f.Close()
	return DecodeReport(f)
}
