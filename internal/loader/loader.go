// Package loader reads documents from the local filesystem for bulk
// ingestion. PDF, plain text, and markdown files are supported; each
// file becomes segments carrying "<filename>_<i>" metadata.
package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dslipak/pdf"

	"github.com/inquira/inquira/internal/domain"
	"github.com/inquira/inquira/internal/usecase/ingest"
)

// LoadDirectory walks dir non-recursively and loads every supported
// file. Unsupported extensions are skipped, unreadable files fail the
// whole load. An empty separator falls back to paragraph splitting.
func LoadDirectory(dir, separator string) ([]domain.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var docs []domain.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		var text string
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pdf":
			text, err = ExtractPDF(path)
		case ".txt", ".md":
			text, err = readTextFile(path)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}

		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		segments, err := ingest.SplitText(name, text, separator)
		if err != nil {
			// A file with no usable content is skipped, not fatal.
			continue
		}
		docs = append(docs, segments...)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no loadable documents in %s", domain.ErrInvalidInput, dir)
	}
	return docs, nil
}

// ExtractPDF pulls the plain text out of a PDF file.
func ExtractPDF(path string) (string, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return sanitizeUTF8(strings.TrimSpace(buf.String())), nil
}

func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// sanitizeUTF8 drops bytes that are not valid UTF-8. PDF extraction
// occasionally yields stray bytes that break JSON encoding downstream.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r != utf8.RuneError || size > 1 {
			b.WriteRune(r)
		}
		s = s[size:]
	}
	return b.String()
}
