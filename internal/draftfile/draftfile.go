// Package draftfile seeds the composer from a local file or a URL. PDFs are
// reduced to plain text; anything else is read as UTF-8.
package draftfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// DefaultMaxRunes bounds how much text is loaded into the composer.
const DefaultMaxRunes = 8000

var extraneousWhitespace = regexp.MustCompile(`[ \t]+`)

// Options tune Load.
type Options struct {
	MaxRunes int
	// CacheDir overrides where downloaded files are kept.
	CacheDir string
}

// Load returns the draft text stored at source, which may be a path or an
// http(s) URL.
func Load(ctx context.Context, source string, opts Options) (string, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", errors.New("draft source is empty")
	}
	path := source
	if isURL(source) {
		cache, err := newDownloadCache(opts.CacheDir, nil)
		if err != nil {
			return "", err
		}
		path, err = cache.Fetch(ctx, source)
		if err != nil {
			return "", err
		}
	}

	var (
		text string
		err  error
	)
	if isPDF(source, path) {
		text, err = pdfText(path)
	} else {
		text, err = plainText(path)
	}
	if err != nil {
		return "", err
	}
	return truncate(text, opts.MaxRunes), nil
}

func isURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func isPDF(source, path string) bool {
	if strings.EqualFold(filepath.Ext(stripQuery(source)), ".pdf") {
		return true
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, 5)
	n, _ := io.ReadFull(f, head)
	return string(head[:n]) == "%PDF-"
}

func stripQuery(source string) string {
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		return source[:i]
	}
	return source
}

func plainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not UTF-8 text", filepath.Base(path))
	}
	return strings.TrimSpace(strings.ReplaceAll(string(data), "\r\n", "\n")), nil
}

func pdfText(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}
	var builder strings.Builder
	if _, err := io.Copy(&builder, content); err != nil {
		return "", err
	}
	return strings.TrimSpace(extraneousWhitespace.ReplaceAllString(builder.String(), " ")), nil
}

func truncate(text string, limit int) string {
	if limit <= 0 {
		limit = DefaultMaxRunes
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit]))
}
