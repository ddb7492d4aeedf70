// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

// Package fetch loads document content from local files or URLs and
// normalizes it to markdown.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/kurtlabs/kurt/pkg/ingestion"
)

// maxBodyBytes caps remote document size.
const maxBodyBytes = 10 << 20

// Result is one loaded document, normalized to markdown.
type Result struct {
	Source      string
	Title       string
	Content     string
	ContentHash string
}

// Loader fetches document content from files and URLs. HTML sources are
// converted to markdown so the splitter always sees markdown.
type Loader struct {
	client      *http.Client
	mdConverter *converter.Converter
	logger      *slog.Logger
}

// NewLoader creates a loader with the given HTTP timeout.
func NewLoader(timeout time.Duration, logger *slog.Logger) *Loader {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		client: &http.Client{Timeout: timeout},
		mdConverter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		logger: logger,
	}
}

// Load fetches one source. Sources with an http or https scheme are fetched
// over the network; everything else is treated as a local file path.
func (l *Loader) Load(ctx context.Context, source string) (*Result, error) {
	var raw string
	var isHTML bool
	var err error

	if u, uerr := url.Parse(source); uerr == nil && (u.Scheme == "http" || u.Scheme == "https") {
		raw, isHTML, err = l.loadURL(ctx, source)
	} else {
		raw, isHTML, err = l.loadFile(source)
	}
	if err != nil {
		return nil, err
	}

	content := raw
	if isHTML {
		content, err = l.mdConverter.ConvertString(raw)
		if err != nil {
			return nil, fmt.Errorf("convert html to markdown: %w", err)
		}
	}

	return &Result{
		Source:      source,
		Title:       deriveTitle(content, source),
		Content:     content,
		ContentHash: ingestion.ContentHash(content),
	}, nil
}

func (l *Loader) loadURL(ctx context.Context, rawURL string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("User-Agent", "kurt/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", rawURL, err)
	}

	contentType := resp.Header.Get("Content-Type")
	isHTML := strings.Contains(contentType, "text/html") ||
		(contentType == "" && looksLikeHTML(rawURL))
	return string(body), isHTML, nil
}

func (l *Loader) loadFile(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), looksLikeHTML(path), nil
}

func looksLikeHTML(source string) bool {
	ext := strings.ToLower(filepath.Ext(strings.SplitN(source, "?", 2)[0]))
	return ext == ".html" || ext == ".htm"
}

// deriveTitle takes the first markdown H1, falling back to the source's
// base name.
func deriveTitle(content, source string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}

	name := source
	if u, err := url.Parse(source); err == nil && u.Path != "" {
		name = u.Path
	}
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" || name == "." || name == "/" {
		return source
	}
	return name
}
