// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package ingestion

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// SplitConfig holds the sectioning parameters for one document.
type SplitConfig struct {
	// MaxChars is the maximum size of a section's own content.
	MaxChars int
	// OverlapChars is the amount of neighboring text attached as context.
	OverlapChars int
	// MinSectionSize is the floor below which a span is merged into its
	// predecessor instead of emitted standalone.
	MinSectionSize int
}

// DefaultSplitConfig returns the sectioning parameters used when the project
// config does not override them.
func DefaultSplitConfig() SplitConfig {
	return SplitConfig{
		MaxChars:       5000,
		OverlapChars:   200,
		MinSectionSize: 500,
	}
}

// span is a half-open byte range into the document with its heading label.
type span struct {
	heading string
	start   int
	end     int
}

// headingMark is one markdown heading found in the document: its text and
// the byte offset of the start of its line.
type headingMark struct {
	text   string
	offset int
}

// SplitDocument splits normalized markdown content into an ordered list of
// sections. Sections partition the content exactly: every byte lands in one
// section's [StartOffset, EndOffset) and section contents never overlap.
// Overlap context is attached separately in OverlapPrefix/OverlapSuffix.
func SplitDocument(content string, cfg SplitConfig) []DocumentSection {
	if len(content) == 0 {
		return nil
	}
	if len(content) <= cfg.MaxChars {
		return finalize(content, cfg, []span{{start: 0, end: len(content)}})
	}

	headings := findHeadings(content)
	var spans []span
	if len(headings) == 0 {
		for _, s := range packParagraphs(content, 0, len(content), cfg.MaxChars) {
			spans = append(spans, s)
		}
		for i := range spans {
			spans[i].heading = fmt.Sprintf("Section %d", i+1)
		}
	} else {
		spans = headingSpans(content, headings, cfg)
	}

	spans = mergeSmall(spans, content, cfg.MinSectionSize)
	return finalize(content, cfg, spans)
}

// headingSpans carves the document at heading boundaries, subdividing any
// heading span that exceeds MaxChars at paragraph boundaries.
func headingSpans(content string, headings []headingMark, cfg SplitConfig) []span {
	var spans []span

	// Content before the first heading is emitted as its own section only
	// when it is big enough to stand alone. Otherwise it rides along with
	// the first heading's section so nothing is dropped.
	firstStart := headings[0].offset
	if firstStart > cfg.MinSectionSize {
		spans = append(spans, subdivide(content, "Introduction", 0, firstStart, cfg.MaxChars)...)
	} else if firstStart > 0 {
		headings[0].offset = 0
	}

	for i, h := range headings {
		end := len(content)
		if i+1 < len(headings) {
			end = headings[i+1].offset
		}
		spans = append(spans, subdivide(content, h.text, h.offset, end, cfg.MaxChars)...)
	}
	return spans
}

// subdivide emits one span for [start, end), or several paragraph-bounded
// ones labeled "<heading> (Part k)" when the range exceeds max.
func subdivide(content, heading string, start, end, max int) []span {
	if end-start <= max {
		return []span{{heading: heading, start: start, end: end}}
	}
	parts := packParagraphs(content, start, end, max)
	if len(parts) == 1 {
		parts[0].heading = heading
		return parts
	}
	for i := range parts {
		parts[i].heading = fmt.Sprintf("%s (Part %d)", heading, i+1)
	}
	return parts
}

// packParagraphs greedily packs consecutive paragraphs of content[start:end]
// into spans of at most max bytes. A single paragraph larger than max is
// hard-split at the size boundary rather than emitted oversize.
func packParagraphs(content string, start, end, max int) []span {
	cuts := paragraphStarts(content, start, end)
	cuts = append(cuts, end)

	var out []span
	cur := start
	lastCut := start
	for _, c := range cuts {
		for c-cur > max {
			if lastCut > cur {
				out = append(out, span{start: cur, end: lastCut})
				cur = lastCut
			} else {
				out = append(out, span{start: cur, end: cur + max})
				cur += max
			}
		}
		lastCut = c
	}
	if cur < end {
		out = append(out, span{start: cur, end: end})
	}
	return out
}

// paragraphStarts returns the offsets within (start, end) where a new
// paragraph begins, i.e. the position after each blank-line run.
func paragraphStarts(content string, start, end int) []int {
	var starts []int
	i := start
	for i < end {
		j := strings.Index(content[i:end], "\n\n")
		if j < 0 {
			break
		}
		k := i + j
		for k < end && content[k] == '\n' {
			k++
		}
		if k < end {
			starts = append(starts, k)
		}
		i = k
	}
	return starts
}

// mergeSmall folds spans shorter than min into their predecessor. The first
// span is always kept even when small so no content is dropped.
func mergeSmall(spans []span, content string, min int) []span {
	if len(spans) == 0 {
		return spans
	}
	out := spans[:1]
	for _, s := range spans[1:] {
		if s.end-s.start < min {
			out[len(out)-1].end = s.end
			continue
		}
		out = append(out, s)
	}
	return out
}

// finalize turns spans into numbered sections with deterministic IDs and
// overlap context attached.
func finalize(content string, cfg SplitConfig, spans []span) []DocumentSection {
	sections := make([]DocumentSection, 0, len(spans))
	for i, s := range spans {
		body := content[s.start:s.end]
		sections = append(sections, DocumentSection{
			SectionID:     SectionID(body, s.start),
			SectionNumber: i + 1,
			Heading:       s.heading,
			Content:       body,
			StartOffset:   s.start,
			EndOffset:     s.end,
		})
	}

	// Overlap is all-or-nothing: a neighbor shorter than the configured
	// overlap contributes none at all.
	for i := range sections {
		if i > 0 {
			prev := sections[i-1].Content
			if len(prev) > cfg.OverlapChars {
				sections[i].OverlapPrefix = prev[len(prev)-cfg.OverlapChars:]
			}
		}
		if i < len(sections)-1 {
			next := sections[i+1].Content
			if len(next) > cfg.OverlapChars {
				sections[i].OverlapSuffix = next[:cfg.OverlapChars]
			}
		}
	}
	return sections
}

// findHeadings locates markdown ATX headings by parsing the document rather
// than regex-matching lines, so '#' inside fenced code blocks is not
// mistaken for a heading. Offsets point at the start of the heading line.
func findHeadings(content string) []headingMark {
	src := []byte(content)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var marks []headingMark
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		lines := h.Lines()
		if lines.Len() == 0 {
			return ast.WalkContinue, nil
		}
		seg := lines.At(0)
		start := seg.Start
		for start > 0 && src[start-1] != '\n' {
			start--
		}
		marks = append(marks, headingMark{
			text:   strings.TrimSpace(string(src[seg.Start:seg.Stop])),
			offset: start,
		})
		return ast.WalkSkipChildren, nil
	})
	return marks
}
