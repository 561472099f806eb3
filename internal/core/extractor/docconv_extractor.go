// Package extractor implements the document processing contract: text
// extraction via docconv plus discovery of pre-rendered page images.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"code.sajari.com/docconv"
	"golang.org/x/sync/errgroup"

	"github.com/recpolicy/policyrag/internal/core"
)

const (
	// chunkRunes bounds the text handed to the summarizer per request.
	chunkRunes = 8000
	// summarizeWorkers bounds concurrent summarize calls per document.
	summarizeWorkers = 4
)

type DocconvProcessor struct {
	summarizer  core.TextSummarizer
	imageFolder string
	log         *slog.Logger
}

func NewDocconvProcessor(summarizer core.TextSummarizer, imageFolder string, logger *slog.Logger) *DocconvProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocconvProcessor{summarizer: summarizer, imageFolder: imageFolder, log: logger}
}

// Summarize extracts the document text and condenses it. Long documents are
// summarized chunk by chunk concurrently, then the partial summaries are
// condensed into one description.
func (p *DocconvProcessor) Summarize(ctx context.Context, path string) (string, error) {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return "", fmt.Errorf("extract text from %s: %w", path, err)
	}
	text := strings.TrimSpace(res.Body)
	if text == "" {
		return "", fmt.Errorf("no text extracted from %s", path)
	}

	chunks := splitChunks(text, chunkRunes)
	if len(chunks) == 1 {
		return p.summarizer.SummarizeText(ctx, chunks[0])
	}

	partials := make([]string, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summarizeWorkers)
	for i, chunk := range chunks {
		g.Go(func() error {
			s, err := p.summarizer.SummarizeText(gctx, chunk)
			if err != nil {
				return err
			}
			partials[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("summarize chunks of %s: %w", path, err)
	}

	p.log.Debug("condensing partial summaries", "path", path, "chunks", len(chunks))
	return p.summarizer.SummarizeText(ctx, strings.Join(partials, "\n"))
}

// ExtractImages lists the pre-rendered page images for the document. The
// rendering step (outside this service) writes them into the image folder as
// "<document base name>_page<N>.png".
func (p *DocconvProcessor) ExtractImages(ctx context.Context, path string) ([]core.ImageRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	pattern := filepath.Join(p.imageFolder, base+"_page*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}

	var refs []core.ImageRef
	for _, m := range matches {
		if fi, err := os.Stat(m); err != nil || fi.IsDir() {
			continue
		}
		page, ok := pageNumber(base, m)
		if !ok {
			continue
		}
		name := filepath.Base(m)
		refs = append(refs, core.ImageRef{
			Name:      name,
			Extension: filepath.Ext(name),
			Path:      m,
			Context:   fmt.Sprintf("Figure from page %d of %s", page, filepath.Base(path)),
			PageNo:    page,
		})
	}
	return refs, nil
}

// pageNumber parses N out of "<base>_page<N>.<ext>".
func pageNumber(base, path string) (int, bool) {
	name := filepath.Base(path)
	rest := strings.TrimPrefix(name, base+"_page")
	rest = strings.TrimSuffix(rest, filepath.Ext(rest))
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// splitChunks cuts text into rune-bounded pieces at word boundaries where
// possible.
func splitChunks(text string, size int) []string {
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}
	var chunks []string
	for start := 0; start < len(runes); {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		cut := end
		for cut > start && runes[cut] != ' ' && runes[cut] != '\n' {
			cut--
		}
		if cut == start {
			cut = end
		}
		chunks = append(chunks, string(runes[start:cut]))
		start = cut
	}
	return chunks
}

var _ core.DocProcessor = (*DocconvProcessor)(nil)
