package extractor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSplitChunksShortText(t *testing.T) {
	chunks := splitChunks("short text", 100)
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
}

func TestSplitChunksCutsAtWordBoundary(t *testing.T) {
	text := strings.Repeat("word ", 100)
	chunks := splitChunks(text, 23)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	var rejoined strings.Builder
	for _, c := range chunks {
		if len([]rune(c)) > 23 {
			t.Errorf("chunk exceeds size: %q", c)
		}
		rejoined.WriteString(c)
	}
	if rejoined.String() != text {
		t.Error("chunks do not reassemble the input")
	}
}

func TestSplitChunksNoBoundary(t *testing.T) {
	text := strings.Repeat("x", 50)
	chunks := splitChunks(text, 20)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 hard-cut chunks, got %d", len(chunks))
	}
}

func TestPageNumber(t *testing.T) {
	cases := []struct {
		path string
		want int
		ok   bool
	}{
		{"policy_page3.png", 3, true},
		{"policy_page12.jpg", 12, true},
		{"policy_pageX.png", 0, false},
		{"policy_page0.png", 0, false},
		{"policy.png", 0, false},
	}
	for _, tc := range cases {
		got, ok := pageNumber("policy", tc.path)
		if got != tc.want || ok != tc.ok {
			t.Errorf("pageNumber(policy, %q) = (%d, %v), want (%d, %v)", tc.path, got, ok, tc.want, tc.ok)
		}
	}
}

func TestExtractImagesFindsRenderedPages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"report_page1.png", "report_page2.png", "other_page1.png", "report_notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	p := NewDocconvProcessor(nil, dir, nil)
	refs, err := p.ExtractImages(context.Background(), "/docs/report.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 refs, got %d: %+v", len(refs), refs)
	}
	if refs[0].PageNo != 1 || refs[1].PageNo != 2 {
		t.Errorf("page numbers wrong: %+v", refs)
	}
	if refs[0].Extension != ".png" {
		t.Errorf("extension = %q", refs[0].Extension)
	}
}
