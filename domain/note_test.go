package domain

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestGenerateSlug(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Hello, World!  Foo--Bar", "hello-world-foo-bar"},
		{"  Trimmed Title  ", "trimmed-title"},
		{"UPPER case", "upper-case"},
		{"already-slugged", "already-slugged"},
		{"---hyphens---", "hyphens"},
		{"symbols @#$% removed", "symbols-removed"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := GenerateSlug(tc.title); got != tc.want {
			t.Fatalf("GenerateSlug(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestExtractWikiLinks(t *testing.T) {
	content := "See [[Alpha]] and [[Beta]]. Also [[Alpha]] again, plus [[/projects/gamma]]."
	got := ExtractWikiLinks(content)
	want := []string{"Alpha", "Beta", "/projects/gamma"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected links: %#v", got)
	}
}

func TestExtractWikiLinksNone(t *testing.T) {
	if got := ExtractWikiLinks("no links here [not one](http://x)"); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
}

func TestContentPreviewStripsMarkdown(t *testing.T) {
	content := "# Title\n\n**Bold** and *italic* and [link](http://x)"
	got := ContentPreview(content, 100)
	want := "Title Bold and italic and link"
	if got != want {
		t.Fatalf("ContentPreview = %q, want %q", got, want)
	}
}

func TestContentPreviewTruncates(t *testing.T) {
	content := strings.Repeat("word ", 100)
	got := ContentPreview(content, 20)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
	if len(got) > 23 {
		t.Fatalf("preview too long: %d chars", len(got))
	}
}

func TestContentPreviewKeepsRunesIntact(t *testing.T) {
	// Two-byte runes with a limit landing mid-rune; the cut must back up
	// to the previous boundary.
	content := strings.Repeat("é", 40)
	got := ContentPreview(content, 25)
	if !utf8.ValidString(got) {
		t.Fatalf("preview is not valid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
	if len(got) > 28 {
		t.Fatalf("preview too long: %d bytes", len(got))
	}
}

func TestContentPreviewEmpty(t *testing.T) {
	if got := ContentPreview("   \n  ", 100); got != "" {
		t.Fatalf("expected empty preview, got %q", got)
	}
}

func TestWordCount(t *testing.T) {
	cases := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{"one two\tthree\nfour", 4},
	}
	for _, tc := range cases {
		if got := WordCount(tc.content); got != tc.want {
			t.Fatalf("WordCount(%q) = %d, want %d", tc.content, got, tc.want)
		}
	}
}

func TestExtractChecklistItems(t *testing.T) {
	content := "intro\n- [ ] buy milk\n- [x] ship release\n* [X] archive logs\nplain line"
	items := ExtractChecklistItems(content)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Text != "buy milk" || items[0].Done {
		t.Fatalf("unexpected first item: %#v", items[0])
	}
	if !items[1].Done || !items[2].Done {
		t.Fatalf("expected completed items: %#v", items[1:])
	}
}
