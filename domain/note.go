package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Note is a single markdown document owned by one user.
type Note struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Slug        string    `json:"slug"`
	Tags        []string  `json:"tags"`
	LinkedNotes []string  `json:"linkedNotes"`
	FolderID    string    `json:"folderId,omitempty"`
	IsPinned    bool      `json:"isPinned"`
	IsFavorite  bool      `json:"isFavorite"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NoteMetadata is the lightweight list representation of a note.
type NoteMetadata struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Slug             string    `json:"slug"`
	Tags             []string  `json:"tags"`
	WordCount        int       `json:"wordCount"`
	LinkedNotesCount int       `json:"linkedNotesCount"`
	ContentPreview   string    `json:"contentPreview"`
	FolderID         string    `json:"folderId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
	IsPinned         bool      `json:"isPinned"`
	IsFavorite       bool      `json:"isFavorite"`
}

// Metadata derives the list representation from a full note.
func (n Note) Metadata() NoteMetadata {
	return NoteMetadata{
		ID:               n.ID,
		Title:            n.Title,
		Slug:             n.Slug,
		Tags:             n.Tags,
		WordCount:        WordCount(n.Content),
		LinkedNotesCount: len(n.LinkedNotes),
		ContentPreview:   ContentPreview(n.Content, PreviewMaxLength),
		FolderID:         n.FolderID,
		CreatedAt:        n.CreatedAt,
		UpdatedAt:        n.UpdatedAt,
		IsPinned:         n.IsPinned,
		IsFavorite:       n.IsFavorite,
	}
}

// PreviewMaxLength is the default truncation length for content previews.
const PreviewMaxLength = 150

var (
	slugStripRe  = regexp.MustCompile(`[^\w\s-]`)
	slugSpaceRe  = regexp.MustCompile(`\s+`)
	slugHyphenRe = regexp.MustCompile(`-+`)
	slugTrimRe   = regexp.MustCompile(`^-+|-+$`)
	wikiLinkRe   = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)
	mdHeadingRe  = regexp.MustCompile(`#{1,6}\s`)
	mdBoldRe     = regexp.MustCompile(`\*\*(.+?)\*\*`)
	mdItalicRe   = regexp.MustCompile(`\*(.+?)\*`)
	mdLinkRe     = regexp.MustCompile(`\[(.+?)\]\(.+?\)`)
	mdCodeRe     = regexp.MustCompile("`{1,3}(.+?)`{1,3}")
	mdListRe     = regexp.MustCompile(`[-*+]\s`)
	mdQuoteRe    = regexp.MustCompile(`>\s`)
	newlineRunRe = regexp.MustCompile(`\n+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	checklistRe  = regexp.MustCompile(`^\s*[-*+]\s+\[([ xX])\]\s+(.+)$`)
)

// GenerateSlug derives a URL-safe identifier from a title: lowercase, special
// characters stripped, whitespace and hyphen runs collapsed to single hyphens.
func GenerateSlug(title string) string {
	s := strings.TrimSpace(strings.ToLower(title))
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugSpaceRe.ReplaceAllString(s, "-")
	s = slugHyphenRe.ReplaceAllString(s, "-")
	s = slugTrimRe.ReplaceAllString(s, "")
	return s
}

// ExtractWikiLinks returns the targets of all [[...]] references in content.
// Duplicates collapse to one entry, first-seen order preserved.
func ExtractWikiLinks(content string) []string {
	matches := wikiLinkRe.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		target := strings.TrimSpace(m[1])
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		links = append(links, target)
	}
	return links
}

// WordCount counts whitespace-delimited tokens in content.
func WordCount(content string) int {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return 0
	}
	return len(whitespaceRe.Split(trimmed, -1))
}

// ContentPreview strips markdown syntax from content and truncates the result
// to at most maxLength bytes, appending an ellipsis when truncated. Link text
// survives, the URL does not. Truncation never splits a multi-byte rune.
func ContentPreview(content string, maxLength int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}

	preview := content
	preview = mdHeadingRe.ReplaceAllString(preview, "")
	preview = mdBoldRe.ReplaceAllString(preview, "$1")
	preview = mdItalicRe.ReplaceAllString(preview, "$1")
	preview = mdLinkRe.ReplaceAllString(preview, "$1")
	preview = mdCodeRe.ReplaceAllString(preview, "$1")
	preview = mdListRe.ReplaceAllString(preview, "")
	preview = mdQuoteRe.ReplaceAllString(preview, "")
	preview = newlineRunRe.ReplaceAllString(preview, " ")
	preview = strings.TrimSpace(preview)

	if maxLength > 0 && len(preview) > maxLength {
		cut := maxLength
		for cut > 0 && !utf8.RuneStart(preview[cut]) {
			cut--
		}
		preview = strings.TrimSpace(preview[:cut]) + "..."
	}
	return preview
}

// ChecklistItem is a task-like line extracted from note content.
type ChecklistItem struct {
	Text string
	Done bool
}

// ExtractChecklistItems scans note content for markdown checklist lines
// ("- [ ] buy milk"). The search index treats these as lightweight tasks.
func ExtractChecklistItems(content string) []ChecklistItem {
	var items []ChecklistItem
	for _, line := range strings.Split(content, "\n") {
		m := checklistRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		items = append(items, ChecklistItem{
			Text: strings.TrimSpace(m[2]),
			Done: m[1] != " ",
		})
	}
	return items
}
