// Package search maintains an in-memory fuzzy index over one user's notes,
// the checklist tasks embedded in their content, and the tag vocabulary.
package search

import (
	"sort"
	"sync"

	"github.com/sahilm/fuzzy"

	"notevault-api/domain"
)

// Record kinds returned by Search.
const (
	KindNote = "note"
	KindTask = "task"
	KindTag  = "tag"
)

const (
	defaultTitleWeight    = 2
	defaultMinQueryLength = 2
)

// Config tunes match behavior. Zero values fall back to defaults; Threshold
// zero means any positive match score is accepted.
type Config struct {
	// TitleWeight multiplies title match scores relative to preview matches.
	TitleWeight int
	// Threshold is the minimum combined score a record must reach.
	Threshold int
	// MinQueryLength is the floor below which Search returns nothing.
	MinQueryLength int
}

// Result is one search hit.
type Result struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Title   string `json:"title"`
	Preview string `json:"preview,omitempty"`
	// Count is the number of notes carrying the tag, set on tag results only.
	Count int `json:"count,omitempty"`
	Score int `json:"score"`
}

type entry struct {
	kind    string
	id      string
	title   string
	preview string
	count   int
}

// Index is a point-in-time fuzzy index. It is rebuilt wholesale from a note
// snapshot rather than maintained incrementally; Rebuild and Search are safe
// to call concurrently.
type Index struct {
	cfg Config

	mu      sync.RWMutex
	entries []entry
}

// NewIndex creates an empty index.
func NewIndex(cfg Config) *Index {
	if cfg.TitleWeight <= 0 {
		cfg.TitleWeight = defaultTitleWeight
	}
	if cfg.MinQueryLength <= 0 {
		cfg.MinQueryLength = defaultMinQueryLength
	}
	return &Index{cfg: cfg}
}

// Rebuild replaces the index contents from the given note snapshot. Three
// record kinds are derived: the notes themselves, checklist items pulled out
// of note content, and the distinct tags with per-tag note counts.
func (ix *Index) Rebuild(notes []domain.Note) {
	entries := make([]entry, 0, len(notes))
	tagCounts := make(map[string]int)

	for _, n := range notes {
		entries = append(entries, entry{
			kind:    KindNote,
			id:      n.ID,
			title:   n.Title,
			preview: domain.ContentPreview(n.Content, domain.PreviewMaxLength),
		})
		for _, item := range domain.ExtractChecklistItems(n.Content) {
			entries = append(entries, entry{
				kind:    KindTask,
				id:      n.ID,
				title:   item.Text,
				preview: n.Title,
			})
		}
		for _, tag := range n.Tags {
			tagCounts[tag]++
		}
	}

	tags := make([]string, 0, len(tagCounts))
	for tag := range tagCounts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		entries = append(entries, entry{kind: KindTag, id: tag, title: tag, count: tagCounts[tag]})
	}

	ix.mu.Lock()
	ix.entries = entries
	ix.mu.Unlock()
}

// Search runs a weighted fuzzy match of query against the index. Titles are
// weighted above previews; results below the threshold are dropped and the
// rest come back ordered by descending score.
func (ix *Index) Search(query string) []Result {
	if len(query) < ix.cfg.MinQueryLength {
		return nil
	}

	ix.mu.RLock()
	entries := ix.entries
	ix.mu.RUnlock()

	scores := make(map[int]int)
	for _, m := range fuzzy.FindFrom(query, titleSource(entries)) {
		scores[m.Index] += m.Score * ix.cfg.TitleWeight
	}
	for _, m := range fuzzy.FindFrom(query, previewSource(entries)) {
		scores[m.Index] += m.Score
	}

	out := make([]Result, 0, len(scores))
	for i, score := range scores {
		if score < ix.cfg.Threshold {
			continue
		}
		e := entries[i]
		out = append(out, Result{
			Kind:    e.kind,
			ID:      e.id,
			Title:   e.title,
			Preview: e.preview,
			Count:   e.count,
			Score:   score,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Title < out[j].Title
	})
	return out
}

type titleSource []entry

func (s titleSource) String(i int) string { return s[i].title }
func (s titleSource) Len() int            { return len(s) }

type previewSource []entry

func (s previewSource) String(i int) string { return s[i].preview }
func (s previewSource) Len() int            { return len(s) }
