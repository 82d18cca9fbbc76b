// Package locale projects master content records into flat per-language views
// and checks previously written views against the master set.
package locale

import (
	"fmt"
	"sort"

	"github.com/ainews/newsroom/backend/content-services/internal/content"
)

// Inconsistency kinds.
const (
	KindCountMismatch     = "count-mismatch"
	KindMissingIdentifier = "missing-identifier"
)

// Inconsistency is one advisory finding of Check. Nothing is repaired.
type Inconsistency struct {
	Kind     string `json:"kind"`
	Language string `json:"language"`
	Message  string `json:"message"`
	Expected int    `json:"expected,omitempty"`
	Actual   int    `json:"actual,omitempty"`
	ID       string `json:"id,omitempty"`
}

// Project builds the lang view of r. A language the record lacks yields
// empty text and tags.
func Project(r content.Record, lang string) content.LocaleView {
	l := r.Locales[lang]
	tags := l.Tags
	if tags == nil {
		tags = []string{}
	}
	return content.LocaleView{
		ID:          r.ID,
		SemanticID:  r.SemanticID,
		Language:    lang,
		Title:       l.Title,
		Summary:     l.Summary,
		Tags:        tags,
		Category:    r.Category,
		Source:      r.Source,
		Author:      r.Author,
		PublishedAt: r.PublishedAt,
		Views:       r.Views,
		Comments:    r.Comments,
		IsBreaking:  r.IsBreaking,
		IsImportant: r.IsImportant,
		Status:      r.Status,
	}
}

// Sync returns the full view set of every language, one view per record in
// record order.
func Sync(records []content.Record, languages []string) map[string][]content.LocaleView {
	out := make(map[string][]content.LocaleView, len(languages))
	for _, lang := range languages {
		views := make([]content.LocaleView, 0, len(records))
		for _, r := range records {
			views = append(views, Project(r, lang))
		}
		out[lang] = views
	}
	return out
}

// Check compares every view set with the master records: set sizes, and
// master identifiers absent from the set. Languages are reported in sorted
// order.
func Check(records []content.Record, views map[string][]content.LocaleView) []Inconsistency {
	langs := make([]string, 0, len(views))
	for lang := range views {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	found := []Inconsistency{}
	for _, lang := range langs {
		set := views[lang]
		if len(set) != len(records) {
			found = append(found, Inconsistency{
				Kind:     KindCountMismatch,
				Language: lang,
				Message:  fmt.Sprintf("master has %d records, but %s has %d", len(records), lang, len(set)),
				Expected: len(records),
				Actual:   len(set),
			})
		}
		present := make(map[string]bool, len(set))
		for _, v := range set {
			present[content.IDString(v.ID)] = true
		}
		for _, r := range records {
			id := content.IDString(r.ID)
			if present[id] {
				continue
			}
			found = append(found, Inconsistency{
				Kind:     KindMissingIdentifier,
				Language: lang,
				Message:  fmt.Sprintf("record %s is missing from %s", id, lang),
				ID:       id,
			})
		}
	}
	return found
}
