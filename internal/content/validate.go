package content

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// SemanticIDPattern is the shape of a generated identifier:
// {organization}-{product}-{YYYYMMDD}{NNN}.
var SemanticIDPattern = regexp.MustCompile(`^[a-z0-9-]+-[a-z0-9-]+-(\d{8})\d{3}$`)

// RecordProblems lists what is wrong with one master document.
type RecordProblems struct {
	Index      int      `json:"index"`
	ID         string   `json:"id"`
	SemanticID string   `json:"semanticId,omitempty"`
	Errors     []string `json:"errors"`
}

// ValidationSummary is the result of checking a whole master collection.
type ValidationSummary struct {
	Collection string           `json:"collection"`
	Total      int              `json:"totalItems"`
	Valid      int              `json:"validItems"`
	Invalid    int              `json:"invalidItems"`
	Problems   []RecordProblems `json:"problems"`
}

// CheckSemanticID returns the format errors of id.
func CheckSemanticID(id string) []string {
	if id == "" {
		return []string{"semanticId is required"}
	}
	m := SemanticIDPattern.FindStringSubmatch(id)
	if m == nil {
		return []string{fmt.Sprintf("semanticId %q must look like organization-product-YYYYMMDDNNN", id)}
	}
	if _, err := time.Parse("20060102", m[1]); err != nil {
		return []string{fmt.Sprintf("semanticId %q has an invalid date part %s", id, m[1])}
	}
	return nil
}

// ValidateDocument checks a raw master document against the canonical
// shape: identifier, category, publication date, a complete locale entry for
// every language, non-negative counters and boolean flags. It reads the
// stored values directly, so a string where a number belongs is reported
// rather than converted.
func ValidateDocument(d bson.M, languages []string) []string {
	var errs []string
	if v, ok := d["_id"]; !ok || v == nil {
		errs = append(errs, "_id is required")
	}
	errs = append(errs, CheckSemanticID(AsString(d["semanticId"]))...)
	if c, ok := d["category"].(string); !ok || strings.TrimSpace(c) == "" {
		errs = append(errs, "category is required")
	}
	switch v, ok := d["publishedAt"]; {
	case !ok || v == nil:
		errs = append(errs, "publishedAt is required")
	case KindOf(v) != KindDate:
		errs = append(errs, fmt.Sprintf("publishedAt must be a date, got %s", KindOf(v)))
	}

	if locales, ok := AsMap(d["locales"]); !ok {
		errs = append(errs, "locales is required and must be an object")
	} else {
		for _, lang := range languages {
			errs = append(errs, checkLocale(locales, lang)...)
		}
	}

	for _, f := range []string{"views", "comments"} {
		n, ok := AsFloat64(d[f])
		if !ok || n < 0 {
			errs = append(errs, f+" must be a non-negative number")
		}
	}
	for _, f := range []string{"isBreaking", "isImportant"} {
		if _, ok := d[f].(bool); !ok {
			errs = append(errs, f+" must be a boolean")
		}
	}
	return errs
}

func checkLocale(locales bson.M, lang string) []string {
	l, ok := AsMap(locales[lang])
	if !ok {
		return []string{fmt.Sprintf("locale %s is missing", lang)}
	}
	var errs []string
	for _, f := range []string{"title", "summary"} {
		if s, ok := l[f].(string); !ok || strings.TrimSpace(s) == "" {
			errs = append(errs, fmt.Sprintf("locale %s: %s is required", lang, f))
		}
	}
	switch tags, ok := AsList(l["tags"]); {
	case !ok:
		errs = append(errs, fmt.Sprintf("locale %s: tags must be an array", lang))
	case len(tags) == 0:
		errs = append(errs, fmt.Sprintf("locale %s: at least one tag is required", lang))
	}
	return errs
}

// Summarize validates docs in order.
func Summarize(collection string, docs []bson.M, languages []string) ValidationSummary {
	sum := ValidationSummary{Collection: collection, Total: len(docs), Problems: []RecordProblems{}}
	for i, d := range docs {
		errs := ValidateDocument(d, languages)
		if len(errs) == 0 {
			sum.Valid++
			continue
		}
		sum.Invalid++
		sum.Problems = append(sum.Problems, RecordProblems{
			Index:      i,
			ID:         IDString(d["_id"]),
			SemanticID: AsString(d["semanticId"]),
			Errors:     errs,
		})
	}
	return sum
}
