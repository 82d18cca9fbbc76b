// Package semid derives human-legible content identifiers of the form
// {organization}-{product}-{YYYYMMDD}{sequence:03d}.
//
// Every input resolves to an identifier: unmatched or unusable tokens fall
// back to FallbackOrganization and FallbackProduct.
package semid

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	FallbackOrganization = "ai"
	FallbackProduct      = "news"

	maxProductLen = 20
	maxTitleWords = 3
)

var (
	nonWord    = regexp.MustCompile(`[^A-Za-z0-9_-]`)
	tokenClass = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)
	wordSplit  = regexp.MustCompile(`[\s\-]+`)
	nonDigit   = regexp.MustCompile(`[^0-9]`)
)

// Overrides replace the scanned tokens. Empty fields are ignored.
type Overrides struct {
	Organization string `json:"company,omitempty"`
	Product      string `json:"product,omitempty"`
}

// Item is one input of a batch.
type Item struct {
	Title string `json:"title"`
	Date  string `json:"date"`
}

// Generate returns the identifier for title published on date with the given
// per-date sequence number.
func Generate(title, date string, sequence int) string {
	return GenerateWith(title, date, sequence, Overrides{})
}

// GenerateWith is Generate with explicit organization/product overrides; an
// override always wins and skips the scan.
func GenerateWith(title, date string, sequence int, ov Overrides) string {
	lower := strings.ToLower(title)

	org := strings.ToLower(strings.TrimSpace(ov.Organization))
	if org == "" {
		org = scanOrganization(lower)
	}
	product := strings.ToLower(strings.TrimSpace(ov.Product))
	if product == "" {
		product = scanProduct(lower, org)
	}
	if org == "" {
		org = FallbackOrganization
	}
	if product == "" {
		product = titleWords(lower)
	}

	org = sanitize(org, FallbackOrganization)
	product = sanitize(product, FallbackProduct)

	if sequence < 0 {
		sequence = 0
	}
	raw := fmt.Sprintf("%s-%s-%s%03d", org, product, compactDate(date), sequence)
	return url.PathEscape(raw)
}

// GenerateBatch assigns identifiers in input order. Items sharing a date get
// consecutive sequence numbers starting at 1. overrides is keyed by title.
func GenerateBatch(items []Item, overrides map[string]Overrides) []string {
	counts := make(map[string]int, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		counts[it.Date]++
		ids = append(ids, GenerateWith(it.Title, it.Date, counts[it.Date], overrides[it.Title]))
	}
	return ids
}

func scanOrganization(lower string) string {
	for _, a := range organizationAliases {
		if strings.Contains(lower, strings.ToLower(a.name)) || strings.Contains(lower, a.token) {
			return a.token
		}
	}
	for _, p := range organizationPatterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			return strings.ToLower(p)
		}
	}
	return ""
}

// scanProduct skips tokens already contained in the organization so that
// "openai" does not also yield product "openai".
func scanProduct(lower, org string) string {
	for _, a := range productAliases {
		if (strings.Contains(lower, strings.ToLower(a.name)) || strings.Contains(lower, a.token)) &&
			!strings.Contains(org, a.token) {
			return a.token
		}
	}
	for _, p := range productPatterns {
		if strings.Contains(lower, strings.ToLower(p)) && !strings.Contains(org, p) {
			return strings.ToLower(p)
		}
	}
	return ""
}

// titleWords builds a product token from the first content words of the title.
func titleWords(lower string) string {
	words := wordSplit.Split(lower, -1)
	picked := make([]string, 0, maxTitleWords)
	for _, w := range words {
		if utf8.RuneCountInString(w) <= 2 || stopWords[w] {
			continue
		}
		picked = append(picked, w)
		if len(picked) == maxTitleWords {
			break
		}
	}
	product := strings.Join(picked, "-")
	if product == "" {
		return FallbackProduct
	}
	if utf8.RuneCountInString(product) > maxProductLen {
		product = strings.TrimRight(string([]rune(product)[:maxProductLen]), "-")
	}
	return product
}

func sanitize(token, fallback string) string {
	token = strings.TrimSpace(nonWord.ReplaceAllString(token, ""))
	if !tokenClass.MatchString(token) {
		return fallback
	}
	return token
}

// compactDate keeps the first eight digits of date (YYYYMMDD), padding
// degenerate input with zeros.
func compactDate(date string) string {
	d := nonDigit.ReplaceAllString(date, "")
	if len(d) > 8 {
		return d[:8]
	}
	return d + strings.Repeat("0", 8-len(d))
}
