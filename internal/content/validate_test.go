package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validDoc() bson.M {
	locale := func(title string) bson.M {
		return bson.M{"title": title, "summary": "summary of " + title, "tags": bson.A{"ai"}}
	}
	return bson.M{
		"_id":         "a",
		"semanticId":  "openai-gpt-20250829001",
		"category":    "large-language-models",
		"publishedAt": primitive.NewDateTimeFromTime(time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC)),
		"locales":     bson.M{"zh": locale("新模型"), "en": locale("New model")},
		"views":       int32(12),
		"comments":    int64(0),
		"isBreaking":  false,
		"isImportant": true,
	}
}

func TestValidateDocumentAcceptsCanonicalRecord(t *testing.T) {
	require.Empty(t, ValidateDocument(validDoc(), []string{"zh", "en"}))
}

func TestValidateDocumentReportsEveryRule(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(bson.M)
		want   string
	}{
		{"missing semantic id", func(d bson.M) { delete(d, "semanticId") }, "semanticId is required"},
		{"malformed semantic id", func(d bson.M) { d["semanticId"] = "openai-20250829-001" }, "must look like organization-product-YYYYMMDDNNN"},
		{"impossible date", func(d bson.M) { d["semanticId"] = "openai-gpt-20251399001" }, "invalid date part 20251399"},
		{"blank category", func(d bson.M) { d["category"] = " " }, "category is required"},
		{"string date", func(d bson.M) { d["publishedAt"] = "2025-08-29" }, "publishedAt must be a date, got string"},
		{"missing locale", func(d bson.M) { delete(d["locales"].(bson.M), "en") }, "locale en is missing"},
		{"empty title", func(d bson.M) { d["locales"].(bson.M)["zh"].(bson.M)["title"] = "" }, "locale zh: title is required"},
		{"no tags", func(d bson.M) { d["locales"].(bson.M)["en"].(bson.M)["tags"] = bson.A{} }, "locale en: at least one tag is required"},
		{"locales not a map", func(d bson.M) { d["locales"] = "zh,en" }, "locales is required and must be an object"},
		{"negative views", func(d bson.M) { d["views"] = int32(-1) }, "views must be a non-negative number"},
		{"string comments", func(d bson.M) { d["comments"] = "3" }, "comments must be a non-negative number"},
		{"missing flag", func(d bson.M) { delete(d, "isBreaking") }, "isBreaking must be a boolean"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDoc()
			tt.mutate(d)
			errs := ValidateDocument(d, []string{"zh", "en"})
			require.Len(t, errs, 1, "%v", errs)
			require.Contains(t, errs[0], tt.want)
		})
	}
}

func TestSummarize(t *testing.T) {
	bad := validDoc()
	bad["_id"] = "b"
	bad["views"] = "many"
	delete(bad, "category")

	sum := Summarize("news", []bson.M{validDoc(), bad}, []string{"zh", "en"})
	require.Equal(t, 2, sum.Total)
	require.Equal(t, 1, sum.Valid)
	require.Equal(t, 1, sum.Invalid)
	require.Len(t, sum.Problems, 1)
	require.Equal(t, 1, sum.Problems[0].Index)
	require.Equal(t, "b", sum.Problems[0].ID)
	require.Len(t, sum.Problems[0].Errors, 2)
}
