package locale

import (
	"testing"

	"github.com/ainews/newsroom/backend/content-services/internal/content"
	"github.com/stretchr/testify/require"
)

func records() []content.Record {
	return []content.Record{
		{ID: "1", SemanticID: "openai-gpt-20250829001", Category: "large-language-models", Views: 7,
			Locales: map[string]content.Locale{
				"zh": {Title: "发布", Summary: "摘要", Tags: []string{"ai"}},
				"en": {Title: "Released", Summary: "Summary", Tags: []string{"ai"}},
			}},
		{ID: "2", SemanticID: "ai-news-20250829002", Category: "hardware",
			Locales: map[string]content.Locale{"zh": {Title: "芯片"}}},
	}
}

func TestSyncProjectsEveryRecordForEveryLanguage(t *testing.T) {
	sets := Sync(records(), []string{"zh", "en"})
	require.Len(t, sets["zh"], 2)
	require.Len(t, sets["en"], 2)

	en := sets["en"][1]
	require.Equal(t, "2", en.ID)
	require.Equal(t, "en", en.Language)
	require.Equal(t, "", en.Title)
	require.Equal(t, []string{}, en.Tags)
	require.Equal(t, "hardware", en.Category)

	zh := sets["zh"][0]
	require.Equal(t, "发布", zh.Title)
	require.Equal(t, "摘要", zh.Summary)
	require.EqualValues(t, 7, zh.Views)
}

func TestSyncWithNoRecords(t *testing.T) {
	sets := Sync(nil, []string{"zh"})
	require.NotNil(t, sets["zh"])
	require.Empty(t, sets["zh"])
}

func TestCheckConsistentSets(t *testing.T) {
	recs := records()
	require.Empty(t, Check(recs, Sync(recs, []string{"zh", "en"})))
}

func TestCheckMissingIdentifierWithEqualSizes(t *testing.T) {
	recs := records()
	sets := Sync(recs, []string{"zh", "en"})
	sets["en"][1].ID = "3"

	found := Check(recs, sets)
	require.Len(t, found, 1)
	require.Equal(t, KindMissingIdentifier, found[0].Kind)
	require.Equal(t, "en", found[0].Language)
	require.Equal(t, "2", found[0].ID)
}

func TestCheckCountMismatch(t *testing.T) {
	recs := records()
	sets := Sync(recs, []string{"zh", "en"})
	sets["zh"] = sets["zh"][:1]

	found := Check(recs, sets)
	require.Len(t, found, 2)
	require.Equal(t, KindCountMismatch, found[0].Kind)
	require.Equal(t, 2, found[0].Expected)
	require.Equal(t, 1, found[0].Actual)
	require.Equal(t, KindMissingIdentifier, found[1].Kind)
	require.Equal(t, "2", found[1].ID)
}
