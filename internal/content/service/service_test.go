package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ainews/newsroom/backend/content-services/internal/content"
	"github.com/ainews/newsroom/backend/content-services/internal/semid"
	"github.com/ainews/newsroom/backend/content-services/internal/store"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

var published = time.Date(2025, 8, 29, 9, 30, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	db := store.NewMemory()
	db.EnsureUnique("news", "semanticId")
	db.EnsureUnique("news", "slug")
	s := New(db, "news", nil)
	s.now = func() time.Time { return published.Add(time.Hour) }
	return s, db
}

func article(title string) CreateInput {
	return CreateInput{Record: content.Record{
		Category:    "large-language-models",
		PublishedAt: published,
		Locales: map[string]content.Locale{
			"en": {Title: title},
			"zh": {Title: "中文标题"},
		},
	}}
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	first, err := s.Create(ctx, article("OpenAI Releases GPT-5 Preview"))
	require.NoError(t, err)
	require.Equal(t, "openai-gpt-20250829001", first.SemanticID)
	require.Equal(t, first.SemanticID, first.Slug)
	require.Equal(t, content.StatusDraft, first.Status)
	require.NotNil(t, first.ID)

	second, err := s.Create(ctx, article("OpenAI Releases GPT-5 Preview"))
	require.NoError(t, err)
	require.Equal(t, "openai-gpt-20250829002", second.SemanticID)

	got, err := s.GetBySemanticID(ctx, second.SemanticID)
	require.NoError(t, err)
	require.Equal(t, "中文标题", got.Locales["zh"].Title)
	require.Equal(t, "large-language-models", got.Category)
}

func TestCreateSkipsTakenIdentifier(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	// same id, published on another day, so the day count does not see it
	_, err := db.Collection("news").InsertMany(ctx, []any{bson.M{
		"semanticId": "openai-gpt-20250829001", "publishedAt": published.AddDate(0, 0, -3),
	}})
	require.NoError(t, err)

	r, err := s.Create(ctx, article("OpenAI Releases GPT-5 Preview"))
	require.NoError(t, err)
	require.Equal(t, "openai-gpt-20250829002", r.SemanticID)
}

func TestCreateWithOverrides(t *testing.T) {
	s, _ := newService(t)
	in := article("A quiet week")
	in.Overrides = semid.Overrides{Organization: "Acme", Product: "Rocket"}

	r, err := s.Create(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, "acme-rocket-20250829001", r.SemanticID)
}

func TestCreateValidation(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	noTitle := article("")
	noTitle.Record.Locales = map[string]content.Locale{"zh": {Summary: "only a summary"}}
	_, err := s.Create(ctx, noTitle)
	require.True(t, errors.Is(err, content.ErrValidation))

	noCategory := article("Title")
	noCategory.Record.Category = " "
	_, err = s.Create(ctx, noCategory)
	require.True(t, errors.Is(err, content.ErrValidation))

	badID := article("Title")
	badID.Record.SemanticID = "Not An ID"
	_, err = s.Create(ctx, badID)
	require.True(t, errors.Is(err, content.ErrValidation))
}

func TestCreateDuplicateSlug(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	in := article("Nvidia ships new GPU")
	in.Record.Slug = "nvidia-gpu"
	_, err := s.Create(ctx, in)
	require.NoError(t, err)

	again := article("Something else entirely")
	again.Record.Slug = "nvidia-gpu"
	_, err = s.Create(ctx, again)
	require.True(t, errors.Is(err, content.ErrDuplicate))
}

func TestGetBySemanticIDNotFound(t *testing.T) {
	s, _ := newService(t)
	_, err := s.GetBySemanticID(context.Background(), "ai-news-20250101001")
	require.True(t, errors.Is(err, content.ErrNotFound))
}

func TestValidate(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()

	complete := article("OpenAI ships GPT-5")
	complete.Record.Locales = map[string]content.Locale{
		"en": {Title: "OpenAI ships GPT-5", Summary: "A new model.", Tags: []string{"openai"}},
		"zh": {Title: "OpenAI 发布 GPT-5", Summary: "新模型。", Tags: []string{"openai"}},
	}
	_, err := s.Create(ctx, complete)
	require.NoError(t, err)
	_, err = s.Create(ctx, article("Anthropic ships Claude"))
	require.NoError(t, err)
	_, err = db.Collection("news").InsertMany(ctx, []any{bson.M{"_id": "legacy", "title": "Old"}})
	require.NoError(t, err)

	sum, err := s.Validate(ctx)
	require.NoError(t, err)
	require.Equal(t, "news", sum.Collection)
	require.Equal(t, 3, sum.Total)
	require.Equal(t, 1, sum.Valid)
	require.Equal(t, 2, sum.Invalid)
	require.Equal(t, 1, sum.Problems[0].Index)
	require.Contains(t, sum.Problems[0].Errors, "locale en: summary is required")
	require.Equal(t, "legacy", sum.Problems[1].ID)
	require.Contains(t, sum.Problems[1].Errors, "semanticId is required")
}
