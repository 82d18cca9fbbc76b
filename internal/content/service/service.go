// Package service creates and looks up master content records.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ainews/newsroom/backend/content-services/internal/content"
	"github.com/ainews/newsroom/backend/content-services/internal/semid"
	"github.com/ainews/newsroom/backend/content-services/internal/store"
	"github.com/ainews/newsroom/backend/content-services/pkg/logger"
	"github.com/ainews/newsroom/backend/content-services/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxIDAttempts bounds how many sequence numbers Create tries when the
// generated identifier collides.
const maxIDAttempts = 5

// Service creates master records in one collection.
type Service struct {
	coll      store.Collection
	languages []string
	now       func() time.Time
}

func New(db store.Database, collection string, languages []string) *Service {
	if len(languages) == 0 {
		languages = content.DefaultLanguages
	}
	return &Service{coll: db.Collection(collection), languages: languages, now: time.Now}
}

// CreateInput is a new record plus optional identifier overrides.
type CreateInput struct {
	Record    content.Record
	Overrides semid.Overrides
}

// Create validates r, assigns a semantic identifier unless one is given, and
// inserts the record. The sequence starts after the records already published
// on the same day and moves on when the identifier is taken.
func (s *Service) Create(ctx context.Context, in CreateInput) (content.Record, error) {
	r := in.Record
	title := s.primaryTitle(r)
	if title == "" {
		return content.Record{}, fmt.Errorf("%w: a title in at least one locale is required", content.ErrValidation)
	}
	if strings.TrimSpace(r.Category) == "" {
		return content.Record{}, fmt.Errorf("%w: category is required", content.ErrValidation)
	}
	if r.SemanticID != "" {
		if errs := content.CheckSemanticID(r.SemanticID); len(errs) > 0 {
			return content.Record{}, fmt.Errorf("%w: %s", content.ErrValidation, errs[0])
		}
	}

	now := s.now().UTC()
	if r.PublishedAt.IsZero() {
		r.PublishedAt = now
	}
	if r.ID == nil {
		r.ID = primitive.NewObjectID()
	}
	if r.Status == "" {
		r.Status = content.StatusDraft
	}
	if r.Locales == nil {
		r.Locales = map[string]content.Locale{}
	}
	r.CreatedAt, r.UpdatedAt = now, now

	if r.SemanticID != "" {
		if r.Slug == "" {
			r.Slug = r.SemanticID
		}
		return r, s.insert(ctx, r)
	}

	day := r.PublishedAt.UTC().Format("2006-01-02")
	seq, err := s.publishedOn(ctx, r.PublishedAt)
	if err != nil {
		return content.Record{}, err
	}
	customSlug := r.Slug != ""
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		r.SemanticID = semid.GenerateWith(title, day, seq+attempt, in.Overrides)
		if !customSlug {
			r.Slug = r.SemanticID
		}
		err = s.insert(ctx, r)
		if err == nil {
			metrics.SemanticIDs.WithLabelValues("create").Inc()
			return r, nil
		}
		if !errors.Is(err, content.ErrDuplicate) || customSlug {
			return content.Record{}, err
		}
		logger.Debugf("semantic id %s taken, trying next sequence", r.SemanticID)
	}
	return content.Record{}, fmt.Errorf("no free semantic id after %d attempts: %w", maxIDAttempts, err)
}

// GetBySemanticID returns the record with the given identifier.
func (s *Service) GetBySemanticID(ctx context.Context, id string) (content.Record, error) {
	doc, err := s.coll.FindOne(ctx, bson.M{"semanticId": id})
	if err != nil {
		return content.Record{}, err
	}
	if doc == nil {
		return content.Record{}, fmt.Errorf("%w: semantic id %q", content.ErrNotFound, id)
	}
	return content.RecordFromDocument(doc), nil
}

// Validate checks every record of the collection with content.ValidateDocument.
// Nothing is repaired.
func (s *Service) Validate(ctx context.Context) (content.ValidationSummary, error) {
	docs, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return content.ValidationSummary{}, err
	}
	sum := content.Summarize(s.coll.Name(), docs, s.languages)
	metrics.RecordsValidated.WithLabelValues("valid").Add(float64(sum.Valid))
	metrics.RecordsValidated.WithLabelValues("invalid").Add(float64(sum.Invalid))
	if sum.Invalid > 0 {
		logger.Warnf("validate %s: %d of %d records invalid", s.coll.Name(), sum.Invalid, sum.Total)
	}
	return sum, nil
}

func (s *Service) insert(ctx context.Context, r content.Record) error {
	_, err := s.coll.InsertMany(ctx, []any{r.Document()})
	return err
}

// publishedOn counts records whose publishedAt falls on the UTC day of t.
func (s *Service) publishedOn(ctx context.Context, t time.Time) (int, error) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	n, err := s.coll.CountDocuments(ctx, bson.M{"publishedAt": bson.M{"$gte": start, "$lt": start.AddDate(0, 0, 1)}})
	return int(n), err
}

// primaryTitle picks the title the identifier is derived from: English
// first, then the configured languages in order, then any locale.
func (s *Service) primaryTitle(r content.Record) string {
	if t := strings.TrimSpace(r.Locales["en"].Title); t != "" {
		return t
	}
	for _, lang := range s.languages {
		if t := strings.TrimSpace(r.Locales[lang].Title); t != "" {
			return t
		}
	}
	for _, l := range r.Locales {
		if t := strings.TrimSpace(l.Title); t != "" {
			return t
		}
	}
	return ""
}
