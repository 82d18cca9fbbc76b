package locale

import (
	"context"
	"fmt"
	"time"

	"github.com/ainews/newsroom/backend/content-services/internal/content"
	"github.com/ainews/newsroom/backend/content-services/internal/store"
	"github.com/ainews/newsroom/backend/content-services/pkg/logger"
	"github.com/ainews/newsroom/backend/content-services/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson"
)

// SyncResult summarises one sync run.
type SyncResult struct {
	Master  string            `json:"master"`
	Counts  map[string]int    `json:"counts"`
	Backups map[string]string `json:"backups"`
	Stamp   string            `json:"stamp"`
}

// Syncer runs Sync and Check against a master collection and a Sink.
type Syncer struct {
	db        store.Database
	sink      Sink
	languages []string
	now       func() time.Time
}

func NewSyncer(db store.Database, sink Sink, languages []string) *Syncer {
	if len(languages) == 0 {
		languages = content.DefaultLanguages
	}
	return &Syncer{db: db, sink: sink, languages: append([]string(nil), languages...), now: time.Now}
}

func (s *Syncer) Languages() []string { return append([]string(nil), s.languages...) }

func (s *Syncer) records(ctx context.Context, master string) ([]content.Record, error) {
	docs, err := s.db.Collection(master).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", master, err)
	}
	out := make([]content.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, content.RecordFromDocument(d))
	}
	return out, nil
}

// SyncCollection regenerates every language set of master. Each existing set
// is backed up before it is replaced; a failed backup stops the run before
// that set is touched.
func (s *Syncer) SyncCollection(ctx context.Context, master string) (*SyncResult, error) {
	records, err := s.records(ctx, master)
	if err != nil {
		return nil, err
	}
	res := &SyncResult{
		Master:  master,
		Counts:  map[string]int{},
		Backups: map[string]string{},
		Stamp:   content.Stamp(s.now()),
	}
	sets := Sync(records, s.languages)
	for _, lang := range s.languages {
		name, err := s.sink.Backup(ctx, master, lang, "pre_sync", res.Stamp)
		if err != nil {
			return res, fmt.Errorf("back up %s/%s: %w", master, lang, err)
		}
		if name != "" {
			res.Backups[lang] = name
		}
		if err := s.sink.Replace(ctx, master, lang, sets[lang]); err != nil {
			return res, fmt.Errorf("write %s/%s: %w", master, lang, err)
		}
		res.Counts[lang] = len(sets[lang])
		metrics.LocaleViewsWritten.WithLabelValues(lang).Add(float64(len(sets[lang])))
		logger.Infof("locale sync %s: wrote %d %s views", master, len(sets[lang]), lang)
	}
	return res, nil
}

// CheckCollection loads master and every language set and runs Check.
func (s *Syncer) CheckCollection(ctx context.Context, master string) ([]Inconsistency, error) {
	records, err := s.records(ctx, master)
	if err != nil {
		return nil, err
	}
	sets := make(map[string][]content.LocaleView, len(s.languages))
	for _, lang := range s.languages {
		views, err := s.sink.Load(ctx, master, lang)
		if err != nil {
			return nil, fmt.Errorf("load %s/%s: %w", master, lang, err)
		}
		sets[lang] = views
	}
	found := Check(records, sets)
	for _, f := range found {
		metrics.LocaleInconsistencies.WithLabelValues(f.Kind).Inc()
	}
	if len(found) > 0 {
		logger.Warnf("locale check %s: %d inconsistencies", master, len(found))
	}
	return found, nil
}

// Backup snapshots every existing language set of master and returns the
// artifact names by language.
func (s *Syncer) Backup(ctx context.Context, master string) (map[string]string, error) {
	stamp := content.Stamp(s.now())
	out := map[string]string{}
	for _, lang := range s.languages {
		name, err := s.sink.Backup(ctx, master, lang, "manual", stamp)
		if err != nil {
			return out, fmt.Errorf("back up %s/%s: %w", master, lang, err)
		}
		if name != "" {
			out[lang] = name
		}
	}
	return out, nil
}
