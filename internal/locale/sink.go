package locale

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ainews/newsroom/backend/content-services/internal/content"
	"github.com/ainews/newsroom/backend/content-services/internal/storage"
	"github.com/ainews/newsroom/backend/content-services/internal/store"
	"go.mongodb.org/mongo-driver/bson"
)

// Sink persists one view set per master collection and language.
type Sink interface {
	Load(ctx context.Context, master, lang string) ([]content.LocaleView, error)
	// Backup snapshots the current set and returns the artifact name, or ""
	// when there was nothing to back up. reason is "pre_sync" or "manual".
	Backup(ctx context.Context, master, lang, reason, stamp string) (string, error)
	// Replace overwrites the set wholesale.
	Replace(ctx context.Context, master, lang string, views []content.LocaleView) error
}

// CollectionSink keeps view sets in <master>_<lang> collections.
type CollectionSink struct {
	db store.Database
}

func NewCollectionSink(db store.Database) *CollectionSink {
	return &CollectionSink{db: db}
}

func ViewCollection(master, lang string) string { return master + "_" + lang }

func (s *CollectionSink) Load(ctx context.Context, master, lang string) ([]content.LocaleView, error) {
	docs, err := s.db.Collection(ViewCollection(master, lang)).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	views := make([]content.LocaleView, 0, len(docs))
	for _, d := range docs {
		views = append(views, content.ViewFromDocument(d))
	}
	return views, nil
}

func (s *CollectionSink) Backup(ctx context.Context, master, lang, _ string, stamp string) (string, error) {
	src := ViewCollection(master, lang)
	docs, err := s.db.Collection(src).Find(ctx, bson.M{})
	if err != nil || len(docs) == 0 {
		return "", err
	}
	name := src + "_backup_" + stamp
	batch := make([]any, len(docs))
	for i, d := range docs {
		batch[i] = d
	}
	if _, err := s.db.Collection(name).InsertMany(ctx, batch); err != nil {
		return "", err
	}
	return name, nil
}

func (s *CollectionSink) Replace(ctx context.Context, master, lang string, views []content.LocaleView) error {
	c := s.db.Collection(ViewCollection(master, lang))
	if _, err := c.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	if len(views) == 0 {
		return nil
	}
	batch := make([]any, len(views))
	for i, v := range views {
		batch[i] = v.Document()
	}
	_, err := c.InsertMany(ctx, batch)
	return err
}

// ObjectStore is the part of storage.MinIOStorage the object sink needs.
type ObjectStore interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	DownloadFile(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Copy(ctx context.Context, src, dst string) error
}

// ObjectSink keeps each view set as a JSON array in an object store under
// locales/<master>/<lang>.json.
type ObjectSink struct {
	objects ObjectStore
}

func NewObjectSink(objects ObjectStore) *ObjectSink {
	return &ObjectSink{objects: objects}
}

func ObjectKey(master, lang string) string {
	return fmt.Sprintf("locales/%s/%s.json", master, lang)
}

func BackupKey(master, lang, reason, stamp string) string {
	return fmt.Sprintf("locales/%s/backup/%s_%s_%s.json", master, lang, reason, stamp)
}

func (s *ObjectSink) Load(ctx context.Context, master, lang string) ([]content.LocaleView, error) {
	rc, err := s.objects.DownloadFile(ctx, ObjectKey(master, lang))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return []content.LocaleView{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", content.ErrStore, err)
	}
	defer rc.Close()
	views := []content.LocaleView{}
	if err := json.NewDecoder(rc).Decode(&views); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", content.ErrStore, ObjectKey(master, lang), err)
	}
	return views, nil
}

func (s *ObjectSink) Backup(ctx context.Context, master, lang, reason, stamp string) (string, error) {
	key := ObjectKey(master, lang)
	ok, err := s.objects.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", content.ErrStore, err)
	}
	if !ok {
		return "", nil
	}
	dst := BackupKey(master, lang, reason, stamp)
	if err := s.objects.Copy(ctx, key, dst); err != nil {
		return "", fmt.Errorf("%w: %w", content.ErrStore, err)
	}
	return dst, nil
}

func (s *ObjectSink) Replace(ctx context.Context, master, lang string, views []content.LocaleView) error {
	if views == nil {
		views = []content.LocaleView{}
	}
	body, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", master, lang, err)
	}
	if err := s.objects.UploadFile(ctx, ObjectKey(master, lang), bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return fmt.Errorf("%w: %w", content.ErrStore, err)
	}
	return nil
}
