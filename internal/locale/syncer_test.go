package locale

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ainews/newsroom/backend/content-services/internal/content"
	"github.com/ainews/newsroom/backend/content-services/internal/storage"
	"github.com/ainews/newsroom/backend/content-services/internal/store"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

var syncTime = time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

func seedMaster(t *testing.T, db *store.Memory) {
	t.Helper()
	_, err := db.Collection("news").InsertMany(context.Background(), []any{
		bson.M{"_id": "a", "semanticId": "openai-gpt-20250829001", "category": "hardware",
			"locales": bson.M{"zh": bson.M{"title": "标题", "summary": "", "tags": bson.A{}}, "en": bson.M{"title": "Title"}}},
		bson.M{"_id": "b", "semanticId": "ai-news-20250829002",
			"locales": bson.M{"zh": bson.M{"title": "只有中文"}}},
		bson.M{"_id": "c", "title": bson.M{"zh": "旧", "en": "old"}},
	})
	require.NoError(t, err)
}

func newSyncer(db store.Database, sink Sink) *Syncer {
	s := NewSyncer(db, sink, []string{"zh", "en"})
	s.now = func() time.Time { return syncTime }
	return s
}

func TestSyncCollectionWritesAndBacksUp(t *testing.T) {
	db := store.NewMemory()
	seedMaster(t, db)
	s := newSyncer(db, NewCollectionSink(db))
	ctx := context.Background()

	first, err := s.SyncCollection(ctx, "news")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"zh": 3, "en": 3}, first.Counts)
	require.Empty(t, first.Backups)

	en, err := db.Collection("news_en").FindOne(ctx, bson.M{"_id": "b"})
	require.NoError(t, err)
	require.Equal(t, "", en["title"])
	old, err := db.Collection("news_en").FindOne(ctx, bson.M{"_id": "c"})
	require.NoError(t, err)
	require.Equal(t, "old", old["title"])

	s.now = func() time.Time { return syncTime.Add(time.Hour) }
	second, err := s.SyncCollection(ctx, "news")
	require.NoError(t, err)
	require.Equal(t, "news_zh_backup_2025-09-01T09-00-00-000Z", second.Backups["zh"])
	n, err := db.Collection(second.Backups["en"]).CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
	n, err = db.Collection("news_zh").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	require.EqualValues(t, 3, n, "sync replaces rather than appends")
}

func TestCheckCollectionAfterDrift(t *testing.T) {
	db := store.NewMemory()
	seedMaster(t, db)
	s := newSyncer(db, NewCollectionSink(db))
	ctx := context.Background()

	_, err := s.SyncCollection(ctx, "news")
	require.NoError(t, err)
	found, err := s.CheckCollection(ctx, "news")
	require.NoError(t, err)
	require.Empty(t, found)

	_, err = db.Collection("news").InsertMany(ctx, []any{bson.M{"_id": "d"}})
	require.NoError(t, err)
	found, err = s.CheckCollection(ctx, "news")
	require.NoError(t, err)
	require.Len(t, found, 4)
	for _, f := range found {
		if f.Kind == KindMissingIdentifier {
			require.Equal(t, "d", f.ID)
		}
	}
}

func TestManualBackup(t *testing.T) {
	db := store.NewMemory()
	seedMaster(t, db)
	s := newSyncer(db, NewCollectionSink(db))
	ctx := context.Background()

	names, err := s.Backup(ctx, "news")
	require.NoError(t, err)
	require.Empty(t, names)

	_, err = s.SyncCollection(ctx, "news")
	require.NoError(t, err)
	names, err = s.Backup(ctx, "news")
	require.NoError(t, err)
	require.Len(t, names, 2)
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func newFakeObjects() *fakeObjects { return &fakeObjects{objects: map[string][]byte{}} }

func (f *fakeObjects) UploadFile(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if f.failPut {
		return errors.New("bucket is read-only")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = b
	return nil
}

func (f *fakeObjects) DownloadFile(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeObjects) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeObjects) Copy(_ context.Context, src, dst string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[src]
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrObjectNotFound, src)
	}
	f.objects[dst] = append([]byte(nil), b...)
	return nil
}

func TestObjectSinkRoundTrip(t *testing.T) {
	db := store.NewMemory()
	seedMaster(t, db)
	objects := newFakeObjects()
	s := newSyncer(db, NewObjectSink(objects))
	ctx := context.Background()

	found, err := s.CheckCollection(ctx, "news")
	require.NoError(t, err)
	require.Len(t, found, 8, "missing sets count as empty")

	_, err = s.SyncCollection(ctx, "news")
	require.NoError(t, err)
	require.Contains(t, objects.objects, "locales/news/zh.json")

	views, err := NewObjectSink(objects).Load(ctx, "news", "en")
	require.NoError(t, err)
	require.Len(t, views, 3)
	require.Equal(t, "Title", views[0].Title)

	res, err := s.SyncCollection(ctx, "news")
	require.NoError(t, err)
	require.Equal(t, "locales/news/backup/en_pre_sync_2025-09-01T08-00-00-000Z.json", res.Backups["en"])

	found, err = s.CheckCollection(ctx, "news")
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestObjectSinkWriteFailure(t *testing.T) {
	db := store.NewMemory()
	seedMaster(t, db)
	objects := newFakeObjects()
	objects.failPut = true
	s := newSyncer(db, NewObjectSink(objects))

	res, err := s.SyncCollection(context.Background(), "news")
	require.Error(t, err)
	require.True(t, errors.Is(err, content.ErrStore))
	require.Empty(t, res.Counts)
}
