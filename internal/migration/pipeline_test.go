package migration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ainews/newsroom/backend/content-services/internal/content"
	"github.com/ainews/newsroom/backend/content-services/internal/store"
	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var runTime = time.Date(2025, 8, 29, 10, 11, 12, 345_000_000, time.UTC)

func steppingClock() func() time.Time {
	now := runTime
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func seedLegacy(t *testing.T, db *store.Memory) store.Collection {
	t.Helper()
	c := db.Collection("news")
	created := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err := c.InsertMany(context.Background(), []any{
		bson.M{
			"_id": "a", "title": "OpenAI 发布 GPT-5", "summary": "摘要", "viewCount": 10,
			"publishTime": "2025-08-29T10:00:00Z", "category": "大语言模型", "tags": bson.A{"ai"},
			"date": "2025-08-29", "weekday": "Fri", "isHot": true,
		},
		bson.M{
			"_id": "b", "title": bson.M{"zh": "新", "en": "new"}, "summary": bson.M{"zh": "s", "en": "s"},
			"views": 5, "viewCount": 99, "publishedAt": created, "category": "hardware",
			"status": content.StatusPublished, "comments": 2, "createdAt": created, "updatedAt": created,
			"locales": bson.M{
				"zh": bson.M{"title": "新", "summary": "s", "tags": bson.A{}},
				"en": bson.M{"title": "new", "summary": "s", "tags": bson.A{}},
			},
		},
		bson.M{
			"_id": "c", "title": primitive.Binary{Data: []byte("garbled")}, "category": "其他",
			"localeCache": `{"zh":{}}`, "locales": "zh,en", "isRecommended": false,
		},
		bson.M{"_id": "d"},
	})
	require.NoError(t, err)
	return c
}

func findOne(t *testing.T, c store.Collection, id string) bson.M {
	t.Helper()
	d, err := c.FindOne(context.Background(), bson.M{"_id": id})
	require.NoError(t, err)
	require.NotNil(t, d)
	return d
}

func countOf(t *testing.T, c store.Collection, filter bson.M) int64 {
	t.Helper()
	n, err := c.CountDocuments(context.Background(), filter)
	require.NoError(t, err)
	return n
}

func TestRunMigratesToCanonicalShape(t *testing.T) {
	db := store.NewMemory()
	c := seedLegacy(t, db)
	p := New(db, WithClock(steppingClock()))

	report, err := p.Run(context.Background(), "news")
	require.NoError(t, err)
	require.NotNil(t, report)
	require.True(t, report.Clean(), "issues: %+v", report.Issues)

	require.Zero(t, countOf(t, c, bson.M{"title": bson.M{"$type": "string"}}))
	require.Zero(t, countOf(t, c, bson.M{"viewCount": bson.M{"$exists": true}}))
	require.Zero(t, countOf(t, c, bson.M{"locales": bson.M{"$not": bson.M{"$type": "object"}}}))
	for _, f := range DeprecatedFields {
		require.Zero(t, countOf(t, c, bson.M{f: bson.M{"$exists": true}}), f)
	}

	a := findOne(t, c, "a")
	require.Equal(t, bson.M{"zh": "OpenAI 发布 GPT-5", "en": ""}, a["title"])
	require.EqualValues(t, 10, content.AsInt64(a["views"]))
	require.Equal(t, content.KindDate, content.KindOf(a["publishedAt"]))
	require.Equal(t, "large-language-models", a["category"])
	require.Equal(t, content.StatusDraft, a["status"])
	rec := content.RecordFromDocument(a)
	require.Equal(t, "OpenAI 发布 GPT-5", rec.Locales["zh"].Title)
	require.Equal(t, []string{"ai"}, rec.Locales["zh"].Tags)
	require.Equal(t, "", rec.Locales["en"].Title)

	// existing canonical values survive
	b := findOne(t, c, "b")
	require.EqualValues(t, 5, content.AsInt64(b["views"]))
	require.Equal(t, content.StatusPublished, b["status"])
	require.EqualValues(t, 2, content.AsInt64(b["comments"]))

	cdoc := findOne(t, c, "c")
	require.Equal(t, bson.M{"zh": "", "en": ""}, cdoc["title"])
	require.Equal(t, "其他", cdoc["category"])

	require.EqualValues(t, 3, report.Modified(StageNormalizeTitle))
	require.EqualValues(t, 4, report.TotalDocuments)
	require.EqualValues(t, 4, report.ValidDocuments)
	require.Equal(t, FieldShape{Canonical: 2, Legacy: 1, Absent: 1}, report.FieldStatistics["category"])
	require.Equal(t, FieldShape{Canonical: 4}, report.FieldStatistics["title"])
	require.Equal(t, FieldShape{Canonical: 4}, report.FieldStatistics["views"])

	// backup holds the pre-migration shapes
	require.Equal(t, "news_backup_2025-08-29T10-11-13-345Z", report.BackupCollection)
	backup := db.Collection(report.BackupCollection)
	require.EqualValues(t, 4, countOf(t, backup, bson.M{}))
	require.EqualValues(t, 1, countOf(t, backup, bson.M{"title": bson.M{"$type": "string"}}))

	saved, err := db.Collection(report.ReportCollection).FindOne(context.Background(), bson.M{"runId": report.RunID})
	require.NoError(t, err)
	require.NotNil(t, saved)
	require.EqualValues(t, 0, content.AsInt64(saved["documentsWithIssues"]))
}

func TestRunIsIdempotent(t *testing.T) {
	db := store.NewMemory()
	seedLegacy(t, db)
	p := New(db, WithClock(steppingClock()))

	_, err := p.Run(context.Background(), "news")
	require.NoError(t, err)
	second, err := p.Run(context.Background(), "news")
	require.NoError(t, err)
	for _, s := range second.Stages {
		if s.Stage == StageBackup || s.Stage == StageValidate {
			continue
		}
		require.Zero(t, s.Modified, "stage %s modified documents on the second run", s.Stage)
	}
}

func TestNormalizeTitleTwiceModifiesNothingTheSecondTime(t *testing.T) {
	db := store.NewMemory()
	seedLegacy(t, db)
	p := New(db)

	first, err := p.RunStage(context.Background(), "news", StageNormalizeTitle)
	require.NoError(t, err)
	require.EqualValues(t, 3, first.Modified)
	second, err := p.RunStage(context.Background(), "news", StageNormalizeTitle)
	require.NoError(t, err)
	require.Zero(t, second.Modified)

	_, err = p.RunStage(context.Background(), "news", StageBackup)
	require.True(t, errors.Is(err, content.ErrValidation))
}

func TestCustomLanguages(t *testing.T) {
	db := store.NewMemory()
	c := db.Collection("news")
	_, err := c.InsertMany(context.Background(), []any{bson.M{"_id": "x", "title": "Hello"}})
	require.NoError(t, err)

	p := New(db, WithLanguages([]string{"en", "ja"}))
	_, err = p.RunStage(context.Background(), "news", StageNormalizeTitle)
	require.NoError(t, err)
	require.Equal(t, bson.M{"en": "Hello", "ja": ""}, findOne(t, c, "x")["title"])
}

// faultyDB fails the bulk unset of deprecated fields.
type faultyDB struct{ *store.Memory }

func (d faultyDB) Collection(name string) store.Collection {
	return faultyCollection{d.Memory.Collection(name)}
}

type faultyCollection struct{ store.Collection }

func (f faultyCollection) UpdateMany(ctx context.Context, filter, update bson.M) (store.UpdateResult, error) {
	if unset, ok := update["$unset"].(bson.M); ok {
		if _, ok := unset["weekday"]; ok {
			return store.UpdateResult{}, errors.Join(content.ErrStore, errors.New("connection reset"))
		}
	}
	return f.Collection.UpdateMany(ctx, filter, update)
}

func TestStageFailureHaltsButStillReports(t *testing.T) {
	mem := store.NewMemory()
	c := seedLegacy(t, mem)
	p := New(faultyDB{mem}, WithClock(steppingClock()))

	report, err := p.Run(context.Background(), "news")
	require.Error(t, err)
	require.True(t, errors.Is(err, content.ErrStore))
	require.NotNil(t, report)
	require.Equal(t, StageDropDeprecatedFields, report.FailedStage)
	require.False(t, report.Clean())

	for _, s := range report.Stages {
		require.NotEqual(t, StageEnsureRequiredFields, s.Stage)
		require.NotEqual(t, StageValidate, s.Stage)
	}
	// earlier stages applied, later ones did not
	require.Zero(t, countOf(t, c, bson.M{"title": bson.M{"$type": "string"}}))
	require.Zero(t, countOf(t, c, bson.M{"status": bson.M{"$exists": true}, "_id": "d"}))

	require.EqualValues(t, 4, countOf(t, mem.Collection(report.BackupCollection), bson.M{}))
	require.EqualValues(t, 1, countOf(t, mem.Collection(report.ReportCollection), bson.M{}))
	require.EqualValues(t, 4, report.TotalDocuments)
}

func TestCancelledRunStillWritesReport(t *testing.T) {
	db := store.NewMemory()
	seedLegacy(t, db)
	p := New(db, WithClock(steppingClock()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := p.Run(ctx, "news")
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	require.Equal(t, StageBackup, report.FailedStage)
	require.Empty(t, report.BackupCollection)
	require.EqualValues(t, 4, report.TotalDocuments)
	require.Equal(t, FieldShape{Canonical: 1, Legacy: 2, Absent: 1}, report.FieldStatistics["category"])

	saved, err := db.Collection(report.ReportCollection).FindOne(context.Background(), bson.M{"runId": report.RunID})
	require.NoError(t, err)
	require.NotNil(t, saved)
	require.Equal(t, string(StageBackup), saved["failedStage"])
}

func TestRunOnEmptyCollectionNamesNoBackup(t *testing.T) {
	db := store.NewMemory()
	p := New(db, WithClock(steppingClock()))

	report, err := p.Run(context.Background(), "news")
	require.NoError(t, err)
	require.True(t, report.Clean())
	require.Empty(t, report.BackupCollection)
	require.Zero(t, report.TotalDocuments)
	require.Equal(t, []string{report.ReportCollection}, db.CollectionNames())
}

func TestValidateRequiresEveryLocale(t *testing.T) {
	db := store.NewMemory()
	c := db.Collection("news")
	_, err := c.InsertMany(context.Background(), []any{
		bson.M{"_id": "zh-only", "locales": bson.M{"zh": bson.M{"title": "新"}}},
		bson.M{"_id": "broken-en", "locales": bson.M{"zh": bson.M{"title": "新"}, "en": "broken"}},
		bson.M{"_id": "ok", "locales": bson.M{"zh": bson.M{"title": "新"}, "en": bson.M{"title": "new"}}},
	})
	require.NoError(t, err)

	var r Report
	require.NoError(t, validate(context.Background(), c, &r, []string{"zh", "en"}))
	require.EqualValues(t, 2, r.Issues.UnstructuredLocales)
	require.EqualValues(t, 2, r.InvalidDocuments)
	require.EqualValues(t, 1, r.ValidDocuments)
	require.ElementsMatch(t, []string{"zh-only", "broken-en"}, r.Issues.SampleIDs)

	// a stage-by-stage repair clears the finding
	p := New(db)
	_, err = p.RunStage(context.Background(), "news", StageBuildLocales)
	require.NoError(t, err)
	require.NoError(t, validate(context.Background(), c, &r, []string{"zh", "en"}))
	require.Zero(t, r.Issues.UnstructuredLocales)
}

func TestUnparseableViewCountIsCarriedOver(t *testing.T) {
	db := store.NewMemory()
	c := db.Collection("news")
	_, err := c.InsertMany(context.Background(), []any{
		bson.M{"_id": "bad", "viewCount": "12abc"},
		bson.M{"_id": "good", "viewCount": "42"},
	})
	require.NoError(t, err)

	p := New(db)
	res, err := p.RunStage(context.Background(), "news", StageMergeViewCounters)
	require.NoError(t, err)
	require.EqualValues(t, 2, res.Modified)

	bad := findOne(t, c, "bad")
	require.Equal(t, "12abc", bad["views"])
	require.NotContains(t, bad, "viewCount")
	require.EqualValues(t, 42, content.AsInt64(findOne(t, c, "good")["views"]))
}

func TestConcurrentRunIsRejected(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	locker := NewRedisLocker(client, "lease:")

	db := store.NewMemory()
	seedLegacy(t, db)
	p := New(db, WithLocker(locker), WithClock(steppingClock()))

	held, err := locker.Acquire(context.Background(), "migration:news", time.Minute)
	require.NoError(t, err)

	report, err := p.Run(context.Background(), "news")
	require.True(t, errors.Is(err, ErrLocked))
	require.Nil(t, report)
	require.Empty(t, db.CollectionNames()[1:], "no backup may be taken while locked")

	require.NoError(t, held.Release(context.Background()))
	report, err = p.Run(context.Background(), "news")
	require.NoError(t, err)
	require.True(t, report.Clean())
	require.False(t, m.Exists("lease:migration:news"))
}

func TestArtifactNames(t *testing.T) {
	require.Equal(t, "2025-08-29T10-11-12-345Z", Timestamp(runTime))
	require.Equal(t, "news_backup_2025-08-29T10-11-12-345Z", BackupName("news", runTime))
	require.Equal(t, "news_migration_report_2025-08-29T10-11-12-345Z", ReportName("news", runTime))
}
