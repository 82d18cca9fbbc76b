package migration

import (
	"context"
	"time"

	"github.com/ainews/newsroom/backend/content-services/internal/content"
	"github.com/ainews/newsroom/backend/content-services/internal/store"
	"go.mongodb.org/mongo-driver/bson"
)

// maxSampleIDs bounds the problem documents listed in a report.
const maxSampleIDs = 5

// StageResult records what one stage did.
type StageResult struct {
	Stage    Stage         `json:"stage" bson:"stage"`
	Matched  int64         `json:"matched" bson:"matched"`
	Modified int64         `json:"modified" bson:"modified"`
	Duration time.Duration `json:"duration" bson:"duration"`
	Error    string        `json:"error,omitempty" bson:"error,omitempty"`
}

// FieldShape counts documents holding a field in its canonical form, in a
// legacy form, or not at all.
type FieldShape struct {
	Canonical int64 `json:"canonical" bson:"canonical"`
	Legacy    int64 `json:"legacy" bson:"legacy"`
	Absent    int64 `json:"absent" bson:"absent"`
}

// Issues breaks down the documents that still have a pre-migration shape.
type Issues struct {
	StringTitle         int64    `json:"stringTitle" bson:"stringTitle"`
	StringSummary       int64    `json:"stringSummary" bson:"stringSummary"`
	LegacyViewCount     int64    `json:"legacyViewCount" bson:"legacyViewCount"`
	LegacyPublishTime   int64    `json:"legacyPublishTime" bson:"legacyPublishTime"`
	DeprecatedFields    int64    `json:"deprecatedFields" bson:"deprecatedFields"`
	UnstructuredLocales int64    `json:"unstructuredLocales" bson:"unstructuredLocales"`
	SampleIDs           []string `json:"sampleIds" bson:"sampleIds"`
}

// Report is written once at the end of a run and never updated.
type Report struct {
	RunID            string                `json:"runId" bson:"runId"`
	Collection       string                `json:"collection" bson:"collection"`
	StartedAt        time.Time             `json:"startedAt" bson:"startedAt"`
	FinishedAt       time.Time             `json:"finishedAt" bson:"finishedAt"`
	BackupCollection string                `json:"backupCollection" bson:"backupCollection"`
	ReportCollection string                `json:"reportCollection" bson:"reportCollection"`
	Stages           []StageResult         `json:"stages" bson:"stages"`
	FailedStage      Stage                 `json:"failedStage,omitempty" bson:"failedStage,omitempty"`
	Error            string                `json:"error,omitempty" bson:"error,omitempty"`
	TotalDocuments   int64                 `json:"totalDocuments" bson:"totalDocuments"`
	ValidDocuments   int64                 `json:"validDocuments" bson:"validDocuments"`
	InvalidDocuments int64                 `json:"documentsWithIssues" bson:"documentsWithIssues"`
	Issues           Issues                `json:"issues" bson:"issues"`
	FieldStatistics  map[string]FieldShape `json:"fieldStatistics" bson:"fieldStatistics"`
}

// Clean reports whether every stage ran and no document kept a legacy shape.
func (r *Report) Clean() bool {
	return r.FailedStage == "" && r.InvalidDocuments == 0 && r.stageRan(StageValidate)
}

// Modified returns the documents modified by stage, or 0 if it did not run.
func (r *Report) Modified(stage Stage) int64 {
	for _, s := range r.Stages {
		if s.Stage == stage {
			return s.Modified
		}
	}
	return 0
}

func (r *Report) stageRan(stage Stage) bool {
	for _, s := range r.Stages {
		if s.Stage == stage && s.Error == "" {
			return true
		}
	}
	return false
}

// Timestamp is the artifact suffix of a run started at t.
func Timestamp(t time.Time) string { return content.Stamp(t) }

// BackupName is the snapshot collection of a run.
func BackupName(collection string, t time.Time) string {
	return collection + "_backup_" + Timestamp(t)
}

// ReportName is the collection a run's report is written to.
func ReportName(collection string, t time.Time) string {
	return collection + "_migration_report_" + Timestamp(t)
}

func notObject(field string) bson.M {
	return bson.M{field: bson.M{"$not": bson.M{"$type": "object"}}}
}

func exists(field string, yes bool) bson.M {
	return bson.M{field: bson.M{"$exists": yes}}
}

// unstructuredLocales matches documents whose locales is not a map or lacks a
// map entry for one of languages.
func unstructuredLocales(languages []string) bson.M {
	ors := bson.A{notObject("locales")}
	for _, lang := range languages {
		ors = append(ors, notObject("locales."+lang))
	}
	return bson.M{"$or": ors}
}

// issueFilters lists every pre-migration shape Validate looks for.
func issueFilters(languages []string) map[string]bson.M {
	deprecated := make(bson.A, 0, len(DeprecatedFields))
	for _, f := range DeprecatedFields {
		deprecated = append(deprecated, exists(f, true))
	}
	return map[string]bson.M{
		"stringTitle":         {"title": bson.M{"$type": "string"}},
		"stringSummary":       {"summary": bson.M{"$type": "string"}},
		"legacyViewCount":     exists("viewCount", true),
		"legacyPublishTime":   exists("publishTime", true),
		"deprecatedFields":    {"$or": deprecated},
		"unstructuredLocales": unstructuredLocales(languages),
	}
}

func anyIssue(languages []string) bson.M {
	ors := bson.A{}
	for _, f := range issueFilters(languages) {
		ors = append(ors, f)
	}
	return bson.M{"$or": ors}
}

// validate counts documents still carrying a legacy shape. Every document must
// hold a locales map with a structured entry per language.
func validate(ctx context.Context, c store.Collection, r *Report, languages []string) error {
	total, err := c.CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	counts := map[string]int64{}
	for name, f := range issueFilters(languages) {
		n, err := c.CountDocuments(ctx, f)
		if err != nil {
			return err
		}
		counts[name] = n
	}
	problems, err := c.Find(ctx, anyIssue(languages))
	if err != nil {
		return err
	}
	samples := make([]string, 0, maxSampleIDs)
	for _, d := range problems {
		if len(samples) == maxSampleIDs {
			break
		}
		samples = append(samples, content.IDString(d["_id"]))
	}

	r.TotalDocuments = total
	r.InvalidDocuments = int64(len(problems))
	r.ValidDocuments = total - r.InvalidDocuments
	r.Issues = Issues{
		StringTitle:         counts["stringTitle"],
		StringSummary:       counts["stringSummary"],
		LegacyViewCount:     counts["legacyViewCount"],
		LegacyPublishTime:   counts["legacyPublishTime"],
		DeprecatedFields:    counts["deprecatedFields"],
		UnstructuredLocales: counts["unstructuredLocales"],
		SampleIDs:           samples,
	}
	return nil
}

type shapeFilters struct {
	canonical, legacy, absent bson.M
}

func fieldShapes() map[string]shapeFilters {
	structured := func(f string) shapeFilters {
		return shapeFilters{
			canonical: bson.M{f: bson.M{"$type": "object"}},
			legacy:    bson.M{f: bson.M{"$exists": true, "$not": bson.M{"$type": "object"}}},
			absent:    exists(f, false),
		}
	}
	merged := func(canonical, legacy string) shapeFilters {
		return shapeFilters{
			canonical: exists(canonical, true),
			legacy:    bson.M{canonical: bson.M{"$exists": false}, legacy: bson.M{"$exists": true}},
			absent:    bson.M{canonical: bson.M{"$exists": false}, legacy: bson.M{"$exists": false}},
		}
	}
	tokens := CanonicalCategories()
	return map[string]shapeFilters{
		"title":       structured("title"),
		"summary":     structured("summary"),
		"locales":     structured("locales"),
		"views":       merged("views", "viewCount"),
		"publishedAt": merged("publishedAt", "publishTime"),
		"category": {
			canonical: bson.M{"category": bson.M{"$in": tokens}},
			legacy:    bson.M{"category": bson.M{"$exists": true, "$nin": tokens}},
			absent:    exists("category", false),
		},
	}
}

// fieldStatistics fills r.FieldStatistics. It is best effort: a failing count
// leaves the remaining fields out.
func fieldStatistics(ctx context.Context, c store.Collection, r *Report) error {
	stats := map[string]FieldShape{}
	r.FieldStatistics = stats
	for field, f := range fieldShapes() {
		var s FieldShape
		var err error
		if s.Canonical, err = c.CountDocuments(ctx, f.canonical); err != nil {
			return err
		}
		if s.Legacy, err = c.CountDocuments(ctx, f.legacy); err != nil {
			return err
		}
		if s.Absent, err = c.CountDocuments(ctx, f.absent); err != nil {
			return err
		}
		stats[field] = s
	}
	return nil
}
