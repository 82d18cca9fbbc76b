package migration

import (
	"context"
	"errors"
	"sort"

	"github.com/ainews/newsroom/backend/content-services/internal/content"
	"github.com/ainews/newsroom/backend/content-services/internal/fieldops"
	"github.com/ainews/newsroom/backend/content-services/internal/store"
	"github.com/ainews/newsroom/backend/content-services/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
)

// Stage names a step of the migration pipeline.
type Stage string

const (
	StageBackup                Stage = "Backup"
	StageNormalizeTitle        Stage = "NormalizeTitle"
	StageNormalizeSummary      Stage = "NormalizeSummary"
	StageBuildLocales          Stage = "BuildLocales"
	StageMergeViewCounters     Stage = "MergeViewCounters"
	StageMergePublishTimeField Stage = "MergePublishTimeField"
	StageStandardizeCategory   Stage = "StandardizeCategory"
	StageDropDeprecatedFields  Stage = "DropDeprecatedFields"
	StageEnsureRequiredFields  Stage = "EnsureRequiredFields"
	StageValidate              Stage = "Validate"
	StageReport                Stage = "Report"
)

// Stages lists the pipeline in execution order.
var Stages = []Stage{
	StageBackup, StageNormalizeTitle, StageNormalizeSummary, StageBuildLocales,
	StageMergeViewCounters, StageMergePublishTimeField, StageStandardizeCategory,
	StageDropDeprecatedFields, StageEnsureRequiredFields, StageValidate, StageReport,
}

// DeprecatedFields are removed from every document.
var DeprecatedFields = []string{"date", "weekday", "localeCache", "isHot", "isRecommended"}

// categoryMap maps legacy display labels to category tokens. Unknown labels
// are left alone.
var categoryMap = []struct{ label, token string }{
	{"大语言模型", "large-language-models"},
	{"医疗AI", "medical-ai"},
	{"自动驾驶", "autonomous-driving"},
	{"硬件", "hardware"},
	{"科学研究", "scientific-research"},
	{"测试", "test"},
	{"测试分类", "test"},
}

// CanonicalCategories returns the distinct category tokens, sorted.
func CanonicalCategories() []string {
	seen := map[string]bool{}
	out := []string{}
	for _, m := range categoryMap {
		if !seen[m.token] {
			seen[m.token] = true
			out = append(out, m.token)
		}
	}
	sort.Strings(out)
	return out
}

// CanonicalCategory returns the token for a legacy label.
func CanonicalCategory(label string) (string, bool) {
	for _, m := range categoryMap {
		if m.label == label {
			return m.token, true
		}
	}
	return "", false
}

type stageFunc func(ctx context.Context, c store.Collection) (store.UpdateResult, error)

func (p *Pipeline) mutations() map[Stage]stageFunc {
	return map[Stage]stageFunc{
		StageNormalizeTitle:        p.localizedField("title"),
		StageNormalizeSummary:      p.localizedField("summary"),
		StageBuildLocales:          p.buildLocales,
		StageMergeViewCounters:     p.mergeViewCounters,
		StageMergePublishTimeField: p.mergePublishTime,
		StageStandardizeCategory:   p.standardizeCategory,
		StageDropDeprecatedFields:  p.dropDeprecated,
		StageEnsureRequiredFields:  p.ensureRequired,
	}
}

// transformEach rewrites every document matching filter with the update fn
// returns. The filter is re-applied per document so a document changed by a
// concurrent writer in the meantime is skipped rather than clobbered.
func transformEach(ctx context.Context, c store.Collection, filter bson.M, fn func(bson.M) bson.M) (store.UpdateResult, error) {
	var total store.UpdateResult
	docs, err := c.Find(ctx, filter)
	if err != nil {
		return total, err
	}
	for _, d := range docs {
		update := fn(d)
		if len(update) == 0 {
			continue
		}
		guard := bson.M{"$and": bson.A{bson.M{"_id": d["_id"]}, filter}}
		res, err := c.UpdateOne(ctx, guard, update)
		if err != nil {
			return total, err
		}
		total.MatchedCount += res.MatchedCount
		total.ModifiedCount += res.ModifiedCount
	}
	return total, nil
}

// localizedField rewrites a plain-string, binary, null or absent field into a
// {lang: text} map. A legacy string becomes the primary language's text.
func (p *Pipeline) localizedField(field string) stageFunc {
	filter := bson.M{"$or": bson.A{
		bson.M{field: bson.M{"$type": "string"}},
		bson.M{field: bson.M{"$type": "binData"}},
		bson.M{field: bson.M{"$type": "null"}},
		bson.M{field: bson.M{"$exists": false}},
	}}
	return func(ctx context.Context, c store.Collection) (store.UpdateResult, error) {
		return transformEach(ctx, c, filter, func(d bson.M) bson.M {
			localized := bson.M{}
			for _, lang := range p.languages {
				localized[lang] = ""
			}
			if s, ok := d[field].(string); ok {
				localized[p.languages[0]] = s
			}
			return bson.M{"$set": bson.M{field: localized}}
		})
	}
}

// buildLocales makes sure locales is a map with an entry for every language.
// Existing entries are kept; missing ones come from the title and summary
// maps and the top-level tags.
func (p *Pipeline) buildLocales(ctx context.Context, c store.Collection) (store.UpdateResult, error) {
	ors := bson.A{notObject("locales")}
	for _, lang := range p.languages {
		ors = append(ors, bson.M{"locales." + lang: bson.M{"$not": bson.M{"$type": "object"}}})
	}
	filter := bson.M{"$or": ors}
	return transformEach(ctx, c, filter, func(d bson.M) bson.M {
		locales, ok := content.AsMap(d["locales"])
		if !ok {
			locales = bson.M{}
		}
		titles, _ := content.AsMap(d["title"])
		summaries, _ := content.AsMap(d["summary"])
		for _, lang := range p.languages {
			if _, ok := content.AsMap(locales[lang]); ok {
				continue
			}
			locales[lang] = bson.M{
				"title":   content.AsString(titles[lang]),
				"summary": content.AsString(summaries[lang]),
				"tags":    content.AsStrings(d["tags"]),
			}
		}
		return bson.M{"$set": bson.M{"locales": locales}}
	})
}

// mergeViewCounters moves viewCount into views using the number coercion of
// field operations. A value that does not parse is carried over unchanged and
// logged. Where both exist, views wins.
func (p *Pipeline) mergeViewCounters(ctx context.Context, c store.Collection) (store.UpdateResult, error) {
	filter := bson.M{"views": bson.M{"$exists": false}, "viewCount": bson.M{"$exists": true}}
	res, err := transformEach(ctx, c, filter, func(d bson.M) bson.M {
		views, err := fieldops.Coerce(d["viewCount"], fieldops.TypeNumber)
		if errors.Is(err, content.ErrCoercion) {
			logger.Warnf("migration %s: document %s viewCount: %v; copied as is", c.Name(), content.IDString(d["_id"]), err)
			views = d["viewCount"]
		}
		return bson.M{"$set": bson.M{"views": views}, "$unset": bson.M{"viewCount": ""}}
	})
	if err != nil {
		return res, err
	}
	return dropShadowed(ctx, c, "views", "viewCount", res)
}

// mergePublishTime moves publishTime into publishedAt, converting date strings
// to dates. Unparseable values are carried over unchanged.
func (p *Pipeline) mergePublishTime(ctx context.Context, c store.Collection) (store.UpdateResult, error) {
	filter := bson.M{"publishedAt": bson.M{"$exists": false}, "publishTime": bson.M{"$exists": true}}
	res, err := transformEach(ctx, c, filter, func(d bson.M) bson.M {
		var published any = d["publishTime"]
		if s, ok := published.(string); ok {
			if t := content.AsTime(s); !t.IsZero() {
				published = t
			}
		}
		return bson.M{"$set": bson.M{"publishedAt": published}, "$unset": bson.M{"publishTime": ""}}
	})
	if err != nil {
		return res, err
	}
	return dropShadowed(ctx, c, "publishedAt", "publishTime", res)
}

// dropShadowed unsets legacy where canonical is already present and adds the
// counts to acc.
func dropShadowed(ctx context.Context, c store.Collection, canonical, legacy string, acc store.UpdateResult) (store.UpdateResult, error) {
	res, err := c.UpdateMany(ctx, bson.M{canonical: bson.M{"$exists": true}, legacy: bson.M{"$exists": true}}, bson.M{"$unset": bson.M{legacy: ""}})
	acc.MatchedCount += res.MatchedCount
	acc.ModifiedCount += res.ModifiedCount
	return acc, err
}

func (p *Pipeline) standardizeCategory(ctx context.Context, c store.Collection) (store.UpdateResult, error) {
	var total store.UpdateResult
	for _, m := range categoryMap {
		res, err := c.UpdateMany(ctx, bson.M{"category": m.label}, bson.M{"$set": bson.M{"category": m.token}})
		if err != nil {
			return total, err
		}
		total.MatchedCount += res.MatchedCount
		total.ModifiedCount += res.ModifiedCount
	}
	return total, nil
}

func (p *Pipeline) dropDeprecated(ctx context.Context, c store.Collection) (store.UpdateResult, error) {
	ors := bson.A{}
	unset := bson.M{}
	for _, f := range DeprecatedFields {
		ors = append(ors, exists(f, true))
		unset[f] = ""
	}
	return c.UpdateMany(ctx, bson.M{"$or": ors}, bson.M{"$unset": unset})
}

// ensureRequired fills missing or null counters, status and timestamps
// without touching values that are already set.
func (p *Pipeline) ensureRequired(ctx context.Context, c store.Collection) (store.UpdateResult, error) {
	now := p.now().UTC()
	defaults := []struct {
		field string
		value any
	}{
		{"views", int64(0)},
		{"comments", int64(0)},
		{"status", content.StatusDraft},
		{"createdAt", now},
		{"updatedAt", now},
	}
	ors := bson.A{}
	for _, d := range defaults {
		ors = append(ors, bson.M{d.field: nil})
	}
	return transformEach(ctx, c, bson.M{"$or": ors}, func(doc bson.M) bson.M {
		set := bson.M{}
		for _, d := range defaults {
			if doc[d.field] == nil {
				set[d.field] = d.value
			}
		}
		return bson.M{"$set": set}
	})
}
