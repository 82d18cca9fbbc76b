package content

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// DefaultLanguages are the locale codes every master record carries.
var DefaultLanguages = []string{"zh", "en"}

// Content status values.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Locale is one language's text for a content item.
type Locale struct {
	Title   string   `json:"title" bson:"title"`
	Summary string   `json:"summary" bson:"summary"`
	Tags    []string `json:"tags" bson:"tags"`
}

// Record is the canonical, language-neutral content item (master record).
// Fields this layer does not know about are preserved in Extra.
type Record struct {
	ID          any               `json:"id,omitempty" bson:"_id,omitempty"`
	SemanticID  string            `json:"semanticId" bson:"semanticId"`
	Slug        string            `json:"slug,omitempty" bson:"slug,omitempty"`
	Category    string            `json:"category" bson:"category"`
	Source      string            `json:"source,omitempty" bson:"source,omitempty"`
	Author      string            `json:"author,omitempty" bson:"author,omitempty"`
	PublishedAt time.Time         `json:"publishedAt" bson:"publishedAt"`
	Views       int64             `json:"views" bson:"views"`
	Comments    int64             `json:"comments" bson:"comments"`
	IsBreaking  bool              `json:"isBreaking" bson:"isBreaking"`
	IsImportant bool              `json:"isImportant" bson:"isImportant"`
	Status      string            `json:"status" bson:"status"`
	Locales     map[string]Locale `json:"locales" bson:"locales"`
	CreatedAt   time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt" bson:"updatedAt"`
	Extra       bson.M            `json:"extra,omitempty" bson:"-"`
}

var recordFields = map[string]bool{
	"_id": true, "semanticId": true, "slug": true, "category": true, "source": true,
	"author": true, "publishedAt": true, "views": true, "comments": true,
	"isBreaking": true, "isImportant": true, "status": true, "locales": true,
	"createdAt": true, "updatedAt": true,
}

// RecordFromDocument extracts a Record from a raw document without failing on
// legacy shapes. Missing locales are filled from title/summary maps when the
// document already carries them in {lang: value} form.
func RecordFromDocument(doc bson.M) Record {
	r := Record{
		ID:          doc["_id"],
		SemanticID:  AsString(doc["semanticId"]),
		Slug:        AsString(doc["slug"]),
		Category:    AsString(doc["category"]),
		Source:      AsString(doc["source"]),
		Author:      AsString(doc["author"]),
		PublishedAt: AsTime(doc["publishedAt"]),
		Views:       AsInt64(doc["views"]),
		Comments:    AsInt64(doc["comments"]),
		IsBreaking:  AsBool(doc["isBreaking"]),
		IsImportant: AsBool(doc["isImportant"]),
		Status:      AsString(doc["status"]),
		Locales:     map[string]Locale{},
		CreatedAt:   AsTime(doc["createdAt"]),
		UpdatedAt:   AsTime(doc["updatedAt"]),
		Extra:       bson.M{},
	}
	if locales, ok := AsMap(doc["locales"]); ok {
		for lang, raw := range locales {
			if m, ok := AsMap(raw); ok {
				r.Locales[lang] = Locale{
					Title:   AsString(m["title"]),
					Summary: AsString(m["summary"]),
					Tags:    AsStrings(m["tags"]),
				}
			}
		}
	}
	titles, _ := AsMap(doc["title"])
	summaries, _ := AsMap(doc["summary"])
	for lang, t := range titles {
		if _, ok := r.Locales[lang]; ok {
			continue
		}
		r.Locales[lang] = Locale{Title: AsString(t), Summary: AsString(summaries[lang]), Tags: AsStrings(doc["tags"])}
	}
	for k, v := range doc {
		if !recordFields[k] {
			r.Extra[k] = v
		}
	}
	return r
}

// Document renders the record for insertion, Extra fields included.
func (r Record) Document() bson.M {
	doc := bson.M{}
	for k, v := range r.Extra {
		doc[k] = v
	}
	if r.ID != nil {
		doc["_id"] = r.ID
	}
	locales := bson.M{}
	for lang, l := range r.Locales {
		tags := l.Tags
		if tags == nil {
			tags = []string{}
		}
		locales[lang] = bson.M{"title": l.Title, "summary": l.Summary, "tags": tags}
	}
	doc["semanticId"] = r.SemanticID
	if r.Slug != "" {
		doc["slug"] = r.Slug
	}
	doc["category"] = r.Category
	if r.Source != "" {
		doc["source"] = r.Source
	}
	if r.Author != "" {
		doc["author"] = r.Author
	}
	doc["publishedAt"] = r.PublishedAt
	doc["views"] = r.Views
	doc["comments"] = r.Comments
	doc["isBreaking"] = r.IsBreaking
	doc["isImportant"] = r.IsImportant
	doc["status"] = r.Status
	doc["locales"] = locales
	doc["createdAt"] = r.CreatedAt
	doc["updatedAt"] = r.UpdatedAt
	return doc
}

// LocaleView is the flat single-language projection of a Record. It is
// regenerated in full on every sync.
type LocaleView struct {
	ID          any       `json:"id" bson:"_id"`
	SemanticID  string    `json:"semanticId" bson:"semanticId"`
	Language    string    `json:"language" bson:"language"`
	Title       string    `json:"title" bson:"title"`
	Summary     string    `json:"summary" bson:"summary"`
	Tags        []string  `json:"tags" bson:"tags"`
	Category    string    `json:"category" bson:"category"`
	Source      string    `json:"source" bson:"source"`
	Author      string    `json:"author" bson:"author"`
	PublishedAt time.Time `json:"publishedAt" bson:"publishedAt"`
	Views       int64     `json:"views" bson:"views"`
	Comments    int64     `json:"comments" bson:"comments"`
	IsBreaking  bool      `json:"isBreaking" bson:"isBreaking"`
	IsImportant bool      `json:"isImportant" bson:"isImportant"`
	Status      string    `json:"status" bson:"status"`
}

// ViewFromDocument reads back a stored LocaleView.
func ViewFromDocument(doc bson.M) LocaleView {
	return LocaleView{
		ID:          doc["_id"],
		SemanticID:  AsString(doc["semanticId"]),
		Language:    AsString(doc["language"]),
		Title:       AsString(doc["title"]),
		Summary:     AsString(doc["summary"]),
		Tags:        AsStrings(doc["tags"]),
		Category:    AsString(doc["category"]),
		Source:      AsString(doc["source"]),
		Author:      AsString(doc["author"]),
		PublishedAt: AsTime(doc["publishedAt"]),
		Views:       AsInt64(doc["views"]),
		Comments:    AsInt64(doc["comments"]),
		IsBreaking:  AsBool(doc["isBreaking"]),
		IsImportant: AsBool(doc["isImportant"]),
		Status:      AsString(doc["status"]),
	}
}

// Document renders the view for insertion.
func (v LocaleView) Document() bson.M {
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}
	return bson.M{
		"_id":         v.ID,
		"semanticId":  v.SemanticID,
		"language":    v.Language,
		"title":       v.Title,
		"summary":     v.Summary,
		"tags":        tags,
		"category":    v.Category,
		"source":      v.Source,
		"author":      v.Author,
		"publishedAt": v.PublishedAt,
		"views":       v.Views,
		"comments":    v.Comments,
		"isBreaking":  v.IsBreaking,
		"isImportant": v.IsImportant,
		"status":      v.Status,
	}
}
