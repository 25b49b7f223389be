// Package models defines the space, subject and category types tracked by
// the sync engine and persisted to the blob store.
package models

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/spacekeeper/internal/cryptox"
	"github.com/google/uuid"
)

// Space is a user's top-level collection of subjects and categories,
// persisted as one remote JSON object.
//
// When IsLocked is true the persisted Subjects and Categories are empty and
// the real content lives inside EncryptedData; when false, EncryptedData is
// absent. The sync engine is the sole writer of the persisted form; the UI
// mutates an in-memory mirror that always holds the plaintext content.
type Space struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Subjects      []Subject         `json:"subjects"`
	Categories    []Category        `json:"categories"`
	IsLocked      bool              `json:"isLocked,omitempty"`
	EncryptedData *cryptox.Envelope `json:"encryptedData,omitempty"`
}

// EncryptedContent is the plaintext payload sealed inside a locked space's
// envelope: everything except the title.
type EncryptedContent struct {
	Subjects   []Subject  `json:"subjects"`
	Categories []Category `json:"categories"`
}

// Subject is a single rich-text note entry within a space.
type Subject struct {
	ID          int64    `json:"id"`
	Content     string   `json:"content"`
	TextContent string   `json:"textContent"`
	Tags        []string `json:"tags"`
	CreatedAt   string   `json:"createdAt"`
	Completed   bool     `json:"completed"`
	// Images is unused but kept so older persisted spaces round-trip.
	Images       []string `json:"images"`
	Order        float64  `json:"order"`
	IsPinned     bool     `json:"isPinned,omitempty"`
	ReminderDate string   `json:"reminderDate,omitempty"` // "YYYY-MM-DD"
}

// Category groups tags under a name. A tag belongs to at most one category
// at a time; the caller removes it from all others before adding.
type Category struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// NewSubjectID produces a client-generated id, unique per space and roughly
// monotonic: current epoch millis scaled with a small random component.
func NewSubjectID() int64 {
	return time.Now().UnixMilli()*1000 + rand.Int64N(1000)
}

// NewSubject builds a subject from rich-text content with a fresh id,
// creation timestamp and normalized tags. Order is left for the caller.
func NewSubject(content string, tags []string) Subject {
	return Subject{
		ID:          NewSubjectID(),
		Content:     content,
		TextContent: PlainText(content),
		Tags:        NormalizeTags(tags),
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Images:      []string{},
	}
}

// NewCategory builds an empty category with a fresh id.
func NewCategory(name string) Category {
	return Category{ID: uuid.NewString(), Name: name, Tags: []string{}}
}

var (
	htmlTagRe   = regexp.MustCompile(`<[^>]*>`)
	dataImageRe = regexp.MustCompile(`data:image/[^"'\s)]*`)
)

// PlainText derives the searchable text of a subject from its HTML content:
// markup and inline base64 images are stripped, whitespace collapsed.
func PlainText(html string) string {
	s := dataImageRe.ReplaceAllString(html, "")
	s = htmlTagRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeTags lowercases and deduplicates tags, preserving first-seen
// order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// PruneEmptyCategories drops categories whose tag list is empty.
func PruneEmptyCategories(categories []Category) []Category {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		if len(c.Tags) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy of the space, so a snapshot of tracked state can
// be serialized while the original keeps being mutated.
func (s Space) Clone() Space {
	out := s
	out.Subjects = make([]Subject, len(s.Subjects))
	for i, sub := range s.Subjects {
		out.Subjects[i] = sub.Clone()
	}
	out.Categories = make([]Category, len(s.Categories))
	for i, c := range s.Categories {
		out.Categories[i] = c.Clone()
	}
	if s.EncryptedData != nil {
		env := *s.EncryptedData
		out.EncryptedData = &env
	}
	return out
}

// Clone returns a deep copy of the subject.
func (s Subject) Clone() Subject {
	out := s
	out.Tags = append([]string(nil), s.Tags...)
	out.Images = append([]string(nil), s.Images...)
	return out
}

// Clone returns a deep copy of the category.
func (c Category) Clone() Category {
	out := c
	out.Tags = append([]string(nil), c.Tags...)
	return out
}
