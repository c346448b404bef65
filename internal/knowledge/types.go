package knowledge

import "time"

// SourceType identifies the marketplace entity kind a knowledge entry was
// built from. The set is closed; adding a type means adding a formatter to
// the dispatch table in format.go and a fetcher in source.go.
type SourceType string

const (
	SourceTypeEquipment SourceType = "equipment"
	SourceTypeLabour    SourceType = "labour"
	SourceTypeUser      SourceType = "user"
	SourceTypeReview    SourceType = "review"
	SourceTypeBooking   SourceType = "booking"
)

// SourceTypes lists all valid source types in the order context sections
// are rendered. The order is fixed so prompts have a stable shape.
var SourceTypes = []SourceType{
	SourceTypeEquipment,
	SourceTypeLabour,
	SourceTypeUser,
	SourceTypeReview,
	SourceTypeBooking,
}

// Valid reports whether t is a known source type.
func (t SourceType) Valid() bool {
	switch t {
	case SourceTypeEquipment, SourceTypeLabour, SourceTypeUser, SourceTypeReview, SourceTypeBooking:
		return true
	}
	return false
}

// Entry is one retrievable fact unit: the plain-text rendering of a
// marketplace entity plus the structured metadata needed to format search
// results without a second lookup.
//
// (SourceType, SourceID) is unique; Upsert replaces content, metadata and
// embedding atomically.
type Entry struct {
	SourceType SourceType
	SourceID   string
	Content    string
	Metadata   map[string]any
	Embedding  []float32
}

// SearchResult is an Entry returned from vector search with its cosine
// similarity to the query.
type SearchResult struct {
	Entry
	Similarity float64
}

// Action is the change kind recorded on a queue item.
type Action string

const (
	ActionUpsert Action = "upsert"
	ActionDelete Action = "delete"
)

// QueueItem is one pending change notification appended by entity-mutation
// hooks. Items are drained oldest-first; Processed transitions false→true
// exactly once per item.
type QueueItem struct {
	ID         string
	SourceType SourceType
	SourceID   string
	Action     Action
	CreatedAt  time.Time
	Processed  bool
}

// SourceRecord is the formatted view of a source entity: the text to embed
// and the metadata projection retained alongside it.
type SourceRecord struct {
	Content  string
	Metadata map[string]any
}
