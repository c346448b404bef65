package memory

import (
	"time"

	"github.com/google/uuid"
)

// MaxSummaryChars is the hard ceiling on a rolling summary. Updates that
// would exceed it keep only the trailing slice (drop-oldest): the summary
// is a sliding window, not an unbounded log.
const MaxSummaryChars = 4000

// maxTurnChars clips each recorded turn before appending.
const maxTurnChars = 500

// embedPrefixChars bounds how much of the summary is re-embedded.
const embedPrefixChars = 512

// ConversationContext is the rolling, PII-scrubbed memory of one chat
// session. UserID is nil for anonymous sessions; Embedding is nil until
// the first successful summary embedding.
type ConversationContext struct {
	ConversationID string
	UserID         *uuid.UUID
	RollingSummary string
	MessageCount   int
	Embedding      []float32
	LastUpdated    time.Time
}
