package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/khetrent/khetrent/internal/memory"
	"github.com/khetrent/khetrent/internal/rag"
)

const maxRequestBody = 64 << 10 // 64 KiB

// assistantHandler serves the chat-assistant support endpoints: grounded
// context assembly and conversation turn recording.
type assistantHandler struct {
	builder *rag.Builder
	memory  *memory.Service
	logger  *slog.Logger
}

// contextRequest is the body of POST /api/assistant/context.
type contextRequest struct {
	Query          string  `json:"query"`
	ConversationID string  `json:"conversationId"`
	MaxResults     int32   `json:"maxResults"`
	Threshold      float64 `json:"threshold"`
	MaxTokens      int     `json:"maxTokens"`
}

// contextResponse adds conversation memory and a one-line source summary
// to the retrieval result.
type contextResponse struct {
	rag.Result
	Memory  string `json:"memory"`
	Summary string `json:"summary"`
}

// buildContext assembles grounded context for a user query. Retrieval
// failures degrade to an empty context rather than an error: the
// assistant answers ungrounded instead of not at all.
func (h *assistantHandler) buildContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "missing_query", "query is required")
		return
	}

	result := h.builder.BuildContext(r.Context(), req.Query, rag.Options{
		MaxTokens:  req.MaxTokens,
		Threshold:  req.Threshold,
		MaxResults: req.MaxResults,
	})

	resp := contextResponse{Result: result}
	if req.ConversationID != "" {
		conv := h.memory.FetchContext(r.Context(), req.ConversationID)
		resp.Memory = memory.FormatMemory(conv)
	}
	if result.HasContext {
		resp.Summary = rag.SourceSummary(result.Sources)
	}

	writeJSON(w, http.StatusOK, resp)
}

// turnRequest is the body of POST /api/assistant/turn.
type turnRequest struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	UserTurn       string `json:"userTurn"`
	AssistantTurn  string `json:"assistantTurn"`
}

// recordTurn folds one exchange into the conversation's rolling summary.
// Memory is best-effort: persistence problems are logged inside the
// service and never surface to the chat path, so this always returns 202
// once the request parses.
func (h *assistantHandler) recordTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ConversationID == "" {
		writeError(w, http.StatusBadRequest, "missing_conversation", "conversationId is required")
		return
	}

	var userID *uuid.UUID
	if req.UserID != "" {
		id, err := uuid.Parse(req.UserID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user", "userId must be a UUID")
			return
		}
		userID = &id
	}

	h.memory.RecordTurn(r.Context(), req.ConversationID, userID, req.UserTurn, req.AssistantTurn)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

// decodeBody parses a JSON request body, rejecting unknown shapes and
// oversized payloads. Writes the error response itself and reports
// whether decoding succeeded.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return false
	}
	return true
}
