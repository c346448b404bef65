package api

import (
	"log/slog"
	"net/http"

	"github.com/khetrent/khetrent/internal/knowledge"
)

// knowledgeHandler exposes the operational endpoints of the embedding
// pipeline: batch queue processing, full resync and index status.
type knowledgeHandler struct {
	processor *knowledge.Processor
	syncer    *knowledge.Syncer
	store     *knowledge.Store
	queue     *knowledge.QueueStore
	logger    *slog.Logger
}

// processQueue drains one batch from the embedding queue and reports
// per-item outcomes. Always 200 with a report unless the batch itself
// could not be fetched.
func (h *knowledgeHandler) processQueue(w http.ResponseWriter, r *http.Request) {
	report, err := h.processor.ProcessBatch(r.Context())
	if err != nil {
		h.logger.Error("processing embedding queue", "error", err)
		writeError(w, http.StatusInternalServerError, "queue_failed", "failed to process embedding queue")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// sync re-embeds every source entity. With ?type=equipment only that
// source type is synced.
func (h *knowledgeHandler) sync(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("type"); raw != "" {
		sourceType := knowledge.SourceType(raw)
		if !sourceType.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_type", "unknown source type: "+raw)
			return
		}
		report := h.syncer.SyncType(r.Context(), sourceType)
		writeJSON(w, http.StatusOK, map[knowledge.SourceType]knowledge.SyncReport{sourceType: report})
		return
	}

	reports := h.syncer.SyncAll(r.Context())
	writeJSON(w, http.StatusOK, reports)
}

// statusResponse is the body of GET /api/knowledge/status.
type statusResponse struct {
	TotalEntries int64                          `json:"totalEntries"`
	ByType       map[knowledge.SourceType]int64 `json:"byType"`
	PendingQueue int64                          `json:"pendingQueue"`
}

// status reports index size per source type and queue depth.
func (h *knowledgeHandler) status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.store.Count(ctx, "")
	if err != nil {
		h.logger.Error("counting knowledge entries", "error", err)
		writeError(w, http.StatusInternalServerError, "status_failed", "failed to read index status")
		return
	}

	byType := make(map[knowledge.SourceType]int64, len(knowledge.SourceTypes))
	for _, sourceType := range knowledge.SourceTypes {
		count, err := h.store.Count(ctx, sourceType)
		if err != nil {
			h.logger.Error("counting knowledge entries", "source_type", sourceType, "error", err)
			writeError(w, http.StatusInternalServerError, "status_failed", "failed to read index status")
			return
		}
		byType[sourceType] = count
	}

	pending, err := h.queue.CountPending(ctx)
	if err != nil {
		h.logger.Error("counting pending queue items", "error", err)
		writeError(w, http.StatusInternalServerError, "status_failed", "failed to read queue status")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		TotalEntries: total,
		ByType:       byType,
		PendingQueue: pending,
	})
}
