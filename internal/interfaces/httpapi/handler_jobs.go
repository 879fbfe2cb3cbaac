package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/riskibarqy/highlight-sync/internal/domain/syncstatus"
	"github.com/riskibarqy/highlight-sync/internal/usecase"
)

type internalJobSyncRequest struct {
	Strategies []string `json:"strategies" validate:"omitempty,max=16,dive,required,max=64"`
	Wait       bool     `json:"wait"`
}

type syncStatusDTO struct {
	Operation    string    `json:"operation"`
	RunID        string    `json:"runId"`
	LastRunAt    time.Time `json:"lastRunAt"`
	Outcome      string    `json:"outcome"`
	Message      string    `json:"message"`
	CallCount    int64     `json:"callCount"`
	ItemsSeen    int       `json:"itemsSeen"`
	ItemsWritten int       `json:"itemsWritten"`
	ItemsSkipped int       `json:"itemsSkipped"`
	ItemsFailed  int       `json:"itemsFailed"`
}

// RunSyncJob starts a sync run. Background runs answer 202; {"wait": true}
// runs inline and answers 200 with the run report.
func (h *Handler) RunSyncJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncJob")
	defer span.End()

	if h.jobs == nil {
		writeError(ctx, w, fmt.Errorf("%w: sync jobs are not configured", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := decodeInternalJobSyncRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.jobs.Trigger(ctx, usecase.SyncJobInput{
		Strategies: req.Strategies,
		Wait:       req.Wait,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "run sync job failed", "strategies", req.Strategies, "wait", req.Wait, "error", err)
		writeError(ctx, w, err)
		return
	}

	status := http.StatusAccepted
	if result.Report != nil {
		status = http.StatusOK
	}
	writeSuccess(ctx, w, status, result)
}

// ListSyncStatus returns the ledger, or one row with ?operation=.
func (h *Handler) ListSyncStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSyncStatus")
	defer span.End()

	if h.jobs == nil {
		writeError(ctx, w, fmt.Errorf("%w: sync jobs are not configured", usecase.ErrDependencyUnavailable))
		return
	}

	items, err := h.jobs.Status(ctx, r.URL.Query().Get("operation"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]syncStatusDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toSyncStatusDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]any{"items": out})
}

func decodeInternalJobSyncRequest(r *http.Request) (internalJobSyncRequest, error) {
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req internalJobSyncRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return internalJobSyncRequest{}, nil
		}
		return internalJobSyncRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}

func toSyncStatusDTO(item syncstatus.Status) syncStatusDTO {
	return syncStatusDTO{
		Operation:    item.Operation,
		RunID:        item.RunID,
		LastRunAt:    item.LastRunAt,
		Outcome:      string(item.Outcome),
		Message:      item.Message,
		CallCount:    item.CallCount,
		ItemsSeen:    item.ItemsSeen,
		ItemsWritten: item.ItemsWritten,
		ItemsSkipped: item.ItemsSkipped,
		ItemsFailed:  item.ItemsFailed,
	}
}
