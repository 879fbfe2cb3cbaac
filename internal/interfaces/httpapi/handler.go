package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/highlight-sync/internal/domain/syncstatus"
	"github.com/riskibarqy/highlight-sync/internal/platform/logging"
	"github.com/riskibarqy/highlight-sync/internal/usecase"
)

// SyncJobs is what the internal endpoints need from the sync pipeline.
type SyncJobs interface {
	Trigger(ctx context.Context, input usecase.SyncJobInput) (usecase.SyncJobResult, error)
	Status(ctx context.Context, operation string) ([]syncstatus.Status, error)
}

type Handler struct {
	jobs      SyncJobs
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(jobs SyncJobs, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		jobs:      jobs,
		logger:    logger,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
