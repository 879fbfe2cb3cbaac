package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

// Internal routes sit behind the shared job token; they are called by the
// scheduler and by operators, never by the browsing UI.
func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/sync", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncJob)))
	mux.Handle("GET /v1/internal/sync-status", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ListSyncStatus)))
}
