package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/blog/internal/view"
)

// healthCheckTimeout はヘルスチェックでのストア疎通確認のタイムアウト。
const healthCheckTimeout = 2 * time.Second

// PageHandler は静的ページと運用エンドポイントのHTTPハンドラー。
type PageHandler struct {
	*responder
	health HealthChecker
}

func newPageHandler(rs *responder, health HealthChecker) *PageHandler {
	return &PageHandler{responder: rs, health: health}
}

// About は紹介ページを表示する。
// GET /about
func (h *PageHandler) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, view.PageAbout, h.page(r, "About"))
}

// Healthz はストアへの疎通を確認する。
// GET /healthz
func (h *PageHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := h.health.PingContext(ctx); err != nil {
		slog.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("unavailable\n"))
		return
	}
	w.Write([]byte("ok\n"))
}
