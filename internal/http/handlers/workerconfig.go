package handlers

import (
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "edgeguard/internal/db"
)

// WorkerConfigHandler serves the routing/auth snapshot the edge
// workers poll: per project the upstream URL, verified domains and
// active key hashes.
func WorkerConfigHandler(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		configs, err := dbpkg.WorkerConfigs(db)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load worker config")
			return
		}
		jsonResponse(ctx, map[string]any{
			"generated_at": time.Now().UTC(),
			"projects":     configs,
		})
	}
}
