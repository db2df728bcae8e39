package handlers

import (
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "edgeguard/internal/db"
)

// TrafficDetail serves one full-fidelity log entry, for drilling into
// a row from the recent-traffic listing.
func TrafficDetail(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		project, ok := MustProject(ctx)
		if !ok {
			return
		}

		idStr, _ := ctx.UserValue("logID").(string)
		id, err := strconv.Atoi(idStr)
		if err != nil || id <= 0 {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid log id")
			return
		}

		var e dbpkg.TrafficLog
		if err := db.First(&e, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				errResponse(ctx, fasthttp.StatusNotFound, "log entry not found")
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load log entry")
			return
		}

		if e.ProjectID != project.ID {
			errResponse(ctx, fasthttp.StatusForbidden, "forbidden")
			return
		}

		row := trafficRow{
			ID:         e.ID,
			Timestamp:  e.Timestamp.UTC().Format(time.RFC3339),
			Method:     e.Method,
			Path:       e.Path,
			Endpoint:   e.Endpoint,
			StatusCode: e.StatusCode,
			Decision:   e.Decision,
			LatencyMs:  e.LatencyMs,
			IP:         e.IP,
			UserAgent:  e.UserAgent,
			Attributes: e.Attributes,
		}
		if e.RiskScore != nil {
			score := float64(*e.RiskScore) / 100
			row.RiskScore = &score
		}
		if e.APIKeyID != nil {
			row.APIKeyID = e.APIKeyID.String()
		}

		jsonResponse(ctx, row)
	}
}
