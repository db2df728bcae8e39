package handlers

import (
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	dbpkg "edgeguard/internal/db"
)

type trafficRow struct {
	ID         uint              `json:"id"`
	Timestamp  string            `json:"timestamp"`
	Method     string            `json:"method"`
	Path       string            `json:"path"`
	Endpoint   string            `json:"endpoint"`
	StatusCode int               `json:"status_code"`
	Decision   string            `json:"decision"`
	RiskScore  *float64          `json:"risk_score,omitempty"`
	LatencyMs  int64             `json:"latency_ms"`
	IP         string            `json:"ip,omitempty"`
	UserAgent  string            `json:"user_agent,omitempty"`
	APIKeyID   string            `json:"api_key_id,omitempty"`
	Attributes datatypes.JSONMap `json:"attributes,omitempty"`
}

// RecentTraffic lists a project's latest log entries, newest first,
// with optional decision/status/method filters.
func RecentTraffic(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		project, ok := MustProject(ctx)
		if !ok {
			return
		}

		decision := string(ctx.QueryArgs().Peek("decision"))
		status := string(ctx.QueryArgs().Peek("status"))
		method := string(ctx.QueryArgs().Peek("method"))

		limit := 50
		if s := string(ctx.QueryArgs().Peek("limit")); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				if n > 200 {
					n = 200
				}
				limit = n
			}
		}
		offset := 0
		if s := string(ctx.QueryArgs().Peek("offset")); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n >= 0 {
				offset = n
			}
		}

		q := db.Model(&dbpkg.TrafficLog{}).Where("project_id = ?", project.ID)
		switch decision {
		case dbpkg.DecisionAllow, dbpkg.DecisionThrottle, dbpkg.DecisionBlock:
			q = q.Where("decision = ?", decision)
		}
		switch status {
		case "success":
			q = q.Where("status_code < ?", 400)
		case "error":
			q = q.Where("status_code >= ?", 400)
		}
		if method != "" {
			q = q.Where("method = ?", method)
		}

		var totalCount int64
		if err := q.Count(&totalCount).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to count traffic")
			return
		}

		var entries []dbpkg.TrafficLog
		if err := q.Order("timestamp DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query recent traffic")
			return
		}

		rows := make([]trafficRow, 0, len(entries))
		for _, e := range entries {
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
			rows = append(rows, row)
		}

		jsonResponse(ctx, map[string]any{
			"total":   totalCount,
			"limit":   limit,
			"offset":  offset,
			"entries": rows,
		})
	}
}
