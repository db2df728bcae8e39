package main

import (
	"log"

	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"

	"edgeguard/internal/analysis"
	"edgeguard/internal/config"
	"edgeguard/internal/db"
	"edgeguard/internal/http/handlers"
	appmw "edgeguard/internal/http/middleware"
	"edgeguard/internal/ingest"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	sqlDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	db.StartRetentionWorker(sqlDB, cfg)

	if err := db.EnsureBootstrapProject(sqlDB, cfg); err != nil {
		log.Fatalf("failed to ensure bootstrap project: %v", err)
	}

	handlers.InitPrometheusMetrics()

	pipeline := ingest.NewPipeline(db.NewTrafficStore(sqlDB), cfg.IngestTimeout)
	analyzer := analysis.NewAnalyzer(sqlDB)

	r := router.New()

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})

	r.GET("/metrics", handlers.MetricsHandler())

	// Worker-facing surface, shared-secret authenticated.
	workerAuth := appmw.WorkerAuth(cfg)
	r.POST("/internal/traffic", workerAuth(handlers.TrafficIngestHandler(pipeline)))
	r.GET("/internal/worker/config", workerAuth(handlers.WorkerConfigHandler(sqlDB)))

	// Dashboard surface, bearer-token authenticated and project scoped.
	dashboard := func(h fasthttp.RequestHandler) fasthttp.RequestHandler {
		return appmw.DashboardAuth(cfg)(appmw.ProjectLoader(sqlDB)(h))
	}
	r.GET("/v1/projects/{id}/endpoint-analysis", dashboard(handlers.EndpointAnalysisHandler(analyzer)))
	r.GET("/v1/projects/{id}/metrics/summary", dashboard(handlers.MetricsSummaryHandler(sqlDB)))
	r.GET("/v1/projects/{id}/traffic/recent", dashboard(handlers.RecentTraffic(sqlDB)))
	r.GET("/v1/projects/{id}/traffic/{logID}", dashboard(handlers.TrafficDetail(sqlDB)))
	r.GET("/v1/projects/{id}/metrics", dashboard(handlers.ProjectMetricsHandler()))

	handler := handlers.RequestLogger(r.Handler)

	log.Printf("edgeguard listening on %s", cfg.ListenAddr)
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
