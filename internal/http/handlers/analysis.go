package handlers

import (
	"github.com/valyala/fasthttp"

	"edgeguard/internal/analysis"
)

// EndpointAnalysisHandler serves the per-endpoint severity report for
// a project. The analyzer degrades to an empty report on internal
// failure, so this handler never returns a 5xx for computation errors.
func EndpointAnalysisHandler(analyzer *analysis.Analyzer) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		project, ok := MustProject(ctx)
		if !ok {
			return
		}
		jsonResponse(ctx, analyzer.ProjectReport(ctx, project.ID))
	}
}
