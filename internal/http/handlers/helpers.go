package handlers

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"

	dbpkg "edgeguard/internal/db"
	httpctx "edgeguard/internal/http/ctx"
)

func jsonResponse(ctx *fasthttp.RequestCtx, data any) {
	ctx.SetContentType("application/json")
	body, _ := json.Marshal(data)
	ctx.SetBody(body)
}

func errResponse(ctx *fasthttp.RequestCtx, code int, msg string) {
	ctx.SetStatusCode(code)
	ctx.SetBodyString(msg)
}

// MustProject returns the project resolved by the ProjectLoader
// middleware, or sends 500 and returns (nil, false) if a route was
// wired without it.
func MustProject(ctx *fasthttp.RequestCtx) (*dbpkg.Project, bool) {
	p, ok := httpctx.ProjectFromCtx(ctx)
	if !ok || p == nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString("project not resolved")
		return nil, false
	}
	return p, true
}

// parseWindow reads "hours" (float, e.g. 0.5 or 6) or "days" (int)
// from query and returns the cutoff, defaulting to the last 24 hours.
func parseWindow(ctx *fasthttp.RequestCtx) (cutoff time.Time, hours float64) {
	now := time.Now().UTC()
	if h := string(ctx.QueryArgs().Peek("hours")); h != "" {
		if f, err := strconv.ParseFloat(h, 64); err == nil && f > 0 {
			return now.Add(-time.Duration(f * float64(time.Hour))), f
		}
	}
	if d := string(ctx.QueryArgs().Peek("days")); d != "" {
		if n, err := strconv.Atoi(d); err == nil && n > 0 {
			return now.Add(-time.Duration(n) * 24 * time.Hour), float64(n * 24)
		}
	}
	return now.Add(-24 * time.Hour), 24
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RequestLogger returns fasthttp middleware that logs method, path, status, duration.
func RequestLogger(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		log.Printf("%s %s -> %d (%s) ip=%s", ctx.Method(), ctx.Path(), ctx.Response.StatusCode(), time.Since(start), ctx.RemoteAddr())
	}
}
