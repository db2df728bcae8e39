package middleware

import (
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "edgeguard/internal/db"
	httpctx "edgeguard/internal/http/ctx"
)

// ProjectLoader resolves the {id} route segment to a project row and
// stashes it for the handler. Malformed or unknown ids end the request
// here.
func ProjectLoader(db *gorm.DB) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			raw, _ := ctx.UserValue("id").(string)
			projectID, err := uuid.Parse(raw)
			if err != nil {
				ctx.SetStatusCode(fasthttp.StatusBadRequest)
				ctx.SetBodyString("invalid project id")
				return
			}

			var project dbpkg.Project
			if err := db.Where("id = ?", projectID).Limit(1).Find(&project).Error; err != nil {
				ctx.SetStatusCode(fasthttp.StatusInternalServerError)
				ctx.SetBodyString("database error")
				return
			}
			if project.ID == uuid.Nil {
				ctx.SetStatusCode(fasthttp.StatusNotFound)
				ctx.SetBodyString("project not found")
				return
			}

			httpctx.SetProject(ctx, &project)
			next(ctx)
		}
	}
}
