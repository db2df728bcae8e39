package ctx

import (
	"github.com/valyala/fasthttp"

	dbpkg "edgeguard/internal/db"
)

const ProjectKey = "project"

func SetProject(ctx *fasthttp.RequestCtx, project *dbpkg.Project) {
	ctx.SetUserValue(ProjectKey, project)
}

func ProjectFromCtx(ctx *fasthttp.RequestCtx) (*dbpkg.Project, bool) {
	v := ctx.UserValue(ProjectKey)
	if v == nil {
		return nil, false
	}
	p, ok := v.(*dbpkg.Project)
	return p, ok
}
