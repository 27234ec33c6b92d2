package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/cyclecraft/bikeshare/docs"
	"github.com/cyclecraft/bikeshare/internal/api/handler"
	"github.com/cyclecraft/bikeshare/pkg/router"
)

func RegisterRoutes(r *router.Router, h *handler.Handler) {
	// Dashboard pages
	r.GET("/", h.Story)
	r.GET("/story", h.Story)
	r.GET("/questions", h.Questions)
	r.GET("/analytics", h.Analytics)
	r.GET("/small-data", h.SmallData)
	r.GET("/about", h.About)

	r.GET("/charts/{name}.png", h.Chart)
	r.GET("/export.xlsx", h.Export)

	// JSON API
	r.GET("/api/v1/results", h.ListResults)
	r.GET("/api/v1/results/{name}", h.GetResult)
	r.GET("/api/v1/runs", h.ListRuns)

	r.GET("/swagger", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/swagger/index.html", http.StatusMovedPermanently)
	})
	r.Prefix("/swagger/", httpSwagger.WrapHandler)
}
