package handler

import (
	"embed"
	"html/template"

	"github.com/pkg/errors"

	"github.com/cyclecraft/bikeshare/internal/chart"
	"github.com/cyclecraft/bikeshare/internal/report"
	"github.com/cyclecraft/bikeshare/internal/store"
	"github.com/cyclecraft/bikeshare/pkg/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the dashboard pages, charts and the JSON API. It only
// reads from the relational store.
type Handler struct {
	rel    *store.Relational
	reader *report.Reader
	cache  *chart.Cache // may be nil
	pages  map[string]*template.Template
	files  *utils.OutputManager
}

// New parses the page templates. cache may be nil to render every chart.
func New(rel *store.Relational, cache *chart.Cache) (*Handler, error) {
	h := &Handler{
		rel:    rel,
		reader: report.NewReader(rel),
		cache:  cache,
		pages:  make(map[string]*template.Template),
		files:  utils.NewOutputManager(""),
	}

	for _, page := range []string{"story", "questions", "analytics", "small_data", "about"} {
		t, err := template.New("layout.html").Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s template", page)
		}
		h.pages[page] = t
	}
	return h, nil
}
