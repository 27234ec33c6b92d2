package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouter(t *testing.T) {
	r := New()
	r.GET("/results/{name}", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(Vars(req)["name"]))
	})
	r.GET("/runs", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Prefix("/static/", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	tests := []struct {
		method, path string
		code         int
		body         string
	}{
		{http.MethodGet, "/results/age_target", http.StatusOK, "age_target"},
		{http.MethodGet, "/runs", http.StatusNoContent, ""},
		{http.MethodPost, "/runs", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/nowhere", http.StatusNotFound, ""},
		{http.MethodGet, "/static/app.css", http.StatusTeapot, ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.code, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}

	assert.Equal(t, []string{"GET /results/{name}", "GET /runs", "* /static/"}, r.Routes())
}

func TestServer(t *testing.T) {
	srv := New().Server(":0", 0, 0)
	assert.Equal(t, ":0", srv.Addr)
	assert.NotNil(t, srv.Handler)
}
