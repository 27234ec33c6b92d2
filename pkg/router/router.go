package router

import (
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// --- colour helpers ---
var (
	cyan   = color.New(color.FgCyan).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	blue   = color.New(color.FgBlue).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

// Router wraps a gorilla mux router with coloured access logging.
type Router struct {
	mux    *mux.Router
	routes []string // METHOD PATH, in registration order
}

func New() *Router {
	m := mux.NewRouter()
	m.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})
	m.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})
	return &Router{mux: m}
}

// --- Register paths ---
func (r *Router) register(method, path string, handler HandlerFunc) {
	r.mux.HandleFunc(path, handler).Methods(method)
	r.routes = append(r.routes, method+" "+path)
}

func (r *Router) GET(path string, handler HandlerFunc) { r.register(http.MethodGet, path, handler) }

// Prefix mounts handler for every path below prefix.
func (r *Router) Prefix(prefix string, handler http.Handler) {
	r.mux.PathPrefix(prefix).Handler(handler)
	r.routes = append(r.routes, "* "+prefix)
}

// Routes lists the registered routes.
func (r *Router) Routes() []string {
	return r.routes
}

// Vars returns the path variables of the current request.
func Vars(req *http.Request) map[string]string {
	return mux.Vars(req)
}

// ServeHTTP dispatches the request and writes one access log line.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	r.mux.ServeHTTP(lrw, req)

	log.Infof("%s %s %s %s %s",
		cyan("["+start.Format("2006-01-02 15:04:05")+"]"),
		methodColor(req.Method)(req.Method),
		req.URL.Path,
		statusColor(lrw.statusCode)(lrw.statusCode),
		blue("(", time.Since(start).Round(time.Microsecond), ")"),
	)
}

// Server returns an http.Server for the router.
func (r *Router) Server(addr string, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
}

// --- Logging response writer to capture status codes ---
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusColor(code int) func(a ...interface{}) string {
	switch {
	case code >= 200 && code < 300:
		return green
	case code >= 300 && code < 400:
		return cyan
	case code >= 400 && code < 500:
		return yellow
	default:
		return red
	}
}

func methodColor(method string) func(a ...interface{}) string {
	switch method {
	case http.MethodGet:
		return green
	case http.MethodPost:
		return blue
	case http.MethodDelete:
		return red
	default:
		return cyan
	}
}
