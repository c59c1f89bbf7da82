// Package server serves a finished deepzoom pyramid over HTTP.
//
// Routes:
//
//	GET /                                       HTML viewer
//	GET /static/...                             viewer assets
//	GET /api/info                               viewer bootstrap: {"title", "uuid", "info"}
//	GET /info.json                              pyramid manifest
//	GET /tile/{uuid}/{level}/{left}_{top}.jpg   tile bytes, empty body when absent
//	GET /ping                                   health check
//
// The uuid path segment identifies the server session; viewers use it to
// avoid stale cached tiles after a restart. Any value is accepted.
package server

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eak1mov/go-deepzoom/dz"
	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/twinj/uuid"
)

//go:embed static templates
var assets embed.FS

var viewerTemplate = template.Must(template.ParseFS(assets, "templates/deepzoom.html"))

// Source is a read-only pyramid: *dz.Reader and *mb.Reader both satisfy it.
type Source interface {
	ReadManifest() (dz.Manifest, error)
	// ReadTileFile returns an empty slice for tiles that do not exist.
	ReadTileFile(level int, name string) ([]byte, error)
}

type Server struct {
	source    Source
	title     string
	sessionID string
	logger    *slog.Logger
	accessLog io.Writer
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithAccessLog writes one Apache Common Log Format line per request to w.
func WithAccessLog(w io.Writer) Option {
	return func(s *Server) { s.accessLog = w }
}

func New(source Source, title string, opts ...Option) *Server {
	s := &Server{
		source:    source,
		title:     title,
		sessionID: fmt.Sprintf("%x", uuid.NewV4().Bytes()),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) SessionID() string {
	return s.sessionID
}

func (s *Server) NewRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(false)
	if s.accessLog != nil {
		router.Use(func(next http.Handler) http.Handler {
			return ghandlers.LoggingHandler(s.accessLog, next)
		})
	}

	router.Path("/ping").HandlerFunc(pingPong)

	staticFS, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServerFS(staticFS))).Methods(http.MethodGet)

	htmlRoutes := router.NewRoute().Subrouter()
	htmlRoutes.Use(contentTypeMiddlewareFunc("text/html; charset=utf-8"))
	htmlRoutes.Path("/").HandlerFunc(s.handleViewer).Methods(http.MethodGet)

	jsonRoutes := router.NewRoute().Subrouter()
	jsonRoutes.Use(contentTypeMiddlewareFunc("application/json"))
	jsonRoutes.Path("/api/info").HandlerFunc(s.handleIndex).Methods(http.MethodGet)
	jsonRoutes.Path("/" + dz.ManifestName).HandlerFunc(s.handleManifest).Methods(http.MethodGet)

	tileRoutes := router.NewRoute().Subrouter()
	tileRoutes.Use(contentTypeMiddlewareFunc("image/jpeg"))
	tileRoutes.Path("/tile/{uuid}/{level:[0-9]+}/{tile}").HandlerFunc(s.handleTile).Methods(http.MethodGet)

	return router
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("deepzoom: serving pyramid", "addr", addr, "title", s.title, "session", s.sessionID)
	return http.ListenAndServe(addr, s.NewRouter())
}

type indexResponse struct {
	Title string      `json:"title"`
	UUID  string      `json:"uuid"`
	Info  dz.Manifest `json:"info"`
}

func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	manifest, err := s.source.ReadManifest()
	if err != nil {
		s.logger.Error("deepzoom: read manifest", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data := indexResponse{Title: s.title, UUID: s.sessionID, Info: manifest}
	if err := viewerTemplate.Execute(w, data); err != nil {
		s.logger.Error("deepzoom: render viewer", "error", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	manifest, err := s.source.ReadManifest()
	if err != nil {
		s.logger.Error("deepzoom: read manifest", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, indexResponse{Title: s.title, UUID: s.sessionID, Info: manifest})
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	manifest, err := s.source.ReadManifest()
	if err != nil {
		s.logger.Error("deepzoom: read manifest", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, manifest)
}

func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	level, err := strconv.Atoi(vars["level"])
	if err != nil {
		// Out of int range; treat like any other missing tile.
		w.WriteHeader(http.StatusOK)
		return
	}

	tileData, err := s.source.ReadTileFile(level, vars["tile"])
	if err != nil {
		s.logger.Error("deepzoom: read tile", "level", level, "tile", vars["tile"], "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(tileData) == 0 {
		s.logger.Debug("deepzoom: tile not found", "level", level, "tile", vars["tile"])
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(tileData)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(tileData)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("deepzoom: write response", "error", err)
	}
}

func pingPong(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("pong"))
}

func contentTypeMiddlewareFunc(contentType string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", contentType)
			next.ServeHTTP(w, r)
		})
	}
}
