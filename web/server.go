// ABOUTME: Web server with a JSON API over collections and sharing settings
// ABOUTME: Serves an embedded dashboard, the REST endpoints and Prometheus metrics
package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joalcobiz/mylifeos/models"
	"github.com/joalcobiz/mylifeos/sharing"
	"github.com/joalcobiz/mylifeos/store"
	"github.com/joalcobiz/mylifeos/view"
)

//go:embed templates/*
var templatesFS embed.FS

// Workspace opens collections by name.
type Workspace interface {
	Collection(name string) (*store.Collection, error)
	Accessor(name string) (*view.Accessor, error)
}

type Server struct {
	ws        Workspace
	settings  *sharing.SettingsService
	metrics   http.Handler
	templates *template.Template
	logger    *log.Logger
}

// NewServer builds the server. metrics may be nil.
func NewServer(ws Workspace, settings *sharing.SettingsService, metrics http.Handler) (*Server, error) {
	tmpl, err := template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Server{
		ws:        ws,
		settings:  settings,
		metrics:   metrics,
		templates: tmpl,
		logger:    log.Default().WithPrefix("web"),
	}, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleDashboard)

	mux.HandleFunc("GET /api/collections/{name}", s.handleList)
	mux.HandleFunc("POST /api/collections/{name}", s.handleAdd)
	mux.HandleFunc("PATCH /api/collections/{name}/{id}", s.handleUpdate)
	mux.HandleFunc("PUT /api/collections/{name}/{id}", s.handleUpsert)
	mux.HandleFunc("DELETE /api/collections/{name}/{id}", s.handleRemove)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handlePutSettings)
	mux.HandleFunc("PUT /api/settings/modules/{module}", s.handlePutModule)
	mux.HandleFunc("DELETE /api/settings/modules/{module}", s.handleClearModule)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return mux
}

// Start listens on addr until the server fails.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting web server", "url", "http://"+addr)
	return srv.ListenAndServe()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

type dashboardRow struct {
	Name    string
	Mode    models.SharingMode
	Stats   sharing.Stats
	Status  store.Status
	Loading bool
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	var rows []dashboardRow
	for _, name := range models.Collections() {
		c, err := s.ws.Collection(name)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		acc, err := s.ws.Accessor(name)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		rows = append(rows, dashboardRow{
			Name:    name,
			Mode:    acc.Mode(),
			Stats:   acc.Stats(),
			Status:  c.Status(),
			Loading: c.Loading(),
		})
	}

	data := map[string]interface{}{
		"Title":    "Dashboard",
		"Rows":     rows,
		"Settings": s.settings.Snapshot(),
	}
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		s.logger.Warn("template error", "template", "dashboard.html", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type listResponse struct {
	Collection string        `json:"collection"`
	Mode       string        `json:"mode"`
	Loading    bool          `json:"loading"`
	Stats      sharing.Stats `json:"stats"`
	Items      []view.Item   `json:"items"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	acc, err := s.ws.Accessor(name)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	mode := acc.Mode()
	items := acc.Items()
	if q := r.URL.Query().Get("mode"); q != "" {
		m, err := models.ParseSharingMode(q)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		mode, items = m, acc.ItemsIn(m)
	}

	s.writeJSON(w, http.StatusOK, listResponse{
		Collection: name,
		Mode:       string(mode),
		Loading:    acc.Loading(),
		Stats:      acc.Stats(),
		Items:      items,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func decodeFields(w http.ResponseWriter, r *http.Request) (models.Fields, error) {
	var fields models.Fields
	if err := decodeJSON(w, r, &fields); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errors.New("body must be a non-empty JSON object")
	}
	return fields, nil
}

func (s *Server) collection(w http.ResponseWriter, r *http.Request) (*store.Collection, bool) {
	c, err := s.ws.Collection(r.PathValue("name"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	if !c.Viewer().Authenticated() {
		s.writeError(w, http.StatusUnauthorized, errors.New("no viewer configured"))
		return nil, false
	}
	return c, true
}

// editable rejects edits to records the viewer may not change. Unknown ids
// pass so upserts can create them.
func (s *Server) editable(w http.ResponseWriter, c *store.Collection, id string) bool {
	rec, ok := c.Lookup(id)
	if ok && !sharing.CanEdit(rec, c.Viewer()) {
		s.writeError(w, http.StatusForbidden, fmt.Errorf("record %s is not editable", id))
		return false
	}
	return true
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	fields, err := decodeFields(w, r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, c.Add(fields))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	s.patch(w, r, false)
}

func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	s.patch(w, r, true)
}

func (s *Server) patch(w http.ResponseWriter, r *http.Request, upsert bool) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if !s.editable(w, c, id) {
		return
	}
	fields, err := decodeFields(w, r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if upsert {
		c.Upsert(id, fields)
	} else {
		c.Update(id, fields)
	}
	rec, _ := c.Lookup(id)
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if _, found := c.Lookup(id); !found {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("record not found: %s", id))
		return
	}
	if !s.editable(w, c, id) {
		return
	}
	c.Remove(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.settings.Snapshot())
}

type settingsPatch struct {
	GlobalDefaultMode *models.SharingMode `json:"globalDefaultMode"`
	ShowOwnerLabels   *bool               `json:"showOwnerLabels"`
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var patch settingsPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if patch.GlobalDefaultMode != nil {
		if err := s.settings.SetGlobalDefaultMode(*patch.GlobalDefaultMode); err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if patch.ShowOwnerLabels != nil {
		if err := s.settings.SetShowOwnerLabels(*patch.ShowOwnerLabels); err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	s.writeJSON(w, http.StatusOK, s.settings.Snapshot())
}

func (s *Server) handlePutModule(w http.ResponseWriter, r *http.Request) {
	var pref models.ModulePreference
	if err := decodeJSON(w, r, &pref); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.settings.SetModulePreference(r.PathValue("module"), pref); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.settings.Snapshot())
}

func (s *Server) handleClearModule(w http.ResponseWriter, r *http.Request) {
	if err := s.settings.ClearModulePreference(r.PathValue("module")); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.settings.Snapshot())
}
