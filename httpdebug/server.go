// Package httpdebug exposes a read-only introspection surface over an
// eventhub.Hub. It is purely additive: nothing in the hub's dispatch path
// depends on this package, and it never mutates hub state.
package httpdebug

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/coremodular/eventhub"
)

// Server is a chi.Router wrapping a hub for introspection only.
type Server struct {
	chi.Router
	hub *eventhub.Hub
}

// New builds a Server backed by hub.
func New(hub *eventhub.Hub) *Server {
	s := &Server{hub: hub}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/extensions", s.handleExtensions)
	r.Get("/sharedstate/{name}", s.handleSharedState)

	s.Router = r
	return s
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if !s.hub.Started() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type extensionInfo struct {
	TypeName     string `json:"typeName"`
	FriendlyName string `json:"friendlyName"`
	Version      string `json:"version"`
	State        string `json:"state"`
}

func (s *Server) handleExtensions(w http.ResponseWriter, r *http.Request) {
	result := s.hub.GetHubState()
	out := []extensionInfo{}

	if result.Status == eventhub.StateSet {
		if raw, ok := result.Data[eventhub.HubStateExtensionsKey]; ok {
			if exts, ok := raw.(map[string]any); ok {
				for friendlyName, rawEntry := range exts {
					info := extensionInfo{FriendlyName: friendlyName}
					if entry, ok := rawEntry.(map[string]any); ok {
						info.Version, _ = entry[eventhub.HubStateVersionKey].(string)
					}
					out = append(out, info)
				}
			}
		}
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSharedState(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	result := s.hub.GetSharedState(name, nil, false)
	if result.Status == eventhub.StateNone {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": result.Status.String(),
		"data":   result.Data,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
