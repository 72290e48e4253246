package http

import (
	"net/http"
	"strings"
)

// RouterConfig bundles the handlers and middleware composing the API surface.
type RouterConfig struct {
	Events     *EventHandler
	Equipment  *EquipmentHandler
	Middleware []func(http.Handler) http.Handler
}

// NewRouter assembles the HTTP routing table. Middleware wraps the whole
// router in reverse registration order, so the first entry sees the request
// first.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Events != nil {
		mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Events.List(w, r)
			case http.MethodPost:
				cfg.Events.Propose(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/events/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/events/")
			if rest == "" {
				http.NotFound(w, r)
				return
			}

			id, tail, hasTail := strings.Cut(rest, "/")
			r = r.WithContext(ContextWithEventID(r.Context(), id))

			if !hasTail {
				switch r.Method {
				case http.MethodGet:
					cfg.Events.Get(w, r)
				case http.MethodDelete:
					cfg.Events.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodDelete)
				}
				return
			}

			if tail == "equipment" {
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Events.AssignEquipment(w, r)
				return
			}
			if equipmentID, ok := strings.CutPrefix(tail, "equipment/"); ok && equipmentID != "" {
				if r.Method != http.MethodDelete {
					methodNotAllowed(w, http.MethodDelete)
					return
				}
				cfg.Events.ReleaseEquipment(w, r, equipmentID)
				return
			}

			http.NotFound(w, r)
		})
	}

	if cfg.Equipment != nil {
		mux.HandleFunc("/equipment", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Equipment.List(w, r)
			case http.MethodPost:
				cfg.Equipment.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/equipment/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/equipment/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			switch r.Method {
			case http.MethodGet:
				cfg.Equipment.Get(w, r, id)
			case http.MethodDelete:
				cfg.Equipment.Delete(w, r, id)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodDelete)
			}
		})
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		handler = cfg.Middleware[i](handler)
	}
	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
