package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// API serves the catalog read endpoints. The register service mounts it
// under its own prefix and the standalone catalog service serves it as the
// origin the register's HTTP client points at.
type API struct {
	log *slog.Logger
	svc Service
}

func NewAPI(svc Service, log *slog.Logger) *API {
	return &API{log: log, svc: svc}
}

func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", a.list)
	r.Get("/{id}", a.get)
	return r
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	if code := r.URL.Query().Get("barcode"); code != "" {
		p, err := a.svc.LookupByBarcode(r.Context(), code)
		if err != nil {
			a.writeError(w, err)
			return
		}
		a.writeJSON(w, http.StatusOK, p)
		return
	}
	ps, err := a.svc.ListProducts(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, ps)
}

func (a *API) get(w http.ResponseWriter, r *http.Request) {
	p, err := a.svc.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, p)
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Error("encode catalog response", "err", err)
	}
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	status := http.StatusServiceUnavailable
	if errors.Is(err, ErrNotFound) {
		status = http.StatusNotFound
	}
	a.writeJSON(w, status, map[string]string{"error": err.Error()})
}
