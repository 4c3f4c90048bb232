package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/tillworks/register-engine/internal/catalog"
	"github.com/tillworks/register-engine/internal/sales/application"
	"github.com/tillworks/register-engine/internal/sales/domain"
	"github.com/tillworks/register-engine/internal/settings"
	"github.com/tillworks/register-engine/pkg/idempotency"
)

// Handler is the register's command and read surface. Every cart and
// lifecycle operation of the engine maps to one route here; the UI keeps
// no state of its own beyond what GET /v1/register returns.
type Handler struct {
	log      *slog.Logger
	engine   *application.Manager
	settings *settings.Provider
	catalog  *catalog.API
	idem     *idempotency.Store
	tracer   trace.Tracer
}

func NewHandler(log *slog.Logger, engine *application.Manager, st *settings.Provider, capi *catalog.API, idem *idempotency.Store) *Handler {
	return &Handler{
		log:      log,
		engine:   engine,
		settings: st,
		catalog:  capi,
		idem:     idem,
		tracer:   otel.Tracer("register-http"),
	}
}

type addItemReq struct {
	TransactionID string `json:"transaction_id,omitempty"`
	ProductID     string `json:"product_id"`
	Quantity      int    `json:"quantity"`
}

type scanReq struct {
	Barcode  string `json:"barcode"`
	Quantity int    `json:"quantity,omitempty"`
}

type quantityReq struct {
	TransactionID string `json:"transaction_id,omitempty"`
	Quantity      int    `json:"quantity"`
}

type discountReq struct {
	TransactionID string          `json:"transaction_id,omitempty"`
	Kind          string          `json:"kind"`
	Value         decimal.Decimal `json:"value"`
}

type voidReq struct {
	Reason string `json:"reason"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(idempotency.Middleware(h.idem, h.log))

		r.Get("/register", h.register)

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", h.createTransaction)
			r.Get("/{id}", h.getTransaction)
			r.Delete("/{id}", h.deleteTransaction)
			r.Post("/{id}/activate", h.activateTransaction)
			r.Post("/{id}/park", h.parkTransaction)
			r.Post("/{id}/recall", h.recallTransaction)
			r.Post("/{id}/void", h.voidTransaction)
			r.Post("/{id}/checkout", h.checkout)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Post("/items", h.addItem)
			r.Post("/scan", h.scan)
			r.Patch("/items/{itemID}", h.updateQuantity)
			r.Delete("/items/{itemID}", h.removeItem)
			r.Post("/clear", h.clearCart)
			r.Put("/discount", h.setOrderDiscount)
			r.Delete("/discount", h.removeOrderDiscount)
			r.Put("/items/{itemID}/discount", h.setItemDiscount)
			r.Delete("/items/{itemID}/discount", h.removeItemDiscount)
		})

		r.Route("/settings/tax", func(r chi.Router) {
			r.Get("/", h.getTaxConfig)
			r.Put("/", h.updateTaxConfig)
		})

		r.Mount("/catalog/products", h.catalog.Routes())
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) register(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *Handler) createTransaction(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusCreated, h.engine.Create())
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	v, err := h.engine.Transaction(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, v)
}

func (h *Handler) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Delete(chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *Handler) activateTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.SetActive(chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *Handler) parkTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Park(chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *Handler) recallTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Recall(chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *Handler) voidTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "VoidTransaction")
	defer span.End()

	var req voidReq
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
			return
		}
	}
	if err := h.engine.Void(ctx, chi.URLParam(r, "id"), req.Reason); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Checkout")
	defer span.End()

	sale, err := h.engine.Complete(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sale)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	item, err := h.engine.AddProduct(r.Context(), req.TransactionID, req.ProductID, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ScanBarcode")
	defer span.End()

	var req scanReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	res, err := h.engine.ScanBarcode(ctx, req.Barcode, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"applied": res.Applied,
		"stale":   res.Stale,
		"item":    res.Item,
	})
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if err := h.engine.UpdateQuantity(req.TransactionID, chi.URLParam(r, "itemID"), req.Quantity); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.RemoveItem("", chi.URLParam(r, "itemID")); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ClearCart(""); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *Handler) setOrderDiscount(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeDiscount(w, r)
	if !ok {
		return
	}
	d := &domain.Discount{Kind: domain.DiscountKind(req.Kind), Value: req.Value}
	if err := h.engine.ApplyOrderDiscount(req.TransactionID, d); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *Handler) removeOrderDiscount(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ApplyOrderDiscount("", nil); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *Handler) setItemDiscount(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeDiscount(w, r)
	if !ok {
		return
	}
	d := &domain.Discount{Kind: domain.DiscountKind(req.Kind), Value: req.Value}
	if err := h.engine.ApplyItemDiscount(req.TransactionID, chi.URLParam(r, "itemID"), d); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *Handler) removeItemDiscount(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ApplyItemDiscount("", chi.URLParam(r, "itemID"), nil); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *Handler) getTaxConfig(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.settings.Active())
}

func (h *Handler) updateTaxConfig(w http.ResponseWriter, r *http.Request) {
	var cfg settings.TaxConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if err := h.settings.Update(cfg); err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Info("tax config updated", "currency", cfg.Currency, "precision", cfg.CurrencyPrecision)
	h.writeJSON(w, http.StatusOK, h.settings.Active())
}

func (h *Handler) decodeDiscount(w http.ResponseWriter, r *http.Request) (discountReq, bool) {
	var req discountReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return discountReq{}, false
	}
	return req, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("encode response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrNotMutable):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrInvalidDiscount), errors.Is(err, settings.ErrInvalid):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrCatalogUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "err", err)
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
