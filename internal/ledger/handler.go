package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/farmgate/farmgate-pos/internal/platform/httpx"
	"github.com/farmgate/farmgate-pos/internal/shared"
)

// Handler wires HTTP endpoints for the customer ledger.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

func (h *Handler) registerPayment(w http.ResponseWriter, r *http.Request) {
	var input PaymentInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.StructCtx(r.Context(), input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	payment, debt, err := h.service.RegisterPayment(r.Context(), input)
	if err != nil {
		if !errors.Is(err, shared.ErrInvalidAmount) && !errors.Is(err, shared.ErrOverpaymentLimit) {
			h.logger.Error("register payment", slog.Any("error", err), slog.Int64("customer_id", input.CustomerID))
		}
		httpx.RespondError(w, err)
		return
	}

	h.logger.Info("payment recorded",
		slog.String("number", payment.Number),
		slog.Int64("customer_id", payment.CustomerID),
		slog.String("amount", payment.Amount.String()),
		slog.String("debt", debt.String()))
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"payment":    payment,
		"total_debt": debt,
	})
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	customerID, _ := strconv.ParseInt(r.URL.Query().Get("customer_id"), 10, 64)
	if customerID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "customer_id query parameter is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	payments, err := h.service.ListPayments(r.Context(), customerID, limit)
	if err != nil {
		h.logger.Error("list payments", slog.Any("error", err), slog.Int64("customer_id", customerID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (h *Handler) debt(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid customer ID")
		return
	}

	debt, err := h.service.GetDebt(r.Context(), customerID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("get debt", slog.Any("error", err), slog.Int64("customer_id", customerID))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"customer_id": customerID,
		"total_debt":  debt,
	})
}

func (h *Handler) recalculate(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid customer ID")
		return
	}

	result, err := h.service.Recalculate(r.Context(), customerID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("recalculate balance", slog.Any("error", err), slog.Int64("customer_id", customerID))
		}
		httpx.RespondError(w, err)
		return
	}

	if result.Corrected {
		h.logger.Warn("ledger drift corrected",
			slog.Int64("customer_id", customerID),
			slog.String("balance", result.Balance.String()))
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid customer ID")
		return
	}

	entries, err := h.service.Statement(r.Context(), customerID)
	if err != nil {
		h.logger.Error("build statement", slog.Any("error", err), slog.Int64("customer_id", customerID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"customer_id": customerID,
		"entries":     entries,
	})
}
