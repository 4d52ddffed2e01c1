package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mesafacil/api/internal/middleware"
	"github.com/mesafacil/api/internal/service"
	"github.com/shopspring/decimal"
)

// Submitter runs the checkout orchestration. Satisfied by
// *service.CheckoutService.
type Submitter interface {
	Submit(ctx context.Context, sessionID uuid.UUID, items []service.CreateOrderItemRequest) (*service.SubmitResult, error)
}

// CheckoutHandler handles order submission.
type CheckoutHandler struct {
	checkout Submitter
}

func NewCheckoutHandler(checkout Submitter) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	r.Post("/submit", h.Submit)
}

type submitItemRequest struct {
	ProductRef    string                 `json:"productRef" validate:"required"`
	Name          string                 `json:"name"`
	UnitPrice     string                 `json:"unitPrice"`
	ItemType      string                 `json:"itemType"`
	Quantity      int32                  `json:"quantity" validate:"gt=0"`
	Note          string                 `json:"note"`
	Extras        []service.ItemExtra    `json:"extras"`
	ComboProducts []service.ComboProduct `json:"comboProducts"`
}

type submitRequest struct {
	Items []submitItemRequest `json:"items" validate:"required,min=1,dive"`
}

type submitResponse struct {
	Route       string                       `json:"route"`
	OrderNumber string                       `json:"orderNumber"`
	MercadoPago *service.MercadoPagoCheckout `json:"mercadoPago,omitempty"`
	Stripe      *stripeSessionResponse       `json:"stripe,omitempty"`
}

type stripeSessionResponse struct {
	ClientSecret string `json:"clientSecret"`
	AccountID    string `json:"accountId"`
}

// Submit handles POST /checkout/submit.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required and quantities must be positive"})
		return
	}

	items := make([]service.CreateOrderItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		unitPrice := decimal.Zero
		if item.UnitPrice != "" {
			var err error
			unitPrice, err = decimal.NewFromString(item.UnitPrice)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid unitPrice for " + item.ProductRef})
				return
			}
		}
		items = append(items, service.CreateOrderItemRequest{
			ProductRef:    item.ProductRef,
			Name:          item.Name,
			UnitPrice:     unitPrice,
			ItemType:      item.ItemType,
			Quantity:      item.Quantity,
			Note:          item.Note,
			Extras:        item.Extras,
			ComboProducts: item.ComboProducts,
		})
	}

	result, err := h.checkout.Submit(r.Context(), claims.SessionID, items)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentMethodRequired):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "payment method is required"})
		case errors.Is(err, service.ErrAlreadySubmitted):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order already submitted"})
		case errors.Is(err, service.ErrOrgIDMissing):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "checkout session is incomplete"})
		case errors.Is(err, service.ErrInvalidOrderType),
			errors.Is(err, service.ErrInvalidPaymentMethod),
			errors.Is(err, service.ErrEmptyItems),
			errors.Is(err, service.ErrInvalidQuantity),
			errors.Is(err, service.ErrNegativeAmount),
			errors.Is(err, service.ErrTotalMismatch),
			errors.Is(err, service.ErrRoomNumberRequired),
			errors.Is(err, service.ErrInvalidInvoiceType):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: submit checkout: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := submitResponse{
		Route:       string(result.Route),
		OrderNumber: result.OrderNumber,
		MercadoPago: result.MercadoPago,
	}
	if result.Stripe != nil {
		resp.Stripe = &stripeSessionResponse{
			ClientSecret: result.Stripe.ClientSecret,
			AccountID:    result.Stripe.AccountID,
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}
