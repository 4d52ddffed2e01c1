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
	"github.com/mesafacil/api/internal/payment"
	"github.com/mesafacil/api/internal/payment/mercadopago"
	"github.com/mesafacil/api/internal/service"
	"github.com/mesafacil/api/internal/session"
	"github.com/shopspring/decimal"
)

// PaymentAdapter is the Mercado Pago lifecycle surface the handlers need.
// Satisfied by *mercadopago.Adapter.
type PaymentAdapter interface {
	InitBrick(ctx context.Context, containerID string, settings mercadopago.BrickSettings) error
	Teardown(containerID string)
	Submit(ctx context.Context, params mercadopago.SubmitParams) (payment.Outcome, *mercadopago.ProcessResponse, error)
}

// OutcomeRecorder persists payment results. Satisfied by
// *service.CheckoutService.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, sessionID uuid.UUID, rec service.PaymentRecord, outcome payment.Outcome) error
}

// PaymentHandler handles the embedded Mercado Pago payment flow.
type PaymentHandler struct {
	sessions *session.Store
	adapter  PaymentAdapter
	recorder OutcomeRecorder
}

func NewPaymentHandler(sessions *session.Store, adapter PaymentAdapter, recorder OutcomeRecorder) *PaymentHandler {
	return &PaymentHandler{sessions: sessions, adapter: adapter, recorder: recorder}
}

func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/brick", h.InitBrick)
	r.Delete("/brick/{containerId}", h.TeardownBrick)
	r.Post("/submit", h.Submit)
}

type initBrickRequest struct {
	ContainerID     string `json:"containerId" validate:"required"`
	Amount          string `json:"amount"`
	MaxInstallments int    `json:"maxInstallments"`
}

// InitBrick handles POST /checkout/payment/brick.
func (h *PaymentHandler) InitBrick(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req initBrickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "containerId is required"})
		return
	}

	sess := h.sessions.Session(claims.SessionID)

	// The charge amount is the session total unless the client pins it.
	amount := sess.Decimal(session.KeyTotalPrice)
	if req.Amount != "" {
		var err error
		amount, err = decimal.NewFromString(req.Amount)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
			return
		}
	}

	err := h.adapter.InitBrick(r.Context(), req.ContainerID, mercadopago.BrickSettings{
		Amount:          amount,
		PayerEmail:      sess.String(session.KeyEmail),
		MaxInstallments: req.MaxInstallments,
	})
	if err != nil {
		switch {
		case errors.Is(err, mercadopago.ErrInvalidAmount):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be positive"})
		case errors.Is(err, mercadopago.ErrSDKUnavailable):
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "payment service unavailable"})
		case errors.Is(err, mercadopago.ErrSDKNotAccessible), errors.Is(err, mercadopago.ErrInitFailed):
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "payment service could not be initialized"})
		default:
			log.Printf("ERROR: init payment brick: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// TeardownBrick handles DELETE /checkout/payment/brick/{containerId}.
func (h *PaymentHandler) TeardownBrick(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	h.adapter.Teardown(chi.URLParam(r, "containerId"))
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type submitPaymentRequest struct {
	OrderNumber          string `json:"orderNumber" validate:"required"`
	Token                string `json:"token" validate:"required"`
	Installments         int    `json:"installments"`
	PaymentMethodID      string `json:"paymentMethodId" validate:"required"`
	IssuerID             string `json:"issuerId"`
	PaymentTypeID        string `json:"paymentTypeId"`
	PayerEmail           string `json:"payerEmail" validate:"required,email"`
	IdentificationType   string `json:"identificationType"`
	IdentificationNumber string `json:"identificationNumber"`
	PayerFirstName       string `json:"payerFirstName"`
	PayerLastName        string `json:"payerLastName"`
}

type submitPaymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Submit handles POST /checkout/payment/submit: the tokenized card data
// from the brick goes to the processor and the result is recorded.
func (h *PaymentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req submitPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "orderNumber, token, paymentMethodId and payerEmail are required"})
		return
	}

	sess := h.sessions.Session(claims.SessionID)
	form := mercadopago.FormData{
		Token:                req.Token,
		Installments:         req.Installments,
		PaymentMethodID:      req.PaymentMethodID,
		IssuerID:             req.IssuerID,
		PaymentTypeID:        req.PaymentTypeID,
		PayerEmail:           req.PayerEmail,
		IdentificationType:   req.IdentificationType,
		IdentificationNumber: req.IdentificationNumber,
		PayerFirstName:       req.PayerFirstName,
		PayerLastName:        req.PayerLastName,
	}

	outcome, _, err := h.adapter.Submit(r.Context(), mercadopago.SubmitParams{
		AccessToken:    sess.String(session.KeyAccessToken),
		OrganisationID: claims.OrganisationID.String(),
		OrderID:        req.OrderNumber,
		Amount:         sess.Decimal(session.KeyTotalPrice),
		Description:    "Payment to " + sess.String(session.KeyRestaurantName),
		Form:           form,
	})
	if err != nil && errors.Is(err, mercadopago.ErrMissingAuthToken) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	if err != nil {
		log.Printf("ERROR: submit payment for %s: %v", req.OrderNumber, err)
	}

	rec := service.PaymentRecord{
		OrganisationID: claims.OrganisationID,
		OrderNumber:    req.OrderNumber,
		Form:           form,
	}
	if recErr := h.recorder.RecordOutcome(r.Context(), claims.SessionID, rec, outcome); recErr != nil {
		log.Printf("ERROR: record payment outcome for %s: %v", req.OrderNumber, recErr)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	status := http.StatusOK
	if err != nil {
		// Provider never answered; the form shows an error and may retry.
		status = http.StatusBadGateway
	}
	writeJSON(w, status, submitPaymentResponse{
		Status:  outcome.FormStatus(),
		Message: outcome.Message(),
	})
}
