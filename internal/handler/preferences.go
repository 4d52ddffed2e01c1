package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mesafacil/api/internal/enum"
	"github.com/mesafacil/api/internal/middleware"
	"github.com/mesafacil/api/internal/session"
)

// PreferenceHandler exposes the per-checkout preference store and the
// confirmation gate guests must pass before submitting an order.
type PreferenceHandler struct {
	sessions *session.Store
}

func NewPreferenceHandler(sessions *session.Store) *PreferenceHandler {
	return &PreferenceHandler{sessions: sessions}
}

func (h *PreferenceHandler) RegisterRoutes(r chi.Router) {
	r.Put("/", h.Set)
	r.Get("/", h.Get)
	r.Post("/confirm", h.Confirm)
}

// Set handles PUT /checkout/preferences. The body is a flat object of
// preference writes; keys outside the schema (after alias resolution) are
// rejected by name so client typos surface immediately.
func (h *PreferenceHandler) Set(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var values map[string]any
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(values) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no preferences given"})
		return
	}

	if email, ok := values[string(session.KeyEmail)].(string); ok && email != "" {
		if err := validate.Var(email, "email"); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid email address"})
			return
		}
	}
	for _, key := range []string{string(session.KeySMS), string(session.KeyWhatsApp)} {
		if phone, ok := values[key].(string); ok && phone != "" {
			if err := validate.Var(phone, "e164"); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid phone number for " + key})
				return
			}
		}
	}

	sess := h.sessions.Session(claims.SessionID)
	for name, value := range values {
		if err := sess.SetNamed(name, value); err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, session.ErrUnknownKey) {
				writeJSON(w, status, map[string]string{"error": "unknown preference key: " + name})
				return
			}
			writeJSON(w, status, map[string]string{"error": "invalid value for key: " + name})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type preferencesResponse struct {
	OrderType      string   `json:"orderType"`
	TableNumber    string   `json:"tableNumber"`
	RoomNumber     string   `json:"roomNumber,omitempty"`
	OrderName      string   `json:"orderName,omitempty"`
	NotifyChannels []string `json:"notifyChannels"`
	Email          string   `json:"email,omitempty"`
	SMS            string   `json:"sms,omitempty"`
	WhatsApp       string   `json:"whatsapp,omitempty"`
	InvoiceType    string   `json:"invoiceType"`
	FiscalName     string   `json:"fiscalName,omitempty"`
	FiscalID       string   `json:"fiscalId,omitempty"`
	PaymentMethod  string   `json:"paymentMethod,omitempty"`
	OrderNumber    string   `json:"orderNumber,omitempty"`
	OrderPayment   string   `json:"orderPayment,omitempty"`
	PaymentStatus  string   `json:"paymentStatus,omitempty"`
}

// Get handles GET /checkout/preferences. Contact values come back masked;
// the client only needs enough to confirm what was entered.
func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	sess := h.sessions.Session(claims.SessionID)
	writeJSON(w, http.StatusOK, preferencesResponse{
		OrderType:      sess.String(session.KeyOrderType),
		TableNumber:    sess.String(session.KeyTableNumber),
		RoomNumber:     sess.String(session.KeyRoomNumber),
		OrderName:      sess.String(session.KeyOrderName),
		NotifyChannels: sess.Strings(session.KeyNotifyChannels),
		Email:          maskEmail(sess.String(session.KeyEmail)),
		SMS:            maskPhone(sess.String(session.KeySMS)),
		WhatsApp:       maskPhone(sess.String(session.KeyWhatsApp)),
		InvoiceType:    sess.String(session.KeyInvoiceType),
		FiscalName:     sess.String(session.KeyFiscalName),
		FiscalID:       sess.String(session.KeyFiscalID),
		PaymentMethod:  sess.String(session.KeyPaymentMethod),
		OrderNumber:    sess.String(session.KeyOrderNumber),
		OrderPayment:   sess.String(session.KeyOrderPayment),
		PaymentStatus:  sess.String(session.KeyPaymentStatus),
	})
}

// Confirm handles POST /checkout/preferences/confirm. The gate: at least
// one notification channel must be chosen, and a fiscal invoice needs the
// purchaser's fiscal name and id.
func (h *PreferenceHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	sess := h.sessions.Session(claims.SessionID)

	var problems []string
	if len(sess.Strings(session.KeyNotifyChannels)) == 0 {
		problems = append(problems, "select at least one notification option")
	}
	if sess.String(session.KeyInvoiceType) == enum.InvoiceTypeFiscal {
		if strings.TrimSpace(sess.String(session.KeyFiscalName)) == "" {
			problems = append(problems, "fiscal name is required for a fiscal invoice")
		}
		if strings.TrimSpace(sess.String(session.KeyFiscalID)) == "" {
			problems = append(problems, "fiscal id is required for a fiscal invoice")
		}
	}

	if len(problems) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": problems})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
