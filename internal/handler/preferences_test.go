package handler_test

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mesafacil/api/internal/enum"
	"github.com/mesafacil/api/internal/handler"
	"github.com/mesafacil/api/internal/middleware"
	"github.com/mesafacil/api/internal/session"
)

func setupPreferenceRouter() (*chi.Mux, *session.Store) {
	sessions := session.NewStore()
	h := handler.NewPreferenceHandler(sessions)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testJWTSecret))
		r.Route("/checkout/preferences", h.RegisterRoutes)
	})
	return r, sessions
}

func TestSetPreferences_HappyPath(t *testing.T) {
	router, sessions := setupPreferenceRouter()
	orgID, sessionID := uuid.New(), uuid.New()
	token := authToken(t, orgID, sessionID)

	rr := doRequest(t, router, "PUT", "/checkout/preferences", map[string]interface{}{
		"email":           "guest@example.com",
		"notify_channels": []string{enum.NotifyChannelEmail},
		"tip":             "4000",
	}, token)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	sess := sessions.Session(sessionID)
	if sess.String(session.KeyEmail) != "guest@example.com" {
		t.Errorf("email: got %q", sess.String(session.KeyEmail))
	}
	if !sess.Decimal(session.KeyTip).Equal(decimalFrom(t, "4000")) {
		t.Errorf("tip: got %v", sess.Decimal(session.KeyTip))
	}
}

func TestSetPreferences_UnknownKey(t *testing.T) {
	router, _ := setupPreferenceRouter()
	token := authToken(t, uuid.New(), uuid.New())

	rr := doRequest(t, router, "PUT", "/checkout/preferences", map[string]interface{}{
		"favourite_colour": "green",
	}, token)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "unknown preference key: favourite_colour" {
		t.Errorf("error: got %q", resp["error"])
	}
}

func TestSetPreferences_InvalidEmail(t *testing.T) {
	router, _ := setupPreferenceRouter()
	token := authToken(t, uuid.New(), uuid.New())

	rr := doRequest(t, router, "PUT", "/checkout/preferences", map[string]interface{}{
		"email": "not-an-email",
	}, token)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSetPreferences_InvalidPhone(t *testing.T) {
	router, _ := setupPreferenceRouter()
	token := authToken(t, uuid.New(), uuid.New())

	for _, key := range []string{"sms", "whatsapp"} {
		rr := doRequest(t, router, "PUT", "/checkout/preferences", map[string]interface{}{
			key: "not-a-number",
		}, token)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status: got %d, want %d", key, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestSetPreferences_ValidPhone(t *testing.T) {
	router, sessions := setupPreferenceRouter()
	orgID, sessionID := uuid.New(), uuid.New()
	token := authToken(t, orgID, sessionID)

	rr := doRequest(t, router, "PUT", "/checkout/preferences", map[string]interface{}{
		"sms":      "+573001112233",
		"whatsapp": "+573004445566",
	}, token)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}

	sess := sessions.Session(sessionID)
	if sess.String(session.KeySMS) != "+573001112233" {
		t.Errorf("sms: got %q", sess.String(session.KeySMS))
	}
}

func TestSetPreferences_LegacyNeedsInvoiceAlias(t *testing.T) {
	router, sessions := setupPreferenceRouter()
	orgID, sessionID := uuid.New(), uuid.New()
	token := authToken(t, orgID, sessionID)

	rr := doRequest(t, router, "PUT", "/checkout/preferences", map[string]interface{}{
		"needsInvoice": true,
	}, token)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	sess := sessions.Session(sessionID)
	if sess.String(session.KeyInvoiceType) != enum.InvoiceTypeFiscal {
		t.Errorf("invoice type: got %q, want fiscal", sess.String(session.KeyInvoiceType))
	}
}

func TestGetPreferences_MasksContacts(t *testing.T) {
	router, sessions := setupPreferenceRouter()
	orgID, sessionID := uuid.New(), uuid.New()
	token := authToken(t, orgID, sessionID)

	sess := sessions.Session(sessionID)
	sess.Set(session.KeyEmail, "guest@example.com")
	sess.Set(session.KeySMS, "+573001112233")

	rr := doRequest(t, router, "GET", "/checkout/preferences", nil, token)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}

	resp := decodeResponse(t, rr)
	if resp["email"] != "g****@example.com" {
		t.Errorf("email: got %q, want masked", resp["email"])
	}
	if resp["sms"] != "*********2233" {
		t.Errorf("sms: got %q, want masked", resp["sms"])
	}
}

func TestConfirmPreferences_RequiresChannel(t *testing.T) {
	router, _ := setupPreferenceRouter()
	token := authToken(t, uuid.New(), uuid.New())

	rr := doRequest(t, router, "POST", "/checkout/preferences/confirm", nil, token)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}
}

func TestConfirmPreferences_FiscalNeedsNameAndID(t *testing.T) {
	router, sessions := setupPreferenceRouter()
	orgID, sessionID := uuid.New(), uuid.New()
	token := authToken(t, orgID, sessionID)

	sess := sessions.Session(sessionID)
	sess.Set(session.KeyNotifyChannels, []string{enum.NotifyChannelEmail})
	sess.Set(session.KeyInvoiceType, enum.InvoiceTypeFiscal)

	rr := doRequest(t, router, "POST", "/checkout/preferences/confirm", nil, token)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}

	sess.Set(session.KeyFiscalName, "Camila Rojas")
	sess.Set(session.KeyFiscalID, "901234567")

	rr = doRequest(t, router, "POST", "/checkout/preferences/confirm", nil, token)
	if rr.Code != http.StatusOK {
		t.Errorf("status after fiscal fields: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestConfirmPreferences_WhitespaceFiscalFieldsRejected(t *testing.T) {
	router, sessions := setupPreferenceRouter()
	orgID, sessionID := uuid.New(), uuid.New()
	token := authToken(t, orgID, sessionID)

	sess := sessions.Session(sessionID)
	sess.Set(session.KeyNotifyChannels, []string{enum.NotifyChannelEmail})
	sess.Set(session.KeyInvoiceType, enum.InvoiceTypeFiscal)
	sess.Set(session.KeyFiscalName, "   ")
	sess.Set(session.KeyFiscalID, "\t")

	rr := doRequest(t, router, "POST", "/checkout/preferences/confirm", nil, token)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}
}

func TestConfirmPreferences_NoneChannelSatisfiesGate(t *testing.T) {
	router, sessions := setupPreferenceRouter()
	orgID, sessionID := uuid.New(), uuid.New()
	token := authToken(t, orgID, sessionID)

	sess := sessions.Session(sessionID)
	sess.Set(session.KeyNotifyChannels, []string{enum.NotifyChannelNone})

	rr := doRequest(t, router, "POST", "/checkout/preferences/confirm", nil, token)
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestPreferences_Unauthenticated(t *testing.T) {
	router, _ := setupPreferenceRouter()

	rr := doRequest(t, router, "GET", "/checkout/preferences", nil, "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}
