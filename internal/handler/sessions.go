package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mesafacil/api/internal/auth"
	"github.com/mesafacil/api/internal/session"
	"golang.org/x/crypto/bcrypt"
)

// SessionHandler issues guest checkout sessions. A guest proves presence
// at the table by presenting the secret embedded in the table's QR code;
// in exchange they get a session id and a short-lived bearer token.
type SessionHandler struct {
	sessions        *session.Store
	jwtSecret       string
	tableSecretHash string
}

func NewSessionHandler(sessions *session.Store, jwtSecret, tableSecretHash string) *SessionHandler {
	return &SessionHandler{
		sessions:        sessions,
		jwtSecret:       jwtSecret,
		tableSecretHash: tableSecretHash,
	}
}

func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
}

type createSessionRequest struct {
	OrganisationID string `json:"organisationId" validate:"required,uuid"`
	TableNumber    string `json:"tableNumber"`
	Secret         string `json:"secret" validate:"required"`
}

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
	Token     string `json:"token"`
}

// Create handles POST /checkout/sessions.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "organisationId and secret are required"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.tableSecretHash), []byte(req.Secret)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid table secret"})
		return
	}

	orgID, err := uuid.Parse(req.OrganisationID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid organisation ID"})
		return
	}

	sessionID := uuid.New()
	token, err := auth.GenerateToken(h.jwtSecret, orgID, sessionID)
	if err != nil {
		log.Printf("ERROR: generate session token: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	sess := h.sessions.Session(sessionID)
	sess.Set(session.KeyOrgID, orgID.String())
	sess.Set(session.KeyTableNumber, req.TableNumber)
	sess.Set(session.KeyAccessToken, token)

	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: sessionID.String(),
		Token:     token,
	})
}
