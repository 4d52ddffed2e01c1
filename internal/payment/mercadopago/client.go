package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mesafacil/api/internal/enum"
	"github.com/mesafacil/api/internal/payment"
	"github.com/shopspring/decimal"
)

const processPath = "admin/organisation/payments/mp/process"

// ErrMissingAuthToken means the checkout session has no access token. The
// client refuses to submit rather than send an unauthenticated request.
var ErrMissingAuthToken = errors.New("mercadopago: missing access token")

// Client submits tokenized payments to the processing backend.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second),
	}
}

// SubmitParams is everything needed for one payment submission.
type SubmitParams struct {
	AccessToken    string
	OrganisationID string
	OrderID        string
	Amount         decimal.Decimal
	Description    string
	Form           FormData
}

// FormData is the tokenized output of the card payment brick.
type FormData struct {
	Token                string
	Installments         int
	PaymentMethodID      string
	IssuerID             string
	PaymentTypeID        string
	PayerEmail           string
	IdentificationType   string
	IdentificationNumber string
	PayerFirstName       string
	PayerLastName        string
}

type identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type payer struct {
	Email          string         `json:"email"`
	Identification identification `json:"identification"`
	FirstName      string         `json:"first_name,omitempty"`
	LastName       string         `json:"last_name,omitempty"`
}

type processRequest struct {
	OrganisationID    string  `json:"organisationId"`
	OrderID           string  `json:"orderId"`
	Token             string  `json:"token"`
	TransactionAmount float64 `json:"transactionAmount"`
	Description       string  `json:"description"`
	Installments      int     `json:"installments"`
	PaymentMethodID   string  `json:"paymentMethodId"`
	IssuerID          string  `json:"issuer_id,omitempty"`
	PaymentTypeID     string  `json:"payment_type_id,omitempty"`
	Payer             payer   `json:"payer"`
}

// ProcessResponse is the processing backend's reply.
type ProcessResponse struct {
	ID           int64  `json:"id"`
	Status       string `json:"status"`
	StatusDetail string `json:"status_detail"`
	Message      string `json:"message"`
}

func buildProcessRequest(params SubmitParams) processRequest {
	idType := params.Form.IdentificationType
	if idType == "" {
		idType = "CC"
	}

	installments := params.Form.Installments
	if installments <= 0 {
		installments = 1
	}

	p := payer{
		Email: params.Form.PayerEmail,
		Identification: identification{
			Type:   idType,
			Number: params.Form.IdentificationNumber,
		},
	}
	if name := strings.TrimSpace(params.Form.PayerFirstName); name != "" {
		p.FirstName = name
	}
	if name := strings.TrimSpace(params.Form.PayerLastName); name != "" {
		p.LastName = name
	}

	return processRequest{
		OrganisationID:    params.OrganisationID,
		OrderID:           params.OrderID,
		Token:             params.Form.Token,
		TransactionAmount: params.Amount.InexactFloat64(),
		Description:       params.Description,
		Installments:      installments,
		PaymentMethodID:   params.Form.PaymentMethodID,
		IssuerID:          params.Form.IssuerID,
		PaymentTypeID:     params.Form.PaymentTypeID,
		Payer:             p,
	}
}

// Process submits the payment and maps the provider status to an Outcome.
// A missing access token fails before any network traffic.
func (c *Client) Process(ctx context.Context, params SubmitParams) (payment.Outcome, *ProcessResponse, error) {
	if params.AccessToken == "" {
		return payment.Errored("not authenticated"), nil, ErrMissingAuthToken
	}

	var result ProcessResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(params.AccessToken).
		SetBody(buildProcessRequest(params)).
		SetResult(&result).
		SetError(&result).
		Post(processPath)
	if err != nil {
		return payment.Errored("payment request failed"), nil, fmt.Errorf("process payment: %w", err)
	}
	if resp.IsError() {
		reason := result.Message
		if reason == "" {
			reason = fmt.Sprintf("payment processing returned %d", resp.StatusCode())
		}
		return payment.Errored(reason), &result, nil
	}

	return mapStatus(result), &result, nil
}

// mapStatus folds provider statuses into the three terminal outcomes:
// approved, pending (which includes in_process), and rejection for
// everything else.
func mapStatus(result ProcessResponse) payment.Outcome {
	switch result.Status {
	case enum.ProviderStatusApproved:
		return payment.Approved(result.Status)
	case enum.ProviderStatusPending, enum.ProviderStatusInProcess:
		return payment.Pending(result.Status)
	default:
		reason := result.StatusDetail
		if reason == "" {
			reason = result.Message
		}
		return payment.Rejected(result.Status, reason)
	}
}
