package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/mesafacil/api/internal/database"
	"github.com/mesafacil/api/internal/enum"
	"github.com/mesafacil/api/internal/notify"
	"github.com/mesafacil/api/internal/payment"
	"github.com/mesafacil/api/internal/payment/mercadopago"
	"github.com/mesafacil/api/internal/payment/stripe"
	"github.com/mesafacil/api/internal/session"
	"github.com/mesafacil/api/internal/ws"
)

// Errors returned by the checkout service.
var (
	ErrPaymentMethodRequired = errors.New("payment method is required")
	ErrAlreadySubmitted      = errors.New("order already submitted for this session")
	ErrOrgIDMissing          = errors.New("organisation id missing from session")
)

// Route says which screen the client should show next.
type Route string

const (
	RouteConfirmation Route = "confirmation"
	RouteMercadoPago  Route = "mercadopago"
	RouteStripe       Route = "stripe"
)

// OrderCreator creates orders. Satisfied by *OrderService.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error)
}

// StripeSessionCreator creates embedded Stripe checkout sessions.
type StripeSessionCreator interface {
	CreateSession(ctx context.Context, accessToken string, req stripe.SessionRequest) (*stripe.Session, error)
}

// Broadcaster pushes events to the checkout session's open tabs.
type Broadcaster interface {
	BroadcastToSession(sessionID uuid.UUID, event ws.Event)
}

// MercadoPagoCheckout is what the client needs to mount the payment brick.
type MercadoPagoCheckout struct {
	OrganisationID string `json:"organisationId"`
	OrderNumber    string `json:"orderNumber"`
	Amount         string `json:"amount"`
	Description    string `json:"description"`
}

// SubmitResult tells the client where checkout goes next.
type SubmitResult struct {
	Route       Route
	OrderNumber string
	MercadoPago *MercadoPagoCheckout
	Stripe      *stripe.Session
}

// CheckoutService orchestrates order submission: it reads the preference
// session, creates the order, and routes to confirmation or one of the
// online payment providers.
type CheckoutService struct {
	sessions *session.Store
	orders   OrderCreator
	store    OrderStore
	stripe   StripeSessionCreator
	notifier notify.Publisher
	hub      Broadcaster
}

func NewCheckoutService(
	sessions *session.Store,
	orders OrderCreator,
	store OrderStore,
	stripeClient StripeSessionCreator,
	notifier notify.Publisher,
	hub Broadcaster,
) *CheckoutService {
	return &CheckoutService{
		sessions: sessions,
		orders:   orders,
		store:    store,
		stripe:   stripeClient,
		notifier: notifier,
		hub:      hub,
	}
}

// Submit creates the order for a checkout session and decides where the
// flow goes next. A session that already paid short-circuits straight to
// confirmation; room service orders are charged to the room and guarded
// against duplicate auto-submission.
func (s *CheckoutService) Submit(ctx context.Context, sessionID uuid.UUID, items []CreateOrderItemRequest) (*SubmitResult, error) {
	sess := s.sessions.Session(sessionID)

	// A completed payment makes resubmission a replay, not a new order.
	if sess.String(session.KeyOrderPayment) == enum.PaymentMarkerSuccess {
		return &SubmitResult{
			Route:       RouteConfirmation,
			OrderNumber: sess.String(session.KeyOrderNumber),
		}, nil
	}

	orderType := sess.String(session.KeyOrderType)
	method := sess.String(session.KeyPaymentMethod)

	if orderType == enum.OrderTypeRoomService {
		method = enum.PaymentMethodRoomCharge
	}
	if method == "" {
		return nil, ErrPaymentMethodRequired
	}

	orgIDStr := sess.String(session.KeyOrgID)
	orgID, err := uuid.Parse(orgIDStr)
	if err != nil {
		return nil, ErrOrgIDMissing
	}

	// One submission per session. The flag is released on failure so a
	// failed create stays retryable; held after success it stops duplicate
	// submits, including a doubled room service auto-submit.
	if !sess.MarkSubmitted() {
		return nil, ErrAlreadySubmitted
	}

	req := s.buildOrderRequest(sess, orgID, orderType, method, items)

	result, err := s.orders.CreateOrder(ctx, req)
	if err != nil {
		sess.ClearSubmitted()
		return nil, err
	}
	order := result.Order

	// Remember the created order so replays and payment callbacks can
	// find it.
	sess.Set(session.KeyOrderNumber, order.OrderNumber)
	sess.Set(session.KeyPaymentMethod, method)

	s.broadcastOrderCreated(sessionID, order)

	switch method {
	case enum.PaymentMethodOffline, enum.PaymentMethodRoomCharge:
		s.publishConfirmation(sess, order)
		return &SubmitResult{Route: RouteConfirmation, OrderNumber: order.OrderNumber}, nil

	case enum.PaymentMethodOnline:
		country := sess.String(session.KeyCountry)
		currency := sess.String(session.KeyCurrencyCode)
		if country == enum.CountryColombia || strings.ToUpper(currency) == enum.CurrencyCOP {
			return &SubmitResult{
				Route:       RouteMercadoPago,
				OrderNumber: order.OrderNumber,
				MercadoPago: &MercadoPagoCheckout{
					OrganisationID: orgIDStr,
					OrderNumber:    order.OrderNumber,
					Amount:         req.TotalAmount.String(),
					Description:    paymentDescription(sess.String(session.KeyRestaurantName)),
				},
			}, nil
		}

		stripeSession, err := s.createStripeSession(ctx, sess, orgIDStr, order.OrderNumber, req, items)
		if err != nil {
			sess.ClearSubmitted()
			return nil, err
		}
		return &SubmitResult{
			Route:       RouteStripe,
			OrderNumber: order.OrderNumber,
			Stripe:      stripeSession,
		}, nil
	}

	return nil, ErrPaymentMethodRequired
}

func (s *CheckoutService) buildOrderRequest(sess *session.Session, orgID uuid.UUID, orderType, method string, items []CreateOrderItemRequest) CreateOrderRequest {
	channels := sess.Strings(session.KeyNotifyChannels)

	// Contact fields travel only for their selected channels; a channel the
	// guest did not pick leaves its contact out of the order entirely.
	var email, phone, smsPhone string
	var invoiceChoice []string
	for _, ch := range channels {
		switch ch {
		case enum.NotifyChannelEmail:
			email = sess.String(session.KeyEmail)
		case enum.NotifyChannelWhatsApp:
			phone = sess.String(session.KeyWhatsApp)
		case enum.NotifyChannelSMS:
			smsPhone = sess.String(session.KeySMS)
		}
		if ch != enum.NotifyChannelNone {
			invoiceChoice = append(invoiceChoice, ch)
		}
	}

	invoiceType := sess.String(session.KeyInvoiceType)

	req := CreateOrderRequest{
		OrganisationID: orgID,
		OrderType:      orderType,
		PaymentMethod:  method,
		TableNumber:    sess.String(session.KeyTableNumber),
		RoomNumber:     sess.String(session.KeyRoomNumber),
		OrderName:      sess.String(session.KeyOrderName),
		Email:          email,
		Phone:          phone,
		SmsPhone:       smsPhone,
		InvoiceChoice:  invoiceChoice,
		InvoiceType:    invoiceType,
		Subtotal:       sess.Decimal(session.KeySubTotal),
		Tip:            sess.Decimal(session.KeyTip),
		ServiceCharge:  sess.Decimal(session.KeyServiceCharge),
		TotalTax:       sess.Decimal(session.KeyTotalTax),
		TotalAmount:    sess.Decimal(session.KeyTotalPrice),
		Items:          items,
	}
	if invoiceType == enum.InvoiceTypeFiscal {
		req.FiscalName = sess.String(session.KeyFiscalName)
		req.FiscalID = sess.String(session.KeyFiscalID)
		req.FiscalAddress = sess.String(session.KeyFiscalAddress)
	}
	return req
}

func (s *CheckoutService) createStripeSession(ctx context.Context, sess *session.Session, orgID, orderNumber string, req CreateOrderRequest, items []CreateOrderItemRequest) (*stripe.Session, error) {
	products := make([]stripe.Product, 0, len(items))
	for _, item := range items {
		products = append(products, stripe.Product{
			Name:     item.Name,
			Price:    item.UnitPrice.InexactFloat64(),
			Quantity: item.Quantity,
		})
	}

	return s.stripe.CreateSession(ctx, sess.String(session.KeyAccessToken), stripe.SessionRequest{
		CustomerEmail:  sess.String(session.KeyEmail),
		OrganisationID: orgID,
		OrderID:        orderNumber,
		Products:       products,
		Total:          req.TotalAmount.InexactFloat64(),
		RestaurantName: sess.String(session.KeyRestaurantName),
		Currency:       sess.String(session.KeyCurrencyCode),
	})
}

// PaymentRecord identifies one online payment submission for bookkeeping.
type PaymentRecord struct {
	OrganisationID uuid.UUID
	OrderNumber    string
	Form           mercadopago.FormData
}

// RecordOutcome persists the result of an online payment submission and
// pushes it to the session. Approved and pending payments mark the session
// and the order; rejections record an attempt only; transport errors
// persist nothing because the provider never answered.
func (s *CheckoutService) RecordOutcome(ctx context.Context, sessionID uuid.UUID, rec PaymentRecord, outcome payment.Outcome) error {
	sess := s.sessions.Session(sessionID)

	if outcome.Kind == payment.OutcomeError {
		s.broadcastPaymentStatus(sessionID, outcome)
		return nil
	}

	order, err := s.store.GetOrderByNumber(ctx, database.GetOrderByNumberParams{
		OrganisationID: rec.OrganisationID,
		OrderNumber:    rec.OrderNumber,
	})
	if err != nil {
		return fmt.Errorf("get order %s: %w", rec.OrderNumber, err)
	}

	_, err = s.store.CreatePaymentAttempt(ctx, database.CreatePaymentAttemptParams{
		OrderID:              order.ID,
		OrganisationID:       rec.OrganisationID,
		Amount:               order.TotalAmount,
		Description:          optionalText(paymentDescription(sess.String(session.KeyRestaurantName))),
		PaymentMethodID:      optionalText(rec.Form.PaymentMethodID),
		Installments:         int32(rec.Form.Installments),
		PayerEmail:           optionalText(rec.Form.PayerEmail),
		IdentificationType:   optionalText(rec.Form.IdentificationType),
		IdentificationNumber: optionalText(rec.Form.IdentificationNumber),
		Status:               attemptStatus(outcome),
		ProviderStatus:       optionalText(outcome.ProviderStatus),
		FailureReason:        optionalText(outcome.Reason),
	})
	if err != nil {
		return fmt.Errorf("record payment attempt: %w", err)
	}

	if outcome.Submitted() {
		marker, status := enum.PaymentMarkerPending, enum.PaymentStatusPending
		if outcome.Kind == payment.OutcomeApproved {
			marker, status = enum.PaymentMarkerSuccess, enum.PaymentStatusApproved
		}
		sess.Set(session.KeyOrderPayment, marker)
		sess.Set(session.KeyPaymentStatus, status)

		if _, err := s.store.UpdateOrderPaymentStatus(ctx, database.UpdateOrderPaymentStatusParams{
			ID:            order.ID,
			PaymentStatus: optionalText(status),
		}); err != nil {
			return fmt.Errorf("update order payment status: %w", err)
		}

		s.publishConfirmation(sess, order)
	}

	s.broadcastPaymentStatus(sessionID, outcome)
	return nil
}

func attemptStatus(outcome payment.Outcome) string {
	switch outcome.Kind {
	case payment.OutcomeApproved:
		return enum.AttemptStatusApproved
	case payment.OutcomePending:
		return enum.AttemptStatusPending
	case payment.OutcomeRejected:
		return enum.AttemptStatusRejected
	}
	return enum.AttemptStatusFailed
}

func paymentDescription(restaurantName string) string {
	return "Payment to " + restaurantName
}

func (s *CheckoutService) publishConfirmation(sess *session.Session, order database.Order) {
	channels := sess.Strings(session.KeyNotifyChannels)
	event := notify.OrderConfirmation{
		OrganisationID: order.OrganisationID.String(),
		OrderNumber:    order.OrderNumber,
		OrderType:      order.OrderType,
		PaymentMethod:  order.PaymentMethod,
		TotalAmount:    numericToDecimal(order.TotalAmount).String(),
		CurrencyCode:   sess.String(session.KeyCurrencyCode),
		Channels:       channels,
	}
	for _, ch := range channels {
		switch ch {
		case enum.NotifyChannelEmail:
			event.Email = sess.String(session.KeyEmail)
		case enum.NotifyChannelWhatsApp:
			event.Phone = sess.String(session.KeyWhatsApp)
		case enum.NotifyChannelSMS:
			event.SmsPhone = sess.String(session.KeySMS)
		}
	}

	if err := s.notifier.PublishOrderConfirmation(event); err != nil {
		// Notification delivery is best effort; the order stands.
		log.Printf("ERROR: publish confirmation for %s: %v", order.OrderNumber, err)
	}
}

func (s *CheckoutService) broadcastOrderCreated(sessionID uuid.UUID, order database.Order) {
	payload, err := json.Marshal(map[string]string{
		"orderNumber": order.OrderNumber,
		"orderType":   order.OrderType,
	})
	if err != nil {
		return
	}
	s.hub.BroadcastToSession(sessionID, ws.Event{Type: ws.EventOrderCreated, Payload: payload})
}

func (s *CheckoutService) broadcastPaymentStatus(sessionID uuid.UUID, outcome payment.Outcome) {
	payload, err := json.Marshal(map[string]string{
		"status":  outcome.FormStatus(),
		"message": outcome.Message(),
	})
	if err != nil {
		return
	}
	s.hub.BroadcastToSession(sessionID, ws.Event{Type: ws.EventPaymentStatus, Payload: payload})
}
