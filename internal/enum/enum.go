package enum

// ── Wire values shared with the customer web client ──

const (
	OrderTypeDineIn      = "dine_in"
	OrderTypeTakeaway    = "takeaway"
	OrderTypeDelivery    = "delivery"
	OrderTypeRoomService = "room_service"
)

const (
	PaymentMethodOffline    = "offline"
	PaymentMethodOnline     = "online"
	PaymentMethodRoomCharge = "room_charge"
)

const (
	InvoiceTypeSimplified = "simplified"
	InvoiceTypeFiscal     = "fiscal"
)

// NotifyChannelNone is the explicit "no notifications" choice. It satisfies
// the "at least one channel selected" gate but suppresses all contact fields.
const (
	NotifyChannelEmail    = "email"
	NotifyChannelSMS      = "sms"
	NotifyChannelWhatsApp = "whatsapp"
	NotifyChannelNone     = "not"
)

// ── Payment provider statuses (Mercado Pago process endpoint) ──

const (
	ProviderStatusApproved  = "approved"
	ProviderStatusPending   = "pending"
	ProviderStatusInProcess = "in_process"
	ProviderStatusRejected  = "rejected"
)

// ── Checkout session markers (order-payment / payment-status keys) ──

const (
	PaymentMarkerSuccess = "success"
	PaymentMarkerPending = "pending"

	PaymentStatusApproved = "approved"
	PaymentStatusPending  = "pending"
)

// ── Payment attempt states (CHECK constrained in DB) ──

const (
	AttemptStatusApproved = "APPROVED"
	AttemptStatusPending  = "PENDING"
	AttemptStatusRejected = "REJECTED"
	AttemptStatusFailed   = "FAILED"
)

// ── Provider routing ──

const (
	CountryColombia = "CO"
	CurrencyCOP     = "COP"
)

const (
	ItemTypeDefault = "default"
	ItemTypeCombo   = "combo"
)
