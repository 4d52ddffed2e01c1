package session

import (
	"github.com/mesafacil/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Key is an enumerated preference-store key. Every key has a declared kind
// and default; reads and writes are checked against the schema so the store
// never degenerates into ad-hoc string lookups.
type Key string

const (
	KeyOrgID          Key = "org_id"
	KeyOrderType      Key = "order_type"
	KeyTotalPrice     Key = "total_price"
	KeySubTotal       Key = "sub_total"
	KeyTip            Key = "tip"
	KeyServiceCharge  Key = "service_charge"
	KeyTotalTax       Key = "total_tax"
	KeyTableNumber    Key = "table_number"
	KeyRoomNumber     Key = "room_number"
	KeyOrderName      Key = "order_name"
	KeyRestaurantName Key = "restaurant_name"
	KeyCurrencyCode   Key = "currency_code"
	KeyCountry        Key = "country"
	KeyEmail          Key = "email"
	KeySMS            Key = "sms"
	KeyWhatsApp       Key = "whatsapp"
	KeyNotifyChannels Key = "notify_channels"
	KeyInvoiceType    Key = "invoice_type"
	KeyFiscalName     Key = "fiscal_name"
	KeyFiscalID       Key = "fiscal_id"
	KeyFiscalAddress  Key = "fiscal_address"
	KeyFiscalDocType  Key = "fiscal_document_type"
	KeyPaymentMethod  Key = "payment_method"
	KeyOrderNumber    Key = "order_number"
	KeyOrderPayment   Key = "order_payment"
	KeyPaymentStatus  Key = "payment_status"
	KeyAccessToken    Key = "access_token"
)

type Kind int

const (
	KindString Kind = iota
	KindDecimal
	KindStrings
)

type spec struct {
	kind Kind
	def  any
}

// schema declares the kind and default for every key.
var schema = map[Key]spec{
	KeyOrgID:          {KindString, ""},
	KeyOrderType:      {KindString, ""},
	KeyTotalPrice:     {KindDecimal, decimal.Zero},
	KeySubTotal:       {KindDecimal, decimal.Zero},
	KeyTip:            {KindDecimal, decimal.Zero},
	KeyServiceCharge:  {KindDecimal, decimal.Zero},
	KeyTotalTax:       {KindDecimal, decimal.Zero},
	KeyTableNumber:    {KindString, ""},
	KeyRoomNumber:     {KindString, ""},
	KeyOrderName:      {KindString, ""},
	KeyRestaurantName: {KindString, ""},
	KeyCurrencyCode:   {KindString, ""},
	KeyCountry:        {KindString, ""},
	KeyEmail:          {KindString, ""},
	KeySMS:            {KindString, ""},
	KeyWhatsApp:       {KindString, ""},
	KeyNotifyChannels: {KindStrings, []string(nil)},
	KeyInvoiceType:    {KindString, enum.InvoiceTypeSimplified},
	KeyFiscalName:     {KindString, ""},
	KeyFiscalID:       {KindString, ""},
	KeyFiscalAddress:  {KindString, ""},
	KeyFiscalDocType:  {KindString, "CC"},
	KeyPaymentMethod:  {KindString, ""},
	KeyOrderNumber:    {KindString, ""},
	KeyOrderPayment:   {KindString, ""},
	KeyPaymentStatus:  {KindString, ""},
	KeyAccessToken:    {KindString, ""},
}

// aliasFunc translates a legacy value onto the canonical key's value space.
type aliasFunc func(value any) any

type alias struct {
	canonical Key
	translate aliasFunc
}

// aliases maps storage keys written by older client builds onto the
// canonical schema. The rival fiscal model wrote a boolean needs-invoice
// flag and a document-type selector; both fold into the invoice_type /
// fiscal_document_type pair.
var aliases = map[string]alias{
	"needsInvoice": {KeyInvoiceType, func(v any) any {
		switch t := v.(type) {
		case bool:
			if t {
				return enum.InvoiceTypeFiscal
			}
		case string:
			if t == "true" || t == "yes" {
				return enum.InvoiceTypeFiscal
			}
		}
		return enum.InvoiceTypeSimplified
	}},
	"fiscalDocumentType": {KeyFiscalDocType, nil},
}

// Resolve maps an external key name to its canonical Key, applying legacy
// aliases. The returned bool is false for names outside the schema.
func Resolve(name string, value any) (Key, any, bool) {
	if a, ok := aliases[name]; ok {
		if a.translate != nil {
			value = a.translate(value)
		}
		return a.canonical, value, true
	}
	k := Key(name)
	if _, ok := schema[k]; ok {
		return k, value, true
	}
	return "", nil, false
}
