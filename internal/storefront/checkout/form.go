package checkout

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	errx "github.com/techstore-demo/server/internal/core/error"
	"github.com/techstore-demo/server/internal/storefront/model"
)

const (
	MsgInvalidCardNumber = "Please enter a valid card number"
	MsgInvalidExpiry     = "Please enter expiry date in MM/YY format"
	MsgInvalidCVV        = "Please enter a valid CVV"

	minCardDigits = 13
	maxCardDigits = 19
)

var (
	expiryPattern = regexp.MustCompile(`^\d{2}/\d{2}$`)
	cvvPattern    = regexp.MustCompile(`^\d{3,4}$`)
)

// Form is the submitted billing, shipping and payment details.
type Form struct {
	BillingName    string `json:"billing_name"`
	BillingEmail   string `json:"billing_email"`
	BillingAddress string `json:"billing_address"`
	BillingCity    string `json:"billing_city"`
	BillingState   string `json:"billing_state"`
	BillingZip     string `json:"billing_zip"`

	SameAsBilling   bool   `json:"same_as_billing"`
	ShippingName    string `json:"shipping_name"`
	ShippingAddress string `json:"shipping_address"`
	ShippingCity    string `json:"shipping_city"`
	ShippingState   string `json:"shipping_state"`
	ShippingZip     string `json:"shipping_zip"`

	CardNumber     string `json:"card_number"`
	ExpiryDate     string `json:"expiry_date"`
	CVV            string `json:"cvv"`
	CardholderName string `json:"cardholder_name"`
}

// Prefill returns a form with the billing contact taken from the session.
func Prefill(u *model.User) Form {
	if u == nil {
		return Form{}
	}
	return Form{BillingName: u.Name, BillingEmail: u.Email}
}

type field struct {
	id    string
	value func(*Form) string
}

// Required fields in the order they are checked.
var paymentFields = []field{
	{"billing-name", func(f *Form) string { return f.BillingName }},
	{"billing-email", func(f *Form) string { return f.BillingEmail }},
	{"billing-address", func(f *Form) string { return f.BillingAddress }},
	{"billing-city", func(f *Form) string { return f.BillingCity }},
	{"billing-state", func(f *Form) string { return f.BillingState }},
	{"billing-zip", func(f *Form) string { return f.BillingZip }},
	{"card-number", func(f *Form) string { return f.CardNumber }},
	{"expiry-date", func(f *Form) string { return f.ExpiryDate }},
	{"cvv", func(f *Form) string { return f.CVV }},
	{"cardholder-name", func(f *Form) string { return f.CardholderName }},
}

var shippingFields = []field{
	{"shipping-name", func(f *Form) string { return f.ShippingName }},
	{"shipping-address", func(f *Form) string { return f.ShippingAddress }},
	{"shipping-city", func(f *Form) string { return f.ShippingCity }},
	{"shipping-state", func(f *Form) string { return f.ShippingState }},
}

var shippingZipField = field{"shipping-zip", func(f *Form) string { return f.ShippingZip }}

// Validator checks a Form. Shipping zip is exempt unless RequireShippingZip
// is set, even when the other shipping fields are required.
type Validator struct {
	RequireShippingZip bool
}

// Validate runs the checks in a fixed order and returns the first failure:
// missing fields, card number length, expiry format, then CVV format.
func (v Validator) Validate(f Form) error {
	for _, fd := range v.requiredFields(f) {
		if strings.TrimSpace(fd.value(&f)) == "" {
			return errx.Validation(fd.id, MissingFieldMessage(fd.id))
		}
	}

	card := NormalizeCardNumber(f.CardNumber)
	if n := len(card); n < minCardDigits || n > maxCardDigits || !allDigits(card) {
		return errx.Validation("card-number", MsgInvalidCardNumber)
	}
	if !expiryPattern.MatchString(f.ExpiryDate) {
		return errx.Validation("expiry-date", MsgInvalidExpiry)
	}
	if !cvvPattern.MatchString(f.CVV) {
		return errx.Validation("cvv", MsgInvalidCVV)
	}
	return nil
}

func (v Validator) requiredFields(f Form) []field {
	fields := append([]field(nil), paymentFields...)
	if f.SameAsBilling {
		return fields
	}
	fields = append(fields, shippingFields...)
	if v.RequireShippingZip {
		fields = append(fields, shippingZipField)
	}
	return fields
}

// MissingFieldMessage names a field by its id with the first hyphen
// replaced by a space, e.g. "billing-email" becomes "billing email".
func MissingFieldMessage(id string) string {
	return fmt.Sprintf("Please fill in the %s field", strings.Replace(id, "-", " ", 1))
}

// NormalizeCardNumber strips all whitespace.
func NormalizeCardNumber(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
