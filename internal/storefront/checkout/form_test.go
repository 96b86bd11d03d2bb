package checkout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/techstore-demo/server/internal/core/error"
	"github.com/techstore-demo/server/internal/storefront/model"
)

func validForm() Form {
	return Form{
		BillingName:    "Ada Lovelace",
		BillingEmail:   "ada@example.com",
		BillingAddress: "12 Analytical Row",
		BillingCity:    "London",
		BillingState:   "LDN",
		BillingZip:     "N1 9GU",
		SameAsBilling:  true,
		CardNumber:     "4111 1111 1111 1111",
		ExpiryDate:     "12/29",
		CVV:            "123",
		CardholderName: "A LOVELACE",
	}
}

func validationOf(t *testing.T, err error) *errx.ValidationError {
	t.Helper()
	var ve *errx.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	return ve
}

func TestValidate_AcceptsValidForm(t *testing.T) {
	assert.NoError(t, Validator{}.Validate(validForm()))
}

func TestValidate_MissingFieldBeatsCardError(t *testing.T) {
	f := validForm()
	f.BillingEmail = ""
	f.CardNumber = "123"

	ve := validationOf(t, Validator{}.Validate(f))
	assert.Equal(t, "billing-email", ve.Field)
	assert.Equal(t, "Please fill in the billing email field", ve.Message)
}

func TestValidate_MissingFieldsInFixedOrder(t *testing.T) {
	f := Form{}
	ve := validationOf(t, Validator{}.Validate(f))
	assert.Equal(t, "billing-name", ve.Field)

	f = validForm()
	f.CVV = "  "
	f.CardholderName = ""
	ve = validationOf(t, Validator{}.Validate(f))
	assert.Equal(t, "cvv", ve.Field)
	assert.Equal(t, "Please fill in the cvv field", ve.Message)

	f = validForm()
	f.CardholderName = ""
	ve = validationOf(t, Validator{}.Validate(f))
	assert.Equal(t, "Please fill in the cardholder name field", ve.Message)
}

func TestValidate_ShippingFields(t *testing.T) {
	f := validForm()
	f.SameAsBilling = false
	ve := validationOf(t, Validator{}.Validate(f))
	assert.Equal(t, "shipping-name", ve.Field)

	f.ShippingName = "Ada"
	f.ShippingAddress = "1 Dock St"
	f.ShippingCity = "Bristol"
	f.ShippingState = "BRS"
	assert.NoError(t, Validator{}.Validate(f), "shipping zip is exempt by default")

	ve = validationOf(t, Validator{RequireShippingZip: true}.Validate(f))
	assert.Equal(t, "shipping-zip", ve.Field)
	assert.Equal(t, "Please fill in the shipping zip field", ve.Message)

	f.ShippingZip = "BS1"
	assert.NoError(t, Validator{RequireShippingZip: true}.Validate(f))
}

func TestValidate_SameAsBillingIgnoresShipping(t *testing.T) {
	f := validForm()
	f.ShippingName = ""
	assert.NoError(t, Validator{RequireShippingZip: true}.Validate(f))
}

func TestValidate_CardNumber(t *testing.T) {
	tests := []struct {
		card string
		ok   bool
	}{
		{"4111 1111 1111 1111", true},
		{"4111111111111111", true},
		{"4222222222222", true},
		{"4111 1111 1111 1111 111", true},
		{"123", false},
		{"411111111111", false},
		{"41111111111111111111", false},
		{"4111-1111-1111-1111", false},
	}
	for _, tt := range tests {
		f := validForm()
		f.CardNumber = tt.card
		err := Validator{}.Validate(f)
		if tt.ok {
			assert.NoError(t, err, tt.card)
			continue
		}
		ve := validationOf(t, err)
		assert.Equal(t, MsgInvalidCardNumber, ve.Message, tt.card)
	}
}

func TestValidate_ExpiryThenCVV(t *testing.T) {
	f := validForm()
	f.ExpiryDate = "1/29"
	f.CVV = "12"
	ve := validationOf(t, Validator{}.Validate(f))
	assert.Equal(t, MsgInvalidExpiry, ve.Message)

	f.ExpiryDate = "01/29"
	ve = validationOf(t, Validator{}.Validate(f))
	assert.Equal(t, MsgInvalidCVV, ve.Message)

	for _, cvv := range []string{"123", "1234"} {
		f.CVV = cvv
		assert.NoError(t, Validator{}.Validate(f))
	}
	for _, cvv := range []string{"12345", "12a", " 123"} {
		f.CVV = cvv
		assert.Error(t, Validator{}.Validate(f), cvv)
	}
}

func TestPrefill(t *testing.T) {
	assert.Equal(t, Form{}, Prefill(nil))
	f := Prefill(&model.User{Name: "a", Email: "a@b.com"})
	assert.Equal(t, "a", f.BillingName)
	assert.Equal(t, "a@b.com", f.BillingEmail)
}

func TestMissingFieldMessage_ReplacesFirstHyphenOnly(t *testing.T) {
	assert.Equal(t, "Please fill in the expiry date field", MissingFieldMessage("expiry-date"))
	assert.Equal(t, "Please fill in the a b-c field", MissingFieldMessage("a-b-c"))
}
