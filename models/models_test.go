package models_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/Abhi-coder-crypto/Inv-gen/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountUnmarshal(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{`12.5`, 12.5},
		{`"1,250.50"`, 1250.5},
		{`"₹ 300"`, 300},
		{`"Rs. 40"`, 40},
		{`""`, 0},
		{`null`, 0},
		{`-3`, -3},
	}
	for _, tc := range cases {
		var a models.Amount
		require.NoError(t, json.Unmarshal([]byte(tc.in), &a), tc.in)
		assert.InDelta(t, tc.want, a.Float64(), 0.0001, tc.in)
	}
}

func TestAmountRejectsNonNumeric(t *testing.T) {
	for _, in := range []string{`"abc"`, `true`, `{}`, `[1]`} {
		var a models.Amount
		err := json.Unmarshal([]byte(in), &a)
		var typeErr *json.UnmarshalTypeError
		require.ErrorAs(t, err, &typeErr, in)
	}
}

func TestAmountErrorNamesField(t *testing.T) {
	cases := []struct{ body, field string }{
		{`{"clientId":"1","tax":"abc"}`, "tax"},
		{`{"clientId":"1","discount":true}`, "discount"},
		{`{"clientId":"1","subtotal":"ten"}`, "subtotal"},
		{`{"clientId":"1","items":[{"quantity":"two"}]}`, "items.quantity"},
		{`{"clientId":"1","date":"someday"}`, "date"},
	}
	for _, tc := range cases {
		var input models.NewInvoice
		var typeErr *json.UnmarshalTypeError
		require.ErrorAs(t, json.Unmarshal([]byte(tc.body), &input), &typeErr, tc.body)
		assert.Equal(t, tc.field, typeErr.Field, tc.body)
	}
}

func TestOptionalDistinguishesAbsentAndNull(t *testing.T) {
	var update models.ClientUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"phone":null,"email":"x@y.z"}`), &update))

	assert.False(t, update.Name.Set)
	assert.True(t, update.Phone.Set)
	assert.True(t, update.Phone.Null)
	assert.True(t, update.Email.Set)
	assert.Equal(t, "x@y.z", update.Email.Value)
}

func TestIDAcceptsNumbers(t *testing.T) {
	var input models.NewInvoice
	require.NoError(t, json.Unmarshal([]byte(`{"clientId":7}`), &input))
	assert.Equal(t, models.ID("7"), input.ClientID)
}

func TestNewUserBuildHashesPassword(t *testing.T) {
	input := &models.NewUser{Username: "  alice ", Password: "secret"}
	user, err := input.Build(time.Now())
	require.NoError(t, err)

	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.True(t, utils.IsPasswordHash(user.Password))
	assert.NoError(t, utils.ComparePassword(user.Password, "secret"))

	user.PrepareGive()
	b, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "password")
}

func TestNewUserRequiresUsername(t *testing.T) {
	_, err := (&models.NewUser{Password: "x"}).Build(time.Now())
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "username", verr.Field)
}

func TestCompanyMerge(t *testing.T) {
	var first models.NewCompany
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Acme","address":"1 Road","gst":"GST1","phone":"123","ifsc":"HDFC0001"}`), &first))
	company, err := first.Merge(nil)
	require.NoError(t, err)
	require.NotNil(t, company.IfscCode)
	assert.Equal(t, "HDFC0001", *company.IfscCode)
	assert.Nil(t, company.Website)

	var second models.NewCompany
	require.NoError(t, json.Unmarshal([]byte(`{"phone":null,"website":"acme.io","gst":""}`), &second))
	merged, err := second.Merge(company)
	require.NoError(t, err)

	assert.Equal(t, "Acme", merged.Name)
	assert.Nil(t, merged.Phone)
	assert.Nil(t, merged.Gst)
	require.NotNil(t, merged.Website)
	assert.Equal(t, "acme.io", *merged.Website)
	// the input is left untouched
	require.NotNil(t, company.Phone)
	assert.Equal(t, "123", *company.Phone)
}

func TestCompanyMergeRequiresNameAndAddress(t *testing.T) {
	var input models.NewCompany
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Acme"}`), &input))
	_, err := input.Merge(nil)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "address", verr.Field)
}

func TestCompanyChanges(t *testing.T) {
	var input models.NewCompany
	require.NoError(t, json.Unmarshal([]byte(`{"phone":" 555 ","gst":null,"ifsc":"HDFC0001","website":""}`), &input))
	changes, err := input.Changes()
	require.NoError(t, err)

	assert.Len(t, changes, 4)
	require.NotNil(t, changes["phone"])
	assert.Equal(t, "555", *changes["phone"])
	require.NotNil(t, changes["ifscCode"])
	assert.Equal(t, "HDFC0001", *changes["ifscCode"])
	assert.Contains(t, changes, "gst")
	assert.Nil(t, changes["gst"])
	assert.Nil(t, changes["website"])
	assert.NotContains(t, changes, "name")

	input = models.NewCompany{Address: models.Null[string]()}
	_, err = input.Changes()
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "address", verr.Field)
}

func TestClientApply(t *testing.T) {
	email := "a@acme.com"
	client := &models.Client{Name: "Acme Corp", Email: &email}

	before := client.Clone()
	var empty models.ClientUpdate
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.True(t, empty.IsEmpty())
	client.Apply(&empty)
	assert.Equal(t, before, client)

	var update models.ClientUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"email":null,"phone":" 555 "}`), &update))
	require.NoError(t, update.Validate())
	client.Apply(&update)
	assert.Nil(t, client.Email)
	require.NotNil(t, client.Phone)
	assert.Equal(t, "555", *client.Phone)
	assert.Equal(t, "Acme Corp", client.Name)

	cols := update.Columns()
	assert.Len(t, cols, 2)
	assert.Contains(t, cols, "email")
}

func TestClientUpdateRejectsBlankName(t *testing.T) {
	update := models.ClientUpdate{Name: models.Some(" ")}
	var verr *models.ValidationError
	require.ErrorAs(t, update.Validate(), &verr)
	assert.Equal(t, "name", verr.Field)
}

func TestNewInvoiceValidation(t *testing.T) {
	var input models.NewInvoice
	require.NoError(t, json.Unmarshal([]byte(`{
		"clientId":"1",
		"date":"2024-03-05",
		"items":[{"description":"a","quantity":1,"rate":2},{"description":"b","quantity":0,"rate":2}],
		"subtotal":4,
		"total":4
	}`), &input))

	var verr *models.ValidationError
	require.ErrorAs(t, input.Validate(), &verr)
	assert.Equal(t, "items[1].quantity", verr.Field)

	input.Items[1].Quantity = 1
	input.Tax = -1
	require.ErrorAs(t, input.Validate(), &verr)
	assert.Equal(t, "tax", verr.Field)

	input.Tax = 0
	require.NoError(t, input.Validate())
	assert.Equal(t, models.InvoiceStatusPending, input.Status)
}

func TestNewInvoiceRequiresClient(t *testing.T) {
	input := models.NewInvoice{}
	var verr *models.ValidationError
	require.ErrorAs(t, input.Validate(), &verr)
	assert.Equal(t, "clientId", verr.Field)
}

func TestNewInvoiceRequiredFields(t *testing.T) {
	cases := []struct{ body, field string }{
		{`{"clientId":"1","items":[],"subtotal":0,"total":0}`, "date"},
		{`{"clientId":"1","date":null,"items":[],"subtotal":0,"total":0}`, "date"},
		{`{"clientId":"1","date":"","items":[],"subtotal":0,"total":0}`, "date"},
		{`{"clientId":"1","date":"2024-03-05","subtotal":0,"total":0}`, "items"},
		{`{"clientId":"1","date":"2024-03-05","items":null,"subtotal":0,"total":0}`, "items"},
		{`{"clientId":"1","date":"2024-03-05","items":[],"total":0}`, "subtotal"},
		{`{"clientId":"1","date":"2024-03-05","items":[],"subtotal":0}`, "total"},
		{`{"clientId":"1","date":"2024-03-05","items":[],"subtotal":0,"total":null}`, "total"},
	}
	for _, tc := range cases {
		var input models.NewInvoice
		require.NoError(t, json.Unmarshal([]byte(tc.body), &input), tc.body)
		var verr *models.ValidationError
		require.ErrorAs(t, input.Validate(), &verr, tc.body)
		assert.Equal(t, tc.field, verr.Field, tc.body)
	}

	var input models.NewInvoice
	require.NoError(t, json.Unmarshal([]byte(`{"clientId":"1","date":"2024-03-05","items":[],"subtotal":0,"total":0}`), &input))
	assert.NoError(t, input.Validate())
}

func TestInvoiceUpdateValidate(t *testing.T) {
	current := &models.Invoice{ID: "1", InvoiceNumber: "client-001-Inv-001", ClientID: "1"}

	update := models.InvoiceUpdate{InvoiceNumber: models.Some("client-001-Inv-009")}
	assert.True(t, errors.Is(update.Validate(current), models.ErrValidation))

	update = models.InvoiceUpdate{InvoiceNumber: models.Some("client-001-Inv-001")}
	assert.NoError(t, update.Validate(current))

	update = models.InvoiceUpdate{Status: models.Some(models.InvoiceStatus("void"))}
	assert.Error(t, update.Validate(current))

	update = models.InvoiceUpdate{Discount: models.Some(models.Amount(-5))}
	assert.Error(t, update.Validate(current))
}

func TestDateInput(t *testing.T) {
	var input models.NewInvoice
	require.NoError(t, json.Unmarshal([]byte(`{"clientId":"1","date":"2024-03-05","dueDate":""}`), &input))
	d := models.DatePtr(input.Date)
	require.NotNil(t, d)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), *d)
	assert.Nil(t, models.DatePtr(input.DueDate))
}

func TestInternalKeepsTypedErrors(t *testing.T) {
	nf := models.NewNotFoundError("client", "9")
	assert.Same(t, nf, models.Internal("get client", nf))

	err := models.Internal("get client", errors.New("boom"))
	assert.True(t, errors.Is(err, models.ErrInternal))
	assert.False(t, errors.Is(err, models.ErrNotFound))
}
