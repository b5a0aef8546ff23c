package billing

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCustomID(t *testing.T) {
	assert.Equal(t, "client-001", CustomID(0))
	assert.Equal(t, "client-010", CustomID(9))
	assert.Equal(t, "client-1000", CustomID(999))
	assert.Equal(t, "client-006", NextCustomID(5, 3))
	assert.Equal(t, "client-004", NextCustomID(0, 3))
}

func TestClientTag(t *testing.T) {
	assert.Equal(t, "client-007", ClientTag(&models.Client{ID: "99", CustomId: strPtr("client-007")}))
	assert.Equal(t, "client-004", ClientTag(&models.Client{ID: "4"}))
	assert.Equal(t, "client-4f2", ClientTag(&models.Client{ID: "65a1b2c3d4e5f60718293a4f2"}))
	assert.Equal(t, "client-004", ClientTag(&models.Client{ID: "4", CustomId: strPtr("  ")}))
}

func TestNextInvoiceSeq(t *testing.T) {
	assert.Equal(t, 1, NextInvoiceSeq(0, 0))
	assert.Equal(t, 4, NextInvoiceSeq(3, 2))
	// counter never recorded, existing invoices imported
	assert.Equal(t, 6, NextInvoiceSeq(0, 5))
}

func TestInvoiceNumberRoundTrip(t *testing.T) {
	n := InvoiceNumber("client-001", 4)
	assert.Equal(t, "client-001-Inv-004", n)
	assert.Equal(t, 4, InvoiceSeqOf(n))
	assert.Equal(t, 0, InvoiceSeqOf("INV-legacy"))
	assert.Equal(t, 12, CustomIDSeqOf("client-012"))
	assert.Equal(t, 0, CustomIDSeqOf("acme"))
}

func TestDerive(t *testing.T) {
	totals, err := Derive([]models.InvoiceItem{
		{Description: "Design", Quantity: 2, Rate: 500, Amount: 1},
		{Description: "Hosting", Quantity: 3, Rate: 0.1},
	}, 18.5, 100)
	require.NoError(t, err)

	assert.InDelta(t, 1000, totals.Items[0].Amount, 0.001)
	assert.InDelta(t, 0.3, totals.Items[1].Amount, 0.001)
	assert.InDelta(t, 1000.3, totals.Subtotal, 0.001)
	assert.InDelta(t, 918.8, totals.Total, 0.001)
}

func TestDeriveEdgeCases(t *testing.T) {
	totals, err := Derive(nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, totals.Subtotal)
	assert.Equal(t, 0.0, totals.Total)

	totals, err = Derive([]models.InvoiceItem{{Quantity: 1, Rate: 10}}, 0, 25)
	require.NoError(t, err)
	assert.InDelta(t, -15, totals.Total, 0.001)

	_, err = Derive(nil, -1, 0)
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = Derive(nil, 0, -1)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDraftIgnoresClientTotals(t *testing.T) {
	var input models.NewInvoice
	require.NoError(t, json.Unmarshal([]byte(`{
		"clientId": "1",
		"invoiceNumber": "made-up",
		"date": "2024-04-30",
		"items": [{"description":"Design","quantity":"2","rate":"500","amount":1}],
		"subtotal": 5, "total": 5, "tax": "0", "discount": 0
	}`), &input))

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	inv, err := Draft(&input, now)
	require.NoError(t, err)

	assert.Equal(t, "", inv.InvoiceNumber)
	assert.Equal(t, models.InvoiceStatusPending, inv.Status)
	assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), inv.Date)
	assert.Equal(t, now, inv.CreatedAt)
	assert.InDelta(t, 1000, inv.Subtotal, 0.01)
	assert.InDelta(t, 1000, inv.Total, 0.01)
	assert.InDelta(t, 1000, inv.Items[0].Amount, 0.01)
}

func TestDraftRequiresDate(t *testing.T) {
	var input models.NewInvoice
	require.NoError(t, json.Unmarshal([]byte(`{
		"clientId": "1",
		"items": [],
		"subtotal": 0, "total": 0
	}`), &input))

	_, err := Draft(&input, time.Now())
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "date", verr.Field)
}

func TestApplyUpdateRederivesTotals(t *testing.T) {
	current := &models.Invoice{
		ID:            "1",
		InvoiceNumber: "client-001-Inv-001",
		ClientID:      "1",
		Status:        models.InvoiceStatusPending,
		Items:         []models.InvoiceItem{{Description: "Design", Quantity: 2, Rate: 500, Amount: 1000}},
		Subtotal:      1000,
		Total:         1000,
		Notes:         strPtr("thanks"),
	}

	var update models.InvoiceUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"discount":100,"status":"paid","total":1,"notes":null}`), &update))
	updated, err := ApplyUpdate(current, &update)
	require.NoError(t, err)

	assert.Equal(t, "client-001-Inv-001", updated.InvoiceNumber)
	assert.Equal(t, models.InvoiceStatusPaid, updated.Status)
	assert.InDelta(t, 900, updated.Total, 0.01)
	assert.Nil(t, updated.Notes)
	// current is untouched
	assert.Equal(t, models.InvoiceStatusPending, current.Status)
	assert.InDelta(t, 1000, current.Total, 0.01)

	require.NoError(t, json.Unmarshal([]byte(`{"items":[{"description":"x","quantity":1,"rate":20}]}`), &update))
	updated, err = ApplyUpdate(current, &models.InvoiceUpdate{Items: update.Items})
	require.NoError(t, err)
	assert.InDelta(t, 20, updated.Subtotal, 0.01)
}

func TestApplyUpdateRejectsNumberChange(t *testing.T) {
	current := &models.Invoice{InvoiceNumber: "client-001-Inv-001", ClientID: "1"}
	_, err := ApplyUpdate(current, &models.InvoiceUpdate{InvoiceNumber: models.Some("client-001-Inv-002")})
	assert.ErrorIs(t, err, models.ErrValidation)
}
