package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestInvoicesWorkbook(t *testing.T) {
	due := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	notes := "thanks"
	invoices := []*models.Invoice{
		{
			InvoiceNumber: "client-001-Inv-002",
			Date:          time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			DueDate:       &due,
			Status:        models.InvoiceStatusPaid,
			Items: []models.InvoiceItem{
				{Description: "Build", Quantity: 1.5, Rate: 1000, Amount: 1500},
				{Description: "Hosting", Quantity: 1, Rate: 99.99, Amount: 99.99},
			},
			Subtotal: 1599.99,
			Tax:      18,
			Discount: 50,
			Total:    1567.99,
			Notes:    &notes,
			Client:   &models.Client{Name: "Acme Corp"},
		},
		{
			InvoiceNumber: "client-002-Inv-001",
			Date:          time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			Status:        models.InvoiceStatusPending,
			Items:         []models.InvoiceItem{},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Invoices(&buf, invoices))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{invoiceSheet, itemSheet}, f.GetSheetList())

	rows, err := f.GetRows(invoiceSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, invoiceHeadings, rows[0])
	assert.Equal(t, []string{"client-001-Inv-002", "2024-03-01", "2024-03-31", "Acme Corp", "paid",
		"1599.99", "18", "50", "1567.99", "", "thanks"}, rows[1])
	assert.Equal(t, "client-002-Inv-001", rows[2][0])
	assert.Equal(t, "", rows[2][2])

	items, err := f.GetRows(itemSheet)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"client-001-Inv-002", "Build", "1.5", "1000", "1500"}, items[1])
}

func TestInvoicesEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Invoices(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(invoiceSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
