package billing

import (
	"strings"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/shopspring/decimal"
)

type Totals struct {
	Items    []models.InvoiceItem
	Subtotal float64
	Total    float64
}

// Derive recomputes every item amount as quantity*rate, the subtotal as their sum
// in input order and total = subtotal + tax - discount. Totals may go negative.
func Derive(items []models.InvoiceItem, tax, discount float64) (Totals, error) {
	if tax < 0 {
		return Totals{}, models.NewValidationError("tax", "must be greater than or equal to 0")
	}
	if discount < 0 {
		return Totals{}, models.NewValidationError("discount", "must be greater than or equal to 0")
	}
	out := make([]models.InvoiceItem, len(items))
	subtotal := decimal.Zero
	for i, item := range items {
		amount := decimal.NewFromFloat(item.Quantity).Mul(decimal.NewFromFloat(item.Rate))
		subtotal = subtotal.Add(amount)
		out[i] = item
		out[i].Amount = amount.InexactFloat64()
	}
	total := subtotal.Add(decimal.NewFromFloat(tax)).Sub(decimal.NewFromFloat(discount))
	return Totals{
		Items:    out,
		Subtotal: subtotal.InexactFloat64(),
		Total:    total.InexactFloat64(),
	}, nil
}

func toItems(in []models.NewInvoiceItem) []models.InvoiceItem {
	items := make([]models.InvoiceItem, len(in))
	for i, item := range in {
		items[i] = models.InvoiceItem{
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity.Float64(),
			Rate:        item.Rate.Float64(),
		}
	}
	return items
}

// Draft validates input and returns an invoice with derived totals. Id, number and
// client are filled in by the backend.
func Draft(input *models.NewInvoice, now time.Time) (*models.Invoice, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	totals, err := Derive(toItems(input.Items), input.Tax.Float64(), input.Discount.Float64())
	if err != nil {
		return nil, err
	}
	return &models.Invoice{
		Date:        input.Date.Value.Time,
		DueDate:     models.DatePtr(input.DueDate),
		ClientID:    input.ClientID,
		Status:      input.Status,
		Items:       totals.Items,
		Subtotal:    totals.Subtotal,
		Tax:         input.Tax.Float64(),
		Discount:    input.Discount.Float64(),
		Total:       totals.Total,
		Description: models.NormalizeString(input.Description),
		Notes:       models.NormalizeString(input.Notes),
		CreatedAt:   now,
	}, nil
}

// ApplyUpdate returns current merged with update and its totals re-derived.
// The invoice number and client are never changed. current is not modified.
func ApplyUpdate(current *models.Invoice, update *models.InvoiceUpdate) (*models.Invoice, error) {
	if err := update.Validate(current); err != nil {
		return nil, err
	}
	out := current.Clone()
	if update == nil {
		return out, nil
	}
	if d := models.DatePtr(update.Date); d != nil {
		out.Date = *d
	}
	if update.DueDate.Set {
		out.DueDate = models.DatePtr(update.DueDate)
	}
	if update.Status.Set {
		out.Status = update.Status.Value
	}
	if update.Items.Set {
		out.Items = toItems(update.Items.Value)
	}
	if update.Tax.Set {
		out.Tax = update.Tax.Value.Float64()
	}
	if update.Discount.Set {
		out.Discount = update.Discount.Value.Float64()
	}
	out.Description = models.MergeString(out.Description, update.Description)
	out.Notes = models.MergeString(out.Notes, update.Notes)

	totals, err := Derive(out.Items, out.Tax, out.Discount)
	if err != nil {
		return nil, err
	}
	out.Items = totals.Items
	out.Subtotal = totals.Subtotal
	out.Total = totals.Total
	return out, nil
}
