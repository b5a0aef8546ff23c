package models

import (
	"fmt"
	"strings"
	"time"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

type InvoiceItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

type Invoice struct {
	ID            ID            `json:"id"`
	InvoiceNumber string        `json:"invoiceNumber"`
	Date          time.Time     `json:"date"`
	DueDate       *time.Time    `json:"dueDate"`
	ClientID      ID            `json:"clientId"`
	Status        InvoiceStatus `json:"status"`
	Items         []InvoiceItem `json:"items"`
	Subtotal      float64       `json:"subtotal"`
	Tax           float64       `json:"tax"`
	Discount      float64       `json:"discount"`
	Total         float64       `json:"total"`
	Description   *string       `json:"description"`
	Notes         *string       `json:"notes"`
	CreatedAt     time.Time     `json:"createdAt"`
	// Client is attached on reads: a live join or the snapshot embedded at creation.
	Client *Client `json:"client,omitempty"`
}

type NewInvoiceItem struct {
	Description string `json:"description"`
	Quantity    Amount `json:"quantity" validate:"gt=0"`
	Rate        Amount `json:"rate" validate:"gte=0"`
	// Amount is accepted for compatibility and always recomputed.
	Amount Amount `json:"amount"`
}

type NewInvoice struct {
	ClientID ID `json:"clientId" validate:"required"`
	// InvoiceNumber is ignored; numbers are always derived.
	InvoiceNumber string           `json:"invoiceNumber"`
	Date          Optional[Date]   `json:"date"`
	DueDate       Optional[Date]   `json:"dueDate"`
	Status        InvoiceStatus    `json:"status" validate:"omitempty,oneof=draft pending paid overdue"`
	Items         []NewInvoiceItem `json:"items" validate:"dive"`
	// Subtotal and Total must be sent but are re-derived from the items.
	Subtotal    Optional[Amount] `json:"subtotal"`
	Tax         Amount           `json:"tax" validate:"gte=0"`
	Discount    Amount           `json:"discount" validate:"gte=0"`
	Total       Optional[Amount] `json:"total"`
	Description *string          `json:"description"`
	Notes       *string          `json:"notes"`
}

// InvoiceUpdate is a partial update. Totals are re-derived from the merged result.
type InvoiceUpdate struct {
	InvoiceNumber Optional[string]           `json:"invoiceNumber"`
	ClientID      Optional[ID]               `json:"clientId"`
	Date          Optional[Date]             `json:"date"`
	DueDate       Optional[Date]             `json:"dueDate"`
	Status        Optional[InvoiceStatus]    `json:"status"`
	Items         Optional[[]NewInvoiceItem] `json:"items"`
	Subtotal      Optional[Amount]           `json:"subtotal"`
	Tax           Optional[Amount]           `json:"tax"`
	Discount      Optional[Amount]           `json:"discount"`
	Total         Optional[Amount]           `json:"total"`
	Description   Optional[string]           `json:"description"`
	Notes         Optional[string]           `json:"notes"`
}

func (inv *Invoice) Clone() *Invoice {
	if inv == nil {
		return nil
	}
	out := *inv
	if inv.Items != nil {
		out.Items = append([]InvoiceItem(nil), inv.Items...)
	}
	if inv.DueDate != nil {
		d := *inv.DueDate
		out.DueDate = &d
	}
	if inv.Description != nil {
		v := *inv.Description
		out.Description = &v
	}
	if inv.Notes != nil {
		v := *inv.Notes
		out.Notes = &v
	}
	out.Client = inv.Client.Clone()
	return &out
}

func (input *NewInvoice) Validate() error {
	if input == nil {
		return NewValidationError("", "invoice is required")
	}
	switch {
	case input.ClientID.IsZero():
		return NewValidationError("clientId", "is required")
	case !input.Date.Set || input.Date.Null || input.Date.Value.IsZero():
		return NewValidationError("date", "is required")
	case input.Items == nil:
		return NewValidationError("items", "is required")
	case !input.Subtotal.Set || input.Subtotal.Null:
		return NewValidationError("subtotal", "is required")
	case !input.Total.Set || input.Total.Null:
		return NewValidationError("total", "is required")
	}
	if input.Status == "" {
		input.Status = InvoiceStatusPending
	}
	return ValidateStruct(input)
}

// Validate checks an update against the stored invoice.
func (update *InvoiceUpdate) Validate(current *Invoice) error {
	if update == nil {
		return nil
	}
	if update.InvoiceNumber.Set && !update.InvoiceNumber.Null &&
		strings.TrimSpace(update.InvoiceNumber.Value) != current.InvoiceNumber {
		return NewValidationError("invoiceNumber", "cannot be changed")
	}
	if update.ClientID.Set && !update.ClientID.Null && !update.ClientID.Value.IsZero() &&
		update.ClientID.Value != current.ClientID {
		return NewValidationError("clientId", "cannot be changed")
	}
	if update.Date.Set && (update.Date.Null || update.Date.Value.IsZero()) {
		return NewValidationError("date", "is required")
	}
	if update.Status.Set && !update.Status.Value.IsValid() {
		return NewValidationError("status", "must be one of: draft, pending, paid, overdue")
	}
	if update.Items.Set {
		for i := range update.Items.Value {
			if err := ValidateItem(i, &update.Items.Value[i]); err != nil {
				return err
			}
		}
	}
	if update.Tax.Set && update.Tax.Value < 0 {
		return NewValidationError("tax", "must be greater than or equal to 0")
	}
	if update.Discount.Set && update.Discount.Value < 0 {
		return NewValidationError("discount", "must be greater than or equal to 0")
	}
	return nil
}

func ValidateItem(i int, item *NewInvoiceItem) error {
	if item.Quantity <= 0 {
		return NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be greater than 0")
	}
	if item.Rate < 0 {
		return NewValidationError(fmt.Sprintf("items[%d].rate", i), "must be greater than or equal to 0")
	}
	return nil
}
