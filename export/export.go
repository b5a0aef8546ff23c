// Package export renders invoices as an Excel workbook.
package export

import (
	"io"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/xuri/excelize/v2"
)

const (
	invoiceSheet = "Invoices"
	itemSheet    = "Items"
	dateFormat   = "2006-01-02"
)

var (
	invoiceHeadings = []string{"Invoice Number", "Date", "Due Date", "Client", "Status",
		"Subtotal", "Tax", "Discount", "Total", "Description", "Notes"}
	itemHeadings = []string{"Invoice Number", "Description", "Quantity", "Rate", "Amount"}
)

// ExcelExporter is one row of a sheet.
type ExcelExporter interface {
	GetCellValues() []interface{}
}

type invoiceRow struct{ inv *models.Invoice }

func (r invoiceRow) GetCellValues() []interface{} {
	inv := r.inv
	client := ""
	if inv.Client != nil {
		client = inv.Client.Name
	}
	return []interface{}{
		inv.InvoiceNumber,
		inv.Date.Format(dateFormat),
		formatDate(inv.DueDate),
		client,
		string(inv.Status),
		inv.Subtotal,
		inv.Tax,
		inv.Discount,
		inv.Total,
		deref(inv.Description),
		deref(inv.Notes),
	}
}

type itemRow struct {
	number string
	item   models.InvoiceItem
}

func (r itemRow) GetCellValues() []interface{} {
	return []interface{}{r.number, r.item.Description, r.item.Quantity, r.item.Rate, r.item.Amount}
}

// Invoices writes an xlsx workbook with one sheet of invoices and one of their line items.
func Invoices(w io.Writer, invoices []*models.Invoice) error {
	f := excelize.NewFile()
	defer f.Close()

	var invoiceRows, itemRows []ExcelExporter
	for _, inv := range invoices {
		invoiceRows = append(invoiceRows, invoiceRow{inv})
		for _, item := range inv.Items {
			itemRows = append(itemRows, itemRow{number: inv.InvoiceNumber, item: item})
		}
	}

	// the default sheet becomes the invoice sheet
	if err := f.SetSheetName("Sheet1", invoiceSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(itemSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := writeSheet(f, invoiceSheet, bold, invoiceHeadings, invoiceRows); err != nil {
		return err
	}
	if err := writeSheet(f, itemSheet, bold, itemHeadings, itemRows); err != nil {
		return err
	}
	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, headings []string, rows []ExcelExporter) error {
	for i, h := range headings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(headings), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := row.GetCellValues()
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dateFormat)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
