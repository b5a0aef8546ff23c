package storage

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/config"
	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// EnsureAdmin creates the bootstrap user when it does not exist yet.
// It reports whether a user was created.
func EnsureAdmin(ctx context.Context, store Storage, username, password string) (bool, error) {
	if _, err := store.GetUserByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return false, err
	}
	_, err := store.CreateUser(ctx, &models.NewUser{
		Username: username,
		Password: password,
		Role:     models.RoleAdmin,
	})
	if errors.Is(err, models.ErrConflict) {
		// created concurrently by another instance
		return false, nil
	}
	if err != nil {
		return false, err
	}
	config.GetLogger().WithFields(logrus.Fields{
		"module":   "storage",
		"username": username,
	}).Info("default admin created")
	return true, nil
}

// ClientInvoices lists one client's invoices, newest first.
func ClientInvoices(ctx context.Context, store Storage, clientID models.ID) ([]*models.Invoice, error) {
	if _, err := store.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	all, err := store.GetInvoices(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*models.Invoice, 0)
	for _, inv := range all {
		if inv.ClientID == clientID {
			result = append(result, inv)
		}
	}
	return result, nil
}

type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

type Summary struct {
	TotalRevenue   float64           `json:"totalRevenue"`
	PendingAmount  float64           `json:"pendingAmount"`
	OverdueAmount  float64           `json:"overdueAmount"`
	TotalInvoices  int               `json:"totalInvoices"`
	PaidInvoices   int               `json:"paidInvoices"`
	PendingCount   int               `json:"pendingInvoices"`
	TotalClients   int               `json:"totalClients"`
	MonthlyRevenue []MonthlyRevenue  `json:"monthlyRevenue"`
	RecentInvoices []*models.Invoice `json:"recentInvoices"`
}

const (
	summaryMonths = 6
	recentCount   = 5
)

// Summarize computes the dashboard figures: paid revenue, outstanding amounts,
// counts and paid totals per month for the six months ending at now.
func Summarize(ctx context.Context, store Storage, now time.Time) (*Summary, error) {
	invoices, err := store.GetInvoices(ctx)
	if err != nil {
		return nil, err
	}
	clients, err := store.GetClients(ctx)
	if err != nil {
		return nil, err
	}

	revenue, pending, overdue := decimal.Zero, decimal.Zero, decimal.Zero
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(summaryMonths - 1), 0)
	buckets := make([]decimal.Decimal, summaryMonths)
	summary := &Summary{
		TotalInvoices: len(invoices),
		TotalClients:  len(clients),
	}

	for _, inv := range invoices {
		total := decimal.NewFromFloat(inv.Total)
		switch inv.Status {
		case models.InvoiceStatusPaid:
			revenue = revenue.Add(total)
			summary.PaidInvoices++
			d := inv.Date.In(now.Location())
			months := (d.Year()-start.Year())*12 + int(d.Month()) - int(start.Month())
			if months >= 0 && months < summaryMonths {
				buckets[months] = buckets[months].Add(total)
			}
		case models.InvoiceStatusPending:
			pending = pending.Add(total)
			summary.PendingCount++
		case models.InvoiceStatusOverdue:
			overdue = overdue.Add(total)
		}
	}

	summary.TotalRevenue = revenue.InexactFloat64()
	summary.PendingAmount = pending.InexactFloat64()
	summary.OverdueAmount = overdue.InexactFloat64()
	summary.MonthlyRevenue = make([]MonthlyRevenue, summaryMonths)
	for i := range buckets {
		summary.MonthlyRevenue[i] = MonthlyRevenue{
			Month:   start.AddDate(0, i, 0).Format("Jan 2006"),
			Revenue: buckets[i].InexactFloat64(),
		}
	}

	recent := append([]*models.Invoice(nil), invoices...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	if len(recent) > recentCount {
		recent = recent[:recentCount]
	}
	summary.RecentInvoices = recent
	return summary, nil
}
