package relational

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/billing"
	"github.com/Abhi-coder-crypto/Inv-gen/config"
	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const invoiceLockTTL = 10 * time.Second

func (s *Store) GetInvoices(ctx context.Context) ([]*models.Invoice, error) {
	var rows []invoiceRow
	if err := s.db.WithContext(ctx).Joins("Client").
		Order("invoices.created_at DESC, invoices.id DESC").Find(&rows).Error; err != nil {
		return nil, models.Internal("get invoices", err)
	}
	result := make([]*models.Invoice, len(rows))
	for i := range rows {
		result[i] = rows[i].toModel()
	}
	return result, nil
}

func (s *Store) GetInvoice(ctx context.Context, id models.ID) (*models.Invoice, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, models.NewNotFoundError("invoice", id)
	}
	return s.getInvoice(s.db.WithContext(ctx), key, id)
}

func (s *Store) getInvoice(db *gorm.DB, key uint64, id models.ID) (*models.Invoice, error) {
	var row invoiceRow
	if err := db.Joins("Client").Where("invoices.id = ?", key).Take(&row).Error; err != nil {
		return nil, notFoundOr(err, "invoice", id, "get invoice")
	}
	return row.toModel(), nil
}

// obtainClientLock takes the optional Redis lock for a client. Failures are logged and
// ignored; the row lock taken in the transaction still serializes numbering.
func (s *Store) obtainClientLock(ctx context.Context, clientKey uint64) *redislock.Lock {
	if s.locker == nil {
		return nil
	}
	lock, err := s.locker.Obtain(ctx, fmt.Sprintf("invoice-seq:%d", clientKey), invoiceLockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 40),
	})
	if err != nil {
		msg := "error obtaining redis lock; proceeding without redis lock"
		if errors.Is(err, redislock.ErrNotObtained) {
			msg = "could not obtain redis lock; proceeding without redis lock"
		}
		config.GetLogger().WithFields(logrus.Fields{
			"module":    "relational",
			"field":     "CreateInvoice",
			"client_id": clientKey,
		}).Warn(msg + ": " + err.Error())
		return nil
	}
	return lock
}

func (s *Store) CreateInvoice(ctx context.Context, input *models.NewInvoice) (*models.Invoice, error) {
	inv, err := billing.Draft(input, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	clientKey, ok := parseID(inv.ClientID)
	if !ok {
		return nil, models.NewNotFoundError("client", inv.ClientID)
	}

	if lock := s.obtainClientLock(ctx, clientKey); lock != nil {
		defer func() {
			if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
				config.GetLogger().WithFields(logrus.Fields{
					"module":    "relational",
					"field":     "CreateInvoice",
					"client_id": clientKey,
				}).Warn("failed to release redis lock: " + releaseErr.Error())
			}
		}()
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, models.Internal("create invoice", tx.Error)
	}

	var client clientRow
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&client, clientKey).Error; err != nil {
		tx.Rollback()
		return nil, notFoundOr(err, "client", inv.ClientID, "create invoice")
	}
	var count int64
	if err := tx.Model(&invoiceRow{}).Where("client_id = ?", clientKey).Count(&count).Error; err != nil {
		tx.Rollback()
		return nil, models.Internal("create invoice", err)
	}

	tag := billing.ClientTag(client.toModel())
	seq := billing.NextInvoiceSeq(client.InvoiceSeq, int(count))
	for {
		var taken int64
		if err := tx.Model(&invoiceRow{}).Where("invoice_number = ?", billing.InvoiceNumber(tag, seq)).Count(&taken).Error; err != nil {
			tx.Rollback()
			return nil, models.Internal("create invoice", err)
		}
		if taken == 0 {
			break
		}
		seq++
	}

	row := invoiceRow{
		InvoiceNumber: billing.InvoiceNumber(tag, seq),
		Date:          inv.Date,
		DueDate:       inv.DueDate,
		ClientID:      clientKey,
		Status:        string(inv.Status),
		Items:         inv.Items,
		Subtotal:      decimal.NewFromFloat(inv.Subtotal),
		Tax:           decimal.NewFromFloat(inv.Tax),
		Discount:      decimal.NewFromFloat(inv.Discount),
		Total:         decimal.NewFromFloat(inv.Total),
		Description:   inv.Description,
		Notes:         inv.Notes,
		CreatedAt:     inv.CreatedAt,
	}
	if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
		tx.Rollback()
		if isDuplicate(err) {
			return nil, &models.ConflictError{Field: "invoiceNumber", Value: row.InvoiceNumber}
		}
		return nil, models.Internal("create invoice", err)
	}
	if err := tx.Model(&clientRow{}).Where("id = ?", clientKey).Update("invoice_seq", seq).Error; err != nil {
		tx.Rollback()
		return nil, models.Internal("create invoice", err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, models.Internal("create invoice", err)
	}

	client.InvoiceSeq = seq
	row.Client = client
	return row.toModel(), nil
}

// invoiceColumns lists the columns an update may change.
func invoiceColumns(inv *models.Invoice) (map[string]interface{}, error) {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"date":        inv.Date,
		"due_date":    inv.DueDate,
		"status":      string(inv.Status),
		"items":       string(items),
		"subtotal":    decimal.NewFromFloat(inv.Subtotal),
		"tax":         decimal.NewFromFloat(inv.Tax),
		"discount":    decimal.NewFromFloat(inv.Discount),
		"total":       decimal.NewFromFloat(inv.Total),
		"description": inv.Description,
		"notes":       inv.Notes,
	}, nil
}

func (s *Store) UpdateInvoice(ctx context.Context, id models.ID, update *models.InvoiceUpdate) (*models.Invoice, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, models.NewNotFoundError("invoice", id)
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, models.Internal("update invoice", tx.Error)
	}
	var row invoiceRow
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&row, key).Error; err != nil {
		tx.Rollback()
		return nil, notFoundOr(err, "invoice", id, "update invoice")
	}

	updated, err := billing.ApplyUpdate(row.toModel(), update)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	cols, err := invoiceColumns(updated)
	if err != nil {
		tx.Rollback()
		return nil, models.Internal("update invoice", err)
	}
	if err := tx.Model(&invoiceRow{}).Where("id = ?", key).Updates(cols).Error; err != nil {
		tx.Rollback()
		return nil, models.Internal("update invoice", err)
	}
	result, err := s.getInvoice(tx, key, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, models.Internal("update invoice", err)
	}
	return result, nil
}

func (s *Store) DeleteInvoice(ctx context.Context, id models.ID) (bool, error) {
	key, ok := parseID(id)
	if !ok {
		return false, nil
	}
	result := s.db.WithContext(ctx).Delete(&invoiceRow{}, key)
	if result.Error != nil {
		return false, models.Internal("delete invoice", result.Error)
	}
	return result.RowsAffected > 0, nil
}
