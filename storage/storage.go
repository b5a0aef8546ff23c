package storage

import (
	"context"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
)

// Storage is the contract every backend implements. Exactly one backend is
// active per process.
//
// Reads of a missing record return *models.NotFoundError. Writes are durable
// before they return and are all-or-nothing per entity.
type Storage interface {
	GetUser(ctx context.Context, id models.ID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// CreateUser fails with *models.ConflictError when the username is taken.
	CreateUser(ctx context.Context, input *models.NewUser) (*models.User, error)

	// GetCompany returns a not-found error until the first UpdateCompany.
	GetCompany(ctx context.Context) (*models.Company, error)
	// UpdateCompany creates the company or merges input into it.
	UpdateCompany(ctx context.Context, input *models.NewCompany) (*models.Company, error)

	// GetClients lists clients newest first.
	GetClients(ctx context.Context) ([]*models.Client, error)
	GetClient(ctx context.Context, id models.ID) (*models.Client, error)
	// CreateClient assigns the id and the "client-NNN" customId.
	CreateClient(ctx context.Context, input *models.NewClient) (*models.Client, error)
	UpdateClient(ctx context.Context, id models.ID, update *models.ClientUpdate) (*models.Client, error)

	// GetInvoices lists invoices newest first with their client attached.
	GetInvoices(ctx context.Context) ([]*models.Invoice, error)
	GetInvoice(ctx context.Context, id models.ID) (*models.Invoice, error)
	// CreateInvoice fails with a not-found error when the client does not exist.
	// The invoice number is allocated atomically per client.
	CreateInvoice(ctx context.Context, input *models.NewInvoice) (*models.Invoice, error)
	// UpdateInvoice merges update and re-derives totals. The number never changes.
	UpdateInvoice(ctx context.Context, id models.ID, update *models.InvoiceUpdate) (*models.Invoice, error)
	// DeleteInvoice reports false when there was nothing to delete.
	DeleteInvoice(ctx context.Context, id models.ID) (bool, error)

	Sessions() SessionStore
	Close(ctx context.Context) error
}

// SessionStore persists login sessions for the auth layer.
type SessionStore interface {
	Create(ctx context.Context, userID models.ID, ttl time.Duration) (string, error)
	// Get returns *models.NotFoundError for unknown or expired tokens.
	Get(ctx context.Context, token string) (models.ID, error)
	Destroy(ctx context.Context, token string) error
}

// ErrSessionNotFound is returned by session stores for unknown or expired tokens.
func ErrSessionNotFound() error {
	return &models.NotFoundError{Entity: "session"}
}
