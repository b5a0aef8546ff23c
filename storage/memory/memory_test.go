package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/Abhi-coder-crypto/Inv-gen/storage"
	"github.com/Abhi-coder-crypto/Inv-gen/storage/storagetest"
	"github.com/Abhi-coder-crypto/Inv-gen/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		s := New()
		t.Cleanup(func() { _ = s.Close(context.Background()) })
		return s
	})
}

func TestPersistentStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		s, err := Open(filepath.Join(t.TempDir(), "data.json"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close(context.Background()) })
		return s
	})
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = storage.EnsureAdmin(ctx, s, "admin", "admin123")
	require.NoError(t, err)
	client, err := s.CreateClient(ctx, &models.NewClient{Name: "Acme Corp"})
	require.NoError(t, err)
	inv, err := s.CreateInvoice(ctx, storagetest.Invoice(client.ID,
		models.NewInvoiceItem{Description: "Design", Quantity: 2, Rate: 500},
	))
	require.NoError(t, err)
	second, err := s.CreateInvoice(ctx, storagetest.Invoice(client.ID))
	require.NoError(t, err)
	_, err = s.DeleteInvoice(ctx, second.ID)
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close(ctx)

	got, err := reopened.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "client-001-Inv-001", got.InvoiceNumber)
	assert.True(t, inv.Date.Equal(got.Date))
	assert.True(t, inv.CreatedAt.Equal(got.CreatedAt))
	assert.InDelta(t, 1000, got.Total, 0.01)
	require.NotNil(t, got.Client)
	assert.Equal(t, "Acme Corp", got.Client.Name)

	// counters survive the restart
	next, err := reopened.CreateInvoice(ctx, storagetest.Invoice(client.ID))
	require.NoError(t, err)
	assert.Equal(t, "client-001-Inv-003", next.InvoiceNumber)
	assert.NotEqual(t, second.ID, next.ID)

	c2, err := reopened.CreateClient(ctx, &models.NewClient{Name: "Globex"})
	require.NoError(t, err)
	assert.Equal(t, "client-002", *c2.CustomId)
	assert.NotEqual(t, client.ID, c2.ID)
}

func TestLoadsLegacySnapshot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")
	legacy := `{
  "users": [{"id": 1, "username": "admin", "password": "admin123", "role": "admin", "createdAt": "2024-01-02T03:04:05.000Z"}],
  "companies": [{"id": 1, "name": "Acme", "address": "1 Road", "ifsc": "HDFC0001", "gst": null}],
  "clients": [{"id": 1, "name": "Old Client", "email": null, "createdAt": "2024-01-03T00:00:00.000Z"}],
  "invoices": [{"id": 4, "invoiceNumber": "client-001-Inv-001", "clientId": 1, "date": "2024-01-04T00:00:00.000Z",
    "dueDate": null, "status": "paid", "items": [{"description": "x", "quantity": 1, "rate": 10, "amount": 10}],
    "subtotal": 10, "tax": 0, "discount": 0, "total": 10, "createdAt": "2024-01-04T00:00:00.000Z"}],
  "currentId": {"users": 2, "companies": 2, "clients": 2, "invoices": 5}
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close(ctx)

	admin, err := s.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.ID("1"), admin.ID)
	assert.True(t, utils.IsPasswordHash(admin.Password))
	assert.NoError(t, utils.ComparePassword(admin.Password, "admin123"))

	company, err := s.GetCompany(ctx)
	require.NoError(t, err)
	require.NotNil(t, company.IfscCode)
	assert.Equal(t, "HDFC0001", *company.IfscCode)

	// the client has no customId: its tag comes from its id
	inv, err := s.CreateInvoice(ctx, storagetest.Invoice("1"))
	require.NoError(t, err)
	assert.Equal(t, "client-001-Inv-002", inv.InvoiceNumber)
	assert.Equal(t, models.ID("5"), inv.ID)

	// the rewritten file no longer holds the plain password
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var snap snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.True(t, utils.IsPasswordHash(snap.Users[0].Password))
}

func TestFailedWriteRollsBack(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "data.json"))
	require.NoError(t, err)
	defer s.Close(ctx)

	_, err = s.CreateClient(ctx, &models.NewClient{Name: "Acme"})
	require.NoError(t, err)

	// point the store at a directory that does not exist
	s.path = filepath.Join(dir, "missing", "data.json")
	_, err = s.CreateClient(ctx, &models.NewClient{Name: "Globex"})
	assert.ErrorIs(t, err, models.ErrInternal)

	clients, err := s.GetClients(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 1)

	s.path = filepath.Join(dir, "data.json")
	c, err := s.CreateClient(ctx, &models.NewClient{Name: "Globex"})
	require.NoError(t, err)
	assert.Equal(t, models.ID("2"), c.ID)
	assert.Equal(t, "client-002", *c.CustomId)
}
