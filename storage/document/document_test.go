package document

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/Abhi-coder-crypto/Inv-gen/storage"
	"github.com/Abhi-coder-crypto/Inv-gen/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestParseID(t *testing.T) {
	oid := primitive.NewObjectID()
	got, ok := parseID(formatID(oid))
	require.True(t, ok)
	assert.Equal(t, oid, got)

	for _, id := range []models.ID{"", "999999", "not-an-object-id"} {
		_, ok := parseID(id)
		assert.False(t, ok, id)
	}
}

func TestClientSnapshotDropsBackReferences(t *testing.T) {
	custom := "client-007"
	doc := &clientDoc{
		ID:         primitive.NewObjectID(),
		Name:       "Acme",
		CustomId:   &custom,
		InvoiceSeq: 4,
		Invoices:   []primitive.ObjectID{primitive.NewObjectID()},
	}
	snap := doc.snapshot()
	assert.Zero(t, snap.InvoiceSeq)
	assert.Nil(t, snap.Invoices)
	assert.Equal(t, "Acme", snap.Name)
	// the input is left untouched
	assert.Len(t, doc.Invoices, 1)

	client := doc.toModel()
	require.Len(t, client.Invoices, 1)
	assert.Equal(t, formatID(doc.Invoices[0]), client.Invoices[0])
}

func TestInvoiceDocToModel(t *testing.T) {
	clientID := primitive.NewObjectID()
	doc := &invoiceDoc{
		ID:            primitive.NewObjectID(),
		InvoiceNumber: "client-001-Inv-001",
		ClientID:      clientID,
		Client:        &clientDoc{ID: clientID, Name: "Acme"},
		Status:        string(models.InvoiceStatusPending),
	}
	inv := doc.toModel()
	assert.Equal(t, formatID(clientID), inv.ClientID)
	require.NotNil(t, inv.Client)
	assert.Equal(t, inv.ClientID, inv.Client.ID)
	assert.NotNil(t, inv.Items)
}

func connect(t *testing.T) *mongo.Client {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client
}

// TestStoreContract gives every subtest its own database.
func TestStoreContract(t *testing.T) {
	client := connect(t)
	var n int
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		n++
		db := client.Database(fmt.Sprintf("invgen_test_%d_%d", time.Now().UnixNano(), n))
		t.Cleanup(func() { _ = db.Drop(context.Background()) })

		s, err := New(context.Background(), nil, db)
		require.NoError(t, err)
		return s
	})
}

func TestDeleteKeepsClientBackReferencesInSync(t *testing.T) {
	client := connect(t)
	ctx := context.Background()
	db := client.Database(fmt.Sprintf("invgen_test_refs_%d", time.Now().UnixNano()))
	t.Cleanup(func() { _ = db.Drop(context.Background()) })

	s, err := New(ctx, nil, db)
	require.NoError(t, err)

	acme, err := s.CreateClient(ctx, &models.NewClient{Name: "Acme"})
	require.NoError(t, err)
	inv, err := s.CreateInvoice(ctx, storagetest.Invoice(acme.ID))
	require.NoError(t, err)

	got, err := s.GetClient(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.ID{inv.ID}, got.Invoices)

	renamed, err := s.UpdateClient(ctx, acme.ID, &models.ClientUpdate{Name: models.Some("Acme Inc")})
	require.NoError(t, err)
	assert.Equal(t, "Acme Inc", renamed.Name)
	stored, err := s.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", stored.Client.Name, "snapshot keeps the name at creation")

	deleted, err := s.DeleteInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	got, err = s.GetClient(ctx, acme.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Invoices)
}
