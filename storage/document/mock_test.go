package document

import (
	"context"
	"testing"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/Abhi-coder-crypto/Inv-gen/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// newMockStore answers the index builds made by New and forgets their events.
func newMockStore(mt *mtest.T) *Store {
	mt.Helper()
	for i := 0; i < 5; i++ {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
	}
	s, err := New(context.Background(), nil, mt.DB)
	require.NoError(mt, err)
	mt.ClearEvents()
	return s
}

func commandNames(mt *mtest.T) []string {
	var names []string
	for _, evt := range mt.GetAllStartedEvents() {
		names = append(names, evt.CommandName)
	}
	return names
}

func found(doc bson.D) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: doc})
}

func clientD(id primitive.ObjectID, extra ...bson.E) bson.D {
	doc := bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "Acme"},
		{Key: "customId", Value: "client-001"},
		{Key: "createdAt", Value: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	return append(doc, extra...)
}

func TestCompanyUpdateSendsOnlyPresentFields(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("existing", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(found(bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "key", Value: companyKey},
			{Key: "name", Value: "Acme"},
			{Key: "address", Value: "1 Road"},
			{Key: "phone", Value: "555-0100"},
		}))

		company, err := s.UpdateCompany(ctx, &models.NewCompany{Phone: models.Some("555-0100"), Gst: models.Null[string]()})
		require.NoError(mt, err)
		assert.Equal(mt, "Acme", company.Name)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "findAndModify", evt.CommandName)
		upsert, _ := evt.Command.Lookup("upsert").BooleanOK()
		assert.False(mt, upsert)

		set := evt.Command.Lookup("update", "$set").Document()
		assert.Equal(mt, "555-0100", set.Lookup("phone").StringValue())
		assert.Equal(mt, bson.TypeNull, set.Lookup("gst").Type)
		for _, field := range []string{"name", "address", "email"} {
			_, err := set.LookupErr(field)
			assert.Error(mt, err, field)
		}
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("first upsert", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(found(bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "key", Value: companyKey},
			{Key: "name", Value: "Acme"},
			{Key: "address", Value: "1 Road"},
		}))

		_, err := s.UpdateCompany(ctx, &models.NewCompany{Name: models.Some("Acme"), Address: models.Some("1 Road")})
		require.NoError(mt, err)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.True(mt, evt.Command.Lookup("upsert").Boolean())
	})

	mt.Run("first write without name", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := s.UpdateCompany(ctx, &models.NewCompany{Phone: models.Some("555-0100")})
		var verr *models.ValidationError
		require.ErrorAs(mt, err, &verr)
		assert.Equal(mt, "name", verr.Field)
	})
}

func TestUpdateClientSetsOnlyChangedFields(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("email", func(mt *mtest.T) {
		s := newMockStore(mt)
		id := primitive.NewObjectID()
		mt.AddMockResponses(found(clientD(id, bson.E{Key: "email", Value: "a@acme.com"})))

		client, err := s.UpdateClient(context.Background(), formatID(id), &models.ClientUpdate{
			Email:       models.Some("a@acme.com"),
			CompanyName: models.Some(" "),
		})
		require.NoError(mt, err)
		require.NotNil(mt, client.Email)
		assert.Equal(mt, "a@acme.com", *client.Email)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		set := evt.Command.Lookup("update", "$set").Document()
		assert.Equal(mt, "a@acme.com", set.Lookup("email").StringValue())
		assert.Equal(mt, bson.TypeNull, set.Lookup("companyName").Type)
		_, err = set.LookupErr("name")
		assert.Error(mt, err)

		// invoice snapshots are left alone
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

func TestCreateClientRetriesTakenCustomID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("retry", func(mt *mtest.T) {
		s := newMockStore(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "invgen.clients", mtest.FirstBatch),
			found(bson.D{{Key: "_id", Value: clientCounter}, {Key: "seq", Value: 1}}),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Code: 11000, Message: "E11000 duplicate key error"}),
			found(bson.D{{Key: "_id", Value: clientCounter}, {Key: "seq", Value: 2}}),
			mtest.CreateSuccessResponse(),
		)

		client, err := s.CreateClient(context.Background(), &models.NewClient{Name: "Globex"})
		require.NoError(mt, err)
		require.NotNil(mt, client.CustomId)
		assert.Equal(mt, "client-002", *client.CustomId)
		assert.Equal(mt, []string{"aggregate", "findAndModify", "insert", "findAndModify", "insert"}, commandNames(mt))
	})
}

func TestBackReferenceFailuresAreReported(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	refused := mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "refused"})

	mt.Run("create", func(mt *mtest.T) {
		s := newMockStore(mt)
		clientID := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "invgen.clients", mtest.FirstBatch, clientD(clientID)),
			mtest.CreateCursorResponse(0, "invgen.invoices", mtest.FirstBatch),
			found(clientD(clientID, bson.E{Key: "invoiceSeq", Value: 1})),
			mtest.CreateSuccessResponse(),
			refused,
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
		)

		inv, err := s.CreateInvoice(ctx, storagetest.Invoice(formatID(clientID)))
		assert.Nil(mt, inv)
		assert.ErrorIs(mt, err, models.ErrInternal)
		// the insert is undone and the number handed back
		assert.Equal(mt, []string{"find", "aggregate", "findAndModify", "insert", "update", "delete", "update"}, commandNames(mt))
	})

	mt.Run("delete", func(mt *mtest.T) {
		s := newMockStore(mt)
		invoiceID := primitive.NewObjectID()
		mt.AddMockResponses(
			found(bson.D{
				{Key: "_id", Value: invoiceID},
				{Key: "invoiceNumber", Value: "client-001-Inv-001"},
				{Key: "clientId", Value: primitive.NewObjectID()},
				{Key: "date", Value: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
				{Key: "status", Value: "pending"},
				{Key: "items", Value: bson.A{}},
			}),
			refused,
			mtest.CreateSuccessResponse(),
		)

		deleted, err := s.DeleteInvoice(ctx, formatID(invoiceID))
		assert.False(mt, deleted)
		assert.ErrorIs(mt, err, models.ErrInternal)
		// the invoice is put back
		assert.Equal(mt, []string{"findAndModify", "update", "insert"}, commandNames(mt))
	})
}
