// Package document is the MongoDB storage backend. Invoices embed a snapshot of
// their client and clients keep a list of their invoice ids.
package document

import (
	"context"
	"errors"

	"github.com/Abhi-coder-crypto/Inv-gen/billing"
	"github.com/Abhi-coder-crypto/Inv-gen/config"
	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/Abhi-coder-crypto/Inv-gen/storage"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	client    *mongo.Client
	users     *mongo.Collection
	companies *mongo.Collection
	clients   *mongo.Collection
	invoices  *mongo.Collection
	counters  *mongo.Collection
	sessions  *sessionStore
}

var _ storage.Storage = (*Store)(nil)

// New wraps db and makes sure its indexes exist. client may be nil when the caller
// owns the connection.
func New(ctx context.Context, client *mongo.Client, db *mongo.Database) (*Store, error) {
	s := &Store{
		client:    client,
		users:     db.Collection(usersCollection),
		companies: db.Collection(companiesCollection),
		clients:   db.Collection(clientsCollection),
		invoices:  db.Collection(invoicesCollection),
		counters:  db.Collection(countersCollection),
		sessions:  &sessionStore{coll: db.Collection(sessionsCollection)},
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, models.Internal("ensure indexes", err)
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.users: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.companies: {
			{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.clients: {
			{
				Keys: bson.D{{Key: "customId", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"customId": bson.M{"$type": "string"}}),
			},
			{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		},
		s.invoices: {
			{Keys: bson.D{{Key: "invoiceNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "clientId", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		},
		s.sessions.coll: {
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
	}
	for coll, idx := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Sessions() storage.SessionStore { return s.sessions }

func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func notFoundOr(err error, entity string, id models.ID, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewNotFoundError(entity, id)
	}
	return models.Internal(op, err)
}

// Users ----------------------------------------------------------------------

func (s *Store) GetUser(ctx context.Context, id models.ID) (*models.User, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, models.NewNotFoundError("user", id)
	}
	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFoundOr(err, "user", id, "get user")
	}
	return doc.toModel(), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		return nil, notFoundOr(err, "user", models.ID(username), "get user by username")
	}
	return doc.toModel(), nil
}

func (s *Store) CreateUser(ctx context.Context, input *models.NewUser) (*models.User, error) {
	user, err := input.Build(now())
	if err != nil {
		return nil, err
	}
	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Username:  user.Username,
		Password:  user.Password,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, &models.ConflictError{Field: "username", Value: user.Username}
		}
		return nil, models.Internal("create user", err)
	}
	return doc.toModel(), nil
}

// Company --------------------------------------------------------------------

func (s *Store) GetCompany(ctx context.Context) (*models.Company, error) {
	var doc companyDoc
	if err := s.companies.FindOne(ctx, bson.M{"key": companyKey}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &models.NotFoundError{Entity: "company"}
		}
		return nil, models.Internal("get company", err)
	}
	return doc.toModel(), nil
}

func (s *Store) UpdateCompany(ctx context.Context, input *models.NewCompany) (*models.Company, error) {
	company, err := s.upsertCompany(ctx, input)
	if mongo.IsDuplicateKeyError(err) {
		// another request inserted the company first; this time the filter matches it
		company, err = s.upsertCompany(ctx, input)
	}
	if mongo.IsDuplicateKeyError(err) {
		return nil, models.Internal("update company", err)
	}
	return company, err
}

// upsertCompany sets only the fields input carries, in one atomic update. The
// document is created only when the request names both name and address.
func (s *Store) upsertCompany(ctx context.Context, input *models.NewCompany) (*models.Company, error) {
	changes, err := input.Changes()
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		company, err := s.GetCompany(ctx)
		if errors.Is(err, models.ErrNotFound) {
			if _, verr := input.Merge(nil); verr != nil {
				return nil, verr
			}
		}
		return company, err
	}

	set := bson.M{}
	for field, v := range changes {
		set[field] = v
	}
	_, hasName := changes["name"]
	_, hasAddress := changes["address"]
	opts := options.FindOneAndUpdate().
		SetUpsert(hasName && hasAddress).
		SetReturnDocument(options.After)

	var doc companyDoc
	err = s.companies.FindOneAndUpdate(ctx, bson.M{"key": companyKey}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// nothing stored yet and the request cannot create it
		if _, verr := input.Merge(nil); verr != nil {
			return nil, verr
		}
		return nil, &models.NotFoundError{Entity: "company"}
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, err
		}
		return nil, models.Internal("update company", err)
	}
	return doc.toModel(), nil
}

// Clients --------------------------------------------------------------------

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func (s *Store) GetClients(ctx context.Context) ([]*models.Client, error) {
	cur, err := s.clients.Find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, models.Internal("get clients", err)
	}
	var docs []clientDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, models.Internal("get clients", err)
	}
	result := make([]*models.Client, len(docs))
	for i := range docs {
		result[i] = docs[i].toModel()
	}
	return result, nil
}

func (s *Store) getClientDoc(ctx context.Context, id models.ID, op string) (*clientDoc, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, models.NewNotFoundError("client", id)
	}
	var doc clientDoc
	if err := s.clients.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFoundOr(err, "client", id, op)
	}
	return &doc, nil
}

func (s *Store) GetClient(ctx context.Context, id models.ID) (*models.Client, error) {
	doc, err := s.getClientDoc(ctx, id, "get client")
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

// nextCounter atomically increments a named counter, lifting it to floor first
// when it lags behind data that predates it.
func (s *Store) nextCounter(ctx context.Context, name string, floor int) (int, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var counter counterDoc
	err := s.counters.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&counter)
	if err != nil {
		return 0, err
	}
	if counter.Seq > floor {
		return counter.Seq, nil
	}
	err = s.counters.FindOneAndUpdate(ctx, bson.M{"_id": name},
		bson.M{"$max": bson.M{"seq": floor + 1}}, opts).Decode(&counter)
	return counter.Seq, err
}

func (s *Store) CreateClient(ctx context.Context, input *models.NewClient) (*models.Client, error) {
	client, err := input.Build(now())
	if err != nil {
		return nil, err
	}
	count, err := s.clients.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, models.Internal("create client", err)
	}
	seq, err := s.nextCounter(ctx, clientCounter, int(count))
	if err != nil {
		return nil, models.Internal("create client", err)
	}

	doc := clientDoc{
		ID:          primitive.NewObjectID(),
		Name:        client.Name,
		CompanyName: client.CompanyName,
		ServiceName: client.ServiceName,
		Address:     client.Address,
		Phone:       client.Phone,
		Email:       client.Email,
		Gst:         client.Gst,
		LogoUrl:     client.LogoUrl,
		CreatedAt:   client.CreatedAt,
	}
	for {
		customID := billing.NextCustomID(seq-1, 0)
		doc.CustomId = &customID
		_, err := s.clients.InsertOne(ctx, doc)
		if err == nil {
			return doc.toModel(), nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, models.Internal("create client", err)
		}
		// the id belongs to a client the counter has not caught up with; take the next one
		if seq, err = s.nextCounter(ctx, clientCounter, int(count)); err != nil {
			return nil, models.Internal("create client", err)
		}
	}
}

// clientFields maps the relational column names of ClientUpdate.Columns to
// document fields. Names not listed are the same in both.
var clientFields = map[string]string{
	"company_name": "companyName",
	"service_name": "serviceName",
	"logo_url":     "logoUrl",
}

// UpdateClient sets only the changed fields. Invoice snapshots are not touched:
// they keep the client as it was when each invoice was created.
func (s *Store) UpdateClient(ctx context.Context, id models.ID, update *models.ClientUpdate) (*models.Client, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	oid, ok := parseID(id)
	if !ok {
		return nil, models.NewNotFoundError("client", id)
	}
	if update.IsEmpty() {
		return s.GetClient(ctx, id)
	}

	set := bson.M{}
	for col, v := range update.Columns() {
		if field, ok := clientFields[col]; ok {
			col = field
		}
		set[col] = v
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc clientDoc
	if err := s.clients.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		return nil, notFoundOr(err, "client", id, "update client")
	}
	return doc.toModel(), nil
}

// Invoices -------------------------------------------------------------------

func (s *Store) GetInvoices(ctx context.Context) ([]*models.Invoice, error) {
	cur, err := s.invoices.Find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, models.Internal("get invoices", err)
	}
	var docs []invoiceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, models.Internal("get invoices", err)
	}
	result := make([]*models.Invoice, len(docs))
	for i := range docs {
		result[i] = docs[i].toModel()
	}
	return result, nil
}

func (s *Store) getInvoiceDoc(ctx context.Context, id models.ID, op string) (*invoiceDoc, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, models.NewNotFoundError("invoice", id)
	}
	var doc invoiceDoc
	if err := s.invoices.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFoundOr(err, "invoice", id, op)
	}
	return &doc, nil
}

func (s *Store) GetInvoice(ctx context.Context, id models.ID) (*models.Invoice, error) {
	doc, err := s.getInvoiceDoc(ctx, id, "get invoice")
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

// reserveInvoiceSeq bumps the client's invoiceSeq and returns the new value.
func (s *Store) reserveInvoiceSeq(ctx context.Context, clientID primitive.ObjectID, floor int) (int, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc clientDoc
	err := s.clients.FindOneAndUpdate(ctx, bson.M{"_id": clientID},
		bson.M{"$inc": bson.M{"invoiceSeq": 1}}, opts).Decode(&doc)
	if err != nil {
		return 0, err
	}
	if doc.InvoiceSeq > floor {
		return doc.InvoiceSeq, nil
	}
	err = s.clients.FindOneAndUpdate(ctx, bson.M{"_id": clientID},
		bson.M{"$max": bson.M{"invoiceSeq": floor + 1}}, opts).Decode(&doc)
	return doc.InvoiceSeq, err
}

// releaseInvoiceSeq hands seq back when nothing was reserved after it.
func (s *Store) releaseInvoiceSeq(ctx context.Context, clientID primitive.ObjectID, seq int) {
	_, err := s.clients.UpdateOne(ctx, bson.M{"_id": clientID, "invoiceSeq": seq},
		bson.M{"$inc": bson.M{"invoiceSeq": -1}})
	if err != nil {
		config.GetLogger().WithFields(logrus.Fields{
			"module":    "document",
			"field":     "CreateInvoice",
			"client_id": clientID.Hex(),
		}).Warn("failed to release invoice sequence: " + err.Error())
	}
}

func (s *Store) CreateInvoice(ctx context.Context, input *models.NewInvoice) (*models.Invoice, error) {
	inv, err := billing.Draft(input, now())
	if err != nil {
		return nil, err
	}
	client, err := s.getClientDoc(ctx, inv.ClientID, "create invoice")
	if err != nil {
		return nil, err
	}
	count, err := s.invoices.CountDocuments(ctx, bson.M{"clientId": client.ID})
	if err != nil {
		return nil, models.Internal("create invoice", err)
	}
	tag := billing.ClientTag(client.toModel())

	doc := invoiceDoc{
		ID:          primitive.NewObjectID(),
		Date:        inv.Date,
		DueDate:     inv.DueDate,
		ClientID:    client.ID,
		Client:      client.snapshot(),
		Status:      string(inv.Status),
		Items:       inv.Items,
		Subtotal:    inv.Subtotal,
		Tax:         inv.Tax,
		Discount:    inv.Discount,
		Total:       inv.Total,
		Description: inv.Description,
		Notes:       inv.Notes,
		CreatedAt:   inv.CreatedAt,
	}
	var seq int
	for {
		seq, err = s.reserveInvoiceSeq(ctx, client.ID, int(count))
		if err != nil {
			return nil, notFoundOr(err, "client", inv.ClientID, "create invoice")
		}
		doc.InvoiceNumber = billing.InvoiceNumber(tag, seq)
		_, err = s.invoices.InsertOne(ctx, doc)
		if err == nil {
			break
		}
		if mongo.IsDuplicateKeyError(err) {
			// the number is held by an invoice outside this client's counter; skip it
			continue
		}
		s.releaseInvoiceSeq(context.WithoutCancel(ctx), client.ID, seq)
		return nil, models.Internal("create invoice", err)
	}

	if _, err := s.clients.UpdateOne(ctx, bson.M{"_id": client.ID},
		bson.M{"$push": bson.M{"invoices": doc.ID}}); err != nil {
		// undo the insert so the client's list and the collection agree
		cleanupCtx := context.WithoutCancel(ctx)
		if _, derr := s.invoices.DeleteOne(cleanupCtx, bson.M{"_id": doc.ID}); derr != nil {
			config.LogError(config.GetLogger(), "document.go", "CreateInvoice", "delete unrecorded invoice", doc.ID.Hex(), derr)
		} else {
			s.releaseInvoiceSeq(cleanupCtx, client.ID, seq)
		}
		return nil, models.Internal("record invoice on client", err)
	}
	return doc.toModel(), nil
}

func (s *Store) UpdateInvoice(ctx context.Context, id models.ID, update *models.InvoiceUpdate) (*models.Invoice, error) {
	doc, err := s.getInvoiceDoc(ctx, id, "update invoice")
	if err != nil {
		return nil, err
	}
	updated, err := billing.ApplyUpdate(doc.toModel(), update)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"date":        updated.Date,
		"dueDate":     updated.DueDate,
		"status":      string(updated.Status),
		"items":       updated.Items,
		"subtotal":    updated.Subtotal,
		"tax":         updated.Tax,
		"discount":    updated.Discount,
		"total":       updated.Total,
		"description": updated.Description,
		"notes":       updated.Notes,
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var result invoiceDoc
	if err := s.invoices.FindOneAndUpdate(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": set}, opts).Decode(&result); err != nil {
		return nil, notFoundOr(err, "invoice", id, "update invoice")
	}
	return result.toModel(), nil
}

func (s *Store) DeleteInvoice(ctx context.Context, id models.ID) (bool, error) {
	oid, ok := parseID(id)
	if !ok {
		return false, nil
	}
	var doc invoiceDoc
	err := s.invoices.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, models.Internal("delete invoice", err)
	}
	if _, err := s.clients.UpdateOne(ctx, bson.M{"_id": doc.ClientID},
		bson.M{"$pull": bson.M{"invoices": oid}}); err != nil {
		// put the invoice back so it stays listed on its client
		if _, ierr := s.invoices.InsertOne(context.WithoutCancel(ctx), doc); ierr != nil {
			config.LogError(config.GetLogger(), "document.go", "DeleteInvoice", "restore invoice", id, ierr)
		}
		return false, models.Internal("remove invoice from client", err)
	}
	return true, nil
}
