// Package storagetest holds the behaviour every storage backend must share.
// Backend packages call Run from their own tests.
package storagetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/Abhi-coder-crypto/Inv-gen/storage"
	"github.com/Abhi-coder-crypto/Inv-gen/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. Cleanup is registered on t by the factory.
type Factory func(t *testing.T) storage.Storage

func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Storage)
	}{
		{"UserLifecycle", testUserLifecycle},
		{"DuplicateUsername", testDuplicateUsername},
		{"EnsureAdmin", testEnsureAdmin},
		{"CompanyNotFoundBeforeUpsert", testCompanyNotFound},
		{"CompanyUpsertMerge", testCompanyUpsertMerge},
		{"ConcurrentCompanyUpdates", testConcurrentCompanyUpdates},
		{"ClientCustomIDs", testClientCustomIDs},
		{"ClientsNewestFirst", testClientsNewestFirst},
		{"ClientUpdate", testClientUpdate},
		{"ClientNotFound", testClientNotFound},
		{"InvoiceScenario", testInvoiceScenario},
		{"InvoiceUnknownClient", testInvoiceUnknownClient},
		{"InvoiceRequiredFields", testInvoiceRequiredFields},
		{"InvoiceListing", testInvoiceListing},
		{"InvoiceUpdate", testInvoiceUpdate},
		{"InvoiceDelete", testInvoiceDelete},
		{"InvoiceNumberingAfterDelete", testNumberingAfterDelete},
		{"ConcurrentInvoiceNumbers", testConcurrentInvoiceNumbers},
		{"ClientInvoicesAndSummary", testClientInvoicesAndSummary},
		{"Sessions", testSessions},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t))
		})
	}
}

func mustJSON[T any](t *testing.T, raw string) *T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return &v
}

// Invoice returns a valid create request for clientID dated 2024-01-15.
// Subtotal and total are sent as zero; backends re-derive them.
func Invoice(clientID models.ID, items ...models.NewInvoiceItem) *models.NewInvoice {
	if items == nil {
		items = []models.NewInvoiceItem{}
	}
	return &models.NewInvoice{
		ClientID: clientID,
		Date:     models.Some(models.Date{Time: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)}),
		Items:    items,
		Subtotal: models.Some(models.Amount(0)),
		Total:    models.Some(models.Amount(0)),
	}
}

func createClient(t *testing.T, s storage.Storage, name string) *models.Client {
	t.Helper()
	client, err := s.CreateClient(context.Background(), &models.NewClient{Name: name})
	require.NoError(t, err)
	return client
}

func createInvoice(t *testing.T, s storage.Storage, clientID models.ID, qty, rate float64) *models.Invoice {
	t.Helper()
	inv, err := s.CreateInvoice(context.Background(), Invoice(clientID,
		models.NewInvoiceItem{Description: "Work", Quantity: models.Amount(qty), Rate: models.Amount(rate)},
	))
	require.NoError(t, err)
	return inv
}

func testUserLifecycle(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	_, err := s.GetUserByUsername(ctx, "alice")
	assert.ErrorIs(t, err, models.ErrNotFound)

	created, err := s.CreateUser(ctx, &models.NewUser{Username: "alice", Password: "wonderland", Role: models.RoleStaff})
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())
	assert.Equal(t, models.RoleStaff, created.Role)
	assert.NoError(t, utils.ComparePassword(created.Password, "wonderland"))

	byName, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	byID, err := s.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.NoError(t, utils.ComparePassword(byID.Password, "wonderland"))

	_, err = s.GetUser(ctx, "999999")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func testDuplicateUsername(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	_, err := s.CreateUser(ctx, &models.NewUser{Username: "bob", Password: "x"})
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, &models.NewUser{Username: "bob", Password: "y"})
	var conflict *models.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "username", conflict.Field)
}

func testEnsureAdmin(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	created, err := storage.EnsureAdmin(ctx, s, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = storage.EnsureAdmin(ctx, s, "admin", "other")
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := s.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.NoError(t, utils.ComparePassword(admin.Password, "admin123"))
}

func testCompanyNotFound(t *testing.T, s storage.Storage) {
	company, err := s.GetCompany(context.Background())
	assert.Nil(t, company)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func testCompanyUpsertMerge(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	_, err := s.UpdateCompany(ctx, mustJSON[models.NewCompany](t, `{"name":"Acme"}`))
	assert.ErrorIs(t, err, models.ErrValidation)

	first, err := s.UpdateCompany(ctx, mustJSON[models.NewCompany](t,
		`{"name":"Acme","address":"1 Main St","phone":"555","email":"hi@acme.com"}`))
	require.NoError(t, err)
	assert.Equal(t, "Acme", first.Name)
	assert.Nil(t, first.Gst)

	second, err := s.UpdateCompany(ctx, mustJSON[models.NewCompany](t,
		`{"phone":null,"bankName":"HDFC","upiId":"acme@upi"}`))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := s.GetCompany(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, "1 Main St", got.Address)
	assert.Nil(t, got.Phone)
	require.NotNil(t, got.Email)
	assert.Equal(t, "hi@acme.com", *got.Email)
	require.NotNil(t, got.BankName)
	assert.Equal(t, "HDFC", *got.BankName)
	require.NotNil(t, got.UpiId)
	assert.Equal(t, "acme@upi", *got.UpiId)
}

// Writers touching different fields must not undo each other.
func testConcurrentCompanyUpdates(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	_, err := s.UpdateCompany(ctx, mustJSON[models.NewCompany](t, `{"name":"Acme","address":"1 Main St"}`))
	require.NoError(t, err)

	bodies := []string{
		`{"name":"Acme Studio"}`,
		`{"phone":"555-0100"}`,
		`{"email":"hi@acme.com"}`,
		`{"website":"acme.example"}`,
		`{"bankName":"HDFC"}`,
		`{"upiId":"acme@upi"}`,
		`{"paymentTerms":"Net 15"}`,
	}
	var wg sync.WaitGroup
	errs := make([]error, len(bodies))
	for i, body := range bodies {
		input := mustJSON[models.NewCompany](t, body)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.UpdateCompany(ctx, input)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, bodies[i])
	}

	got, err := s.GetCompany(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Acme Studio", got.Name)
	assert.Equal(t, "1 Main St", got.Address)
	for name, v := range map[string]*string{
		"phone":        got.Phone,
		"email":        got.Email,
		"website":      got.Website,
		"bankName":     got.BankName,
		"upiId":        got.UpiId,
		"paymentTerms": got.PaymentTerms,
	} {
		assert.NotNil(t, v, name)
	}
}

func testClientCustomIDs(t *testing.T, s storage.Storage) {
	acme, err := s.CreateClient(context.Background(), &models.NewClient{Name: "Acme Corp", Email: ptr("a@acme.com")})
	require.NoError(t, err)
	require.NotNil(t, acme.CustomId)
	assert.Equal(t, "client-001", *acme.CustomId)
	require.NotNil(t, acme.Email)
	assert.Equal(t, "a@acme.com", *acme.Email)
	assert.Nil(t, acme.Phone)

	for i := 2; i <= 4; i++ {
		c := createClient(t, s, fmt.Sprintf("Client %d", i))
		require.NotNil(t, c.CustomId)
		assert.Equal(t, fmt.Sprintf("client-%03d", i), *c.CustomId)
	}
}

func testClientsNewestFirst(t *testing.T, s storage.Storage) {
	a := createClient(t, s, "A")
	b := createClient(t, s, "B")
	c := createClient(t, s, "C")

	clients, err := s.GetClients(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 3)
	assert.Equal(t, []models.ID{c.ID, b.ID, a.ID}, []models.ID{clients[0].ID, clients[1].ID, clients[2].ID})
}

func testClientUpdate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	created, err := s.CreateClient(ctx, &models.NewClient{Name: "Acme Corp", Email: ptr("a@acme.com"), Phone: ptr("123")})
	require.NoError(t, err)

	same, err := s.UpdateClient(ctx, created.ID, &models.ClientUpdate{})
	require.NoError(t, err)
	assert.Equal(t, created.Name, same.Name)
	assert.Equal(t, created.Email, same.Email)
	assert.Equal(t, created.Phone, same.Phone)
	assert.Equal(t, created.CustomId, same.CustomId)

	updated, err := s.UpdateClient(ctx, created.ID, mustJSON[models.ClientUpdate](t, `{"name":"Acme Inc","phone":null,"gst":"29ABC"}`))
	require.NoError(t, err)
	assert.Equal(t, "Acme Inc", updated.Name)
	assert.Nil(t, updated.Phone)
	require.NotNil(t, updated.Gst)
	assert.Equal(t, "29ABC", *updated.Gst)
	assert.Equal(t, created.CustomId, updated.CustomId)

	got, err := s.GetClient(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Inc", got.Name)
	assert.Equal(t, created.Email, got.Email)
	assert.Nil(t, got.Phone)

	_, err = s.UpdateClient(ctx, created.ID, &models.ClientUpdate{Name: models.Some("")})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func testClientNotFound(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	_, err := s.GetClient(ctx, unknownID(t, s))
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = s.UpdateClient(ctx, unknownID(t, s), &models.ClientUpdate{Name: models.Some("x")})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func testInvoiceScenario(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	client, err := s.CreateClient(ctx, &models.NewClient{Name: "Acme Corp", Email: ptr("a@acme.com")})
	require.NoError(t, err)
	require.Equal(t, "client-001", *client.CustomId)

	first, err := s.CreateInvoice(ctx, mustJSON[models.NewInvoice](t, fmt.Sprintf(`{
		"clientId": %q,
		"date": "2024-02-01",
		"items": [{"description":"Design","quantity":2,"rate":500}],
		"subtotal": 0, "tax": 0, "discount": 0, "total": 0
	}`, client.ID)))
	require.NoError(t, err)
	assert.Equal(t, "client-001-Inv-001", first.InvoiceNumber)
	assert.InDelta(t, 1000, first.Subtotal, 0.01)
	assert.InDelta(t, 1000, first.Total, 0.01)
	assert.Equal(t, models.InvoiceStatusPending, first.Status)
	assert.Equal(t, "2024-02-01", first.Date.UTC().Format("2006-01-02"))
	require.NotNil(t, first.Client)
	assert.Equal(t, "Acme Corp", first.Client.Name)

	second, err := s.CreateInvoice(ctx, mustJSON[models.NewInvoice](t, fmt.Sprintf(`{
		"clientId": %q,
		"date": "2024-02-15T10:30:00Z",
		"items": [{"description":"Build","quantity":"1.5","rate":"1,000","amount":0},{"description":"Hosting","quantity":1,"rate":99.99}],
		"tax": 18, "discount": "50", "subtotal": 1, "total": 1
	}`, client.ID)))
	require.NoError(t, err)
	assert.Equal(t, "client-001-Inv-002", second.InvoiceNumber)
	assert.InDelta(t, 1500, second.Items[0].Amount, 0.01)
	assert.InDelta(t, 1599.99, second.Subtotal, 0.01)
	assert.InDelta(t, 1567.99, second.Total, 0.01)
}

func testInvoiceUnknownClient(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	_, err := s.CreateInvoice(ctx, Invoice(unknownID(t, s),
		models.NewInvoiceItem{Description: "x", Quantity: 1, Rate: 1},
	))
	var nf *models.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "client", nf.Entity)

	invoices, err := s.GetInvoices(ctx)
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func testInvoiceRequiredFields(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	client := createClient(t, s, "Acme Corp")

	cases := []struct {
		field string
		drop  func(in *models.NewInvoice)
	}{
		{"date", func(in *models.NewInvoice) { in.Date = models.Optional[models.Date]{} }},
		{"date", func(in *models.NewInvoice) { in.Date = models.Null[models.Date]() }},
		{"items", func(in *models.NewInvoice) { in.Items = nil }},
		{"subtotal", func(in *models.NewInvoice) { in.Subtotal = models.Optional[models.Amount]{} }},
		{"total", func(in *models.NewInvoice) { in.Total = models.Optional[models.Amount]{} }},
	}
	for _, tc := range cases {
		input := Invoice(client.ID, models.NewInvoiceItem{Description: "x", Quantity: 1, Rate: 1})
		tc.drop(input)
		_, err := s.CreateInvoice(ctx, input)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr, tc.field)
		assert.Equal(t, tc.field, verr.Field)
	}

	invoices, err := s.GetInvoices(ctx)
	require.NoError(t, err)
	assert.Empty(t, invoices)

	empty, err := s.CreateInvoice(ctx, Invoice(client.ID))
	require.NoError(t, err)
	assert.Equal(t, "client-001-Inv-001", empty.InvoiceNumber)
	assert.Empty(t, empty.Items)
	assert.Zero(t, empty.Total)
}

func testInvoiceListing(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	acme := createClient(t, s, "Acme")
	globex := createClient(t, s, "Globex")

	i1 := createInvoice(t, s, acme.ID, 1, 10)
	i2 := createInvoice(t, s, globex.ID, 2, 10)
	i3 := createInvoice(t, s, acme.ID, 3, 10)

	invoices, err := s.GetInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 3)
	assert.Equal(t, []models.ID{i3.ID, i2.ID, i1.ID}, []models.ID{invoices[0].ID, invoices[1].ID, invoices[2].ID})
	for _, inv := range invoices {
		require.NotNil(t, inv.Client, inv.InvoiceNumber)
		assert.Equal(t, inv.ClientID, inv.Client.ID)
	}
	assert.Equal(t, "client-002-Inv-001", invoices[1].InvoiceNumber)
	assert.Equal(t, "client-001-Inv-002", invoices[0].InvoiceNumber)

	got, err := s.GetInvoice(ctx, i2.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Client)
	assert.Equal(t, "Globex", got.Client.Name)
	require.Len(t, got.Items, 1)
	assert.InDelta(t, 20, got.Items[0].Amount, 0.01)

	_, err = s.GetInvoice(ctx, unknownID(t, s))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func testInvoiceUpdate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	client := createClient(t, s, "Acme")
	inv := createInvoice(t, s, client.ID, 2, 500)

	updated, err := s.UpdateInvoice(ctx, inv.ID, mustJSON[models.InvoiceUpdate](t,
		`{"status":"paid","discount":100,"notes":"thanks","total":5}`))
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, updated.Status)
	assert.Equal(t, inv.InvoiceNumber, updated.InvoiceNumber)
	assert.InDelta(t, 900, updated.Total, 0.01)
	require.NotNil(t, updated.Notes)
	require.NotNil(t, updated.Client)

	got, err := s.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, got.Status)
	assert.InDelta(t, 1000, got.Subtotal, 0.01)
	assert.InDelta(t, 900, got.Total, 0.01)
	assert.Equal(t, "thanks", *got.Notes)

	// any status may follow any other
	back, err := s.UpdateInvoice(ctx, inv.ID, &models.InvoiceUpdate{Status: models.Some(models.InvoiceStatusDraft)})
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusDraft, back.Status)

	_, err = s.UpdateInvoice(ctx, inv.ID, &models.InvoiceUpdate{InvoiceNumber: models.Some("client-001-Inv-999")})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = s.UpdateInvoice(ctx, unknownID(t, s), &models.InvoiceUpdate{Status: models.Some(models.InvoiceStatusPaid)})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func testInvoiceDelete(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	client := createClient(t, s, "Acme")
	keep := createInvoice(t, s, client.ID, 1, 1)
	drop := createInvoice(t, s, client.ID, 1, 2)

	deleted, err := s.DeleteInvoice(ctx, drop.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.DeleteInvoice(ctx, drop.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	invoices, err := s.GetInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, keep.ID, invoices[0].ID)

	_, err = s.GetInvoice(ctx, drop.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	got, err := s.GetClient(ctx, client.ID)
	require.NoError(t, err)
	assert.NotContains(t, got.Invoices, drop.ID)
}

func testNumberingAfterDelete(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	client := createClient(t, s, "Acme")
	createInvoice(t, s, client.ID, 1, 1)
	second := createInvoice(t, s, client.ID, 1, 1)

	_, err := s.DeleteInvoice(ctx, second.ID)
	require.NoError(t, err)

	third := createInvoice(t, s, client.ID, 1, 1)
	assert.Equal(t, "client-001-Inv-003", third.InvoiceNumber)
}

func testConcurrentInvoiceNumbers(t *testing.T, s storage.Storage) {
	const n = 12
	client := createClient(t, s, "Acme")

	var wg sync.WaitGroup
	numbers := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inv, err := s.CreateInvoice(context.Background(), Invoice(client.ID,
				models.NewInvoiceItem{Description: "x", Quantity: 1, Rate: models.Amount(i)},
			))
			errs[i] = err
			if inv != nil {
				numbers[i] = inv.InvoiceNumber
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[numbers[i]], "duplicate %s", numbers[i])
		seen[numbers[i]] = true
	}
	sort.Strings(numbers)
	for i := range numbers {
		assert.Equal(t, fmt.Sprintf("client-001-Inv-%03d", i+1), numbers[i])
	}
}

func testClientInvoicesAndSummary(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	acme := createClient(t, s, "Acme")
	globex := createClient(t, s, "Globex")
	paid := createInvoice(t, s, acme.ID, 1, 300)
	createInvoice(t, s, acme.ID, 1, 200)
	createInvoice(t, s, globex.ID, 1, 50)

	_, err := s.UpdateInvoice(ctx, paid.ID, &models.InvoiceUpdate{Status: models.Some(models.InvoiceStatusPaid)})
	require.NoError(t, err)

	own, err := storage.ClientInvoices(ctx, s, acme.ID)
	require.NoError(t, err)
	assert.Len(t, own, 2)

	_, err = storage.ClientInvoices(ctx, s, unknownID(t, s))
	assert.ErrorIs(t, err, models.ErrNotFound)

	summary, err := storage.Summarize(ctx, s, time.Now())
	require.NoError(t, err)
	assert.InDelta(t, 300, summary.TotalRevenue, 0.01)
	assert.InDelta(t, 250, summary.PendingAmount, 0.01)
	assert.Equal(t, 3, summary.TotalInvoices)
	assert.Equal(t, 2, summary.TotalClients)
	require.Len(t, summary.MonthlyRevenue, 6)
	assert.InDelta(t, 300, summary.MonthlyRevenue[5].Revenue, 0.01)
}

func testSessions(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	sessions := s.Sessions()
	require.NotNil(t, sessions)

	token, err := sessions.Create(ctx, "42", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	userID, err := sessions.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.ID("42"), userID)

	require.NoError(t, sessions.Destroy(ctx, token))
	_, err = sessions.Get(ctx, token)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = sessions.Get(ctx, "no-such-token")
	assert.ErrorIs(t, err, models.ErrNotFound)

	short, err := sessions.Create(ctx, "42", 50*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(200 * time.Millisecond)
	_, err = sessions.Get(ctx, short)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// unknownID refers to nothing. Backends treat ids they cannot parse as unknown too.
func unknownID(t *testing.T, s storage.Storage) models.ID {
	t.Helper()
	return "999999"
}

func ptr(s string) *string { return &s }
