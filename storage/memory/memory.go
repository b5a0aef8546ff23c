// Package memory is the in-process storage backend. State lives in maps guarded by
// one mutex and, when a data file is configured, is rewritten to disk after every
// mutation.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/billing"
	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/Abhi-coder-crypto/Inv-gen/storage"
)

type counters struct {
	Users     int `json:"users"`
	Companies int `json:"companies"`
	Clients   int `json:"clients"`
	Invoices  int `json:"invoices"`
}

type Store struct {
	mu   sync.Mutex
	path string

	users    map[models.ID]*models.User
	company  *models.Company
	clients  map[models.ID]*models.Client
	invoices map[models.ID]*models.Invoice
	// next id per entity type
	currentID counters
	// highest invoice sequence handed out per client
	invoiceSeq map[models.ID]int

	sessions *sessionStore
	now      func() time.Time
}

var _ storage.Storage = (*Store)(nil)

// New returns an empty store that is not persisted.
func New() *Store {
	return &Store{
		users:      make(map[models.ID]*models.User),
		clients:    make(map[models.ID]*models.Client),
		invoices:   make(map[models.ID]*models.Invoice),
		currentID:  counters{Users: 1, Companies: 1, Clients: 1, Invoices: 1},
		invoiceSeq: make(map[models.ID]int),
		sessions:   newSessionStore(time.Minute),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Open returns a store persisted to path, loading the snapshot if the file exists.
func Open(path string) (*Store, error) {
	s := New()
	s.path = path
	if err := s.load(); err != nil {
		s.sessions.close()
		return nil, err
	}
	return s, nil
}

func (s *Store) nextIDLocked(counter *int) models.ID {
	id := *counter
	*counter++
	return models.ID(strconv.Itoa(id))
}

// commitLocked persists the current state; on failure it runs undo so memory
// matches what is on disk.
func (s *Store) commitLocked(op string, undo func()) error {
	if err := s.saveLocked(); err != nil {
		undo()
		return models.Internal(op, err)
	}
	return nil
}

func (s *Store) Sessions() storage.SessionStore { return s.sessions }

func (s *Store) Close(_ context.Context) error {
	s.sessions.close()
	return nil
}

// Users ----------------------------------------------------------------------

func (s *Store) GetUser(_ context.Context, id models.ID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, models.NewNotFoundError("user", id)
	}
	return user.Clone(), nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Username == username {
			return user.Clone(), nil
		}
	}
	return nil, &models.NotFoundError{Entity: "user", ID: username}
}

func (s *Store) CreateUser(_ context.Context, input *models.NewUser) (*models.User, error) {
	user, err := input.Build(s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return nil, &models.ConflictError{Field: "username", Value: user.Username}
		}
	}
	prev := s.currentID.Users
	user.ID = s.nextIDLocked(&s.currentID.Users)
	s.users[user.ID] = user
	if err := s.commitLocked("create user", func() {
		delete(s.users, user.ID)
		s.currentID.Users = prev
	}); err != nil {
		return nil, err
	}
	return user.Clone(), nil
}

// Company --------------------------------------------------------------------

func (s *Store) GetCompany(_ context.Context) (*models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.company == nil {
		return nil, &models.NotFoundError{Entity: "company"}
	}
	return s.company.Clone(), nil
}

func (s *Store) UpdateCompany(_ context.Context, input *models.NewCompany) (*models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged, err := input.Merge(s.company)
	if err != nil {
		return nil, err
	}
	prev, prevCounter := s.company, s.currentID.Companies
	if prev == nil {
		merged.ID = s.nextIDLocked(&s.currentID.Companies)
	}
	s.company = merged
	if err := s.commitLocked("update company", func() {
		s.company = prev
		s.currentID.Companies = prevCounter
	}); err != nil {
		return nil, err
	}
	return merged.Clone(), nil
}

// Clients --------------------------------------------------------------------

func (s *Store) GetClients(_ context.Context) ([]*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*models.Client, 0, len(s.clients))
	for _, c := range s.clients {
		result = append(result, c.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return newer(result[i].CreatedAt, result[i].ID, result[j].CreatedAt, result[j].ID)
	})
	return result, nil
}

func (s *Store) GetClient(_ context.Context, id models.ID) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[id]
	if !ok {
		return nil, models.NewNotFoundError("client", id)
	}
	return client.Clone(), nil
}

func (s *Store) CreateClient(_ context.Context, input *models.NewClient) (*models.Client, error) {
	client, err := input.Build(s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	last := 0
	for _, c := range s.clients {
		if c.CustomId != nil {
			if n := billing.CustomIDSeqOf(*c.CustomId); n > last {
				last = n
			}
		}
	}
	customID := billing.NextCustomID(last, len(s.clients))
	client.CustomId = &customID

	prev := s.currentID.Clients
	client.ID = s.nextIDLocked(&s.currentID.Clients)
	s.clients[client.ID] = client
	if err := s.commitLocked("create client", func() {
		delete(s.clients, client.ID)
		s.currentID.Clients = prev
	}); err != nil {
		return nil, err
	}
	return client.Clone(), nil
}

func (s *Store) UpdateClient(_ context.Context, id models.ID, update *models.ClientUpdate) (*models.Client, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.clients[id]
	if !ok {
		return nil, models.NewNotFoundError("client", id)
	}
	if update.IsEmpty() {
		return current.Clone(), nil
	}
	updated := current.Clone()
	updated.Apply(update)
	s.clients[id] = updated
	if err := s.commitLocked("update client", func() { s.clients[id] = current }); err != nil {
		return nil, err
	}
	return updated.Clone(), nil
}

// Invoices -------------------------------------------------------------------

// withClientLocked returns a copy of inv with its live client attached.
func (s *Store) withClientLocked(inv *models.Invoice) *models.Invoice {
	out := inv.Clone()
	out.Client = s.clients[inv.ClientID].Clone()
	return out
}

func (s *Store) GetInvoices(_ context.Context) ([]*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*models.Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		result = append(result, s.withClientLocked(inv))
	}
	sort.Slice(result, func(i, j int) bool {
		return newer(result[i].CreatedAt, result[i].ID, result[j].CreatedAt, result[j].ID)
	})
	return result, nil
}

func (s *Store) GetInvoice(_ context.Context, id models.ID) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok {
		return nil, models.NewNotFoundError("invoice", id)
	}
	return s.withClientLocked(inv), nil
}

func (s *Store) CreateInvoice(_ context.Context, input *models.NewInvoice) (*models.Invoice, error) {
	inv, err := billing.Draft(input, s.now())
	if err != nil {
		return nil, err
	}

	// numbering runs under the same lock as the insert
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[inv.ClientID]
	if !ok {
		return nil, models.NewNotFoundError("client", inv.ClientID)
	}

	count, last := 0, s.invoiceSeq[client.ID]
	numbers := make(map[string]bool, len(s.invoices))
	for _, existing := range s.invoices {
		numbers[existing.InvoiceNumber] = true
		if existing.ClientID == client.ID {
			count++
			if n := billing.InvoiceSeqOf(existing.InvoiceNumber); n > last {
				last = n
			}
		}
	}
	tag := billing.ClientTag(client)
	seq := billing.NextInvoiceSeq(last, count)
	for numbers[billing.InvoiceNumber(tag, seq)] {
		seq++
	}
	inv.InvoiceNumber = billing.InvoiceNumber(tag, seq)

	prevID := s.currentID.Invoices
	prevSeq, hadSeq := s.invoiceSeq[client.ID]
	inv.ID = s.nextIDLocked(&s.currentID.Invoices)
	s.invoices[inv.ID] = inv
	s.invoiceSeq[client.ID] = seq
	if err := s.commitLocked("create invoice", func() {
		delete(s.invoices, inv.ID)
		s.currentID.Invoices = prevID
		if hadSeq {
			s.invoiceSeq[client.ID] = prevSeq
		} else {
			delete(s.invoiceSeq, client.ID)
		}
	}); err != nil {
		return nil, err
	}
	return s.withClientLocked(inv), nil
}

func (s *Store) UpdateInvoice(_ context.Context, id models.ID, update *models.InvoiceUpdate) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.invoices[id]
	if !ok {
		return nil, models.NewNotFoundError("invoice", id)
	}
	updated, err := billing.ApplyUpdate(current, update)
	if err != nil {
		return nil, err
	}
	updated.Client = nil
	s.invoices[id] = updated
	if err := s.commitLocked("update invoice", func() { s.invoices[id] = current }); err != nil {
		return nil, err
	}
	return s.withClientLocked(updated), nil
}

func (s *Store) DeleteInvoice(_ context.Context, id models.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.invoices[id]
	if !ok {
		return false, nil
	}
	delete(s.invoices, id)
	if err := s.commitLocked("delete invoice", func() { s.invoices[id] = current }); err != nil {
		return false, err
	}
	return true, nil
}

// newer orders by creation time, then by numeric id, both descending.
func newer(aTime time.Time, aID models.ID, bTime time.Time, bID models.ID) bool {
	if !aTime.Equal(bTime) {
		return aTime.After(bTime)
	}
	an, aErr := strconv.Atoi(string(aID))
	bn, bErr := strconv.Atoi(string(bID))
	if aErr == nil && bErr == nil {
		return an > bn
	}
	return aID > bID
}
