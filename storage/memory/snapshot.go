package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Abhi-coder-crypto/Inv-gen/config"
	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/Abhi-coder-crypto/Inv-gen/utils"
	"github.com/sirupsen/logrus"
)

// snapshot is the on-disk layout: every collection as an array plus the id counters.
type snapshot struct {
	Users      []*models.User    `json:"users"`
	Companies  []*storedCompany  `json:"companies"`
	Clients    []*models.Client  `json:"clients"`
	Invoices   []*models.Invoice `json:"invoices"`
	CurrentID  counters          `json:"currentId"`
	InvoiceSeq map[models.ID]int `json:"invoiceSeq,omitempty"`
}

// storedCompany also reads the "ifsc" key written by older builds.
type storedCompany struct {
	models.Company
	Ifsc *string `json:"ifsc,omitempty"`
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("decode %s: %w", s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rehashed := 0
	for _, u := range snap.Users {
		if u == nil {
			continue
		}
		if !utils.IsPasswordHash(u.Password) {
			hashed, err := utils.HashPassword(u.Password)
			if err != nil {
				return fmt.Errorf("hash password of %s: %w", u.Username, err)
			}
			u.Password = string(hashed)
			rehashed++
		}
		if u.Role == "" {
			u.Role = models.RoleAdmin
		}
		s.users[u.ID] = u
	}
	for _, c := range snap.Companies {
		if c == nil {
			continue
		}
		company := c.Company
		if company.IfscCode == nil {
			company.IfscCode = models.NormalizeString(c.Ifsc)
		}
		// singleton: the first record wins
		if s.company == nil {
			s.company = &company
		}
	}
	for _, c := range snap.Clients {
		if c != nil {
			c.Invoices = nil
			s.clients[c.ID] = c
		}
	}
	for _, inv := range snap.Invoices {
		if inv == nil {
			continue
		}
		inv.Client = nil
		if inv.Status == "" {
			inv.Status = models.InvoiceStatusPending
		}
		if inv.Items == nil {
			inv.Items = []models.InvoiceItem{}
		}
		s.invoices[inv.ID] = inv
	}
	if snap.CurrentID.Users > 0 {
		s.currentID = snap.CurrentID
	}
	s.currentID.Users = maxNextID(s.currentID.Users, s.users)
	s.currentID.Clients = maxNextID(s.currentID.Clients, s.clients)
	s.currentID.Invoices = maxNextID(s.currentID.Invoices, s.invoices)
	for id, seq := range snap.InvoiceSeq {
		s.invoiceSeq[id] = seq
	}

	logger := config.GetLogger()
	logger.WithFields(logrus.Fields{
		"module":   "memory",
		"path":     s.path,
		"users":    len(s.users),
		"clients":  len(s.clients),
		"invoices": len(s.invoices),
	}).Info("snapshot loaded")
	if rehashed > 0 {
		// plain-text passwords from older snapshots are stored hashed from now on
		if err := s.saveLocked(); err != nil {
			config.LogError(logger, "memory", "load", "rewrite snapshot", nil, err)
		}
	}
	return nil
}

// maxNextID keeps the counter ahead of every numeric id present.
func maxNextID[T any](next int, records map[models.ID]T) int {
	for id := range records {
		var n int
		if _, err := fmt.Sscanf(string(id), "%d", &n); err == nil && n >= next {
			next = n + 1
		}
	}
	if next < 1 {
		next = 1
	}
	return next
}

func (s *Store) snapshotLocked() *snapshot {
	snap := &snapshot{
		Users:      make([]*models.User, 0, len(s.users)),
		Companies:  make([]*storedCompany, 0, 1),
		Clients:    make([]*models.Client, 0, len(s.clients)),
		Invoices:   make([]*models.Invoice, 0, len(s.invoices)),
		CurrentID:  s.currentID,
		InvoiceSeq: s.invoiceSeq,
	}
	for _, u := range s.users {
		snap.Users = append(snap.Users, u)
	}
	if s.company != nil {
		snap.Companies = append(snap.Companies, &storedCompany{Company: *s.company})
	}
	for _, c := range s.clients {
		snap.Clients = append(snap.Clients, c)
	}
	for _, inv := range s.invoices {
		snap.Invoices = append(snap.Invoices, inv)
	}
	return snap
}

// saveLocked rewrites the data file atomically: temp file in the same directory,
// fsync, rename over the old file.
func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.snapshotLocked(), "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return err
	}
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
