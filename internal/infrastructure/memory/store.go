// Package memory is an in-process implementation of the repositories.
// It enforces the same unique constraints as the postgres schema and is
// selected with STORE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/galactic-postbox/internal/domain/entity"
	"github.com/oksasatya/galactic-postbox/internal/domain/repository"
)

type mailRow struct {
	entity.Mail
	seq uint64
}

// Store holds all tables behind one lock.
type Store struct {
	mu        sync.RWMutex
	users     map[string]*entity.User
	addresses map[string]*entity.Address // keyed by address string
	mail      map[string]*mailRow
	seq       uint64
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:     make(map[string]*entity.User),
		addresses: make(map[string]*entity.Address),
		mail:      make(map[string]*mailRow),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SeedCatalog inserts catalog entries, skipping addresses already present.
func (s *Store) SeedCatalog(entries []entity.Address) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range entries {
		if _, ok := s.addresses[e.Address]; ok {
			continue
		}
		e := e
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		now := s.now()
		e.CreatedAt, e.UpdatedAt = now, now
		s.addresses[e.Address] = &e
		n++
	}
	return n
}

func (s *Store) userByAddress(address string) *entity.User {
	for _, u := range s.users {
		if u.Address.Address == address {
			return u
		}
	}
	return nil
}

func (s *Store) populate(r *mailRow) entity.Mail {
	m := r.Mail
	if u, ok := s.users[m.SenderID]; ok {
		m.Sender = u.Ref()
	}
	if u, ok := s.users[m.RecipientID]; ok {
		m.Recipient = u.Ref()
	}
	m.Attachments = append([]entity.Attachment(nil), r.Attachments...)
	if r.ReadAt != nil {
		t := *r.ReadAt
		m.ReadAt = &t
	}
	return m
}

// ---- users ----

type UserRepository struct{ s *Store }

func NewUserRepository(s *Store) *UserRepository { return &UserRepository{s: s} }

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(u.Email)
	for _, existing := range s.users {
		switch {
		case existing.Username == u.Username:
			return &repository.DuplicateError{Field: "username"}
		case existing.Email == email:
			return &repository.DuplicateError{Field: "email"}
		case existing.Address.Address == u.Address.Address:
			return &repository.DuplicateError{Field: "address"}
		}
	}
	now := s.now()
	u.ID = uuid.NewString()
	u.Email = email
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	s.users[u.ID] = &cp

	if u.Address.IsCustom {
		if _, ok := s.addresses[u.Address.Address]; !ok {
			s.addresses[u.Address.Address] = &entity.Address{
				ID:        uuid.NewString(),
				Address:   u.Address.Address,
				Movie:     u.Address.Movie,
				IsCustom:  true,
				CreatedBy: u.ID,
				IsActive:  true,
				CreatedAt: now,
				UpdatedAt: now,
			}
		}
	}
	return nil
}

func (r *UserRepository) find(match func(*entity.User) bool) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.ID == id })
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Username == username })
}

func (r *UserRepository) GetByAddress(_ context.Context, address string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Address.Address == address })
}

func (r *UserRepository) FindConflict(_ context.Context, username, email, address string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	email = strings.ToLower(email)
	taken := map[string]bool{}
	for _, u := range r.s.users {
		taken["username"] = taken["username"] || u.Username == username
		taken["email"] = taken["email"] || u.Email == email
		taken["address"] = taken["address"] || u.Address.Address == address
	}
	for _, f := range []string{"username", "email", "address"} {
		if taken[f] {
			return f, nil
		}
	}
	return "", nil
}

// ---- addresses ----

type AddressRepository struct{ s *Store }

func NewAddressRepository(s *Store) *AddressRepository { return &AddressRepository{s: s} }

func (r *AddressRepository) ListCatalog(_ context.Context) ([]entity.CatalogEntry, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.CatalogEntry, 0, len(s.addresses))
	for _, a := range s.addresses {
		if a.IsCustom || !a.IsActive {
			continue
		}
		out = append(out, entity.CatalogEntry{Address: *a, Taken: s.userByAddress(a.Address) != nil})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Movie != out[j].Movie {
			return out[i].Movie < out[j].Movie
		}
		return out[i].Address.Address < out[j].Address.Address
	})
	return out, nil
}

func (r *AddressRepository) GetByAddress(_ context.Context, address string) (*entity.Address, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.addresses[address]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *AddressRepository) SearchRegistered(_ context.Context, q string, limit int) ([]entity.DirectoryEntry, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(q))
	out := []entity.DirectoryEntry{}
	for _, u := range s.users {
		if !strings.Contains(strings.ToLower(u.Address.Address), needle) &&
			!strings.Contains(strings.ToLower(u.Address.Movie), needle) {
			continue
		}
		out = append(out, entity.DirectoryEntry{
			Address:  u.Address.Address,
			Movie:    u.Address.Movie,
			Username: u.Username,
			IsCustom: u.Address.IsCustom,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- mail ----

type MailRepository struct{ s *Store }

func NewMailRepository(s *Store) *MailRepository { return &MailRepository{s: s} }

func (r *MailRepository) Create(_ context.Context, m *entity.Mail) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[m.SenderID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.users[m.RecipientID]; !ok {
		return repository.ErrNotFound
	}
	now := s.now()
	m.ID = uuid.NewString()
	m.CreatedAt, m.UpdatedAt = now, now
	s.seq++
	row := &mailRow{Mail: *m, seq: s.seq}
	row.Attachments = append([]entity.Attachment(nil), m.Attachments...)
	s.mail[m.ID] = row
	populated := s.populate(row)
	m.Sender, m.Recipient = populated.Sender, populated.Recipient
	return nil
}

func (r *MailRepository) list(match func(*mailRow) bool, p repository.Page) ([]entity.Mail, int64) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]*mailRow, 0)
	for _, row := range s.mail {
		if match(row) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	total := int64(len(rows))
	start := p.Offset()
	if start < 0 || start > len(rows) {
		start = len(rows)
	}
	end := start + p.Limit
	if end < start || end > len(rows) {
		end = len(rows)
	}
	out := make([]entity.Mail, 0, end-start)
	for _, row := range rows[start:end] {
		out = append(out, s.populate(row))
	}
	return out, total
}

func (r *MailRepository) ListByRecipient(_ context.Context, recipientID string, f repository.MailFilter, p repository.Page) ([]entity.Mail, int64, error) {
	items, total := r.list(func(m *mailRow) bool {
		if m.RecipientID != recipientID {
			return false
		}
		if f.Type != nil && m.Type != *f.Type {
			return false
		}
		if f.IsRead != nil && m.IsRead != *f.IsRead {
			return false
		}
		return true
	}, p)
	return items, total, nil
}

func (r *MailRepository) ListBySender(_ context.Context, senderID string, p repository.Page) ([]entity.Mail, int64, error) {
	items, total := r.list(func(m *mailRow) bool { return m.SenderID == senderID }, p)
	return items, total, nil
}

func (r *MailRepository) CountUnread(_ context.Context, recipientID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, m := range r.s.mail {
		if m.RecipientID == recipientID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *MailRepository) GetVisible(_ context.Context, id, userID string) (*entity.Mail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	row, ok := r.s.mail[id]
	if !ok || (row.SenderID != userID && row.RecipientID != userID) {
		return nil, repository.ErrNotFound
	}
	m := r.s.populate(row)
	return &m, nil
}

func (r *MailRepository) MarkRead(_ context.Context, id, recipientID string, at time.Time) (*entity.Mail, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.mail[id]
	if !ok || row.RecipientID != recipientID {
		return nil, repository.ErrNotFound
	}
	t := at
	row.IsRead = true
	row.ReadAt = &t
	row.UpdatedAt = at
	m := s.populate(row)
	return &m, nil
}

func (r *MailRepository) DeleteForRecipient(_ context.Context, id, recipientID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.mail[id]
	if !ok || row.RecipientID != recipientID {
		return repository.ErrNotFound
	}
	delete(s.mail, id)
	return nil
}

var (
	_ repository.UserRepository    = (*UserRepository)(nil)
	_ repository.AddressRepository = (*AddressRepository)(nil)
	_ repository.MailRepository    = (*MailRepository)(nil)
)
