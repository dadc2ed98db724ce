package postboxclient

import (
	"context"
	"errors"
	"net/http"
	"sync"
)

// ErrNotLoggedIn is returned by actions that need a token when there is none.
var ErrNotLoggedIn = errors.New("postbox: not logged in")

// State is a snapshot of the client-side store.
type State struct {
	Token       string
	User        *User
	Inbox       []Mail
	Pagination  Pagination
	UnreadCount int64
	Err         error // result of the last action
}

// Store holds the client-side state and changes it only through actions.
// A failed action leaves the previous state in place and records Err;
// Logout is the exception and always drops the local credentials.
type Store struct {
	client  *Client
	session Session

	mu    sync.RWMutex
	state State
}

// NewStore wraps c. session may be nil when nothing should be persisted.
func NewStore(c *Client, session Session) *Store {
	return &Store{client: c, session: session}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Inbox = append([]Mail(nil), s.state.Inbox...)
	return st
}

func (s *Store) fail(err error) error {
	s.mu.Lock()
	s.state.Err = err
	s.mu.Unlock()
	return err
}

func (s *Store) token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Token == "" {
		return "", ErrNotLoggedIn
	}
	return s.state.Token, nil
}

// authed returns a copy of the client carrying the current token.
func (s *Store) authed() (*Client, error) {
	tok, err := s.token()
	if err != nil {
		return nil, err
	}
	c := *s.client
	c.Token = tok
	return &c, nil
}

func (s *Store) signIn(token string, u *User) error {
	if s.session != nil {
		if err := s.session.Save(SessionData{Token: token, User: u}); err != nil {
			return s.fail(err)
		}
	}
	s.mu.Lock()
	s.state = State{Token: token, User: u}
	s.mu.Unlock()
	return nil
}

func (s *Store) Register(ctx context.Context, in RegisterRequest) error {
	token, u, err := s.client.Register(ctx, in)
	if err != nil {
		return s.fail(err)
	}
	return s.signIn(token, u)
}

func (s *Store) Login(ctx context.Context, username, password string) error {
	token, u, err := s.client.Login(ctx, username, password)
	if err != nil {
		return s.fail(err)
	}
	return s.signIn(token, u)
}

// Logout revokes the token server-side when possible and always clears the
// local state and session. The server error, if any, is returned.
func (s *Store) Logout(ctx context.Context) error {
	var err error
	if c, terr := s.authed(); terr == nil {
		err = c.Logout(ctx)
	}
	if s.session != nil {
		if cerr := s.session.Clear(); cerr != nil && err == nil {
			err = cerr
		}
	}
	s.mu.Lock()
	s.state = State{Err: err}
	s.mu.Unlock()
	return err
}

// Restore loads a saved session and confirms it with the server. A token the
// server rejects is discarded; any other failure keeps the saved session.
func (s *Store) Restore(ctx context.Context) error {
	if s.session == nil {
		return nil
	}
	saved, err := s.session.Load()
	if err != nil {
		return s.fail(err)
	}
	if saved == nil {
		return nil
	}
	c := *s.client
	c.Token = saved.Token
	u, err := c.Me(ctx)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			_ = s.session.Clear()
			s.mu.Lock()
			s.state = State{Err: err}
			s.mu.Unlock()
			return err
		}
		s.mu.Lock()
		s.state = State{Token: saved.Token, User: saved.User, Err: err}
		s.mu.Unlock()
		return err
	}
	return s.signIn(saved.Token, u)
}

func (s *Store) LoadInbox(ctx context.Context, opts ListOptions) error {
	c, err := s.authed()
	if err != nil {
		return s.fail(err)
	}
	list, err := c.Inbox(ctx, opts)
	if err != nil {
		return s.fail(err)
	}
	s.mu.Lock()
	s.state.Inbox = list.Mail
	s.state.Pagination = list.Pagination
	s.state.UnreadCount = list.UnreadCount
	s.state.Err = nil
	s.mu.Unlock()
	return nil
}

// Send delivers a letter. Mail sent to one's own address also lands in the
// cached inbox.
func (s *Store) Send(ctx context.Context, in SendRequest) (*Mail, error) {
	c, err := s.authed()
	if err != nil {
		return nil, s.fail(err)
	}
	m, err := c.Send(ctx, in)
	if err != nil {
		return nil, s.fail(err)
	}
	s.mu.Lock()
	if s.state.User != nil && m.Recipient != nil && m.Recipient.ID == s.state.User.ID {
		s.state.Inbox = append([]Mail{*m}, s.state.Inbox...)
		s.state.UnreadCount++
		s.state.Pagination.Total++
	}
	s.state.Err = nil
	s.mu.Unlock()
	return m, nil
}

func (s *Store) indexOf(id string) int {
	for i := range s.state.Inbox {
		if s.state.Inbox[i].ID == id {
			return i
		}
	}
	return -1
}

// Open marks the letter read on the server and updates the cached copy.
func (s *Store) Open(ctx context.Context, id string) (*Mail, error) {
	c, err := s.authed()
	if err != nil {
		return nil, s.fail(err)
	}
	m, err := c.MarkRead(ctx, id)
	if err != nil {
		return nil, s.fail(err)
	}
	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		if !s.state.Inbox[i].IsRead && s.state.UnreadCount > 0 {
			s.state.UnreadCount--
		}
		s.state.Inbox[i] = *m
	}
	s.state.Err = nil
	s.mu.Unlock()
	return m, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	c, err := s.authed()
	if err != nil {
		return s.fail(err)
	}
	if err := c.Delete(ctx, id); err != nil {
		return s.fail(err)
	}
	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		if !s.state.Inbox[i].IsRead && s.state.UnreadCount > 0 {
			s.state.UnreadCount--
		}
		s.state.Inbox = append(s.state.Inbox[:i:i], s.state.Inbox[i+1:]...)
		if s.state.Pagination.Total > 0 {
			s.state.Pagination.Total--
		}
	}
	s.state.Err = nil
	s.mu.Unlock()
	return nil
}
