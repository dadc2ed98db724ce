package postboxclient

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// SessionData is what survives a restart: the token and the user it
// belongs to.
type SessionData struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Session persists SessionData between runs.
type Session interface {
	Load() (*SessionData, error) // nil, nil when nothing is stored
	Save(SessionData) error
	Clear() error
}

// FileSession keeps the session in a JSON file readable only by the owner.
type FileSession struct {
	Path string
}

func NewFileSession(path string) *FileSession {
	return &FileSession{Path: path}
}

func (s *FileSession) Load() (*SessionData, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var d SessionData
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	if d.Token == "" {
		return nil, nil
	}
	return &d, nil
}

// Save writes via a temp file and rename so a crash never leaves a torn file.
func (s *FileSession) Save(d SessionData) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}

func (s *FileSession) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
