package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// fileVersion is bumped when the on-disk schema changes so Open can apply
// migrations later.
const fileVersion = 1

type fileData struct {
	Version  int        `json:"version"`
	Accounts []*Account `json:"accounts"`
}

// FileStore is a Store backed by a single JSON file. Every mutation
// rewrites the file through a temp-file rename so a crash mid-write never
// leaves a truncated store behind.
type FileStore struct {
	mu       sync.RWMutex
	path     string
	accounts map[int64]*Account
}

// Open loads the store at path, creating an empty one if the file does
// not exist yet.
func Open(path string) (*FileStore, error) {
	s := &FileStore{
		path:     path,
		accounts: make(map[int64]*Account),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	var fd fileData
	if err := json.Unmarshal(data, &fd); err != nil {
		return nil, fmt.Errorf("account store parse: %w", err)
	}
	for _, a := range fd.Accounts {
		copy := *a
		s.accounts[a.UserID] = &copy
	}
	return s, nil
}

func (s *FileStore) Find(userID int64) (*Account, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[userID]
	if !ok {
		return nil, false, nil
	}
	copy := *a
	return &copy, true, nil
}

func (s *FileStore) Save(account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.UserID]; ok {
		return fmt.Errorf("account %d already exists", account.UserID)
	}
	copy := *account
	s.accounts[account.UserID] = &copy
	return s.flushLocked()
}

func (s *FileStore) Update(account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.UserID]; !ok {
		return fmt.Errorf("account %d not found", account.UserID)
	}
	copy := *account
	s.accounts[account.UserID] = &copy
	return s.flushLocked()
}

func (s *FileStore) All() ([]*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		copy := *a
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (s *FileStore) flushLocked() error {
	fd := fileData{Version: fileVersion}
	for _, a := range s.accounts {
		fd.Accounts = append(fd.Accounts, a)
	}
	sort.Slice(fd.Accounts, func(i, j int) bool { return fd.Accounts[i].UserID < fd.Accounts[j].UserID })

	data, err := json.MarshalIndent(&fd, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".accounts-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
