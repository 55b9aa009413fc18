package domain

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"lor-chain/go-backend/internal/securestore"
	"lor-chain/go-backend/pkg/models"
)

type persistedLedgerState struct {
	Version      int              `json:"version"`
	StudentCount uint64           `json:"student_count"`
	Students     []models.Student `json:"students"`
}

// SnapshotStore keeps the ledger on disk. With an empty path it is a no-op.
type SnapshotStore struct {
	path   string
	secret string
}

func NewSnapshotStore(path, secret string) *SnapshotStore {
	return &SnapshotStore{path: strings.TrimSpace(path), secret: strings.TrimSpace(secret)}
}

func (s *SnapshotStore) Bootstrap() ([]models.Student, error) {
	if s.path == "" {
		return nil, nil
	}
	var state persistedLedgerState
	if err := securestore.ReadSnapshot(s.path, s.secret, &state); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, s.Persist(nil)
		}
		return nil, err
	}
	if state.Version != 1 || state.StudentCount != uint64(len(state.Students)) {
		return nil, errPersistedSnapshot
	}
	for i, student := range state.Students {
		if student.ID != uint64(i) || (student.Approved && !student.Requested) {
			return nil, errPersistedSnapshot
		}
	}
	return state.Students, nil
}

func (s *SnapshotStore) Persist(students []models.Student) error {
	if s.path == "" {
		return nil
	}
	if students == nil {
		students = []models.Student{}
	}
	return securestore.WriteSnapshot(s.path, s.secret, persistedLedgerState{
		Version:      1,
		StudentCount: uint64(len(students)),
		Students:     students,
	})
}

func (s *SnapshotStore) Wipe() error {
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
