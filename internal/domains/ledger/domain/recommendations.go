package domain

import (
	"strings"
	"sync"

	"lor-chain/go-backend/internal/domains/ledger/policy"
	"lor-chain/go-backend/pkg/models"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger is the authoritative recommendation record store. Ids are dense and
// zero-based; a student can only be approved after a recommendation request.
type Ledger struct {
	mu        sync.Mutex
	students  []models.Student
	approvers policy.Approvers
	store     *SnapshotStore
}

func New(approvers policy.Approvers) *Ledger {
	return &Ledger{approvers: approvers}
}

// AttachStore loads the persisted snapshot and persists every later mutation.
func (l *Ledger) AttachStore(store *SnapshotStore) error {
	students, err := store.Bootstrap()
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.students = students
	l.store = store
	return nil
}

func (l *Ledger) Approvers() policy.Approvers {
	return l.approvers
}

func (l *Ledger) AddStudent(name, course, email string) (uint64, error) {
	name, course, email = strings.TrimSpace(name), strings.TrimSpace(course), strings.TrimSpace(email)
	if name == "" || course == "" || email == "" {
		return 0, ErrInvalidInput
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	id := uint64(len(l.students))
	l.students = append(l.students, models.Student{
		ID:     id,
		Name:   name,
		Course: course,
		Email:  email,
	})
	if err := l.persistLocked(); err != nil {
		l.students = l.students[:id]
		return 0, err
	}
	return id, nil
}

func (l *Ledger) RequestRecommendation(id uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	student, err := l.studentLocked(id)
	if err != nil {
		return err
	}
	if student.Requested {
		return ErrAlreadyRequested
	}
	return l.updateLocked(id, func(s *models.Student) { s.Requested = true })
}

// ApproveRecommendation checks the caller before anything else, so an
// unauthorized caller learns nothing about the record.
func (l *Ledger) ApproveRecommendation(caller common.Address, id uint64) error {
	if !l.approvers.Allows(caller) {
		return ErrUnauthorized
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	student, err := l.studentLocked(id)
	if err != nil {
		return err
	}
	if !student.Requested {
		return ErrNotRequested
	}
	if student.Approved {
		return ErrAlreadyApproved
	}
	return l.updateLocked(id, func(s *models.Student) { s.Approved = true })
}

func (l *Ledger) GetStudent(id uint64) (models.Student, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.studentLocked(id)
}

func (l *Ledger) StudentCount() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return uint64(len(l.students))
}

// Snapshot returns a copy of every record in id order.
func (l *Ledger) Snapshot() []models.Student {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Student(nil), l.students...)
}

func (l *Ledger) studentLocked(id uint64) (models.Student, error) {
	if id >= uint64(len(l.students)) {
		return models.Student{}, ErrNotFound
	}
	return l.students[id], nil
}

func (l *Ledger) updateLocked(id uint64, apply func(*models.Student)) error {
	previous := l.students[id]
	apply(&l.students[id])
	if err := l.persistLocked(); err != nil {
		l.students[id] = previous
		return err
	}
	return nil
}

func (l *Ledger) persistLocked() error {
	if l.store == nil {
		return nil
	}
	return l.store.Persist(l.students)
}
