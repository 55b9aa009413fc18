// Package usecase issues ledger operations through the connected session.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"lor-chain/go-backend/internal/domains/contracts"
	ledgerdomain "lor-chain/go-backend/internal/domains/ledger/domain"
	"lor-chain/go-backend/internal/domains/ledger/policy"
	"lor-chain/go-backend/pkg/models"
)

// SessionSource exposes the session of the current connection, if any.
type SessionSource interface {
	Session() (*contracts.Session, bool)
}

type Client struct {
	// letterMu serializes RequestLetter flows issued through this client.
	letterMu  sync.Mutex
	sessions  SessionSource
	approvers policy.Approvers
	logger    *slog.Logger
	metrics   *Metrics
}

// NewClient builds a ledger client. A non-empty approvers set enables the
// approve pre-check; the ledger itself stays the authority.
func NewClient(sessions SessionSource, approvers policy.Approvers, logger *slog.Logger, metrics *Metrics) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{sessions: sessions, approvers: approvers, logger: logger, metrics: metrics}
}

func (c *Client) session() (*contracts.Session, error) {
	if c.sessions == nil {
		return nil, ErrNotConnected
	}
	session, ok := c.sessions.Session()
	if !ok || session == nil || session.Ledger == nil {
		return nil, ErrNotConnected
	}
	return session, nil
}

func (c *Client) AddStudent(ctx context.Context, name, course, email string) (models.TxReceipt, error) {
	return c.mutate(ctx, "add_student", func(h contracts.LedgerHandle) (contracts.PendingTx, error) {
		return h.AddStudent(ctx, name, course, email)
	})
}

func (c *Client) RequestRecommendation(ctx context.Context, id uint64) (models.TxReceipt, error) {
	return c.mutate(ctx, "request_recommendation", func(h contracts.LedgerHandle) (contracts.PendingTx, error) {
		return h.RequestRecommendation(ctx, id)
	})
}

func (c *Client) ApproveRecommendation(ctx context.Context, id uint64) (models.TxReceipt, error) {
	session, err := c.session()
	if err != nil {
		return models.TxReceipt{}, c.fail("approve_recommendation", err)
	}
	if c.approvers.Len() > 0 && !c.approvers.Allows(session.Account) {
		return models.TxReceipt{}, c.fail("approve_recommendation", ledgerdomain.ErrUnauthorized)
	}
	return c.mutate(ctx, "approve_recommendation", func(h contracts.LedgerHandle) (contracts.PendingTx, error) {
		return h.ApproveRecommendation(ctx, id)
	})
}

func (c *Client) GetStudent(ctx context.Context, id uint64) (models.Student, error) {
	session, err := c.session()
	if err != nil {
		return models.Student{}, c.fail("get_student", err)
	}
	student, err := session.Ledger.GetStudent(ctx, id)
	if err != nil {
		return models.Student{}, c.fail("get_student", err)
	}
	c.metrics.observe("get_student", nil)
	return student, nil
}

func (c *Client) StudentCount(ctx context.Context) (uint64, error) {
	session, err := c.session()
	if err != nil {
		return 0, c.fail("student_count", err)
	}
	count, err := session.Ledger.StudentCount(ctx)
	if err != nil {
		return 0, c.fail("student_count", err)
	}
	c.metrics.observe("student_count", nil)
	return count, nil
}

// RequestLetter registers a student and requests the recommendation in one
// flow. Registrations from other callers may land around ours, so the new id
// is located among the ids created between the count read before the add
// and the one after it, by matching the submitted fields.
func (c *Client) RequestLetter(ctx context.Context, name, course, email string) (models.LetterRequest, error) {
	name, course, email = strings.TrimSpace(name), strings.TrimSpace(course), strings.TrimSpace(email)
	if name == "" || course == "" || email == "" {
		return models.LetterRequest{}, c.fail("request_letter", ledgerdomain.ErrInvalidInput)
	}
	c.letterMu.Lock()
	defer c.letterMu.Unlock()

	before, err := c.StudentCount(ctx)
	if err != nil {
		return models.LetterRequest{}, err
	}
	addTx, err := c.AddStudent(ctx, name, course, email)
	if err != nil {
		return models.LetterRequest{}, err
	}
	after, err := c.StudentCount(ctx)
	if err != nil {
		return models.LetterRequest{}, err
	}
	id, err := c.findRegistered(ctx, before, after, name, course, email)
	if err != nil {
		return models.LetterRequest{}, c.fail("request_letter", err)
	}
	requestTx, err := c.RequestRecommendation(ctx, id)
	if err != nil {
		return models.LetterRequest{}, err
	}
	c.logger.Info("recommendation letter requested", "student_id", id, "tx", requestTx.Hash)
	return models.LetterRequest{StudentID: id, AddTx: addTx, RequestTx: requestTx}, nil
}

// findRegistered returns the first unrequested student in [from, to) whose
// fields match the submitted ones.
func (c *Client) findRegistered(ctx context.Context, from, to uint64, name, course, email string) (uint64, error) {
	session, err := c.session()
	if err != nil {
		return 0, err
	}
	for id := from; id < to; id++ {
		student, err := session.Ledger.GetStudent(ctx, id)
		if err != nil {
			return 0, err
		}
		if !student.Requested && student.Name == name && student.Course == course && student.Email == email {
			return id, nil
		}
	}
	return 0, fmt.Errorf("registered student not found in ids [%d, %d): %w", from, to, ledgerdomain.ErrNotFound)
}

// mutate submits once and waits for confirmation. A failed submission or
// confirmation is returned as is; nothing is re-issued.
func (c *Client) mutate(ctx context.Context, operation string, submit func(contracts.LedgerHandle) (contracts.PendingTx, error)) (models.TxReceipt, error) {
	session, err := c.session()
	if err != nil {
		return models.TxReceipt{}, c.fail(operation, err)
	}
	pending, err := submit(session.Ledger)
	if err != nil {
		return models.TxReceipt{}, c.fail(operation, err)
	}
	c.logger.Debug("ledger transaction submitted", "operation", operation, "tx", pending.Hash().Hex())
	receipt, err := pending.Wait(ctx)
	if err != nil {
		return models.TxReceipt{}, c.fail(operation, err)
	}
	c.metrics.observe(operation, nil)
	return models.TxReceipt{Hash: receipt.TxHash.Hex(), BlockNumber: receipt.BlockNumber}, nil
}

func (c *Client) fail(operation string, err error) error {
	classified := Classify(err)
	c.metrics.observe(operation, classified)
	c.logger.Warn("ledger operation failed", "operation", operation, "kind", string(classified.Kind), "error", err)
	return classified
}
