// Package billing implements the bill lifecycle: create, update and delete a
// shared bill, and keep the participants' bill indexes in step with it.
package billing

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/yurawu27/splittie/internal/apperr"
	"github.com/yurawu27/splittie/internal/calculator"
	"github.com/yurawu27/splittie/internal/metrics"
	"github.com/yurawu27/splittie/internal/models"
	"github.com/yurawu27/splittie/internal/storage"
)

// Store is the persistence the manager needs.
type Store interface {
	storage.AccountRepository
	storage.BillRepository
}

// Directory maintains account bill indexes. Both calls attempt every account
// and return an Integrity error when some could not be updated.
type Directory interface {
	AttachAll(ctx context.Context, accountIDs []string, billID string) error
	DetachAll(ctx context.Context, accountIDs []string, billID string) error
}

// BillInput is a normalized bill submission. Amounts are raw strings; the
// allocation engine validates and parses them.
type BillInput struct {
	Title         string
	Subtotal      string
	Tax           string
	Tip           string
	PayerUsername string
	Splitters     []calculator.SplitterInput
	Complete      bool

	// ExpectedVersion, when non-zero, rejects the update if the stored bill
	// has moved on.
	ExpectedVersion int64
}

// Result is the outcome of a successful write.
type Result struct {
	Bill *models.Bill

	// Warning is set when the bill write succeeded but some account indexes
	// could not be updated. Reconcile repairs them.
	Warning error

	// AlreadyGone is set by Delete when there was nothing to delete.
	AlreadyGone bool
}

// Manager runs bill lifecycle operations on behalf of an authenticated account.
type Manager struct {
	store     Store
	directory Directory
	engine    calculator.Engine
	metrics   *metrics.Metrics
}

// NewManager creates a Manager. m may be nil.
func NewManager(store Store, directory Directory, engine calculator.Engine, m *metrics.Metrics) *Manager {
	return &Manager{
		store:     store,
		directory: directory,
		engine:    engine,
		metrics:   m,
	}
}

// Create validates and allocates the bill, persists it, and attaches it to the
// payer and every splitter. Nothing is written if any step before the bill
// write fails.
func (m *Manager) Create(ctx context.Context, actorID string, in BillInput) (res *Result, err error) {
	defer func() { m.observe("create", err) }()

	if _, err := m.actor(ctx, actorID); err != nil {
		return nil, err
	}

	bill, err := m.build(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := m.store.CreateBill(ctx, bill); err != nil {
		return nil, apperr.Internal(err, "failed to create bill")
	}

	slog.Info("Bill created", "bill_id", bill.ID, "payer", bill.PayerUsername, "splitters", len(bill.Splitters))

	res = &Result{Bill: bill}
	res.Warning = m.warn(m.directory.AttachAll(ctx, bill.ParticipantIDs(), bill.ID))
	return res, nil
}

// Update replaces the bill's totals and full splitter set. The actor must be
// the payer or a splitter of the stored bill. Accounts no longer involved are
// detached after the write.
func (m *Manager) Update(ctx context.Context, actorID, billID string, in BillInput) (res *Result, err error) {
	defer func() { m.observe("update", err) }()

	existing, err := m.participantBill(ctx, actorID, billID)
	if err != nil {
		return nil, err
	}

	bill, err := m.build(ctx, in)
	if err != nil {
		return nil, err
	}
	bill.ID = existing.ID

	if err := m.store.UpdateBill(ctx, bill, in.ExpectedVersion); err != nil {
		switch {
		case errors.Is(err, storage.ErrStale):
			return nil, apperr.Conflict(apperr.CodeStaleBill,
				"bill %s was changed by someone else, reload and try again", billID)
		case errors.Is(err, storage.ErrNotFound):
			return nil, apperr.NotFound(apperr.CodeBillNotFound, "bill %s not found", billID)
		default:
			return nil, apperr.Internal(err, "failed to update bill")
		}
	}

	slog.Info("Bill updated", "bill_id", bill.ID, "version", bill.Version)

	current := bill.ParticipantIDs()
	var dropped []string
	for _, id := range existing.ParticipantIDs() {
		if !bill.Involves(id) {
			dropped = append(dropped, id)
		}
	}

	res = &Result{Bill: bill}
	res.Warning = m.warn(errors.Join(
		m.directory.AttachAll(ctx, current, bill.ID),
		m.detach(ctx, dropped, bill.ID),
	))
	return res, nil
}

// Delete removes the bill and detaches it from every participant. A bill that
// does not exist is reported as AlreadyGone rather than an error.
func (m *Manager) Delete(ctx context.Context, actorID, billID string) (res *Result, err error) {
	defer func() { m.observe("delete", err) }()

	existing, err := m.participantBill(ctx, actorID, billID)
	if apperr.CodeOf(err) == apperr.CodeBillNotFound {
		slog.Info("Bill already gone", "bill_id", billID)
		return &Result{AlreadyGone: true}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := m.store.DeleteBill(ctx, billID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &Result{AlreadyGone: true}, nil
		}
		return nil, apperr.Internal(err, "failed to delete bill")
	}

	slog.Info("Bill deleted", "bill_id", billID)

	res = &Result{Bill: existing}
	res.Warning = m.warn(m.directory.DetachAll(ctx, existing.ParticipantIDs(), billID))
	return res, nil
}

// Get returns a bill the actor participates in.
func (m *Manager) Get(ctx context.Context, actorID, billID string) (*models.Bill, error) {
	return m.participantBill(ctx, actorID, billID)
}

// List returns every bill where the actor is the payer or a splitter, newest first.
func (m *Manager) List(ctx context.Context, actorID string) ([]*models.Bill, error) {
	if _, err := m.actor(ctx, actorID); err != nil {
		return nil, err
	}
	bills, err := m.store.ListBillsForAccount(ctx, actorID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list bills")
	}
	return bills, nil
}

// Balances summarizes who owes whom across the actor's bills.
func (m *Manager) Balances(ctx context.Context, actorID string) ([]calculator.MemberBalance, []calculator.DebtEdge, error) {
	bills, err := m.List(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	balances, debts := calculator.CalculateBalances(bills)
	return balances, debts, nil
}

// build validates the input, resolves every username and runs the
// allocation engine. It performs no writes.
func (m *Manager) build(ctx context.Context, in BillInput) (*models.Bill, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation(apperr.CodeMissingTitle, "bill title is required")
	}

	totals, err := calculator.ParseTotals(in.Subtotal, in.Tax, in.Tip)
	if err != nil {
		return nil, err
	}

	payerName := strings.TrimSpace(in.PayerUsername)
	if payerName == "" {
		return nil, apperr.Validation(apperr.CodeMissingPayer, "bill payer is required")
	}

	names := append([]string{payerName}, calculator.Usernames(in.Splitters)...)
	accounts, err := m.store.GetAccountsByUsernames(ctx, names)
	if err != nil {
		return nil, apperr.Internal(err, "failed to resolve accounts")
	}

	payer, ok := accounts[payerName]
	if !ok {
		return nil, apperr.NotFound(apperr.CodePayerNotFound, "bill payer %s does not exist", payerName)
	}

	alloc, err := m.engine.Allocate(totals, in.Splitters, accounts)
	if err != nil {
		return nil, err
	}

	return &models.Bill{
		Title:         title,
		Subtotal:      alloc.Totals.Subtotal,
		Tax:           alloc.Totals.Tax,
		Tip:           alloc.Totals.Tip,
		Total:         alloc.Total,
		PayerID:       payer.ID,
		PayerUsername: payer.Username,
		Splitters:     alloc.Splitters,
		Complete:      in.Complete,
	}, nil
}

func (m *Manager) actor(ctx context.Context, actorID string) (*models.Account, error) {
	if actorID == "" {
		return nil, apperr.Unauthenticated(apperr.CodeNotAuthenticated, "not logged in")
	}
	account, err := m.store.GetAccountByID(ctx, actorID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Unauthenticated(apperr.CodeNotAuthenticated, "session account no longer exists")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load account")
	}
	return account, nil
}

// participantBill loads a bill and checks the actor is involved in it.
func (m *Manager) participantBill(ctx context.Context, actorID, billID string) (*models.Bill, error) {
	if actorID == "" {
		return nil, apperr.Unauthenticated(apperr.CodeNotAuthenticated, "not logged in")
	}
	bill, err := m.store.GetBill(ctx, billID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound(apperr.CodeBillNotFound, "bill %s not found", billID)
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load bill")
	}
	if !bill.Involves(actorID) {
		return nil, apperr.Forbidden(apperr.CodeNotParticipant, "not a participant of bill %s", billID)
	}
	return bill, nil
}

func (m *Manager) detach(ctx context.Context, accountIDs []string, billID string) error {
	if len(accountIDs) == 0 {
		return nil
	}
	return m.directory.DetachAll(ctx, accountIDs, billID)
}

// warn turns a directory failure into a Result warning. The bill write has
// already succeeded, so the failure is logged rather than returned.
func (m *Manager) warn(err error) error {
	if err == nil {
		return nil
	}
	slog.Warn("Bill saved but account index not fully updated", "error", err)
	if !apperr.Is(err, apperr.KindIntegrity) {
		return apperr.Integrity(err, "account bill index not updated")
	}
	return err
}

func (m *Manager) observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = apperr.KindOf(err).String()
	}
	m.metrics.BillOperation(op, outcome)
}
