// Package directory keeps each account's bill index consistent with the
// bills it participates in.
//
// The bills store is the source of truth. Index updates happen after the bill
// write, so they are retried a bounded number of times and any that still
// fail are reported as an integrity warning. Reconcile repairs whatever drift
// remains.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yurawu27/splittie/internal/apperr"
	"github.com/yurawu27/splittie/internal/metrics"
	"github.com/yurawu27/splittie/internal/models"
	"github.com/yurawu27/splittie/internal/storage"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoff     = 50 * time.Millisecond
)

// Syncer applies attach and detach operations to a storage.BillIndex.
type Syncer struct {
	index       storage.BillIndex
	metrics     *metrics.Metrics
	maxAttempts int
	backoff     time.Duration
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithRetry sets the attempt limit and the initial backoff between attempts.
// The backoff doubles after each failed attempt.
func WithRetry(maxAttempts int, backoff time.Duration) Option {
	return func(s *Syncer) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		if backoff >= 0 {
			s.backoff = backoff
		}
	}
}

// WithMetrics records every operation and retry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Syncer) { s.metrics = m }
}

// NewSyncer creates a Syncer writing to index.
func NewSyncer(index storage.BillIndex, opts ...Option) *Syncer {
	s := &Syncer{
		index:       index,
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach adds billID to one account's index.
func (s *Syncer) Attach(ctx context.Context, accountID, billID string) error {
	err := s.retry(ctx, func() error { return s.index.AttachBill(ctx, accountID, billID) })
	s.metrics.DirectoryOp("attach", err == nil)
	return err
}

// Detach removes billID from one account's index.
func (s *Syncer) Detach(ctx context.Context, accountID, billID string) error {
	err := s.retry(ctx, func() error { return s.index.DetachBill(ctx, accountID, billID) })
	s.metrics.DirectoryOp("detach", err == nil)
	return err
}

// AttachAll attaches billID to every account. Every account is attempted even
// when some fail; failures are returned as one Integrity error.
func (s *Syncer) AttachAll(ctx context.Context, accountIDs []string, billID string) error {
	return s.fanOut(ctx, "attach", accountIDs, billID, s.Attach)
}

// DetachAll detaches billID from every account, like AttachAll.
func (s *Syncer) DetachAll(ctx context.Context, accountIDs []string, billID string) error {
	return s.fanOut(ctx, "detach", accountIDs, billID, s.Detach)
}

func (s *Syncer) fanOut(ctx context.Context, op string, accountIDs []string, billID string,
	apply func(context.Context, string, string) error) error {
	var errs []error
	for _, id := range accountIDs {
		if err := apply(ctx, id, billID); err != nil {
			errs = append(errs, fmt.Errorf("%s account %s: %w", op, id, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}

	slog.Warn("Bill index out of sync",
		"operation", op,
		"bill_id", billID,
		"failed", len(errs),
		"accounts", len(accountIDs),
	)
	s.metrics.IntegrityWarning()
	return apperr.Integrity(errors.Join(errs...),
		"bill %s: %d of %d account indexes not updated", billID, len(errs), len(accountIDs))
}

// retry runs fn until it succeeds, the attempt limit is reached, the context
// ends, or fn reports a missing account (retrying can't fix that).
func (s *Syncer) retry(ctx context.Context, fn func() error) error {
	delay := s.backoff
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if errors.Is(err, storage.ErrNotFound) || attempt >= s.maxAttempts {
			return err
		}

		s.metrics.DirectoryRetry()
		slog.Debug("Retrying bill index update", "attempt", attempt, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
		delay *= 2
	}
}

// Source lists what Reconcile compares: every account with its current
// index, and the bills each account actually participates in.
type Source interface {
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	ListBillIDsForAccount(ctx context.Context, accountID string) ([]string, error)
}

// Report summarizes a Reconcile run.
type Report struct {
	Accounts int `json:"accounts"`
	Attached int `json:"attached"`
	Detached int `json:"detached"`
	Failed   int `json:"failed"`
}

// Reconcile rebuilds every account's index from the bills store. It attaches
// bills the account participates in but doesn't list, and detaches listed
// bills that no longer involve it (including deleted ones).
func (s *Syncer) Reconcile(ctx context.Context, src Source) (*Report, error) {
	accounts, err := src.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	report := &Report{Accounts: len(accounts)}
	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		want, err := src.ListBillIDsForAccount(ctx, account.ID)
		if err != nil {
			return report, fmt.Errorf("failed to list bills for %s: %w", account.Username, err)
		}

		wanted := make(map[string]bool, len(want))
		for _, id := range want {
			wanted[id] = true
		}
		have := make(map[string]bool, len(account.Bills))
		for _, id := range account.Bills {
			have[id] = true
			if wanted[id] {
				continue
			}
			if err := s.Detach(ctx, account.ID, id); err != nil {
				report.Failed++
				slog.Error("Failed to detach stale bill", "account", account.Username, "bill_id", id, "error", err)
				continue
			}
			report.Detached++
		}
		for _, id := range want {
			if have[id] {
				continue
			}
			if err := s.Attach(ctx, account.ID, id); err != nil {
				report.Failed++
				slog.Error("Failed to attach missing bill", "account", account.Username, "bill_id", id, "error", err)
				continue
			}
			report.Attached++
		}
	}

	slog.Info("Reconciled bill indexes",
		"accounts", report.Accounts,
		"attached", report.Attached,
		"detached", report.Detached,
		"failed", report.Failed,
	)
	if report.Failed > 0 {
		return report, apperr.Integrity(nil, "%d bill index updates failed during reconcile", report.Failed)
	}
	return report, nil
}
