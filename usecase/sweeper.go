package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bayramdkmn/notepad-intern/model"
)

// SweepResult is what a single retention pass removed.
type SweepResult struct {
	PurgedNotes   int
	PurgedTokens  int64
	Cutoff        time.Time
	FinishedAfter time.Duration
}

// RetentionSweeper hard-deletes notes soft-deleted longer than Window ago.
type RetentionSweeper struct {
	Tx       TxManager
	Notes    NoteRepository
	NoteTags NoteTagRepository
	History  NoteVersionRepository
	Ledger   *TokenLedger
	Window   time.Duration
	Interval time.Duration
	Logger   *slog.Logger
	Now      func() time.Time

	// OnSweep, when set, observes every pass.
	OnSweep func(SweepResult, error)
}

// SweepOnce purges expired notes, their tag associations and versions in one
// transaction, then drops expired refresh token records.
func (s *RetentionSweeper) SweepOnce(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	now := clock(s.Now)
	cutoff := now.Add(-s.Window)
	result := SweepResult{Cutoff: cutoff}

	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		expired, err := s.Notes.Find(ctx, model.NoteFilter{DeletedBefore: &cutoff})
		if err != nil {
			return err
		}
		ids := make([]string, len(expired))
		for i, n := range expired {
			ids[i] = n.ID
		}
		if err := purgeNotes(ctx, s.Notes, s.NoteTags, s.History, ids); err != nil {
			return err
		}
		result.PurgedNotes = len(ids)
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("purge notes: %w", err)
	}

	if s.Ledger != nil {
		if result.PurgedTokens, err = s.Ledger.PurgeExpired(ctx); err != nil {
			return result, fmt.Errorf("purge expired tokens: %w", err)
		}
	}
	result.FinishedAfter = time.Since(start)
	return result, nil
}

// Run sweeps once immediately and then every Interval until ctx is done. A
// failed or panicking pass is logged and the next tick tries again.
func (s *RetentionSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.runPass(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.runPass(ctx)
		}
	}
}

func (s *RetentionSweeper) runPass(ctx context.Context) {
	var (
		result SweepResult
		err    error
	)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sweep panicked: %v", r)
		}
		s.report(ctx, result, err)
	}()
	result, err = s.SweepOnce(ctx)
}

func (s *RetentionSweeper) report(ctx context.Context, result SweepResult, err error) {
	if s.OnSweep != nil {
		s.OnSweep(result, err)
	}
	if s.Logger == nil {
		return
	}
	if err != nil {
		s.Logger.ErrorContext(ctx, "retention sweep failed", "error", err)
		return
	}
	s.Logger.InfoContext(ctx, "retention sweep finished",
		"purged_notes", result.PurgedNotes,
		"purged_tokens", result.PurgedTokens,
		"cutoff", result.Cutoff,
		"duration", result.FinishedAfter,
	)
}
