package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ppiankov/rollcall/internal/logging"
	"github.com/ppiankov/rollcall/internal/model"
	"github.com/ppiankov/rollcall/internal/pipeline"
	"github.com/ppiankov/rollcall/internal/store"
)

// session is an open store guarded by the run lock
type session struct {
	cfg      *model.Config
	store    *store.SQLite
	lock     *pipeline.RunLock
	pipeline *pipeline.Pipeline
}

func openSession(ctx context.Context, cfg *model.Config) (*session, error) {
	lock := pipeline.NewRunLock(cfg.Store.Path)
	if err := lock.Acquire(); err != nil {
		return nil, err
	}

	db, err := store.OpenSQLite(ctx, cfg.Store.Path)
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("open store: %w", err)
	}

	p, err := pipeline.NewPipeline(ctx, cfg, db, pipeline.WithDryRun(dryRun))
	if err != nil {
		_ = db.Close()
		_ = lock.Release()
		return nil, err
	}

	return &session{cfg: cfg, store: db, lock: lock, pipeline: p}, nil
}

func (s *session) Close(ctx context.Context) {
	log := logging.FromContext(ctx)
	if err := s.store.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close store")
	}
	if err := s.lock.Release(); err != nil {
		log.Warn().Err(err).Str("lock", s.lock.Path()).Msg("failed to release run lock")
	}
}

const rule = "═══════════════════════════════════════════════════════════"

func banner(title string, lines ...[2]string) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintln(os.Stderr, rule)
	fmt.Fprintf(os.Stderr, "  %s\n", title)
	fmt.Fprintln(os.Stderr, rule)
	fmt.Fprintf(os.Stderr, "\n")
	for _, l := range lines {
		fmt.Fprintf(os.Stderr, "  %-13s %s\n", l[0]+":", l[1])
	}
	if dryRun {
		fmt.Fprintf(os.Stderr, "  %-13s %s\n", "Mode:", "dry run (nothing is written)")
	}
	fmt.Fprintf(os.Stderr, "\n")
}
