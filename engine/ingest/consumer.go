package ingest

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/LexGuardAI/lexguard-mvp/pkg/natsutil"
)

const (
	// ReindexSubject carries reindex requests.
	ReindexSubject = "lexguard.reindex"
	// ReindexDoneSubject announces completed reindex runs.
	ReindexDoneSubject = "lexguard.reindex.done"
)

// ReindexDone is published after a reindex run finishes.
type ReindexDone struct {
	DocsDir string `json:"docs_dir"`
	Chunks  int    `json:"chunks"`
	Error   string `json:"error,omitempty"`
}

// StartConsumer subscribes to reindex requests and runs each through the
// pipeline. OnComplete, when set, runs after a successful pipeline pass and
// is where the file backend persists its index.
func StartConsumer(nc *nats.Conn, deps Deps, onComplete func(context.Context) error) (*nats.Subscription, error) {
	pipeline := NewPipeline(deps)
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	return natsutil.Subscribe(nc, ReindexSubject, func(ctx context.Context, job Job) {
		result := pipeline(ctx, job)
		done := ReindexDone{DocsDir: job.DocsDir}

		if result.IsErr() {
			_, err := result.Unwrap()
			log.Error("reindex failed", "docs_dir", job.DocsDir, "error", err)
			done.Error = err.Error()
		} else {
			count := result.UnwrapOr(0)
			done.Chunks = count
			if onComplete != nil {
				if err := onComplete(ctx); err != nil {
					log.Error("reindex persist failed", "docs_dir", job.DocsDir, "error", err)
					done.Error = err.Error()
				}
			}
			if done.Error == "" {
				log.Info("reindex complete", "docs_dir", job.DocsDir, "chunks", count)
			}
		}

		if err := natsutil.Publish(ctx, nc, ReindexDoneSubject, done); err != nil {
			log.Warn("reindex done publish failed", "error", err)
		}
	})
}
