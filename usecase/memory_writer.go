package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/peepalabs/peepa-server/domain/entities"
	"github.com/peepalabs/peepa-server/domain/repositories"
)

const commitTimeout = 30 * time.Second

// MemoryWriter commits completed interactions off the turn's critical path.
// Submission never blocks the caller; the worker pool owns the memory
// collaborators exclusively. Failures are logged and dropped, never retried
// and never surfaced to the session (at-most-once delivery).
type MemoryWriter struct {
	memory repositories.MemoryStore
	log    repositories.InteractionRepository
	queue  chan *entities.Interaction
	logger *zap.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryWriter starts a write-back pool of the given size. Either
// collaborator may be nil, in which case that destination is skipped.
func NewMemoryWriter(
	memory repositories.MemoryStore,
	log repositories.InteractionRepository,
	workers int,
	queueSize int,
	logger *zap.Logger,
) *MemoryWriter {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 64
	}

	w := &MemoryWriter{
		memory: memory,
		log:    log,
		queue:  make(chan *entities.Interaction, queueSize),
		logger: logger,
	}
	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
	return w
}

// Submit enqueues the interaction for background commit. When the queue is
// full the record is dropped: write-back is at-most-once by contract.
func (w *MemoryWriter) Submit(interaction *entities.Interaction) {
	select {
	case w.queue <- interaction:
	default:
		w.logger.Warn("Memory write-back queue full, dropping interaction",
			zap.String("speaker", interaction.Speaker))
	}
}

// Close stops accepting work, drains the queue and waits for the workers.
func (w *MemoryWriter) Close() {
	w.closeOnce.Do(func() { close(w.queue) })
	w.wg.Wait()
}

func (w *MemoryWriter) run() {
	defer w.wg.Done()
	for interaction := range w.queue {
		w.commit(interaction)
	}
}

func (w *MemoryWriter) commit(interaction *entities.Interaction) {
	ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
	defer cancel()

	if w.memory != nil {
		id, err := w.memory.Store(ctx, interaction.Record())
		if err != nil {
			w.logger.Error("Background memory write failed", zap.Error(err))
		} else {
			w.logger.Debug("Interaction committed to memory", zap.String("memoryID", id))
		}
	}

	if w.log != nil {
		if err := w.log.Insert(ctx, interaction); err != nil {
			w.logger.Error("Interaction log write failed", zap.Error(err))
		}
	}
}
