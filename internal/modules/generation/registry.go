package generation

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Registry admits at most one active run per submission. Acquire either
// claims the submission or fails with ErrRunInProgress.
type Registry interface {
	Acquire(ctx context.Context, submissionID uuid.UUID) (Lease, error)
}

// Lease is one run's claim on a submission.
type Lease interface {
	// Lost is closed if the claim is taken away before Release.
	Lost() <-chan struct{}
	// Confirm returns ErrLeaseLost unless the claim is still held.
	Confirm(ctx context.Context) error
	// Release gives the claim up. It is idempotent.
	Release()
}

type MemoryRegistry struct {
	mu     sync.Mutex
	active map[uuid.UUID]uuid.UUID
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{active: make(map[uuid.UUID]uuid.UUID)}
}

func (r *MemoryRegistry) Acquire(ctx context.Context, submissionID uuid.UUID) (Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.active[submissionID]; busy {
		return nil, ErrRunInProgress
	}
	token := uuid.New()
	r.active[submissionID] = token
	return &memoryLease{reg: r, submissionID: submissionID, token: token, lost: make(chan struct{})}, nil
}

func (r *MemoryRegistry) Active(submissionID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[submissionID]
	return ok
}

// memoryLease cannot be lost while the process lives; Lost never closes.
type memoryLease struct {
	reg          *MemoryRegistry
	submissionID uuid.UUID
	token        uuid.UUID
	lost         chan struct{}
	once         sync.Once
}

func (l *memoryLease) Lost() <-chan struct{} { return l.lost }

func (l *memoryLease) Confirm(ctx context.Context) error {
	l.reg.mu.Lock()
	defer l.reg.mu.Unlock()
	if l.reg.active[l.submissionID] != l.token {
		return ErrLeaseLost
	}
	return nil
}

func (l *memoryLease) Release() {
	l.once.Do(func() {
		l.reg.mu.Lock()
		defer l.reg.mu.Unlock()
		if l.reg.active[l.submissionID] == l.token {
			delete(l.reg.active, l.submissionID)
		}
	})
}
