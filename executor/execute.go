// Package executor dispatches named keyforge operations onto a bounded worker pool.
//
// Every operation takes JSON arguments and returns a JSON-serializable result. The
// Executor limits how many operations run at once, applies an optional per-operation
// timeout and lets callers abandon a running operation through its context. Key
// generation cannot be interrupted, so an abandoned operation keeps its worker slot
// until it actually returns.
package executor

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/joncooperworks/keyforge/crypto/keystore"
)

// ExecuteRequest names an operation and carries its arguments.
type ExecuteRequest struct {
	// Operation is a registered operation name, e.g. "generate_jwk".
	Operation string `json:"operation"`
	// Args is the operation's JSON argument object. Empty means no arguments.
	Args json.RawMessage `json:"args,omitempty"`
}

// ExecuteResult is the outcome of a successful operation.
type ExecuteResult struct {
	// Operation is the operation that ran.
	Operation string `json:"operation"`
	// Result is the operation's return value. Byte slices marshal as base64.
	Result any `json:"result"`
	// Duration is the wall time the operation took once it had a worker.
	Duration time.Duration `json:"duration"`
}

// Executor runs operations with bounded concurrency.
type Executor struct {
	slots   chan struct{}
	env     Env
	timeout time.Duration
	logger  zerolog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithWorkers sets the number of operations that may run at once. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.slots = make(chan struct{}, n)
		}
	}
}

// WithRand replaces crypto/rand.Reader as the randomness source.
func WithRand(r io.Reader) Option {
	return func(e *Executor) { e.env.Rand = r }
}

// WithKeystore enables the key storage operations.
func WithKeystore(ks keystore.Keystore) Option {
	return func(e *Executor) { e.env.Keystore = ks }
}

// WithTimeout bounds every operation. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// New creates an Executor with GOMAXPROCS workers and crypto/rand.Reader unless overridden.
func New(opts ...Option) *Executor {
	e := &Executor{
		slots:  make(chan struct{}, runtime.GOMAXPROCS(0)),
		env:    Env{Rand: rand.Reader},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type outcome struct {
	value any
	err   error
}

// Execute runs req on a worker and waits for it.
//
// It returns early with the context's error if ctx is done before a worker is free or
// before the operation finishes. Operation errors are returned unchanged so callers can
// match them with errors.Is.
func (e *Executor) Execute(ctx context.Context, req *ExecuteRequest) (*ExecuteResult, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}
	if req.Operation == "" {
		return nil, errors.New("operation cannot be empty")
	}
	op, err := GetOperation(req.Operation)
	if err != nil {
		return nil, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	log := e.logger.With().Str("operation", req.Operation).Logger()

	select {
	case e.slots <- struct{}{}:
	case <-ctx.Done():
		log.Warn().Err(ctx.Err()).Msg("operation not started")
		return nil, fmt.Errorf("operation %s not started: %w", req.Operation, ctx.Err())
	}

	log.Debug().Msg("operation started")
	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		defer func() { <-e.slots }()
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("operation %s panicked: %v", req.Operation, r)}
			}
		}()
		value, err := op(ctx, &e.env, req.Args)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		elapsed := time.Since(start)
		if out.err != nil {
			log.Error().Err(out.err).Dur("duration", elapsed).Msg("operation failed")
			return nil, out.err
		}
		log.Info().Dur("duration", elapsed).Msg("operation finished")
		return &ExecuteResult{Operation: req.Operation, Result: out.value, Duration: elapsed}, nil
	case <-ctx.Done():
		log.Warn().Err(ctx.Err()).Dur("duration", time.Since(start)).Msg("operation abandoned")
		return nil, fmt.Errorf("operation %s abandoned: %w", req.Operation, ctx.Err())
	}
}
