package singleton

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnknownSingleton is returned by ResolveByName for a name that was
	// never requested in the namespace.
	ErrUnknownSingleton = errors.New("unknown singleton")

	// ErrDoubleCompletion is returned when a record is completed twice. It
	// guards against re-entrant construction bugs.
	ErrDoubleCompletion = errors.New("singleton completed twice")

	// ErrAborted is returned from Wait when the claiming pass rolled the
	// record back before completing it. The name is free again; a retry gets
	// a fresh placeholder.
	ErrAborted = errors.New("singleton construction aborted")
)

// Record is one instance slot within a namespace. It is created either as a
// placeholder (value pending) or observed already materialized. A Record is
// also the handle dependents hold while the value is still pending.
type Record struct {
	// Namespace and Name form the singleton key, fixed at creation.
	Namespace string
	Name      string

	done chan struct{}

	mu           sync.Mutex
	schema       string
	claimed      bool
	value        any
	materialized bool
	aborted      bool
	backfills    []func(any) error
}

func newRecord(namespace, name string) *Record {
	return &Record{Namespace: namespace, Name: name, done: make(chan struct{})}
}

// Schema returns the schema identifier of the instance request that claimed
// this record, empty while only forward references have seen it.
func (r *Record) Schema() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.schema
}

// TryClaim marks the record as owned by one construction attempt. Exactly one
// caller per record wins; everyone else either waits for completion or holds
// the record as a handle.
func (r *Record) TryClaim(schema string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claimed || r.materialized || r.aborted {
		return false
	}
	r.claimed = true
	r.schema = schema
	return true
}

// Claimed reports whether some construction attempt owns the record.
func (r *Record) Claimed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.claimed
}

// Materialized reports the value and whether it has been completed yet.
func (r *Record) Materialized() (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.materialized
}

// Wait blocks until the record completes, its claiming pass aborts, or the
// context is canceled. Used when a concurrent pass has claimed the record;
// the claiming pass must never wait on its own records.
func (r *Record) Wait(ctx context.Context) (any, error) {
	select {
	case <-r.done:
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.aborted {
			return nil, fmt.Errorf("%w: %q in namespace %q", ErrAborted, r.Name, r.Namespace)
		}
		return r.value, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OnComplete registers fn to run once the record's value lands. If the
// record is already materialized, fn runs immediately. Completion and
// callback registration are serialized, so fn runs exactly once. Errors from
// fn surface through Complete so a mistyped forward reference still fails
// the pass that completes it.
func (r *Record) OnComplete(fn func(any) error) error {
	r.mu.Lock()
	if r.aborted {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q in namespace %q", ErrAborted, r.Name, r.Namespace)
	}
	if r.materialized {
		v := r.value
		r.mu.Unlock()
		return fn(v)
	}
	r.backfills = append(r.backfills, fn)
	r.mu.Unlock()
	return nil
}

// fail marks an unmaterialized record as abandoned and releases its waiters.
// Safe to call more than once; a no-op once the record has a value.
func (r *Record) fail() {
	r.mu.Lock()
	if r.materialized || r.aborted {
		r.mu.Unlock()
		return
	}
	r.aborted = true
	r.claimed = false
	r.backfills = nil
	r.mu.Unlock()
	close(r.done)
}

// complete fills the record exactly once and runs pending backfills.
func (r *Record) complete(value any) error {
	r.mu.Lock()
	if r.aborted {
		r.mu.Unlock()
		return fmt.Errorf("completing aborted singleton %q in namespace %q", r.Name, r.Namespace)
	}
	if r.materialized {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q in namespace %q", ErrDoubleCompletion, r.Name, r.Namespace)
	}
	r.value = value
	r.materialized = true
	pending := r.backfills
	r.backfills = nil
	r.mu.Unlock()
	close(r.done)

	var errs []error
	for _, fn := range pending {
		if err := fn(value); err != nil {
			errs = append(errs, fmt.Errorf("backfill of %q: %w", r.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Registry maps (namespace, name) to instance records. It is the only shared
// mutable state between concurrent resolution passes, so the check-then-create
// in GetOrCreatePlaceholder runs under a single lock scope.
type Registry struct {
	mu         sync.Mutex
	namespaces map[string]map[string]*Record
}

// NewRegistry creates an empty singleton registry.
func NewRegistry() *Registry {
	return &Registry{namespaces: make(map[string]map[string]*Record)}
}

// GetOrCreatePlaceholder returns the record for (namespace, name), creating
// an unmaterialized one if absent. The second return value reports whether
// the record was created by this call.
func (s *Registry) GetOrCreatePlaceholder(namespace, name string) (*Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = make(map[string]*Record)
		s.namespaces[namespace] = ns
	}
	if rec, ok := ns[name]; ok {
		return rec, false
	}
	rec := newRecord(namespace, name)
	ns[name] = rec
	return rec, true
}

// Complete fills a placeholder's value exactly once.
func (s *Registry) Complete(rec *Record, value any) error {
	return rec.complete(value)
}

// ResolveByName returns the record for an already-requested name.
func (s *Registry) ResolveByName(namespace, name string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ns, ok := s.namespaces[namespace]; ok {
		if rec, ok := ns[name]; ok {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("%w: %q in namespace %q", ErrUnknownSingleton, name, namespace)
}

// DropNamespace discards every record in a namespace. Namespace lifetime is
// the caller's policy; the registry never expires records on its own.
func (s *Registry) DropNamespace(namespace string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.namespaces, namespace)
}

// Remove deletes a single record, used to roll back placeholders created by
// an aborted pass. A materialized record is left in place. Passes blocked in
// Wait on the removed record are released with ErrAborted so they do not
// outwait a claimant that will never complete.
func (s *Registry) Remove(rec *Record) {
	if _, done := rec.Materialized(); done {
		return
	}
	s.mu.Lock()
	if ns, ok := s.namespaces[rec.Namespace]; ok {
		if cur, ok := ns[rec.Name]; ok && cur == rec {
			delete(ns, rec.Name)
		}
	}
	s.mu.Unlock()
	rec.fail()
}
