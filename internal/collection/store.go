// Package collection holds the per-provider selection of resources that a user
// is putting together for a bulk download.
package collection

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/vrsandeep/stockpile-go/internal/models"
)

var (
	ErrBusy         = errors.New("collection is locked while a download is running")
	ErrLimitReached = errors.New("collection limit reached")
)

// Notifier receives user-facing messages. Implementations must not block.
type Notifier interface {
	Notify(n models.Notification)
}

// Persister keeps the serialized collection of a provider for the session.
// Load returns nil data when nothing was saved yet.
type Persister interface {
	Load(provider string) ([]byte, error)
	Save(provider string, state []byte) error
}

// Options configures a Store.
type Options[T models.Resource] struct {
	Provider  string
	Limit     int
	Identify  func(T) string // defaults to models.Identify
	Notifier  Notifier
	Persister Persister
}

// State is the persisted part of a store.
type State[T models.Resource] struct {
	Collection []T `json:"collection"`
	Limit      int `json:"limit"`
}

// Snapshot is a consistent read of the whole store.
type Snapshot[T models.Resource] struct {
	Provider   string `json:"provider"`
	Collection []T    `json:"collection"`
	Limit      int    `json:"limit"`
	Busy       bool   `json:"busy"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
}

// AddResult reports what AddMany did with its input.
type AddResult struct {
	Added      int `json:"added"`
	Duplicates int `json:"duplicates"` // already in the collection or repeated in the input
	Truncated  int `json:"truncated"`  // dropped because the limit was hit
}

// Store is a bounded, deduplicated, insertion-ordered set of resources for one
// provider, together with the counters of the download that reads it.
// While busy, every mutation is rejected.
type Store[T models.Resource] struct {
	mu        sync.Mutex
	provider  string
	limit     int
	identify  func(T) string
	notifier  Notifier
	persister Persister

	items []T
	index map[string]struct{}

	busy      bool
	succeeded int
	failed    int
}

// New creates a store and loads whatever the persister holds for the provider.
func New[T models.Resource](opts Options[T]) *Store[T] {
	if opts.Limit <= 0 {
		// Developer error during setup, same as a duplicate provider registration.
		panic(fmt.Sprintf("collection %q: limit must be positive, got %d", opts.Provider, opts.Limit))
	}
	s := &Store[T]{
		provider:  opts.Provider,
		limit:     opts.Limit,
		identify:  opts.Identify,
		notifier:  opts.Notifier,
		persister: opts.Persister,
		items:     make([]T, 0),
		index:     make(map[string]struct{}),
	}
	if s.identify == nil {
		s.identify = models.Identify[T]
	}
	s.load()
	return s
}

func (s *Store[T]) load() {
	if s.persister == nil {
		return
	}
	data, err := s.persister.Load(s.provider)
	if err != nil {
		log.Printf("Warning: could not load %s collection: %v", s.provider, err)
		return
	}
	if len(data) == 0 {
		return
	}

	var state State[T]
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("Warning: discarding unreadable %s collection: %v", s.provider, err)
		return
	}
	if state.Limit != s.limit {
		log.Printf("%s collection was saved with limit %d, using configured limit %d", s.provider, state.Limit, s.limit)
	}

	for _, r := range state.Collection {
		if len(s.items) == s.limit {
			break
		}
		id := s.identify(r)
		if _, ok := s.index[id]; ok {
			continue
		}
		s.index[id] = struct{}{}
		s.items = append(s.items, r)
	}
	log.Printf("Loaded %d resources into the %s collection", len(s.items), s.provider)
}

// saveLocked writes the collection through the persister. Failures are logged;
// the in-memory collection stays authoritative for the session.
func (s *Store[T]) saveLocked() {
	if s.persister == nil {
		return
	}
	data, err := json.Marshal(State[T]{Collection: s.items, Limit: s.limit})
	if err != nil {
		log.Printf("Warning: could not encode %s collection: %v", s.provider, err)
		return
	}
	if err := s.persister.Save(s.provider, data); err != nil {
		log.Printf("Warning: could not save %s collection: %v", s.provider, err)
	}
}

func (s *Store[T]) notify(n *models.Notification) {
	if n == nil || s.notifier == nil {
		return
	}
	n.Provider = s.provider
	if n.Time.IsZero() {
		n.Time = time.Now()
	}
	s.notifier.Notify(*n)
}

func (s *Store[T]) busyNotice() *models.Notification {
	return &models.Notification{
		Level:   models.LevelWarning,
		Code:    models.CodeBusy,
		Message: "A download is in progress, the collection cannot be changed",
	}
}

func (s *Store[T]) limitNotice() *models.Notification {
	return &models.Notification{
		Level:   models.LevelWarning,
		Code:    models.CodeLimitReached,
		Message: fmt.Sprintf("Limit reached (%d images)", s.limit),
	}
}

// AddMany appends the resources that are not in the collection yet, in input
// order, up to the remaining capacity.
func (s *Store[T]) AddMany(resources []T) (AddResult, error) {
	s.mu.Lock()
	res, note, err := s.addManyLocked(resources)
	s.mu.Unlock()

	s.notify(note)
	return res, err
}

func (s *Store[T]) addManyLocked(resources []T) (AddResult, *models.Notification, error) {
	if s.busy {
		return AddResult{}, s.busyNotice(), ErrBusy
	}

	fresh := make([]T, 0, len(resources))
	seen := make(map[string]struct{}, len(resources))
	for _, r := range resources {
		id := s.identify(r)
		if _, ok := s.index[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		fresh = append(fresh, r)
	}
	res := AddResult{Duplicates: len(resources) - len(fresh)}

	if len(s.items) >= s.limit {
		res.Truncated = len(fresh)
		return res, s.limitNotice(), ErrLimitReached
	}

	remaining := s.limit - len(s.items)
	keep := fresh
	var note *models.Notification
	if len(fresh) > remaining {
		keep = fresh[:remaining]
		res.Truncated = len(fresh) - remaining
		note = &models.Notification{
			Level:   models.LevelWarning,
			Code:    models.CodePartialAdd,
			Message: fmt.Sprintf("Only %d images were added", remaining),
		}
	}

	for _, r := range keep {
		s.index[s.identify(r)] = struct{}{}
		s.items = append(s.items, r)
	}
	res.Added = len(keep)
	if res.Added > 0 {
		s.saveLocked()
	}
	return res, note, nil
}

// Toggle removes the resource when it is selected and appends it otherwise.
// It reports whether the resource is selected afterwards.
func (s *Store[T]) Toggle(resource T) (bool, error) {
	s.mu.Lock()
	selected, note, err := s.toggleLocked(resource)
	s.mu.Unlock()

	s.notify(note)
	return selected, err
}

func (s *Store[T]) toggleLocked(resource T) (bool, *models.Notification, error) {
	if s.busy {
		return false, s.busyNotice(), ErrBusy
	}

	id := s.identify(resource)
	if _, ok := s.index[id]; ok {
		s.removeLocked(map[string]struct{}{id: {}})
		s.saveLocked()
		return false, nil, nil
	}

	if len(s.items) >= s.limit {
		return false, s.limitNotice(), ErrLimitReached
	}
	s.index[id] = struct{}{}
	s.items = append(s.items, resource)
	s.saveLocked()
	return true, nil, nil
}

// RemoveMany drops every member whose identity matches one of the resources.
// The remaining members keep their relative order.
func (s *Store[T]) RemoveMany(resources []T) (int, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		s.notify(s.busyNotice())
		return 0, ErrBusy
	}

	ids := make(map[string]struct{}, len(resources))
	for _, r := range resources {
		ids[s.identify(r)] = struct{}{}
	}
	removed := s.removeLocked(ids)
	if removed > 0 {
		s.saveLocked()
	}
	s.mu.Unlock()
	return removed, nil
}

func (s *Store[T]) removeLocked(ids map[string]struct{}) int {
	kept := s.items[:0:0]
	removed := 0
	for _, r := range s.items {
		id := s.identify(r)
		if _, ok := ids[id]; ok {
			delete(s.index, id)
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.items = kept
	return removed
}

// Clear empties the collection.
func (s *Store[T]) Clear() error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		s.notify(s.busyNotice())
		return ErrBusy
	}
	s.items = make([]T, 0)
	s.index = make(map[string]struct{})
	s.saveLocked()
	s.mu.Unlock()

	s.notify(&models.Notification{
		Level:   models.LevelInfo,
		Code:    models.CodeCleared,
		Message: "Collection cleared",
	})
	return nil
}

// --- Reads ---

func (s *Store[T]) Provider() string { return s.provider }

func (s *Store[T]) Limit() int { return s.limit }

// Items returns a copy of the collection in insertion order.
func (s *Store[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store[T]) Contains(resource T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[s.identify(resource)]
	return ok
}

// Find looks a member up by its identity key.
func (s *Store[T]) Find(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.items {
		if s.identify(r) == id {
			return r, true
		}
	}
	var zero T
	return zero, false
}

func (s *Store[T]) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Counters returns the live progress of the current or last download.
func (s *Store[T]) Counters() (succeeded, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.succeeded, s.failed
}

func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]T, len(s.items))
	copy(items, s.items)
	return Snapshot[T]{
		Provider:   s.provider,
		Collection: items,
		Limit:      s.limit,
		Busy:       s.busy,
		Succeeded:  s.succeeded,
		Failed:     s.failed,
	}
}

// --- Download primitives, called by the archive pipeline only ---

func (s *Store[T]) SetBusy(busy bool) {
	s.mu.Lock()
	s.busy = busy
	s.mu.Unlock()
}

func (s *Store[T]) IncrementSucceeded() {
	s.mu.Lock()
	s.succeeded++
	s.mu.Unlock()
}

func (s *Store[T]) IncrementFailed() {
	s.mu.Lock()
	s.failed++
	s.mu.Unlock()
}

func (s *Store[T]) ResetSucceeded() {
	s.mu.Lock()
	s.succeeded = 0
	s.mu.Unlock()
}

func (s *Store[T]) ResetFailed() {
	s.mu.Lock()
	s.failed = 0
	s.mu.Unlock()
}

// Complete marks every member as downloaded so progress reads 100%.
func (s *Store[T]) Complete() {
	s.mu.Lock()
	s.succeeded = len(s.items)
	s.mu.Unlock()
}
