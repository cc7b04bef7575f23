package topo

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dangerclosesec/topo/internal/metrics"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

var (
	log = stdlog.New(os.Stdout, "\033[38;5;239m[ \033[35;5;214mstore  \033[38;5;239m] \033[0m", stdlog.LstdFlags|stdlog.Lmsgprefix|stdlog.Lmicroseconds)
)

// EventType classifies what a reload attempt did to the served document.
type EventType string

const (
	// EventCurrent is sent once to a new subscriber with the served version.
	EventCurrent EventType = "current"
	// EventReloaded means the document changed on disk and replaced the
	// served one.
	EventReloaded EventType = "reloaded"
	// EventInvalid means the on-disk document failed to parse or
	// validate; the last good one stays served.
	EventInvalid EventType = "invalid"
)

// Event describes one reload attempt.
type Event struct {
	Type    EventType `json:"type"`
	Version int       `json:"version"`
	Time    time.Time `json:"time"`
	Error   string    `json:"error,omitempty"`
}

// HealthStatus represents the state of the served document
type HealthStatus struct {
	Healthy       bool      `json:"healthy"`
	Service       string    `json:"service,omitempty"`
	Version       int       `json:"version"`
	Pods          int       `json:"pods"`
	LastReload    time.Time `json:"last_reload"`
	LastError     error     `json:"-"`
	LastErrorTime time.Time `json:"last_error_time,omitempty"`
	LastErrorStr  string    `json:"last_error,omitempty"`
	Watching      bool      `json:"watching"`
}

// Store serves one topology document from disk. It holds the last good
// parse, optionally watches the file for rewrites, and fans reload
// events out to subscribers. A rewrite that fails to parse or validate
// never replaces the served document.
type Store struct {
	Path      string
	Ctx       context.Context
	ErrorChan chan *Error

	mu          sync.RWMutex
	spec        *ServiceSpec
	raw         []byte
	version     int
	loadedAt    time.Time
	lastErr     error
	lastErrAt   time.Time
	subscribers map[string]chan Event
	watcher     *fsnotify.Watcher
	watch       bool
	done        chan struct{}
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

type Option func(*Store) error

// WithWatcher enables reloading the document when the file is rewritten.
func WithWatcher() Option {
	return func(s *Store) error {
		s.watch = true
		return nil
	}
}

// NewStore loads the document at path and returns a store serving it.
// The initial load must parse and validate; after that, a watching
// store survives bad rewrites by keeping the last good document.
func NewStore(ctx context.Context, path string, options ...Option) (*Store, error) {
	s := &Store{
		Path:        path,
		Ctx:         ctx,
		ErrorChan:   make(chan *Error, 100),
		subscribers: make(map[string]chan Event),
		done:        make(chan struct{}),
	}

	for _, o := range options {
		if err := o(s); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	if s.watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("failed to create watcher: %w", err)
		}
		// Watch the directory: editors and config pushers typically
		// replace the file rather than write it in place.
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
		}
		s.watcher = watcher

		s.wg.Add(1)
		go s.watchLoop()
		log.Printf("Watching %s for changes", path)
	}

	return s, nil
}

// Spec returns the currently served document.
func (s *Store) Spec() *ServiceSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spec
}

// Raw returns the bytes the served document was parsed from.
func (s *Store) Raw() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.raw
}

// Version returns the served document version, starting at 1 and
// incremented on every successful reload.
func (s *Store) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// GetHealth returns the current health of the store.
func (s *Store) GetHealth() HealthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	health := HealthStatus{
		Healthy:    s.spec != nil,
		Version:    s.version,
		LastReload: s.loadedAt,
		Watching:   s.watch,
	}
	if s.spec != nil {
		health.Service = s.spec.Name
		health.Pods = len(s.spec.Pods)
	}
	if s.lastErr != nil {
		health.LastError = s.lastErr
		health.LastErrorTime = s.lastErrAt
		health.LastErrorStr = s.lastErr.Error()
	}
	return health
}

// Subscribe registers an event channel and returns its id and the
// channel. Slow subscribers miss events rather than stall the store.
// After Close the returned channel is already closed.
func (s *Store) Subscribe() (string, <-chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan Event, 16)

	select {
	case <-s.done:
		// Close has already released the subscriber table; a late
		// registration would never be closed.
		close(ch)
		return id, ch
	default:
	}

	s.subscribers[id] = ch
	metrics.WatchClients.Inc()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *Store) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subscribers[id]; ok {
		delete(s.subscribers, id)
		close(ch)
		metrics.WatchClients.Dec()
	}
}

// Close stops watching and releases every subscriber.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.done)

		if s.watcher != nil {
			if err := s.watcher.Close(); err != nil {
				log.Printf("Error closing watcher: %v", err)
			}
		}
		s.wg.Wait()

		s.mu.Lock()
		for id, ch := range s.subscribers {
			delete(s.subscribers, id)
			close(ch)
			metrics.WatchClients.Dec()
		}
		s.mu.Unlock()

		close(s.ErrorChan)
		log.Println("Store closed")
	})
}

// load reads, parses, and validates the document, swapping it in on
// success.
func (s *Store) load() error {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return fmt.Errorf("failed to read service document: %w", err)
	}

	spec, err := Parse(data)
	if err != nil {
		return err
	}

	if err := spec.Validate(); err != nil {
		return fmt.Errorf("%s is invalid: %w", s.Path, err)
	}

	s.mu.Lock()
	s.spec = spec
	s.raw = data
	s.version++
	s.loadedAt = time.Now()
	s.mu.Unlock()

	return nil
}

// reload is load plus failure handling: a bad document keeps the last
// good one in place and is reported through events and the error
// channel.
func (s *Store) reload() {
	if err := s.load(); err != nil {
		metrics.DocumentReloads.WithLabelValues("invalid").Inc()

		s.mu.Lock()
		s.lastErr = err
		s.lastErrAt = time.Now()
		s.mu.Unlock()

		s.handleError(ErrDocument, "Failed to reload service document", err)
		s.publish(Event{Type: EventInvalid, Version: s.Version(), Time: time.Now(), Error: err.Error()})
		log.Printf("Keeping version %d, rejected rewrite of %s: %v", s.Version(), s.Path, err)
		return
	}

	metrics.DocumentReloads.WithLabelValues("reloaded").Inc()

	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()

	s.publish(Event{Type: EventReloaded, Version: s.Version(), Time: time.Now()})
	log.Printf("Reloaded %s, now serving version %d", s.Path, s.Version())
}

func (s *Store) watchLoop() {
	defer s.wg.Done()

	target := filepath.Clean(s.Path)

	for {
		select {
		case <-s.done:
			return
		case <-s.Ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			s.reload()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.handleError(ErrWatch, "Watcher error", err)
		}
	}
}

// publish fans an event out to every subscriber without blocking.
func (s *Store) publish(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// handleError processes an error by creating a new Error instance and
// sending it to the ErrorChan channel. It returns the created Error
// instance.
func (s *Store) handleError(errType ErrorType, message string, err error) error {
	docErr := NewError(errType, message, err)
	select {
	case s.ErrorChan <- docErr:
	default:
	}
	return docErr
}
