// Package watch re-analyzes rune documents as they change on disk.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/theTechGoose/rune/analysis"
)

// Config configures the document watcher
type Config struct {
	// Root is the root directory to watch
	Root string

	// Extensions lists the file extensions treated as rune documents
	Extensions []string

	// Debounce is how long to wait for more changes before processing
	Debounce time.Duration

	// Analyzer options applied to each re-analysis
	Options analysis.Options

	// Logger for logging events
	Logger *slog.Logger
}

// Event represents a document change and its fresh analysis
type Event struct {
	// Path is the file path relative to the watch root
	Path string

	// Operation is the type of change
	Operation Operation

	// Result is the analysis of the new content (nil for deletes)
	Result *analysis.Result

	// Error if reading the document failed
	Error error
}

// Operation indicates the type of file operation
type Operation string

const (
	OpCreate Operation = "create"
	OpModify Operation = "modify"
	OpDelete Operation = "delete"
)

// Watcher watches for rune document changes and emits analysis results
type Watcher struct {
	config  Config
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// Debouncing: collect changes before processing
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op // path → most recent operation

	// Content hashes for change detection
	hashMu sync.RWMutex
	hashes map[string]string

	events chan Event
}

// New creates a document watcher
func New(config Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.Debounce == 0 {
		config.Debounce = 100 * time.Millisecond
	}
	if len(config.Extensions) == 0 {
		config.Extensions = []string{".rune"}
	}

	return &Watcher{
		config:  config,
		watcher: fsw,
		logger:  logger,
		pending: make(map[string]fsnotify.Op),
		hashes:  make(map[string]string),
		events:  make(chan Event, 100),
	}, nil
}

// Events returns the channel of watch events
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins watching the root for changes
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.config.Root); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Document watcher started",
		slog.String("root", w.config.Root),
		slog.Duration("debounce", w.config.Debounce))
	return nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	close(w.events)
	return w.watcher.Close()
}

// Prime analyzes every document under the root once and records content
// hashes so unchanged writes are skipped later.
func (w *Watcher) Prime(ctx context.Context) ([]Event, error) {
	var initial []Event
	err := filepath.Walk(w.config.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !w.isDocument(path) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, _ := filepath.Rel(w.config.Root, path)
		data, err := os.ReadFile(path)
		if err != nil {
			initial = append(initial, Event{Path: rel, Operation: OpCreate, Error: err})
			return nil
		}
		w.setHash(rel, contentHash(data))
		initial = append(initial, Event{
			Path:      rel,
			Operation: OpCreate,
			Result:    analysis.AnalyzeWith(string(data), w.config.Options),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return initial, nil
}

func (w *Watcher) isDocument(path string) bool {
	ext := filepath.Ext(path)
	for _, want := range w.config.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// addWatchesRecursive adds watches to all directories
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}

		// Skip hidden directories
		base := filepath.Base(path)
		if base != "." && strings.HasPrefix(base, ".") {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				slog.String("path", path),
				slog.String("error", err.Error()))
		} else {
			w.logger.Debug("Watching directory", slog.String("path", path))
		}
		return nil
	})
}

// processEvents handles fsnotify events with debouncing
func (w *Watcher) processEvents(ctx context.Context) {
	ticker := time.NewTicker(w.config.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// handleFSEvent processes a single fsnotify event
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if !w.isDocument(path) {
		// Handle directory creation for new watches
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.handleNewDirectory(path)
			}
		}
		return
	}

	w.pendingMu.Lock()
	w.pending[path] = event.Op
	w.pendingMu.Unlock()

	rel, _ := filepath.Rel(w.config.Root, path)
	w.logger.Debug("Document change detected",
		slog.String("path", rel),
		slog.String("op", event.Op.String()))
}

// handleNewDirectory adds a watch to a newly created directory
func (w *Watcher) handleNewDirectory(path string) {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}
	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("Failed to watch new directory",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}

// flushPending analyzes accumulated changes
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rel, _ := filepath.Rel(w.config.Root, path)
		event := Event{Path: rel}

		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			event.Operation = OpDelete
			w.dropHash(rel)
			w.sendEvent(event)
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			event.Operation = OpDelete
			w.dropHash(rel)
			w.sendEvent(event)
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			event.Error = err
			w.sendEvent(event)
			continue
		}

		// Skip writes that did not change content
		hash := contentHash(data)
		oldHash, hadHash := w.getHash(rel)
		if hadHash && oldHash == hash {
			continue
		}
		w.setHash(rel, hash)

		if op.Has(fsnotify.Create) || !hadHash {
			event.Operation = OpCreate
		} else {
			event.Operation = OpModify
		}
		event.Result = analysis.AnalyzeWith(string(data), w.config.Options)
		w.sendEvent(event)
	}
}

// sendEvent sends an event to the output channel
func (w *Watcher) sendEvent(event Event) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event",
			slog.String("path", event.Path),
			slog.String("op", string(event.Operation)))
	default:
		w.logger.Warn("Event channel full, dropping event",
			slog.String("path", event.Path))
	}
}

func (w *Watcher) setHash(path, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[path] = hash
}

func (w *Watcher) getHash(path string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	hash, ok := w.hashes[path]
	return hash, ok
}

func (w *Watcher) dropHash(path string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	delete(w.hashes, path)
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
