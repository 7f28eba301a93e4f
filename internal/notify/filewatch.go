package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/focusforge/internal/foundation/errors"
	"git.home.luguber.info/inful/focusforge/internal/logfields"
	"git.home.luguber.info/inful/focusforge/internal/storage"
)

// FileOrigin marks changes observed on disk, whose writer is unknown.
const FileOrigin = "file"

// FileWatch delivers changes made by other processes to a shared storage.FSStore
// directory. Broadcast does not send anything itself (the file write is the
// message); it remembers the bytes this context wrote so the resulting file event
// is not delivered back as a foreign change.
type FileWatch struct {
	dir     string
	watcher *fsnotify.Watcher
	reg     *registry
	cancel  context.CancelFunc
	done    chan struct{}
	closed  atomic.Bool

	mu       sync.Mutex
	selfSent map[string][]byte // last value this context wrote per key
	lastSeen map[string]seenValue
	pending  map[string]*time.Timer
}

// seenValue is the last value delivered or suppressed for a key.
type seenValue struct {
	data []byte
	at   time.Time
}

// NewFileWatch starts watching dir until ctx is done or Close is called.
func NewFileWatch(ctx context.Context, dir string, opts ...Option) (*FileWatch, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNotify, "failed to create file watcher").Build()
	}
	// Watch the directory rather than single files: atomic renames replace the inode.
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryNotify, "failed to watch data directory").
			WithContext("dir", dir).
			Build()
	}

	ctx, cancel := context.WithCancel(ctx)
	fw := &FileWatch{
		dir:      dir,
		watcher:  watcher,
		reg:      newRegistry("file", buildOptions(opts)),
		cancel:   cancel,
		done:     make(chan struct{}),
		selfSent: make(map[string][]byte),
		lastSeen: make(map[string]seenValue),
		pending:  make(map[string]*time.Timer),
	}
	go fw.watchLoop(ctx)

	fw.reg.opts.logger.Debug("Started data directory watcher", logfields.Path(dir))
	return fw, nil
}

func (fw *FileWatch) Broadcast(_ context.Context, c Change) error {
	if fw.closed.Load() {
		return ferrors.NotifyError("notifier is closed").WithContext("transport", "file").Build()
	}
	fw.mu.Lock()
	fw.selfSent[c.Key] = append([]byte(nil), c.NewValue...)
	fw.mu.Unlock()
	fw.reg.opts.recorder.IncNotification("file", "sent")
	return nil
}

func (fw *FileWatch) Subscribe(key string, h Handler) func() {
	return fw.reg.subscribe(key, h)
}

func (fw *FileWatch) Close() error {
	if fw.closed.Swap(true) {
		return nil
	}
	fw.cancel()
	err := fw.watcher.Close()
	<-fw.done

	fw.mu.Lock()
	for _, t := range fw.pending {
		t.Stop()
	}
	fw.mu.Unlock()
	fw.reg.close()
	return err
}

func (fw *FileWatch) watchLoop(ctx context.Context) {
	defer close(fw.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			key, ok := storage.KeyFromPath(event.Name)
			if !ok {
				continue
			}
			fw.schedule(key)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.reg.opts.logger.Error("Data directory watcher error", logfields.Path(fw.dir), logfields.Error(err))
		}
	}
}

// schedule debounces bursts of events for one key into a single read.
func (fw *FileWatch) schedule(key string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if t, ok := fw.pending[key]; ok {
		t.Stop()
	}
	fw.pending[key] = time.AfterFunc(fw.reg.opts.debounce, func() { fw.deliver(key) })
}

func (fw *FileWatch) deliver(key string) {
	if fw.closed.Load() {
		return
	}
	fw.mu.Lock()
	delete(fw.pending, key)
	fw.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(fw.dir, key+storage.FileExt))
	if err != nil {
		if !os.IsNotExist(err) {
			fw.reg.opts.logger.Warn("Failed to read changed slot", logfields.Key(key), logfields.Error(err))
		}
		return
	}

	now := time.Now()
	fw.mu.Lock()
	// Late events of a write already handled carry the same bytes. Identical
	// bytes written again after the window are a new write and are delivered.
	if prev, ok := fw.lastSeen[key]; ok && bytes.Equal(prev.data, data) && now.Sub(prev.at) < fw.reg.opts.debounce {
		fw.mu.Unlock()
		return
	}
	fw.lastSeen[key] = seenValue{data: data, at: now}
	if self, ok := fw.selfSent[key]; ok && bytes.Equal(self, data) {
		delete(fw.selfSent, key)
		fw.mu.Unlock()
		return
	}
	fw.mu.Unlock()

	value := json.RawMessage(data)
	if !json.Valid(data) {
		value = nil
	}
	fw.reg.dispatch(Change{Key: key, NewValue: value, Origin: FileOrigin, At: now.UTC()})
}
