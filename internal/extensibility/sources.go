package extensibility

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Submitter accepts serialized automaton definitions. realtime.Scheduler
// implements it.
type Submitter interface {
	SubmitDefinition(data []byte) (string, error)
}

// ChannelSource forwards definitions received on a channel.
type ChannelSource struct {
	ch  <-chan []byte
	log *slog.Logger
}

// NewChannelSource creates a ChannelSource reading ch.
func NewChannelSource(ch <-chan []byte, log *slog.Logger) *ChannelSource {
	if log == nil {
		log = slog.Default()
	}
	return &ChannelSource{ch: ch, log: log}
}

// Run forwards definitions to sub until ctx is done or the channel closes.
func (s *ChannelSource) Run(ctx context.Context, sub Submitter) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data, ok := <-s.ch:
			if !ok {
				return nil
			}
			if id, err := sub.SubmitDefinition(data); err != nil {
				s.log.Warn("definition not submitted", "error", err)
			} else {
				s.log.Debug("definition submitted", "job", id)
			}
		}
	}
}

// DefaultDebounce suppresses repeated events for one file.
const DefaultDebounce = 100 * time.Millisecond

// DirectorySource watches directories and submits definition files
// (.yaml, .yml, .json) whenever they are written or created.
type DirectorySource struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      *slog.Logger
	once     sync.Once
}

// NewDirectorySource watches dirs.
func NewDirectorySource(log *slog.Logger, dirs ...string) (*DirectorySource, error) {
	if log == nil {
		log = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	return &DirectorySource{watcher: w, debounce: DefaultDebounce, log: log}, nil
}

// SetDebounce changes the per-file debounce interval. Call before Run.
func (s *DirectorySource) SetDebounce(d time.Duration) { s.debounce = d }

// Close stops watching.
func (s *DirectorySource) Close() error {
	var err error
	s.once.Do(func() { err = s.watcher.Close() })
	return err
}

// Run submits changed definition files to sub until ctx is done.
func (s *DirectorySource) Run(ctx context.Context, sub Submitter) error {
	defer s.Close()
	last := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !IsDefinitionFile(event.Name) {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < s.debounce {
				continue
			}
			if s.submit(event.Name, sub) {
				last[event.Name] = now
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Error("watch error", "error", err)
		}
	}
}

// submit reports whether path was read and handed to sub. Files still
// being created read empty and are retried on the next write.
func (s *DirectorySource) submit(path string, sub Submitter) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Error("read definition", "path", path, "error", err)
		}
		return false
	}
	if len(data) == 0 {
		return false
	}
	id, err := sub.SubmitDefinition(data)
	if err != nil {
		s.log.Warn("definition not submitted", "path", path, "error", err)
		return false
	}
	s.log.Info("definition submitted", "path", path, "job", id)
	return true
}

// IsDefinitionFile reports whether path has a definition extension.
func IsDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
