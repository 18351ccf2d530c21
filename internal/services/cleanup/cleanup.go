package cleanup

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Service removes temp files left in the samples root by interrupted atomic
// writes. Lock files are never touched since another process may hold them.
type Service struct {
	root            string
	maxAge          time.Duration
	cleanupInterval time.Duration
	log             *zap.Logger
	now             func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service
func NewService(root string, maxAge, cleanupInterval time.Duration, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		root:            root,
		maxAge:          maxAge,
		cleanupInterval: cleanupInterval,
		log:             log,
		now:             time.Now,
	}
}

// IsTempFile reports whether name follows the atomic write temp pattern
func IsTempFile(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, ".tmp")
}

// Start runs one sweep and then repeats it every interval until ctx ends or
// Stop is called
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.Sweep()

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-ctx.Done():
				s.log.Debug("cleanup service stopped")
				return
			}
		}
	}()

	s.log.Info("cleanup service started",
		zap.Duration("interval", s.cleanupInterval),
		zap.Duration("max_age", s.maxAge))
}

// Stop stops the cleanup service and waits for the loop to exit
func (s *Service) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Sweep removes expired temp files once and returns how many were removed
func (s *Service) Sweep() int {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return 0
	}

	removed := 0
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip entries with errors
		}
		if d.IsDir() || !IsTempFile(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil || s.now().Sub(info.ModTime()) <= s.maxAge {
			return nil
		}

		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.log.Warn("failed to remove temp file", zap.String("path", path), zap.Error(err))
			return nil
		}
		s.log.Debug("removed stale temp file", zap.String("path", path))
		removed++
		return nil
	})
	if err != nil {
		s.log.Error("cleanup walk error", zap.Error(err))
	}
	return removed
}
