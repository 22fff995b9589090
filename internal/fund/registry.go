// Package fund holds the read-only fund reference data: display names
// mapped to provider identifiers.
package fund

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"NavSentinel/internal/apperr"
	"NavSentinel/internal/model"
)

// Registry resolves fund names. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funds []model.FundRecord
	path  string
	log   zerolog.Logger
}

// NewRegistry loads funds from path, seeding DefaultFunds when the file is
// missing.
func NewRegistry(path string, log zerolog.Logger) (*Registry, error) {
	r := &Registry{path: path, log: log}
	funds, ok, err := LoadFunds(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		funds = append([]model.FundRecord(nil), DefaultFunds...)
		if err := SaveFunds(path, funds); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("could not write seeded funds file")
		} else {
			log.Info().Str("path", path).Int("funds", len(funds)).Msg("seeded funds file")
		}
	}
	r.funds = funds
	return r, nil
}

// NewStaticRegistry serves a fixed list; Reload and Watch are no-ops.
func NewStaticRegistry(funds []model.FundRecord) *Registry {
	return &Registry{funds: append([]model.FundRecord(nil), funds...), log: zerolog.Nop()}
}

// Find returns the record whose name equals name.
func (r *Registry) Find(name string) (model.FundRecord, error) {
	name = strings.TrimSpace(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.funds {
		if f.Fund == name {
			return f, nil
		}
	}
	return model.FundRecord{}, fmt.Errorf("fund %q: %w", name, apperr.ErrNotFound)
}

// List returns a copy of all records in file order.
func (r *Registry) List() []model.FundRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.FundRecord(nil), r.funds...)
}

// Reload re-reads the file. On any error the previous list stays active.
func (r *Registry) Reload() error {
	if r.path == "" {
		return nil
	}
	funds, ok, err := LoadFunds(r.path)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("funds file %s disappeared", r.path)
	}
	r.mu.Lock()
	r.funds = funds
	r.mu.Unlock()
	r.log.Info().Int("funds", len(funds)).Msg("funds reloaded")
	return nil
}

// Watch reloads the registry whenever the funds file changes, until ctx is
// done. The parent directory is watched so editors that replace the file
// are picked up.
func (r *Registry) Watch(ctx context.Context) error {
	if r.path == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fund watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(r.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", r.path, err)
	}

	go func() {
		defer w.Close()
		target := filepath.Clean(r.path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := r.Reload(); err != nil {
					r.log.Error().Err(err).Msg("funds reload failed, keeping previous list")
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				r.log.Warn().Err(err).Msg("fund watcher error")
			}
		}
	}()
	return nil
}
