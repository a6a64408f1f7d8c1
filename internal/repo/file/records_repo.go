package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/itechteam/formdesk/internal/domain/submission"
	"github.com/itechteam/formdesk/internal/observability"
)

// RecordsRepo keeps each kind in its own JSON array file under dir.
type RecordsRepo struct {
	dir  string
	prom *observability.Prom
	log  *slog.Logger
}

func NewRecordsRepo(dir string, prom *observability.Prom, log *slog.Logger) *RecordsRepo {
	return &RecordsRepo{
		dir:  dir,
		prom: prom,
		log:  log.With("component", "file_store"),
	}
}

func (r *RecordsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveStore(op, fn)
	}
	return fn()
}

func (r *RecordsRepo) path(kind submission.Kind) string {
	return filepath.Join(r.dir, kind.FileName())
}

// LoadAll never fails: a missing, unreadable or malformed file reads as an
// empty sequence.
func (r *RecordsRepo) LoadAll(ctx context.Context, kind submission.Kind) ([]json.RawMessage, error) {
	if !kind.IsValid() {
		return nil, submission.ErrUnknownKind
	}

	var records []json.RawMessage
	path := r.path(kind)

	_ = r.observe(string(kind)+".load_all", func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				r.log.WarnContext(ctx, "record file unreadable, treating as empty", "path", path, "err", err)
			}
			return nil
		}

		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}

		if err := json.Unmarshal(data, &records); err != nil {
			r.log.WarnContext(ctx, "record file is not a JSON array, treating as empty", "path", path, "err", err)
			records = nil
		}
		return nil
	})

	if records == nil {
		records = []json.RawMessage{}
	}
	return records, nil
}

// SaveAll writes the sequence to a temp file next to the target and renames
// it into place, so readers see either the old or the new array.
func (r *RecordsRepo) SaveAll(ctx context.Context, kind submission.Kind, records []json.RawMessage) error {
	if !kind.IsValid() {
		return submission.ErrUnknownKind
	}

	if records == nil {
		records = []json.RawMessage{}
	}

	return r.observe(string(kind)+".save_all", func() error {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("encode %s: %w", kind, err)
		}

		if err := os.MkdirAll(r.dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}

		return writeAtomic(r.path(kind), data)
	})
}

// Ping checks the data directory exists and is writable.
func (r *RecordsRepo) Ping(_ context.Context) error {
	info, err := os.Stat(r.dir)
	if err != nil {
		return fmt.Errorf("data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data dir %s is not a directory", r.dir)
	}

	f, err := os.CreateTemp(r.dir, ".ping-*")
	if err != nil {
		return fmt.Errorf("data dir not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
