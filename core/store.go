package core

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/go-jewelstore/internal/index"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/record"
)

var (
	ErrNotFound     = index.ErrNotFound
	ErrKindMismatch = errors.New("store: record kind does not match store")
)

// Store is a handle on one sorted fixed-width data file and its sparse
// index. Every operation goes back to the file system; nothing decoded is
// kept between calls.
//
// Store does no locking. Mutations are full read-modify-rewrite cycles, so
// concurrent writers on the same files must be serialized by the caller.
type Store struct {
	DataPath  string
	IndexPath string
	Kind      record.Kind
	Layout    record.Layout

	cache  *index.Cache
	logger *zap.Logger
}

type StoreOption func(*Store)

// WithIndexCache serves index loads through c.
func WithIndexCache(c *index.Cache) StoreOption {
	return func(s *Store) {
		s.cache = c
	}
}

func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewStore(dataPath, indexPath string, kind record.Kind, opts ...StoreOption) *Store {
	s := &Store{
		DataPath:  dataPath,
		IndexPath: indexPath,
		Kind:      kind,
		Layout:    kind.Layout(),
		logger:    zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With(zap.Stringer("kind", kind))
	return s
}

// Rebuild regenerates the index file from the data file.
func (s *Store) Rebuild() error {
	s.cache.Invalidate(s.IndexPath)

	entries, err := index.Rebuild(s.DataPath, s.IndexPath, s.Layout)
	if err != nil {
		if errors.Is(err, index.ErrMissingFile) {
			s.logger.Warn("data file not found, index left untouched", zap.String("data", s.DataPath))
		}
		return err
	}

	s.logger.Debug("index rebuilt", zap.String("index", s.IndexPath), zap.Int("entries", len(entries)))
	return nil
}

// Lookup finds a record whose key equals key. When several records share
// the key, the first one met scanning forward from the located index block
// is returned.
func (s *Store) Lookup(key string) (record.Record, error) {
	key = strings.TrimSpace(key)

	entries, err := s.cache.Load(s.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("store: loading index: %w", err)
	}

	start := index.LocateStart(entries, key)
	s.logger.Debug("lookup", zap.String("key", key), zap.Int64("start", start))

	return index.Scan(s.DataPath, s.Layout, key, start)
}

// Insert adds r, keeping the data file sorted by key. Equal keys keep their
// insertion order; no uniqueness is enforced. A missing data file is
// treated as an empty store and created.
func (s *Store) Insert(r record.Record) error {
	if r.Kind() != s.Kind {
		return fmt.Errorf("%w: got %s, store holds %s", ErrKindMismatch, r.Kind(), s.Kind)
	}

	records, err := s.readAll()
	if err != nil {
		return err
	}

	records = append(records, r)
	slices.SortStableFunc(records, func(a, b record.Record) int {
		return strings.Compare(a.Key(), b.Key())
	})

	if err := s.rewrite(records); err != nil {
		return err
	}

	s.logger.Debug("record inserted", zap.String("key", r.Key()), zap.Int("records", len(records)))
	return s.Rebuild()
}

// Remove deletes every record whose key equals key and reports how many
// went. Removing an absent key still rewrites the file and rebuilds the
// index. A missing data file is a no-op.
func (s *Store) Remove(key string) (int, error) {
	key = strings.TrimSpace(key)

	records, err := record.ReadFile(s.DataPath, s.Layout)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("remove on missing data file", zap.String("data", s.DataPath))
			return 0, nil
		}
		return 0, err
	}

	kept := records[:0]
	for _, rec := range records {
		if rec.Key() != key {
			kept = append(kept, rec)
		}
	}
	removed := len(records) - len(kept)

	if err := s.rewrite(kept); err != nil {
		return 0, err
	}

	s.logger.Debug("records removed", zap.String("key", key), zap.Int("removed", removed))
	return removed, s.Rebuild()
}

// All returns every record in file order. A missing file yields none.
func (s *Store) All() ([]record.Record, error) {
	return s.readAll()
}

// Count returns the number of complete records in the data file.
func (s *Store) Count() (int, error) {
	info, err := os.Stat(s.DataPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	return int(info.Size() / int64(s.Layout.Size())), nil
}

func (s *Store) readAll() ([]record.Record, error) {
	records, err := record.ReadFile(s.DataPath, s.Layout)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return records, nil
}

func (s *Store) rewrite(records []record.Record) error {
	f, err := os.Create(s.DataPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := record.WriteAll(f, records); err != nil {
		return err
	}

	return f.Close()
}
