package kvstore

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDBStore is the concrete Store backing used by Tree: an embedded,
// pure-Go LSM store with no cgo dependency (spec §6's "open(path) -> Store"
// external collaborator).
type LevelDBStore struct {
	path string
	db   *leveldb.DB
}

// Open opens (creating if absent) a LevelDB database at path.
func Open(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("kvstore: failed to open store")
		return nil, err
	}
	return &LevelDBStore{path: path, db: db}, nil
}

func (s *LevelDBStore) Put(key, value []byte) error {
	if err := s.db.Put(key, value, nil); err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("kvstore: put failed")
		return err
	}
	return nil
}

func (s *LevelDBStore) Get(key []byte) ([]byte, bool, error) {
	value, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("kvstore: get failed")
		return nil, false, err
	}
	return value, true, nil
}

func (s *LevelDBStore) Delete(key []byte) error {
	if err := s.db.Delete(key, nil); err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("kvstore: delete failed")
		return err
	}
	return nil
}

func (s *LevelDBStore) Close() error {
	return s.db.Close()
}

// Path returns the directory this store is backed by, so callers that need
// to remove it on teardown (spec §6's Drop-equivalent cleanup) don't need
// to remember it separately.
func (s *LevelDBStore) Path() string {
	return s.path
}
