package badger

import (
	"errors"
	"fmt"

	"github.com/cirruslabs/vmpower/internal/endpoint/store"
	"github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

type Store struct {
	db     *badger.DB
	logger *zap.SugaredLogger
}

type Transaction struct {
	badgerTxn *badger.Txn
}

// NewBadgerStore opens a store at dbPath,
// an empty dbPath results in an in-memory store.
func NewBadgerStore(dbPath string, logger *zap.SugaredLogger) (store.Store, error) {
	opts := badger.DefaultOptions(dbPath)

	if dbPath == "" {
		opts = opts.WithInMemory(true)
	}

	opts.SyncWrites = true
	opts.Logger = newBadgerLogger(logger)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

func (store *Store) View(cb func(txn store.Transaction) error) error {
	return mapErr(store.db.View(func(txn *badger.Txn) error {
		return cb(&Transaction{
			badgerTxn: txn,
		})
	}))
}

func (store *Store) Update(cb func(txn store.Transaction) error) error {
	return mapErr(store.db.Update(func(txn *badger.Txn) error {
		return cb(&Transaction{
			badgerTxn: txn,
		})
	}))
}

func (store *Store) Close() error {
	return store.db.Close()
}

func mapErr(err error) error {
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrConflict) ||
			errors.Is(err, store.ErrStoreFailed) {
			return err
		}

		if errors.Is(err, badger.ErrKeyNotFound) {
			return store.ErrNotFound
		}

		if errors.Is(err, badger.ErrConflict) {
			return fmt.Errorf("%w: %v", store.ErrConflict, err)
		}

		return fmt.Errorf("%w: %v", store.ErrStoreFailed, err)
	}

	return err
}
