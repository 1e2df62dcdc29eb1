// Package badger implements the engine's storage ports on an embedded
// BadgerDB, for single-node deployments and the operator CLI.
//
// Key layout:
//
//	page/{title}                 JSON page
//	tags/{title}                 JSON tag record of a page
//	tag/V:{p}:{v}/{SORTKEY}#{title}  title
//	link/from/{from}\x00{to}
//	link/to/{to}\x00{from}
package badger

import (
	"errors"
	"fmt"
	"os"

	dgbadger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Config holds configuration for a BadgerDB instance
type Config struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM
	InMemory bool

	// SyncWrites fsyncs every commit
	SyncWrites bool
}

// Open creates and opens a BadgerDB instance
func Open(cfg Config, logger *zap.Logger) (*dgbadger.DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts dgbadger.Options
	if cfg.InMemory {
		opts = dgbadger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = dgbadger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if logger != nil {
		opts = opts.WithLogger(&zapLogger{logger: logger.Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := dgbadger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return db, nil
}

// OpenInMemory opens a throwaway in-memory database
func OpenInMemory() (*dgbadger.DB, error) {
	return Open(Config{InMemory: true}, nil)
}

// zapLogger adapts zap to BadgerDB's Logger interface
type zapLogger struct {
	logger *zap.SugaredLogger
}

func (l *zapLogger) Errorf(format string, args ...interface{})   { l.logger.Errorf(format, args...) }
func (l *zapLogger) Warningf(format string, args ...interface{}) { l.logger.Warnf(format, args...) }
func (l *zapLogger) Infof(format string, args ...interface{})    { l.logger.Debugf(format, args...) }
func (l *zapLogger) Debugf(format string, args ...interface{})   { l.logger.Debugf(format, args...) }

// keysWithPrefix collects every key under prefix
func keysWithPrefix(txn *dgbadger.Txn, prefix []byte) [][]byte {
	opts := dgbadger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}
