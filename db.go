package ofs

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// DB wraps a Store with transaction helpers and logging. All field and
// collection operations happen inside a transaction obtained from here.
type DB struct {
	store   Store
	logf    func(format string, args ...any)
	verbose bool
}

type Options struct {
	Logf      func(format string, args ...any)
	Verbose   bool
	IsTesting bool
	MmapSize  int
}

// New wraps an arbitrary Store. Use OpenBolt or OpenMem for the built-in
// backends.
func New(store Store, opt Options) *DB {
	logf := opt.Logf
	if logf == nil {
		logf = func(format string, args ...any) {}
	}
	return &DB{
		store:   store,
		logf:    logf,
		verbose: opt.Verbose,
	}
}

// OpenBolt opens a Bolt-backed store at the given path.
func OpenBolt(path string, opt Options) (*DB, error) {
	bopt := &bbolt.Options{
		Timeout: 10 * time.Second,
	}
	*bopt = *bbolt.DefaultOptions
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.InitialMmapSize = 1024 * 1024 * 1024
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}

	bdb, err := bbolt.Open(path, 0666, bopt)
	if err != nil {
		return nil, fmt.Errorf("ofs: %w", err)
	}
	return New(NewBoltStore(bdb), opt), nil
}

// OpenMem opens a transient in-memory store, intended for tests.
func OpenMem(opt Options) *DB {
	return New(NewMemStore(), opt)
}

func (db *DB) Store() Store {
	return db.store
}

func (db *DB) Close() {
	err := db.store.Close()
	if err != nil {
		panic(fmt.Errorf("ofs: closing: %w", err))
	}
}
