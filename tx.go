package ofs

import (
	"fmt"
	"runtime/debug"
)

// Txish is anything that can supply a transaction: a *Tx itself, or an
// application wrapper carrying one.
type Txish interface {
	DBTx() *Tx
}

type Tx struct {
	db  *DB
	stx StoreTx
}

func (db *DB) newTx(stx StoreTx) *Tx {
	return &Tx{db: db, stx: stx}
}

// DBTx implements Txish
func (tx *Tx) DBTx() *Tx {
	return tx
}

func (tx *Tx) DB() *DB {
	return tx.db
}

func (tx *Tx) IsWritable() bool {
	return tx.stx.Writable()
}

// StoreTx exposes the underlying store transaction for tooling that
// needs raw record access.
func (tx *Tx) StoreTx() StoreTx {
	return tx.stx
}

// MintAddr mints a fresh object address. Call inside a writable
// transaction only.
func (tx *Tx) MintAddr() Addr {
	tx.mustWritable()
	a, err := tx.stx.MintAddr()
	if err != nil {
		panic(fmt.Errorf("ofs: minting address: %w", err))
	}
	return a
}

func (tx *Tx) mustWritable() {
	if tx == nil {
		panic("nil tx")
	}
	if !tx.stx.Writable() {
		panic("ofs: mutation in a read-only transaction")
	}
}

func (tx *Tx) Commit() error {
	return tx.stx.Commit()
}

func (tx *Tx) Close() {
	// The only time Rollback matters is when Commit didn't run (the
	// normal error path); after Commit it is a no-op.
	err := tx.stx.Rollback()
	if err != nil {
		panic(err) // not expected to happen unless the backend misbehaves
	}
}

func (db *DB) BeginRead() *Tx {
	stx, err := db.store.BeginTx(false)
	if err != nil {
		panic(fmt.Errorf("ofs: failed to start reading: %w", err))
	}
	return db.newTx(stx)
}

func (db *DB) BeginUpdate() *Tx {
	stx, err := db.store.BeginTx(true)
	if err != nil {
		panic(fmt.Errorf("ofs: failed to start writing: %w", err))
	}
	return db.newTx(stx)
}

func (db *DB) Read(f func(tx *Tx)) {
	tx := db.BeginRead()
	defer tx.Close()
	f(tx)
}

func (db *DB) ReadErr(f func(tx *Tx) error) error {
	tx := db.BeginRead()
	defer tx.Close()
	return f(tx)
}

// Write runs f in a writable transaction and commits. A panic inside f
// rolls the transaction back and propagates.
func (db *DB) Write(f func(tx *Tx)) {
	tx := db.BeginUpdate()
	defer tx.Close()
	f(tx)
	err := tx.Commit()
	if err != nil {
		panic(fmt.Errorf("ofs: commit: %w", err))
	}
}

// WriteErr runs f in a writable transaction, committing on nil and
// rolling back on error or panic. Note that a failed field operation
// leaves the store untouched either way, so callers that continue after
// an ErrFieldAlreadyExists (say) can still commit the rest.
func (db *DB) WriteErr(f func(tx *Tx) error) error {
	tx := db.BeginUpdate()
	defer tx.Close()
	err := safelyCall(f, tx)
	if err != nil {
		return err
	}
	return tx.Commit()
}

type panicked struct {
	reason interface{}
	stack  string
}

func (p panicked) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", p.reason, p.stack)
}

func safelyCall(fn func(*Tx) error, tx *Tx) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicked{p, string(debug.Stack())}
		}
	}()
	return fn(tx)
}
