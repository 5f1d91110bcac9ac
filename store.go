package ofs

// Record is the unit of storage: a typed value at an address, plus its
// position in the ownership graph.
type Record struct {
	// Type is the package-qualified name of the stored Go type,
	// verified against the caller's type argument on every access.
	Type string

	// Data is the msgpack encoding of the value.
	Data []byte

	// IsObject marks first-class objects (values stored at their own
	// minted address, discoverable by external indexers).
	IsObject bool

	// Owner is the address that currently owns this record: the parent
	// for field records, the field record for child objects, zero for
	// container roots.
	Owner Addr
}

// Store represents an object store backend (Bolt, in-memory, etc.).
// Implementations must provide isolation between transactions and
// atomic commit of all writes issued within one transaction.
type Store interface {
	// BeginTx starts a new transaction.
	BeginTx(writable bool) (StoreTx, error)
	// Close closes the store.
	Close() error
}

// StoreTx represents a store transaction.
type StoreTx interface {
	// Writable returns true if this is a writable transaction.
	Writable() bool

	// Get retrieves the record at addr. Returns false if no live record
	// exists there.
	Get(addr Addr) (Record, bool)

	// Put stores a record at addr, replacing any existing one.
	Put(addr Addr, rec Record) error

	// Delete removes the record at addr. Deleting an absent address is
	// not an error.
	Delete(addr Addr) error

	// MintAddr returns a fresh address. Minted addresses are never
	// reused, even if the transaction rolls back.
	MintAddr() (Addr, error)

	// OwnedBy reports the addresses of live records owned by owner.
	// Order is unspecified.
	OwnedBy(owner Addr) []Addr

	// Commit commits the transaction.
	Commit() error

	// Rollback aborts the transaction. It must be safe to call multiple
	// times, and after Commit.
	Rollback() error
}
