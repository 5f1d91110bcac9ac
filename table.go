package ofs

// Table is a counted collection of key-to-value associations with the
// key and value types fixed at creation. There is no ordering over
// entries and no iteration: a Table is a pure association, not a
// sequence.
type Table[K, V any] struct {
	handle Addr
	size   uint64
}

// NewTable creates an empty table with a fresh handle.
func NewTable[K, V any](txh Txish) *Table[K, V] {
	tx := txh.DBTx()
	return &Table[K, V]{handle: newContainer(tx, kindTable)}
}

// LoadTable reopens a table persisted under handle.
func LoadTable[K, V any](txh Txish, handle Addr) (*Table[K, V], error) {
	tx := txh.DBTx()
	m, err := loadContainer(tx, handle, kindTable)
	if err != nil {
		return nil, err
	}
	return &Table[K, V]{handle: handle, size: m.Size}, nil
}

// Handle returns the table's root address.
func (t *Table[K, V]) Handle() Addr {
	return t.handle
}

// Len returns the number of live entries.
func (t *Table[K, V]) Len() int {
	return int(t.size)
}

func (t *Table[K, V]) IsEmpty() bool {
	return t.size == 0
}

// Add associates key with value. Fails with ErrFieldAlreadyExists if the
// key is occupied; the size is left unmodified on failure.
func (t *Table[K, V]) Add(txh Txish, key K, value V) error {
	tx := txh.DBTx()
	if err := AddField(tx, t.handle, key, value); err != nil {
		return err
	}
	t.size++
	saveContainer(tx, t.handle, kindTable, containerMeta{Size: t.size})
	return nil
}

// Borrow returns the value stored under key.
func (t *Table[K, V]) Borrow(txh Txish, key K) (V, error) {
	return BorrowField[V](txh, t.handle, key)
}

// BorrowMut passes the value stored under key to fn and stores the
// result back.
func (t *Table[K, V]) BorrowMut(txh Txish, key K, fn func(*V) error) error {
	return BorrowFieldMut(txh, t.handle, key, fn)
}

// Remove deletes the entry under key and returns its value. Fails with
// ErrFieldDoesNotExist if the key is absent.
func (t *Table[K, V]) Remove(txh Txish, key K) (V, error) {
	tx := txh.DBTx()
	v, err := RemoveField[V](tx, t.handle, key)
	if err != nil {
		return v, err
	}
	t.size--
	saveContainer(tx, t.handle, kindTable, containerMeta{Size: t.size})
	return v, nil
}

// Contains reports whether key has a live entry.
func (t *Table[K, V]) Contains(txh Txish, key K) bool {
	return HasField(txh, t.handle, key)
}

// DestroyEmpty frees the table's handle. Fails with ErrNotEmpty unless
// the table has zero entries.
func (t *Table[K, V]) DestroyEmpty(txh Txish) error {
	return destroyContainer(txh.DBTx(), t.handle, kindTable, t.size)
}
