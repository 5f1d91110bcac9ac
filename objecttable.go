package ofs

// ObjectTable is a Table whose values are first-class objects: each
// stored value keeps its own address in the store, owned by the table
// until removal, so external tooling can enumerate stored objects
// without going through the table.
type ObjectTable[K any, V Object] struct {
	handle Addr
	size   uint64
}

// NewObjectTable creates an empty object table with a fresh handle.
func NewObjectTable[K any, V Object](txh Txish) *ObjectTable[K, V] {
	tx := txh.DBTx()
	return &ObjectTable[K, V]{handle: newContainer(tx, kindObjectTable)}
}

// LoadObjectTable reopens an object table persisted under handle.
func LoadObjectTable[K any, V Object](txh Txish, handle Addr) (*ObjectTable[K, V], error) {
	tx := txh.DBTx()
	m, err := loadContainer(tx, handle, kindObjectTable)
	if err != nil {
		return nil, err
	}
	return &ObjectTable[K, V]{handle: handle, size: m.Size}, nil
}

// Handle returns the table's root address.
func (t *ObjectTable[K, V]) Handle() Addr {
	return t.handle
}

// Len returns the number of live entries.
func (t *ObjectTable[K, V]) Len() int {
	return int(t.size)
}

func (t *ObjectTable[K, V]) IsEmpty() bool {
	return t.size == 0
}

// Add stores value under key and transfers its ownership to the table.
// Fails with ErrFieldAlreadyExists if the key is occupied; the size is
// left unmodified on failure.
func (t *ObjectTable[K, V]) Add(txh Txish, key K, value V) error {
	tx := txh.DBTx()
	if err := AddObjectField(tx, t.handle, key, value); err != nil {
		return err
	}
	t.size++
	saveContainer(tx, t.handle, kindObjectTable, containerMeta{Size: t.size})
	return nil
}

// Borrow returns the object stored under key.
func (t *ObjectTable[K, V]) Borrow(txh Txish, key K) (V, error) {
	return BorrowObjectField[V](txh, t.handle, key)
}

// BorrowMut passes the object stored under key to fn and stores the
// result back at the same address.
func (t *ObjectTable[K, V]) BorrowMut(txh Txish, key K, fn func(*V) error) error {
	return BorrowObjectFieldMut(txh, t.handle, key, fn)
}

// Remove deletes the entry under key, detaches the object from the
// ownership graph, and returns it.
func (t *ObjectTable[K, V]) Remove(txh Txish, key K) (V, error) {
	tx := txh.DBTx()
	v, err := RemoveObjectField[V](tx, t.handle, key)
	if err != nil {
		return v, err
	}
	t.size--
	saveContainer(tx, t.handle, kindObjectTable, containerMeta{Size: t.size})
	return v, nil
}

// Contains reports whether key has a live entry.
func (t *ObjectTable[K, V]) Contains(txh Txish, key K) bool {
	return HasObjectField(txh, t.handle, key)
}

// ValueID reports the independent store address of the object stored
// under key, or false if the key is absent.
func (t *ObjectTable[K, V]) ValueID(txh Txish, key K) (Addr, bool) {
	return ObjectFieldID(txh, t.handle, key)
}

// DestroyEmpty frees the table's handle. Fails with ErrNotEmpty unless
// the table has zero entries.
func (t *ObjectTable[K, V]) DestroyEmpty(txh Txish) error {
	return destroyContainer(txh.DBTx(), t.handle, kindObjectTable, t.size)
}
