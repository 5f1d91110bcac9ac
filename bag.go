package ofs

// Bag is the heterogeneous counterpart of Table: each entry may hold a
// value of a different type, asserted by the caller per call instead of
// fixed at creation. Since Go methods cannot introduce type parameters,
// the typed operations are package-level functions taking the bag.
type Bag struct {
	handle Addr
	size   uint64
}

// NewBag creates an empty bag with a fresh handle.
func NewBag(txh Txish) *Bag {
	tx := txh.DBTx()
	return &Bag{handle: newContainer(tx, kindBag)}
}

// LoadBag reopens a bag persisted under handle.
func LoadBag(txh Txish, handle Addr) (*Bag, error) {
	tx := txh.DBTx()
	m, err := loadContainer(tx, handle, kindBag)
	if err != nil {
		return nil, err
	}
	return &Bag{handle: handle, size: m.Size}, nil
}

// Handle returns the bag's root address.
func (b *Bag) Handle() Addr {
	return b.handle
}

// Len returns the number of live entries.
func (b *Bag) Len() int {
	return int(b.size)
}

func (b *Bag) IsEmpty() bool {
	return b.size == 0
}

// DestroyEmpty frees the bag's handle. Fails with ErrNotEmpty unless the
// bag has zero entries.
func (b *Bag) DestroyEmpty(txh Txish) error {
	return destroyContainer(txh.DBTx(), b.handle, kindBag, b.size)
}

// BagAdd associates key with value in the bag. Fails with
// ErrFieldAlreadyExists if the key is occupied, even by a value of
// another type; the size is left unmodified on failure.
func BagAdd[K, V any](txh Txish, b *Bag, key K, value V) error {
	tx := txh.DBTx()
	if err := AddField(tx, b.handle, key, value); err != nil {
		return err
	}
	b.size++
	saveContainer(tx, b.handle, kindBag, containerMeta{Size: b.size})
	return nil
}

// BagBorrow returns the value stored under key, which must be exactly of
// type V.
func BagBorrow[V, K any](txh Txish, b *Bag, key K) (V, error) {
	return BorrowField[V](txh, b.handle, key)
}

// BagBorrowMut passes the value stored under key to fn and stores the
// result back.
func BagBorrowMut[V, K any](txh Txish, b *Bag, key K, fn func(*V) error) error {
	return BorrowFieldMut(txh, b.handle, key, fn)
}

// BagRemove deletes the entry under key and returns its value, which
// must be exactly of type V.
func BagRemove[V, K any](txh Txish, b *Bag, key K) (V, error) {
	tx := txh.DBTx()
	v, err := RemoveField[V](tx, b.handle, key)
	if err != nil {
		return v, err
	}
	b.size--
	saveContainer(tx, b.handle, kindBag, containerMeta{Size: b.size})
	return v, nil
}

// BagContains reports whether key has a live entry of any type.
func BagContains[K any](txh Txish, b *Bag, key K) bool {
	return HasField(txh, b.handle, key)
}

// BagContainsWithType reports whether key has a live entry of exactly
// type V.
func BagContainsWithType[V, K any](txh Txish, b *Bag, key K) bool {
	return HasFieldWithType[V](txh, b.handle, key)
}
