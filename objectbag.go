package ofs

// ObjectBag is the heterogeneous counterpart of ObjectTable: each entry
// is a first-class object, and the object's type is asserted by the
// caller per call instead of fixed at creation.
type ObjectBag struct {
	handle Addr
	size   uint64
}

// NewObjectBag creates an empty object bag with a fresh handle.
func NewObjectBag(txh Txish) *ObjectBag {
	tx := txh.DBTx()
	return &ObjectBag{handle: newContainer(tx, kindObjectBag)}
}

// LoadObjectBag reopens an object bag persisted under handle.
func LoadObjectBag(txh Txish, handle Addr) (*ObjectBag, error) {
	tx := txh.DBTx()
	m, err := loadContainer(tx, handle, kindObjectBag)
	if err != nil {
		return nil, err
	}
	return &ObjectBag{handle: handle, size: m.Size}, nil
}

// Handle returns the bag's root address.
func (b *ObjectBag) Handle() Addr {
	return b.handle
}

// Len returns the number of live entries.
func (b *ObjectBag) Len() int {
	return int(b.size)
}

func (b *ObjectBag) IsEmpty() bool {
	return b.size == 0
}

// DestroyEmpty frees the bag's handle. Fails with ErrNotEmpty unless the
// bag has zero entries.
func (b *ObjectBag) DestroyEmpty(txh Txish) error {
	return destroyContainer(txh.DBTx(), b.handle, kindObjectBag, b.size)
}

// ObjectBagAdd stores value under key and transfers its ownership to the
// bag. Fails with ErrFieldAlreadyExists if the key is occupied, even by
// an object of another type; the size is left unmodified on failure.
func ObjectBagAdd[K any, V Object](txh Txish, b *ObjectBag, key K, value V) error {
	tx := txh.DBTx()
	if err := AddObjectField(tx, b.handle, key, value); err != nil {
		return err
	}
	b.size++
	saveContainer(tx, b.handle, kindObjectBag, containerMeta{Size: b.size})
	return nil
}

// ObjectBagBorrow returns the object stored under key, which must be
// exactly of type V.
func ObjectBagBorrow[V Object, K any](txh Txish, b *ObjectBag, key K) (V, error) {
	return BorrowObjectField[V](txh, b.handle, key)
}

// ObjectBagBorrowMut passes the object stored under key to fn and stores
// the result back at the same address.
func ObjectBagBorrowMut[V Object, K any](txh Txish, b *ObjectBag, key K, fn func(*V) error) error {
	return BorrowObjectFieldMut(txh, b.handle, key, fn)
}

// ObjectBagRemove deletes the entry under key, detaches the object from
// the ownership graph, and returns it.
func ObjectBagRemove[V Object, K any](txh Txish, b *ObjectBag, key K) (V, error) {
	tx := txh.DBTx()
	v, err := RemoveObjectField[V](tx, b.handle, key)
	if err != nil {
		return v, err
	}
	b.size--
	saveContainer(tx, b.handle, kindObjectBag, containerMeta{Size: b.size})
	return v, nil
}

// ObjectBagContains reports whether key has a live entry of any type.
func ObjectBagContains[K any](txh Txish, b *ObjectBag, key K) bool {
	return HasObjectField(txh, b.handle, key)
}

// ObjectBagContainsWithType reports whether key has a live entry holding
// an object of exactly type V.
func ObjectBagContainsWithType[V Object, K any](txh Txish, b *ObjectBag, key K) bool {
	return HasObjectFieldWithType[V](txh, b.handle, key)
}

// ObjectBagValueID reports the independent store address of the object
// stored under key, or false if the key is absent.
func ObjectBagValueID[K any](txh Txish, b *ObjectBag, key K) (Addr, bool) {
	return ObjectFieldID(txh, b.handle, key)
}
