package ofs

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Object-valued dynamic fields. The stored value is a first-class
// object: it keeps its own minted address in the store, and the field
// record under the derived address merely points at it. External
// indexers can therefore locate the object without going through the
// field, via ObjectFieldID and StoreTx.OwnedBy.

// Object is implemented by values that carry their own store identity.
// Mint the address with Tx.MintAddr when constructing the value.
type Object interface {
	ObjectAddr() Addr
}

// objectRefTag marks field records that point at a child object rather
// than holding a value inline.
const objectRefTag = "ofs.objectRef"

// AddObjectField stores value as a child object under (parent, key) and
// transfers its ownership to the field. Fails with ErrFieldAlreadyExists
// if the key is occupied.
func AddObjectField[K any, V Object](txh Txish, parent Addr, key K, value V) error {
	tx := txh.DBTx()
	tx.mustWritable()
	fieldAddr := ObjectFieldAddr(parent, key)
	if _, ok := tx.stx.Get(fieldAddr); ok {
		return fieldErr(parent, key, ErrFieldAlreadyExists)
	}
	child := value.ObjectAddr()
	if child.IsZero() {
		panic(fmt.Errorf("ofs: object of type %s has no minted address", typeTagOf[V]()))
	}
	data, err := msgpack.Marshal(value)
	if err != nil {
		return fieldErrf(parent, key, err, "encoding %s", typeTagOf[V]())
	}
	ensure(tx.stx.Put(child, Record{Type: typeTagOf[V](), Data: data, IsObject: true, Owner: fieldAddr}))
	ensure(tx.stx.Put(fieldAddr, Record{Type: objectRefTag, Data: child[:], Owner: parent}))
	if tx.db.verbose {
		tx.db.logf("ofs: ADDOBJ %s/%v => %s", parent.Short(), key, child.Short())
	}
	return nil
}

// BorrowObjectField returns the object stored under (parent, key). Same
// error contract as BorrowField.
func BorrowObjectField[V Object, K any](txh Txish, parent Addr, key K) (V, error) {
	tx := txh.DBTx()
	var zero V
	childRec, childAddr, err := getChildRecord[V](tx, parent, key)
	if err != nil {
		return zero, err
	}
	return decodeFieldValue[V](childRec, childAddr)
}

// BorrowObjectFieldMut decodes the object under (parent, key), passes it
// to fn, and stores the result back at the same child address.
func BorrowObjectFieldMut[V Object, K any](txh Txish, parent Addr, key K, fn func(*V) error) error {
	tx := txh.DBTx()
	tx.mustWritable()
	childRec, childAddr, err := getChildRecord[V](tx, parent, key)
	if err != nil {
		return err
	}
	v, err := decodeFieldValue[V](childRec, childAddr)
	if err != nil {
		return err
	}
	if err := fn(&v); err != nil {
		return err
	}
	if v.ObjectAddr() != childAddr {
		panic(fmt.Errorf("ofs: object address changed during mutation of %s", childAddr.Short()))
	}
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fieldErrf(parent, key, err, "encoding %s", typeTagOf[V]())
	}
	childRec.Data = data
	ensure(tx.stx.Put(childAddr, childRec))
	return nil
}

// RemoveObjectField deletes the field under (parent, key), detaches the
// child object from the ownership graph, and returns it.
func RemoveObjectField[V Object, K any](txh Txish, parent Addr, key K) (V, error) {
	tx := txh.DBTx()
	tx.mustWritable()
	var zero V
	childRec, childAddr, err := getChildRecord[V](tx, parent, key)
	if err != nil {
		return zero, err
	}
	v, err := decodeFieldValue[V](childRec, childAddr)
	if err != nil {
		return zero, err
	}
	ensure(tx.stx.Delete(ObjectFieldAddr(parent, key)))
	ensure(tx.stx.Delete(childAddr))
	if tx.db.verbose {
		tx.db.logf("ofs: DELOBJ %s/%v => %s", parent.Short(), key, childAddr.Short())
	}
	return v, nil
}

// HasObjectField reports whether an object field exists under (parent,
// key), regardless of the object's type.
func HasObjectField[K any](txh Txish, parent Addr, key K) bool {
	tx := txh.DBTx()
	_, ok := tx.stx.Get(ObjectFieldAddr(parent, key))
	return ok
}

// HasObjectFieldWithType reports whether an object field exists under
// (parent, key) and the child's stored type is exactly V.
func HasObjectFieldWithType[V Object, K any](txh Txish, parent Addr, key K) bool {
	tx := txh.DBTx()
	_, _, err := getChildRecord[V](tx, parent, key)
	return err == nil
}

// ObjectFieldID reports the independent store address of the object
// under (parent, key), or false if the key is absent.
func ObjectFieldID[K any](txh Txish, parent Addr, key K) (Addr, bool) {
	tx := txh.DBTx()
	rec, ok := tx.stx.Get(ObjectFieldAddr(parent, key))
	if !ok {
		return Addr{}, false
	}
	return childAddrOf(rec), true
}

func getChildRecord[V Object, K any](tx *Tx, parent Addr, key K) (Record, Addr, error) {
	fieldRec, _, err := getFieldRecord[V](tx, parent, addrDomainObjectField, key)
	if err != nil {
		return Record{}, Addr{}, err
	}
	childAddr := childAddrOf(fieldRec)
	childRec, ok := tx.stx.Get(childAddr)
	if !ok {
		// The field record exists but the child is gone; the ownership
		// invariant was broken outside this package.
		panic(fmt.Errorf("ofs: dangling object field: child %s missing", childAddr.Short()))
	}
	if want := typeTagOf[V](); childRec.Type != want {
		return Record{}, Addr{}, fieldErrf(parent, key, ErrFieldTypeMismatch, "stored %s, requested %s", childRec.Type, want)
	}
	return childRec, childAddr, nil
}

func childAddrOf(fieldRec Record) Addr {
	if fieldRec.Type != objectRefTag || len(fieldRec.Data) != AddrLen {
		panic(dataErrf(fieldRec.Data, nil, "invalid object field record of type %s", fieldRec.Type))
	}
	return Addr(fieldRec.Data)
}
