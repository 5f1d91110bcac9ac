package ofs

import (
	"github.com/vmihailenco/msgpack/v5"
)

// Plain dynamic fields: a value of declared type V stored under (parent,
// key). These are the primitive every collection builds on; all higher
// layers route mutations through here so counters never diverge from
// the record set.

// AddField associates key with value under parent. Fails with
// ErrFieldAlreadyExists if a live field already occupies the key.
func AddField[K, V any](txh Txish, parent Addr, key K, value V) error {
	tx := txh.DBTx()
	tx.mustWritable()
	addr := FieldAddr(parent, key)
	if _, ok := tx.stx.Get(addr); ok {
		return fieldErr(parent, key, ErrFieldAlreadyExists)
	}
	data, err := msgpack.Marshal(value)
	if err != nil {
		return fieldErrf(parent, key, err, "encoding %s", typeTagOf[V]())
	}
	ensure(tx.stx.Put(addr, Record{Type: typeTagOf[V](), Data: data, Owner: parent}))
	if tx.db.verbose {
		tx.db.logf("ofs: ADD %s/%v", parent.Short(), key)
	}
	return nil
}

// BorrowField returns the value stored under (parent, key). Fails with
// ErrFieldDoesNotExist if the key is absent, and ErrFieldTypeMismatch if
// the stored type is not exactly V. The returned value is a decoded
// copy, valid after the transaction ends.
func BorrowField[V, K any](txh Txish, parent Addr, key K) (V, error) {
	tx := txh.DBTx()
	var zero V
	rec, addr, err := getFieldRecord[V](tx, parent, addrDomainField, key)
	if err != nil {
		if tx.db.verbose {
			tx.db.logf("ofs: GET.FAIL %s/%v: %v", parent.Short(), key, err)
		}
		return zero, err
	}
	v, err := decodeFieldValue[V](rec, addr)
	if err != nil {
		return zero, err
	}
	if tx.db.verbose {
		tx.db.logf("ofs: GET %s/%v", parent.Short(), key)
	}
	return v, nil
}

// BorrowFieldMut decodes the value under (parent, key), passes it to fn,
// and stores the result back. Same existence and type checks as
// BorrowField. If fn returns an error, the field is left unmodified.
func BorrowFieldMut[V, K any](txh Txish, parent Addr, key K, fn func(*V) error) error {
	tx := txh.DBTx()
	tx.mustWritable()
	rec, addr, err := getFieldRecord[V](tx, parent, addrDomainField, key)
	if err != nil {
		return err
	}
	v, err := decodeFieldValue[V](rec, addr)
	if err != nil {
		return err
	}
	if err := fn(&v); err != nil {
		return err
	}
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fieldErrf(parent, key, err, "encoding %s", typeTagOf[V]())
	}
	rec.Data = data
	ensure(tx.stx.Put(addr, rec))
	if tx.db.verbose {
		tx.db.logf("ofs: MUT %s/%v", parent.Short(), key)
	}
	return nil
}

// RemoveField deletes the field under (parent, key) and returns its
// value. Same existence and type checks as BorrowField.
func RemoveField[V, K any](txh Txish, parent Addr, key K) (V, error) {
	tx := txh.DBTx()
	tx.mustWritable()
	var zero V
	rec, addr, err := getFieldRecord[V](tx, parent, addrDomainField, key)
	if err != nil {
		return zero, err
	}
	v, err := decodeFieldValue[V](rec, addr)
	if err != nil {
		return zero, err
	}
	ensure(tx.stx.Delete(addr))
	if tx.db.verbose {
		tx.db.logf("ofs: DEL %s/%v", parent.Short(), key)
	}
	return v, nil
}

// HasField reports whether a live field exists under (parent, key),
// regardless of its type.
func HasField[K any](txh Txish, parent Addr, key K) bool {
	tx := txh.DBTx()
	_, ok := tx.stx.Get(FieldAddr(parent, key))
	return ok
}

// HasFieldWithType reports whether a live field exists under (parent,
// key) and its stored type is exactly V.
func HasFieldWithType[V, K any](txh Txish, parent Addr, key K) bool {
	tx := txh.DBTx()
	rec, ok := tx.stx.Get(FieldAddr(parent, key))
	return ok && rec.Type == typeTagOf[V]()
}

func getFieldRecord[V, K any](tx *Tx, parent Addr, domain byte, key K) (Record, Addr, error) {
	tag, raw := canonicalKey(key)
	addr := deriveAddr(parent, domain, tag, raw)
	rec, ok := tx.stx.Get(addr)
	if !ok {
		return Record{}, addr, fieldErr(parent, key, ErrFieldDoesNotExist)
	}
	if domain == addrDomainField {
		if want := typeTagOf[V](); rec.Type != want {
			return Record{}, addr, fieldErrf(parent, key, ErrFieldTypeMismatch, "stored %s, requested %s", rec.Type, want)
		}
	}
	return rec, addr, nil
}

func decodeFieldValue[V any](rec Record, addr Addr) (V, error) {
	var v V
	if err := msgpack.Unmarshal(rec.Data, &v); err != nil {
		return v, dataErrf(rec.Data, err, "decoding %s at %s", rec.Type, addr.Short())
	}
	return v, nil
}
