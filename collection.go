package ofs

import (
	"github.com/vmihailenco/msgpack/v5"
)

// Container kinds, used as the type tag of the metadata record each
// container keeps at its root address.
const (
	kindTable       = "ofs.Table"
	kindBag         = "ofs.Bag"
	kindObjectTable = "ofs.ObjectTable"
	kindObjectBag   = "ofs.ObjectBag"
	kindVersioned   = "ofs.Versioned"
)

// containerMeta is persisted at the container's root address and updated
// in the same transaction as every field mutation, so the count (or
// version) can never diverge from the live records.
type containerMeta struct {
	Size    uint64 `msgpack:"n,omitempty"`
	Version uint64 `msgpack:"v,omitempty"`
}

func newContainer(tx *Tx, kind string) Addr {
	tx.mustWritable()
	handle := tx.MintAddr()
	saveContainer(tx, handle, kind, containerMeta{})
	if tx.db.verbose {
		tx.db.logf("ofs: NEW %s %s", kind, handle.Short())
	}
	return handle
}

func loadContainer(tx *Tx, handle Addr, kind string) (containerMeta, error) {
	rec, ok := tx.stx.Get(handle)
	if !ok {
		return containerMeta{}, containerErrf(handle, kind, ErrFieldDoesNotExist, "")
	}
	if rec.Type != kind {
		return containerMeta{}, containerErrf(handle, kind, ErrFieldTypeMismatch, "stored %s", rec.Type)
	}
	var m containerMeta
	if err := msgpack.Unmarshal(rec.Data, &m); err != nil {
		return containerMeta{}, dataErrf(rec.Data, err, "decoding %s metadata at %s", kind, handle.Short())
	}
	return m, nil
}

func saveContainer(tx *Tx, handle Addr, kind string, m containerMeta) {
	data, err := msgpack.Marshal(&m)
	if err != nil {
		panic(err) // two integers; cannot fail
	}
	ensure(tx.stx.Put(handle, Record{Type: kind, Data: data}))
}

func destroyContainer(tx *Tx, handle Addr, kind string, size uint64) error {
	tx.mustWritable()
	if size != 0 {
		return containerErrf(handle, kind, ErrNotEmpty, "%d entries", size)
	}
	ensure(tx.stx.Delete(handle))
	if tx.db.verbose {
		tx.db.logf("ofs: DESTROY %s %s", kind, handle.Short())
	}
	return nil
}
