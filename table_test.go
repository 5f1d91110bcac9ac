package ofs

import (
	"testing"
)

func TestTable(t *testing.T) {
	db := setup(t)
	var tbl *Table[uint64, string]
	db.Write(func(tx *Tx) {
		tbl = NewTable[uint64, string](tx)
		deepEqual(t, tbl.Len(), 0)
		istrue(t, tbl.IsEmpty())

		noerr(t, tbl.Add(tx, 7, "seven"))
		noerr(t, tbl.Add(tx, 8, "eight"))
		deepEqual(t, tbl.Len(), 2)
	})

	db.Read(func(tx *Tx) {
		deepEqual(t, must(tbl.Borrow(tx, 7)), "seven")
		deepEqual(t, must(tbl.Borrow(tx, 8)), "eight")
		istrue(t, tbl.Contains(tx, 7))
		isfalse(t, tbl.Contains(tx, 9))
	})

	db.Write(func(tx *Tx) {
		deepEqual(t, must(tbl.Remove(tx, 7)), "seven")
		deepEqual(t, tbl.Len(), 1)

		iserr(t, tbl.DestroyEmpty(tx), ErrNotEmpty)

		deepEqual(t, must(tbl.Remove(tx, 8)), "eight")
		deepEqual(t, tbl.Len(), 0)
		noerr(t, tbl.DestroyEmpty(tx))
	})
}

func TestTableFailedAddLeavesSize(t *testing.T) {
	db := setup(t)
	db.Write(func(tx *Tx) {
		tbl := NewTable[string, int](tx)
		noerr(t, tbl.Add(tx, "a", 1))
		iserr(t, tbl.Add(tx, "a", 2), ErrFieldAlreadyExists)
		deepEqual(t, tbl.Len(), 1)
		deepEqual(t, must(tbl.Borrow(tx, "a")), 1)
	})
}

func TestTableRemoveMissing(t *testing.T) {
	db := setup(t)
	db.Write(func(tx *Tx) {
		tbl := NewTable[string, int](tx)
		_, err := tbl.Remove(tx, "nope")
		iserr(t, err, ErrFieldDoesNotExist)
		deepEqual(t, tbl.Len(), 0)
	})
}

func TestTableBorrowMut(t *testing.T) {
	db := setup(t)
	var tbl *Table[uint64, Profile]
	db.Write(func(tx *Tx) {
		tbl = NewTable[uint64, Profile](tx)
		noerr(t, tbl.Add(tx, 1, Profile{Name: "foo"}))
		noerr(t, tbl.BorrowMut(tx, 1, func(p *Profile) error {
			p.Email = "foo@example.com"
			return nil
		}))
	})
	db.Read(func(tx *Tx) {
		deepEqual(t, must(tbl.Borrow(tx, 1)), Profile{Name: "foo", Email: "foo@example.com"})
	})
}

func TestTableReload(t *testing.T) {
	db := setup(t)
	var handle Addr
	db.Write(func(tx *Tx) {
		tbl := NewTable[uint64, string](tx)
		handle = tbl.Handle()
		noerr(t, tbl.Add(tx, 7, "seven"))
		noerr(t, tbl.Add(tx, 8, "eight"))
	})

	// A freshly loaded table sees the persisted count and entries.
	db.Write(func(tx *Tx) {
		tbl := must(LoadTable[uint64, string](tx, handle))
		deepEqual(t, tbl.Len(), 2)
		deepEqual(t, must(tbl.Remove(tx, 7)), "seven")
		deepEqual(t, tbl.Len(), 1)
	})
	db.Read(func(tx *Tx) {
		tbl := must(LoadTable[uint64, string](tx, handle))
		deepEqual(t, tbl.Len(), 1)
	})
}

func TestTableLoadWrongKind(t *testing.T) {
	db := setup(t)
	var handle Addr
	db.Write(func(tx *Tx) {
		handle = NewBag(tx).Handle()
	})
	db.Read(func(tx *Tx) {
		_, err := LoadTable[uint64, string](tx, handle)
		iserr(t, err, ErrFieldTypeMismatch)

		_, err = LoadTable[uint64, string](tx, Addr{0xFF})
		iserr(t, err, ErrFieldDoesNotExist)
	})
}

func TestTableCompositeKey(t *testing.T) {
	type Coord struct {
		X int `msgpack:"x"`
		Y int `msgpack:"y"`
	}

	db := setup(t)
	db.Write(func(tx *Tx) {
		tbl := NewTable[Coord, string](tx)
		noerr(t, tbl.Add(tx, Coord{1, 2}, "a"))
		noerr(t, tbl.Add(tx, Coord{2, 1}, "b"))
		deepEqual(t, must(tbl.Borrow(tx, Coord{1, 2})), "a")
		deepEqual(t, must(tbl.Borrow(tx, Coord{2, 1})), "b")
		isfalse(t, tbl.Contains(tx, Coord{1, 1}))
	})
}

// Length always equals adds minus removes, through an arbitrary
// interleaving.
func TestTableSizeInvariant(t *testing.T) {
	db := setup(t)
	db.Write(func(tx *Tx) {
		tbl := NewTable[int, int](tx)
		live := make(map[int]bool)
		for i := 0; i < 100; i++ {
			k := i % 17
			if live[k] {
				_, err := tbl.Remove(tx, k)
				noerr(t, err)
				delete(live, k)
			} else {
				noerr(t, tbl.Add(tx, k, i))
				live[k] = true
			}
			deepEqual(t, tbl.Len(), len(live))
		}
	})
}
