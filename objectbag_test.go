package ofs

import (
	"testing"
)

type Voucher struct {
	ID    Addr   `msgpack:"id"`
	Code  string `msgpack:"c"`
	Cents int64  `msgpack:"v"`
}

func (v Voucher) ObjectAddr() Addr { return v.ID }

func TestObjectBag(t *testing.T) {
	db := setup(t)
	var bag *ObjectBag
	db.Write(func(tx *Tx) {
		bag = NewObjectBag(tx)
		acct := Account{ID: tx.MintAddr(), Owner: "alice", Balance: 100}
		vchr := Voucher{ID: tx.MintAddr(), Code: "WELCOME", Cents: 500}
		noerr(t, ObjectBagAdd(tx, bag, "acct", acct))
		noerr(t, ObjectBagAdd(tx, bag, "vchr", vchr))
		deepEqual(t, bag.Len(), 2)
	})

	db.Read(func(tx *Tx) {
		deepEqual(t, must(ObjectBagBorrow[Account](tx, bag, "acct")).Owner, "alice")
		deepEqual(t, must(ObjectBagBorrow[Voucher](tx, bag, "vchr")).Code, "WELCOME")

		istrue(t, ObjectBagContains(tx, bag, "acct"))
		istrue(t, ObjectBagContainsWithType[Account](tx, bag, "acct"))
		isfalse(t, ObjectBagContainsWithType[Voucher](tx, bag, "acct"))

		_, ok := ObjectBagValueID(tx, bag, "acct")
		istrue(t, ok)
		_, ok = ObjectBagValueID(tx, bag, "nope")
		isfalse(t, ok)
	})

	db.Write(func(tx *Tx) {
		_, err := ObjectBagRemove[Voucher](tx, bag, "acct")
		iserr(t, err, ErrFieldTypeMismatch)
		deepEqual(t, bag.Len(), 2)

		got := must(ObjectBagRemove[Account](tx, bag, "acct"))
		deepEqual(t, got.Balance, int64(100))
		deepEqual(t, bag.Len(), 1)

		iserr(t, bag.DestroyEmpty(tx), ErrNotEmpty)
		_, err = ObjectBagRemove[Voucher](tx, bag, "vchr")
		noerr(t, err)
		noerr(t, bag.DestroyEmpty(tx))
	})
}

func TestObjectBagBorrowMut(t *testing.T) {
	db := setup(t)
	var bag *ObjectBag
	db.Write(func(tx *Tx) {
		bag = NewObjectBag(tx)
		noerr(t, ObjectBagAdd(tx, bag, 1, Voucher{ID: tx.MintAddr(), Code: "A", Cents: 100}))
		noerr(t, ObjectBagBorrowMut(tx, bag, 1, func(v *Voucher) error {
			v.Cents = 250
			return nil
		}))
	})
	db.Read(func(tx *Tx) {
		deepEqual(t, must(ObjectBagBorrow[Voucher](tx, bag, 1)).Cents, int64(250))
	})
}

func TestObjectAndPlainFieldsDoNotCollide(t *testing.T) {
	db := setup(t)
	db.Write(func(tx *Tx) {
		parent := tx.MintAddr()
		// The same key under the same parent, once as a plain field and
		// once as an object field: different derivation domains.
		noerr(t, AddField(tx, parent, "k", "plain"))
		noerr(t, AddObjectField(tx, parent, "k", Voucher{ID: tx.MintAddr(), Code: "X"}))

		deepEqual(t, must(BorrowField[string](tx, parent, "k")), "plain")
		deepEqual(t, must(BorrowObjectField[Voucher](tx, parent, "k")).Code, "X")
	})
}
