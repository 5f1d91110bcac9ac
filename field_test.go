package ofs

import (
	"errors"
	"reflect"
	"testing"
)

type (
	Profile struct {
		Name  string `msgpack:"n"`
		Email string `msgpack:"e"`
	}

	Settings struct {
		Theme string `msgpack:"t"`
	}
)

func TestFieldRoundTrip(t *testing.T) {
	db := setup(t)
	var parent Addr
	db.Write(func(tx *Tx) {
		parent = tx.MintAddr()
		ensure(AddField(tx, parent, "profile", Profile{Name: "foo", Email: "foo@example.com"}))
		ensure(AddField(tx, parent, uint64(42), "answer"))
	})

	db.Read(func(tx *Tx) {
		deepEqual(t, must(BorrowField[Profile](tx, parent, "profile")), Profile{Name: "foo", Email: "foo@example.com"})
		deepEqual(t, must(BorrowField[string](tx, parent, uint64(42))), "answer")
		istrue(t, HasField(tx, parent, "profile"))
		istrue(t, HasFieldWithType[Profile](tx, parent, "profile"))
		isfalse(t, HasFieldWithType[Settings](tx, parent, "profile"))
		isfalse(t, HasField(tx, parent, "missing"))
	})
}

func TestFieldAlreadyExists(t *testing.T) {
	db := setup(t)
	var parent Addr
	db.Write(func(tx *Tx) {
		parent = tx.MintAddr()
		ensure(AddField(tx, parent, "k", 1))
		iserr(t, AddField(tx, parent, "k", 2), ErrFieldAlreadyExists)
		// Even a different value type cannot occupy the same key.
		iserr(t, AddField(tx, parent, "k", "two"), ErrFieldAlreadyExists)
		deepEqual(t, must(BorrowField[int](tx, parent, "k")), 1)
	})
}

func TestFieldDoesNotExist(t *testing.T) {
	db := setup(t)
	var parent Addr
	db.Write(func(tx *Tx) {
		parent = tx.MintAddr()
	})

	db.Read(func(tx *Tx) {
		_, err := BorrowField[int](tx, parent, "nope")
		iserr(t, err, ErrFieldDoesNotExist)
	})
	db.Write(func(tx *Tx) {
		_, err := RemoveField[int](tx, parent, "nope")
		iserr(t, err, ErrFieldDoesNotExist)
	})
	db.Write(func(tx *Tx) {
		ensure(AddField(tx, parent, "once", 7))
		deepEqual(t, must(RemoveField[int](tx, parent, "once")), 7)
		_, err := RemoveField[int](tx, parent, "once")
		iserr(t, err, ErrFieldDoesNotExist)
	})
}

func TestFieldTypeMismatch(t *testing.T) {
	db := setup(t)
	var parent Addr
	db.Write(func(tx *Tx) {
		parent = tx.MintAddr()
		ensure(AddField(tx, parent, "k", Profile{Name: "foo"}))
	})

	db.Read(func(tx *Tx) {
		_, err := BorrowField[Settings](tx, parent, "k")
		iserr(t, err, ErrFieldTypeMismatch)
	})
	db.Write(func(tx *Tx) {
		_, err := RemoveField[Settings](tx, parent, "k")
		iserr(t, err, ErrFieldTypeMismatch)
		// The failed remove must leave the field in place.
		deepEqual(t, must(BorrowField[Profile](tx, parent, "k")), Profile{Name: "foo"})
	})
}

func TestFieldBorrowMut(t *testing.T) {
	db := setup(t)
	var parent Addr
	db.Write(func(tx *Tx) {
		parent = tx.MintAddr()
		ensure(AddField(tx, parent, "p", Profile{Name: "foo"}))
	})

	db.Write(func(tx *Tx) {
		ensure(BorrowFieldMut(tx, parent, "p", func(p *Profile) error {
			p.Email = "foo@example.com"
			return nil
		}))
	})
	db.Read(func(tx *Tx) {
		deepEqual(t, must(BorrowField[Profile](tx, parent, "p")), Profile{Name: "foo", Email: "foo@example.com"})
	})

	boom := errors.New("boom")
	db.Write(func(tx *Tx) {
		err := BorrowFieldMut(tx, parent, "p", func(p *Profile) error {
			p.Email = "clobbered"
			return boom
		})
		iserr(t, err, boom)
		// fn returned an error, so the stored value is unchanged.
		deepEqual(t, must(BorrowField[Profile](tx, parent, "p")), Profile{Name: "foo", Email: "foo@example.com"})
	})
}

func TestFieldKeysAreTypeScoped(t *testing.T) {
	db := setup(t)
	var parent Addr
	db.Write(func(tx *Tx) {
		parent = tx.MintAddr()
		// Same bytes, different key types: distinct fields.
		ensure(AddField(tx, parent, uint64(7), "u"))
		ensure(AddField(tx, parent, int64(7), "i"))
	})

	db.Read(func(tx *Tx) {
		deepEqual(t, must(BorrowField[string](tx, parent, uint64(7))), "u")
		deepEqual(t, must(BorrowField[string](tx, parent, int64(7))), "i")
	})
}

func TestFieldParentsAreIsolated(t *testing.T) {
	db := setup(t)
	var p1, p2 Addr
	db.Write(func(tx *Tx) {
		p1 = tx.MintAddr()
		p2 = tx.MintAddr()
		ensure(AddField(tx, p1, "k", "one"))
		ensure(AddField(tx, p2, "k", "two"))
	})

	db.Read(func(tx *Tx) {
		deepEqual(t, must(BorrowField[string](tx, p1, "k")), "one")
		deepEqual(t, must(BorrowField[string](tx, p2, "k")), "two")
	})
}

func setup(t testing.TB) *DB {
	t.Helper()
	db := OpenMem(Options{Logf: t.Logf, Verbose: testing.Verbose()})
	t.Cleanup(db.Close)
	return db
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func iserr(t testing.TB, err, want error) {
	if !errors.Is(err, want) {
		t.Helper()
		t.Errorf("** got error %v, wanted %v", err, want)
	}
}

func noerr(t testing.TB, err error) {
	if err != nil {
		t.Helper()
		t.Errorf("** got error %v, wanted none", err)
	}
}

func istrue(t testing.TB, a bool) {
	if !a {
		t.Helper()
		t.Errorf("** got false, wanted true")
	}
}

func isfalse(t testing.TB, a bool) {
	if a {
		t.Helper()
		t.Errorf("** got true, wanted false")
	}
}
