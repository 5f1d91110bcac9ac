package ofs

import (
	"crypto/rand"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

var (
	recordsBucket = []byte("records")
	ownersBucket  = []byte("owners")
)

type boltStore struct {
	bdb *bbolt.DB
}

// NewBoltStore wraps an open Bolt database as a Store. The caller is
// expected to have created it via bbolt.Open; OpenBolt does both.
func NewBoltStore(bdb *bbolt.DB) Store {
	return &boltStore{bdb: bdb}
}

func (s *boltStore) BeginTx(writable bool) (StoreTx, error) {
	btx, err := s.bdb.Begin(writable)
	if err != nil {
		return nil, err
	}
	if writable {
		if _, err := btx.CreateBucketIfNotExists(recordsBucket); err != nil {
			btx.Rollback()
			return nil, err
		}
		if _, err := btx.CreateBucketIfNotExists(ownersBucket); err != nil {
			btx.Rollback()
			return nil, err
		}
	}
	return &boltTx{btx: btx}, nil
}

func (s *boltStore) Close() error {
	return s.bdb.Close()
}

type boltTx struct {
	btx *bbolt.Tx
}

func (tx *boltTx) BoltTx() *bbolt.Tx { return tx.btx }

func (tx *boltTx) Writable() bool { return tx.btx.Writable() }

// boltRecord is the on-disk form of a Record.
type boltRecord struct {
	Type     string `msgpack:"t"`
	Data     []byte `msgpack:"d"`
	IsObject bool   `msgpack:"o,omitempty"`
	Owner    []byte `msgpack:"w,omitempty"`
}

func (tx *boltTx) Get(addr Addr) (Record, bool) {
	b := tx.btx.Bucket(recordsBucket)
	if b == nil {
		return Record{}, false
	}
	raw := b.Get(addr[:])
	if raw == nil {
		return Record{}, false
	}
	var br boltRecord
	if err := msgpack.Unmarshal(raw, &br); err != nil {
		panic(dataErrf(raw, err, "decoding record at %s", addr.Short()))
	}
	rec := Record{Type: br.Type, Data: br.Data, IsObject: br.IsObject}
	copy(rec.Owner[:], br.Owner)
	return rec, true
}

func (tx *boltTx) Put(addr Addr, rec Record) error {
	old, hadOld := tx.Get(addr)

	br := boltRecord{Type: rec.Type, Data: rec.Data, IsObject: rec.IsObject}
	if !rec.Owner.IsZero() {
		br.Owner = rec.Owner[:]
	}
	raw, err := msgpack.Marshal(&br)
	if err != nil {
		return fmt.Errorf("encoding record at %s: %w", addr.Short(), err)
	}
	if err := tx.btx.Bucket(recordsBucket).Put(addr[:], raw); err != nil {
		return err
	}

	owners := tx.btx.Bucket(ownersBucket)
	if hadOld && old.Owner != rec.Owner && !old.Owner.IsZero() {
		if err := owners.Delete(ownerKey(old.Owner, addr)); err != nil {
			return err
		}
	}
	if !rec.Owner.IsZero() {
		return owners.Put(ownerKey(rec.Owner, addr), []byte{})
	}
	return nil
}

func (tx *boltTx) Delete(addr Addr) error {
	old, ok := tx.Get(addr)
	if !ok {
		return nil
	}
	if err := tx.btx.Bucket(recordsBucket).Delete(addr[:]); err != nil {
		return err
	}
	if !old.Owner.IsZero() {
		return tx.btx.Bucket(ownersBucket).Delete(ownerKey(old.Owner, addr))
	}
	return nil
}

func (tx *boltTx) MintAddr() (Addr, error) {
	var a Addr
	if _, err := rand.Read(a[:]); err != nil {
		return a, fmt.Errorf("minting address: %w", err)
	}
	return a, nil
}

func (tx *boltTx) OwnedBy(owner Addr) []Addr {
	b := tx.btx.Bucket(ownersBucket)
	if b == nil {
		return nil
	}
	var out []Addr
	c := b.Cursor()
	for k, _ := c.Seek(owner[:]); k != nil && len(k) == 2*AddrLen && Addr(k[:AddrLen]) == owner; k, _ = c.Next() {
		out = append(out, Addr(k[AddrLen:]))
	}
	return out
}

func (tx *boltTx) Commit() error { return tx.btx.Commit() }

func (tx *boltTx) Rollback() error {
	err := tx.btx.Rollback()
	if err == bbolt.ErrTxClosed {
		return nil
	}
	return err
}

func ownerKey(owner, addr Addr) []byte {
	k := make([]byte, 0, 2*AddrLen)
	k = append(k, owner[:]...)
	return append(k, addr[:]...)
}
