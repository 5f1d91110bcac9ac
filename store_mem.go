package ofs

import (
	"encoding/binary"
	"fmt"
	"slices"
	"sync"
)

type memStore struct {
	mu     sync.Mutex
	cond   *sync.Cond
	recs   map[Addr]Record
	minted uint64
	closed bool
	writer bool
}

// NewMemStore returns a transient in-memory Store implementation intended
// for tests. Addresses are minted sequentially, so test runs are
// deterministic.
func NewMemStore() Store {
	s := &memStore{recs: make(map[Addr]Record)}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *memStore) BeginTx(writable bool) (StoreTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	if writable {
		for s.writer && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			return nil, ErrStoreClosed
		}
		s.writer = true
	}

	// Snapshot the entire store for transactional isolation (simplicity
	// over efficiency).
	snap := make(map[Addr]Record, len(s.recs))
	for a, rec := range s.recs {
		snap[a] = rec.clone()
	}

	return &memTx{
		writable: writable,
		base:     s,
		recs:     snap,
	}, nil
}

func (s *memStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.recs = nil
	if s.cond != nil {
		s.cond.Broadcast()
	}
	return nil
}

func (rec Record) clone() Record {
	rec.Data = slices.Clone(rec.Data)
	return rec
}

type memTx struct {
	base     *memStore
	writable bool
	recs     map[Addr]Record
	closed   bool
}

func (tx *memTx) Writable() bool { return tx.writable }

func (tx *memTx) closeLocked() {
	if tx.closed {
		return
	}
	tx.closed = true
	if tx.writable {
		tx.base.writer = false
		tx.base.cond.Broadcast()
	}
}

func (tx *memTx) Get(addr Addr) (Record, bool) {
	if tx.closed {
		panic("tx is closed")
	}
	rec, ok := tx.recs[addr]
	return rec, ok
}

func (tx *memTx) Put(addr Addr, rec Record) error {
	if tx.closed {
		panic("tx is closed")
	}
	if !tx.writable {
		return fmt.Errorf("tx not writable")
	}
	tx.recs[addr] = rec.clone()
	return nil
}

func (tx *memTx) Delete(addr Addr) error {
	if tx.closed {
		panic("tx is closed")
	}
	if !tx.writable {
		return fmt.Errorf("tx not writable")
	}
	delete(tx.recs, addr)
	return nil
}

func (tx *memTx) MintAddr() (Addr, error) {
	if tx.closed {
		panic("tx is closed")
	}
	if !tx.writable {
		return Addr{}, fmt.Errorf("tx not writable")
	}
	// Mint on the base store, not the snapshot, so a rolled-back
	// transaction can never cause address reuse.
	tx.base.mu.Lock()
	tx.base.minted++
	n := tx.base.minted
	tx.base.mu.Unlock()

	var a Addr
	binary.BigEndian.PutUint64(a[AddrLen-8:], n)
	return a, nil
}

func (tx *memTx) OwnedBy(owner Addr) []Addr {
	if tx.closed {
		panic("tx is closed")
	}
	var out []Addr
	for a, rec := range tx.recs {
		if rec.Owner == owner {
			out = append(out, a)
		}
	}
	return out
}

func (tx *memTx) Commit() error {
	if tx.closed {
		return nil
	}
	if !tx.writable {
		return fmt.Errorf("tx not writable")
	}
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	if tx.base.closed {
		tx.closeLocked()
		return ErrStoreClosed
	}
	tx.base.recs = tx.recs
	tx.closeLocked()
	return nil
}

func (tx *memTx) Rollback() error {
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	tx.closeLocked()
	return nil
}
