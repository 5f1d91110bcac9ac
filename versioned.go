package ofs

// Versioned holds exactly one payload at a time, keyed by the current
// version number. Schema migration follows a capability protocol:
// RemoveValueForUpgrade hands out a one-shot UpgradeCap bound to this
// container and the extracted version, and only that cap can reinsert a
// replacement. The cap cannot be meaningfully forged (the fields are
// unexported) and fails loudly on reuse, so every extraction is paired
// with exactly one reinsertion. Migrate wraps the whole protocol in a
// closure for call sites that want the pairing enforced by the language.
type Versioned struct {
	handle  Addr
	version uint64
}

// UpgradeCap proves a payload was extracted from a specific container at
// a specific version. It is consumed by Upgrade or AddValue and cannot
// be reused.
type UpgradeCap struct {
	handle   Addr
	version  uint64
	consumed bool
}

// NewVersioned creates a container in the populated state, holding value
// under initVersion.
func NewVersioned[T any](txh Txish, initVersion uint64, value T) (*Versioned, error) {
	tx := txh.DBTx()
	tx.mustWritable()
	handle := tx.MintAddr()
	v := &Versioned{handle: handle, version: initVersion}
	if err := AddField(tx, handle, initVersion, value); err != nil {
		return nil, err
	}
	saveContainer(tx, handle, kindVersioned, containerMeta{Version: initVersion})
	return v, nil
}

// LoadVersioned reopens a container persisted under handle.
func LoadVersioned(txh Txish, handle Addr) (*Versioned, error) {
	tx := txh.DBTx()
	m, err := loadContainer(tx, handle, kindVersioned)
	if err != nil {
		return nil, err
	}
	return &Versioned{handle: handle, version: m.Version}, nil
}

// Handle returns the container's root address.
func (v *Versioned) Handle() Addr {
	return v.handle
}

// Version returns the current version number.
func (v *Versioned) Version() uint64 {
	return v.version
}

// LoadValue returns the current payload, which must be exactly of type
// T. Fails with ErrFieldDoesNotExist if called mid-migration.
func LoadValue[T any](txh Txish, v *Versioned) (T, error) {
	return BorrowField[T](txh, v.handle, v.version)
}

// LoadValueMut passes the current payload to fn and stores the result
// back under the same version.
func LoadValueMut[T any](txh Txish, v *Versioned, fn func(*T) error) error {
	return BorrowFieldMut(txh, v.handle, v.version, fn)
}

// RemoveValueForUpgrade extracts the payload, leaving the container
// mid-migration, and returns a capability that the matching Upgrade or
// AddValue call must consume. The container is unusable until then.
func RemoveValueForUpgrade[T any](txh Txish, v *Versioned) (T, *UpgradeCap, error) {
	tx := txh.DBTx()
	value, err := RemoveField[T](tx, v.handle, v.version)
	if err != nil {
		var zero T
		return zero, nil, err
	}
	return value, &UpgradeCap{handle: v.handle, version: v.version}, nil
}

// Upgrade stores value under newVersion and consumes cap. Fails with
// ErrInvalidUpgrade unless cap was produced by this container, has not
// been consumed, and newVersion is strictly greater than the extracted
// version.
func Upgrade[T any](txh Txish, v *Versioned, newVersion uint64, value T, cap *UpgradeCap) error {
	if err := v.checkCap(cap); err != nil {
		return err
	}
	if newVersion <= cap.version {
		return containerErrf(v.handle, kindVersioned, ErrInvalidUpgrade, "version %d does not progress past %d", newVersion, cap.version)
	}
	return completeUpgrade(txh.DBTx(), v, newVersion, value, cap)
}

// AddValue is the looser variant of Upgrade: newVersion only has to
// differ from the extracted version.
func AddValue[T any](txh Txish, v *Versioned, newVersion uint64, value T, cap *UpgradeCap) error {
	if err := v.checkCap(cap); err != nil {
		return err
	}
	if newVersion == cap.version {
		return containerErrf(v.handle, kindVersioned, ErrInvalidUpgrade, "version %d unchanged", newVersion)
	}
	return completeUpgrade(txh.DBTx(), v, newVersion, value, cap)
}

func (v *Versioned) checkCap(cap *UpgradeCap) error {
	if cap == nil || cap.handle != v.handle {
		return containerErrf(v.handle, kindVersioned, ErrInvalidUpgrade, "capability bound to another container")
	}
	if cap.consumed {
		return containerErrf(v.handle, kindVersioned, ErrInvalidUpgrade, "capability already consumed")
	}
	if cap.version != v.version {
		return containerErrf(v.handle, kindVersioned, ErrInvalidUpgrade, "capability captured version %d, container at %d", cap.version, v.version)
	}
	return nil
}

func completeUpgrade[T any](tx *Tx, v *Versioned, newVersion uint64, value T, cap *UpgradeCap) error {
	if err := AddField(tx, v.handle, newVersion, value); err != nil {
		return err
	}
	cap.consumed = true
	v.version = newVersion
	saveContainer(tx, v.handle, kindVersioned, containerMeta{Version: newVersion})
	if tx.db.verbose {
		tx.db.logf("ofs: UPGRADE %s %d => %d", v.handle.Short(), cap.version, newVersion)
	}
	return nil
}

// Destroy removes the sole payload, frees the container's handle, and
// returns the payload.
func Destroy[T any](txh Txish, v *Versioned) (T, error) {
	tx := txh.DBTx()
	value, err := RemoveField[T](tx, v.handle, v.version)
	if err != nil {
		var zero T
		return zero, err
	}
	ensure(tx.stx.Delete(v.handle))
	return value, nil
}

// Migrate runs the full extract-transform-reinsert protocol in one call:
// fn receives the payload at the current version and returns the payload
// for newVersion. Reinsertion cannot be forgotten at this call site.
// newVersion must be strictly greater than the current version.
func Migrate[Old, New any](txh Txish, v *Versioned, newVersion uint64, fn func(Old) (New, error)) error {
	tx := txh.DBTx()
	old, cap, err := RemoveValueForUpgrade[Old](tx, v)
	if err != nil {
		return err
	}
	next, err := fn(old)
	if err != nil {
		// Reinsert the old payload so the container does not stay
		// mid-migration. AddValue would reject an unchanged version, so
		// this goes through the field layer directly.
		if addErr := AddField(tx, v.handle, cap.version, old); addErr != nil {
			panic(addErr)
		}
		cap.consumed = true
		return err
	}
	return Upgrade(tx, v, newVersion, next, cap)
}
