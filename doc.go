/*
Package ofs implements typed dynamic fields and keyed collections
on top of a pluggable object store (in this case, on top of Bolt
or an in-memory store).

We implement:

1. Fields, individual key-to-value associations hanging off a parent
address, with the value's type checked on every access.

2. Tables and Bags, counted collections of fields under one parent;
a Table fixes the key and value types at creation, a Bag checks the
value type per call.

3. ObjectTables and ObjectBags, same as above except each stored value
is a first-class object with its own address, so external tooling can
discover it in the store without going through the collection.

4. Versioned containers, holding exactly one payload keyed by a version
number, with a one-shot capability protocol for schema upgrades.

# Technical Details

**Addresses.**
Every stored record lives at a 32-byte address. Container roots and
object values use fresh addresses minted by the store; field records
live at addresses derived by hashing (BLAKE3) a domain separation tag,
the parent address, and the canonical encoding of the key. The same
(parent, key) pair always derives the same address; plain fields and
object fields use different domain tags and so never collide.

**Records.**
A record is (type tag, data, object flag, owner). The type tag is the
package-qualified name of the stored Go type; borrow and remove verify
it against the caller's type argument before decoding. The owner link
forms the ownership graph: field records are owned by their parent,
child objects by their field record.

**Key encoding.**
Keys are encoded deterministically: big-endian fixed-width integers,
raw string/[]byte contents, and msgpack for composite keys. The key's
type tag participates in address derivation, so identical bytes from
different key types derive different addresses.

**Value encoding**: msgpack of the value.

**Counters.**
Each collection persists a small metadata record at its root address
holding the live entry count (or, for versioned containers, the current
version). The metadata and the field record are always updated inside
the same store transaction, so the count never diverges from the set of
live records. The in-memory container value mirrors the persisted
metadata; if a transaction that mutated a container rolls back, reload
the container from its handle instead of reusing the stale value.
*/
package ofs
