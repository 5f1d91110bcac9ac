package ofs

import (
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
)

// Canonical key encoding. The encoding must be deterministic: the same
// key value always produces the same bytes, because the bytes feed into
// address derivation. Scalars get fixed-width big-endian or raw forms;
// composite keys (structs, arrays, slices) fall back to msgpack, which
// encodes struct fields in declaration order and is therefore stable.
//
// Cross-type collisions (say, uint64(7) and int64(7) producing the same
// bytes) are harmless: the key's type tag is hashed alongside the bytes.

var addrType = reflect.TypeOf(Addr{})

// canonicalKey returns the key's type tag and deterministic byte
// encoding. Panics on types that have no deterministic encoding (maps,
// funcs, channels); using one as a key is a programming mistake.
func canonicalKey(key any) (tag string, raw []byte) {
	val := reflect.ValueOf(key)
	if !val.IsValid() {
		panic("ofs: nil field key")
	}
	typ := val.Type()
	return typeTag(typ), encodeKeyVal(nil, val)
}

func encodeKeyVal(buf []byte, val reflect.Value) []byte {
	typ := val.Type()
	if typ == addrType {
		a := val.Interface().(Addr)
		return append(buf, a[:]...)
	}
	switch typ.Kind() {
	case reflect.String:
		return append(buf, val.String()...)
	case reflect.Bool:
		if val.Bool() {
			return append(buf, 1)
		}
		return append(buf, 0)
	case reflect.Uint, reflect.Uint64, reflect.Uint32, reflect.Uint16, reflect.Uint8, reflect.Uintptr:
		return appendUint64(buf, val.Uint())
	case reflect.Int, reflect.Int64, reflect.Int32, reflect.Int16, reflect.Int8:
		return appendUint64(buf, uint64(val.Int()))
	case reflect.Slice:
		if typ.Elem().Kind() == reflect.Uint8 {
			return append(buf, val.Bytes()...)
		}
		return appendKeyMsgpack(buf, val)
	case reflect.Array:
		if typ.Elem().Kind() == reflect.Uint8 {
			for i := 0; i < val.Len(); i++ {
				buf = append(buf, byte(val.Index(i).Uint()))
			}
			return buf
		}
		return appendKeyMsgpack(buf, val)
	case reflect.Struct, reflect.Ptr:
		return appendKeyMsgpack(buf, val)
	default:
		panic(fmt.Errorf("ofs: cannot use %v as a field key", typ))
	}
}

func appendKeyMsgpack(buf []byte, val reflect.Value) []byte {
	checkKeyDeterministic(val.Type(), val.Type())
	data, err := msgpack.Marshal(val.Interface())
	if err != nil {
		panic(fmt.Errorf("ofs: encoding %v key: %w", val.Type(), err))
	}
	return append(buf, data...)
}

// checkKeyDeterministic rejects key types whose msgpack encoding depends
// on runtime ordering (maps) or on dynamic content (interfaces).
func checkKeyDeterministic(typ, root reflect.Type) {
	switch typ.Kind() {
	case reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		panic(fmt.Errorf("ofs: cannot use %v as a field key: %v has no deterministic encoding", root, typ))
	case reflect.Ptr, reflect.Slice, reflect.Array:
		checkKeyDeterministic(typ.Elem(), root)
	case reflect.Struct:
		for i := 0; i < typ.NumField(); i++ {
			checkKeyDeterministic(typ.Field(i).Type, root)
		}
	}
}

func appendUint64(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// typeTag returns the package-qualified name of a type, used for exact
// type identity checks on stored records.
func typeTag(t reflect.Type) string {
	if t.Name() != "" {
		if pkg := t.PkgPath(); pkg != "" {
			return pkg + "." + t.Name()
		}
		return t.Name()
	}
	return t.String()
}

func typeTagOf[T any]() string {
	return typeTag(reflect.TypeOf((*T)(nil)).Elem())
}
