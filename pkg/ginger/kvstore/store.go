// Package kvstore provides the persistent key-value store contract the SMT
// engine depends on (spec §6), plus a concrete goleveldb-backed
// implementation. The SMT engine itself never imports goleveldb directly —
// it only ever sees the Store interface — so a different embedded store
// could be swapped in without touching pkg/ginger/smt.
package kvstore

// Store is the persistent key-value contract spec §6 assumes: put, get,
// delete, keyed by opaque byte strings, plus Close to release the
// underlying handle. Get reports whether the key was present instead of
// returning a sentinel "not found" error, matching the "get(key) ->
// option<value>" shape spec §6 specifies.
type Store interface {
	Put(key, value []byte) error
	Get(key []byte) (value []byte, found bool, err error)
	Delete(key []byte) error
	Close() error
}
