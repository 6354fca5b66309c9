// Package cacheaside puts a cache-aside layer in front of a key-value store.
//
// A caller wraps an expensive, side-effect-free computation; repeated calls
// with the same arguments are answered from the store until the TTL expires.
//
// Components:
//   - store.Store: byte store with TTL (Redis, Olric, BigCache, Ristretto, in-memory LRU).
//   - codec.Registry: named codecs (json, raw, msgpack, cbor, protobuf).
//   - keys: argument fingerprints, "<namespace>:<fingerprint>".
//   - Cache: one engine; Sharding: several engines behind a consistent-hash ring.
//
// On a miss concurrent callers of one key share a single execution of the
// loader. A nil result is cached as a short-lived placeholder (negative
// caching). Store outages degrade to recomputation; undecodable entries are
// deleted on read.
//
//	c, _ := cacheaside.New(cacheaside.Options{Store: rs, Prefix: "app"})
//	getUser := cacheaside.Wrap1(c, "user", time.Minute, repo.FindUser)
//	u, err := getUser(ctx, 42)              // key "app:user:42"
//	_ = c.DeleteFnCache(ctx, "user", []any{42})
//	_ = c.Clean(ctx, "user:*", 0)           // drop all users
package cacheaside
