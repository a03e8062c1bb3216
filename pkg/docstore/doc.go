// Package docstore stores opaque encrypted documents by id.
//
// The vault keeps sealed items (ciphertext envelopes produced under the
// session working key) here. The store never sees plaintext and does not
// interpret the bytes it holds.
//
// Backends:
//
//   - MemoryStore – process-local map.
//   - KVStore – documents under a key prefix in any kvstore.Store.
//   - MongoStore – one document per id in a collection, see ConnectMongo.
//   - S3Store – one object per id under a key prefix in a bucket.
//
// Get returns ErrNotFound for unknown ids; Delete of an unknown id is a no-op.
package docstore
