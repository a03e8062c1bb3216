// Package kvstore is the persisted key-value store behind the vault: the auth
// record and the per-account rate limit state live here.
//
// Every backend implements Store. Values are opaque bytes; JSON helpers are
// provided for callers that persist structured records.
//
// Backends:
//
//   - MemoryStore – process-local map, used in tests and ephemeral sessions.
//   - FileStore – one 0600 file per key under a directory, written through a
//     temp file and atomic rename. This is the local-first default.
//   - RedisStore – go-redis client, with ConnectRedis and RedisHealthcheck.
//   - PostgresStore – pgx pool over a single kv_entries table, with
//     ConnectPostgres, EnsureSchema (embedded goose migrations) and
//     PostgresHealthcheck.
//
// # Usage
//
//	store, err := kvstore.NewFileStore(filepath.Join(home, ".vault"))
//	if err != nil {
//	    return err
//	}
//	if err := kvstore.SetJSON(ctx, store, "ledgy-auth-storage", record); err != nil {
//	    return err
//	}
//
// Missing keys are reported as ErrNotFound by every backend; Delete of a
// missing key is not an error.
package kvstore
