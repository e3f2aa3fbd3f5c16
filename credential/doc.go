// Package credential stores the bearer token an API client attaches to
// requests.
//
// Every backend implements Store. An empty token with a nil error means no
// credential is present.
//
//	store := credential.NewMemoryStore()
//	_ = store.SetToken(ctx, token)
//
// Backends:
//   - MemoryStore: process-local, lock-free.
//   - RedisStore: shared between processes via go-redis; TTL follows the
//     token's exp claim when none is configured.
//   - FileStore: a ChaCha20-Poly1305 encrypted file.
//   - TokenSourceStore: tokens minted by an oauth2.TokenSource.
//
// Open builds the backend named by a config.CredentialConfig.
package credential
