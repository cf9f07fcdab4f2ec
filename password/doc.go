// Package password provides one-way, memory-hard hashing and verification of
// user secrets using argon2id.
//
// Digests are self-describing PHC strings
// ($argon2id$v=19$m=...,t=...,p=...$salt$hash), so cost parameters can be
// raised later without invalidating digests already at rest;
// [Hasher.NeedsRehash] flags digests created under weaker parameters for lazy
// upgrade on the next successful verification.
//
// # What this package must NOT do
//
//   - Store or log plaintext secrets.
//   - Return an error from Verify: a digest that cannot be parsed simply
//     fails verification.
//   - Perform any I/O beyond reading crypto/rand for salts.
package password
