// Package keys provides the public-key capability used to populate ticket
// identities, plus signing keys for ticket envelopes.
//
// API stability:
//
// Stable:
//   - PubKey parsing, validity and Hash160.
//   - Role-seed derivation.
//
// Experimental:
//   - Filesystem-backed key storage (KeyStore). It is a local-first utility
//     for operators and not part of the ticket wire contract.
package keys
