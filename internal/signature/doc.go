// Package signature classifies a game executable into one of a fixed set of
// distribution variants by inspecting its PE headers, its section table and
// its SHA-256 digest.
//
// Rules are evaluated in order and the first match wins:
//
//  1. the large-address-aware flag is already set: AlreadyPatched
//  2. a DRM wrapper section is present, or the digest is a known
//     wrapped Steam build: SteamDrmWrapped
//  3. the digest is a known unwrapped Steam build: SteamUnprotected;
//     a known GOG build: Gog
//  4. otherwise: Unknown
//
// Known digests live in an HCL signature database. A default database is
// compiled in; callers may merge more with Database.Merge.
package signature
