// Package patcher sets the large-address-aware flag of a game executable so
// the 32-bit process may use up to 4GB of address space.
//
// The patch touches exactly two bytes, the COFF file header Characteristics
// field, and is applied by rewriting the file through a temporary sibling
// that is synced and renamed over the original. A pristine copy is kept
// next to the executable the first time it is patched.
package patcher
