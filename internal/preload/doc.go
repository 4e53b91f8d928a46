// Package preload packages an ordered mod list into the archive consumed by
// the runtime mod loader.
//
// The archive always begins with msu_launcher/manifest.json, a JSON document
// with sorted keys describing the mods and their load order, followed by one
// entry per content file named <mod dir>/<relative path>. Entry headers carry
// a fixed timestamp and mode so that packaging the same input twice yields
// byte-identical archives.
package preload
