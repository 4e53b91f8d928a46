// Package modlist discovers the mods installed under a mods directory and
// puts them into a deterministic load order.
//
// Each immediate subdirectory holding a modinfo.hcl manifest is one mod:
//
//	mod "mod_msu" {
//	  name        = "Modding Standards & Utilities"
//	  version     = "1.6.0"
//	  priority    = 1
//	  load_after  = ["mod_hooks"]
//	  load_before = ["mod_legends"]
//	  requires    = ["mod_hooks"]
//	  exclude     = ["*.psd", "docs/**"]
//	}
//
// A broken manifest excludes only that mod; the problem is recorded in
// Result.Problems and the scan continues. Relations (load_after,
// load_before, requires) always win over priority. Lower priority loads
// earlier, and ties between otherwise unconstrained mods are broken by
// ascending identifier.
package modlist
