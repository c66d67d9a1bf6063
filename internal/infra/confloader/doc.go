// Package confloader loads layered configuration with koanf.
//
// Layers, highest priority first:
//
//  1. Overrides (command-line flags), see WithOverrides
//  2. Environment variables (SESSKEEP_<SECTION>_<KEY>)
//  3. YAML configuration file
//  4. Values already present in the target struct
//
// Watcher reports configuration file edits, debounced, so long-running
// commands can reload.
package confloader
