// Package confloader loads layered configuration with koanf.
//
// Sources, lowest to highest priority:
//
//  1. Defaults already present in the target struct
//  2. YAML file
//  3. Environment variables (KVANTUM_ prefix)
//  4. Explicit maps (command-line flags, tests)
//
// Environment keys use a double underscore as the section separator so
// that single underscores survive inside key names:
//
//	KVANTUM_LISTEN__ACCEPT_RATE=100  ->  listen.accept_rate
//
// A Loader can also be written back to disk as YAML, which the filter
// settings file store relies on. Watcher reports changes to watched files
// through fsnotify.
package confloader
