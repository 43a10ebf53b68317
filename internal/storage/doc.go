// Package storage persists small pieces of server state.
//
// Settings is a namespaced key to bool store; the socket filter registry
// keeps its enablement flags in the "socketFilters" namespace. Settings
// delegates persistence to a Backend:
//
//   - FileBackend writes <dir>/<namespace>.yml through the koanf YAML loader
//   - KVBackend stores <namespace>/<key> entries in a KV engine
//   - MemoryBackend keeps everything in process memory
//
// BadgerEngine is the embedded KV engine behind KVBackend.
package storage
