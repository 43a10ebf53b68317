// Package filter provides the socket admission filters and the registry that
// decides which of them are active.
//
// A filter is a pure predicate over a socket.Context: it inspects state that
// is already in memory and never blocks, because it runs on the accept path
// before any worker is involved.
//
// The registry is built once at startup from an explicit catalog of
// (key, predicate, default) entries merged with persisted enablement flags
// from a Settings store. Missing flags are written back with their defaults.
// A Settings store that fails to load or save is logged and ignored; the
// in-memory defaults still produce a usable chain.
//
// The resulting Chain is immutable and evaluates filters in catalog order;
// the first filter that returns false rejects the connection.
package filter
