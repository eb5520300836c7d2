// Package scratch inspects and sweeps the scratch root that holds temporary
// engine stores. Stores whose lock is held by a running conversion are never
// removed.
package scratch
