// Package builtin provides the components modhost ships with so a bare
// install has something to run:
//
//   - clock: counts frames from the tick loop.
//   - kv: an in-memory string store seeded from settings and an optional
//     YAML file, reloadable in place.
//   - heartbeat: logs a beat at a fixed period. It is meant to depend on
//     clock and wait for the world gate.
//
// Register adds their factories to a manifest catalog.
package builtin
