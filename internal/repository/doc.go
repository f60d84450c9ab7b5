// Package repository defines the data access interfaces for netwalker.
//
// This package provides the repository abstraction for persisting and
// retrieving the device inventory. The actual implementation is in the
// sqlite subpackage.
//
// # Store Interface
//
// The Store interface defines all data access methods for devices,
// interfaces, VLANs, stack members, and neighbor links, plus the
// reconciliation contract the discovery engine depends on:
//
//   - at most one canonical row per normalized hostname; provisional rows
//     created from neighbor announcements are upgraded in place on walk
//   - the two directional observations of a physical link collapse onto
//     one canonical undirected row
//   - one device walk persists as a single atomic unit
//
// # SQLite Implementation
//
// The sqlite implementation provides a complete store using SQLite with
// WAL mode. It handles ON CONFLICT upserts per natural key, JSON
// serialization of list-valued columns, and transactional walk persistence.
//
// # Testing
//
// The sqlite store is tested with in-memory databases to pin down the
// reconciliation semantics (merge, dedup, idempotence).
package repository
