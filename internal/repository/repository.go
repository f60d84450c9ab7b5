package repository

import (
	"context"

	"netwalker/internal/domain"
)

// NeighborObservation is one directional adjacency observation as reported
// by a walked device. The destination may be a device that has never been
// connected to.
type NeighborObservation struct {
	SrcName  string
	SrcIf    string
	DestName string
	DestIf   string
	Protocol string

	// Identity hints advertised for the destination, used to seed its
	// provisional row.
	DestPlatform     string
	DestCapabilities []string
}

// Walk bundles everything persisted for one successfully walked device.
// A Walk applies atomically: either the device row, its interfaces, VLANs,
// stack members, and outgoing links all land, or none do.
type Walk struct {
	Facts *domain.DeviceFacts
	// Status is the post-walk device status: active, or boundary when
	// the site policy halted expansion at this device.
	Status domain.DeviceStatus
}

// DeviceFilter narrows ListDevices results. The zero value matches
// everything.
type DeviceFilter struct {
	Status   domain.DeviceStatus
	Platform string
}

// Store is the reconciliation/persistence layer. Rows are only ever
// inserted or updated by the engine, never deleted; staleness is exposed
// through last_seen timestamps so past snapshots stay reproducible.
type Store interface {
	// SaveWalk persists one device walk as a single atomic unit and
	// reports whether the device was newly walked (inserted, or upgraded
	// from provisional).
	SaveWalk(ctx context.Context, walk *Walk) (deviceID int64, newlyWalked bool, err error)

	// UpsertDevice reconciles facts onto the canonical device row for
	// the facts' normalized hostname.
	UpsertDevice(ctx context.Context, facts *domain.DeviceFacts, status domain.DeviceStatus) (deviceID int64, newlyWalked bool, err error)

	// RecordNeighbor ensures the destination exists as at least a
	// provisional device and upserts the canonical undirected link.
	RecordNeighbor(ctx context.Context, obs NeighborObservation) error

	// UpsertVlans and UpsertStackMembers merge rows per natural key;
	// rows absent from the latest walk are retained, not deleted.
	UpsertVlans(ctx context.Context, deviceID int64, rows []domain.VlanFact) error
	UpsertStackMembers(ctx context.Context, deviceID int64, rows []domain.StackMemberFact) error

	// MarkFailed records that a device exhausted its connection retries
	// this run, creating a provisional-grade row if none exists.
	MarkFailed(ctx context.Context, name string) error

	// Read operations for the report layer
	GetDevice(ctx context.Context, key domain.Key) (*domain.Device, error)
	ListDevices(ctx context.Context, filter DeviceFilter) ([]domain.Device, error)
	ListLinks(ctx context.Context) ([]domain.NeighborLink, error)
	ListInterfaces(ctx context.Context, key domain.Key) ([]domain.Interface, error)
	ListVlans(ctx context.Context, key domain.Key) ([]domain.Vlan, error)
	ListStackMembers(ctx context.Context, key domain.Key) ([]domain.StackMember, error)

	// Close releases resources
	Close() error
}
