package domain

import "time"

// DeviceStatus represents the lifecycle status of an inventoried device
type DeviceStatus string

const (
	// DeviceStatusProvisional marks a device known only from a neighbor
	// announcement, not yet confirmed by a successful walk
	DeviceStatusProvisional DeviceStatus = "provisional"
	// DeviceStatusActive marks a device that has been successfully walked
	DeviceStatusActive DeviceStatus = "active"
	// DeviceStatusBoundary marks a walked device whose neighbors were
	// intentionally not expanded
	DeviceStatusBoundary DeviceStatus = "boundary"
	// DeviceStatusFailed marks a device that exhausted connection retries
	// during the current run
	DeviceStatusFailed DeviceStatus = "failed"
)

// WalkState is the traversal state of a queue entry. Every entry ends in
// exactly one of the terminal states.
type WalkState string

const (
	WalkStatePending         WalkState = "pending"
	WalkStateInFlight        WalkState = "in_flight"
	WalkStateWalked          WalkState = "walked"
	WalkStateFailed          WalkState = "failed"
	WalkStateSkippedBoundary WalkState = "skipped_boundary"
	WalkStateSkippedDepth    WalkState = "skipped_depth"
	WalkStateSkippedExcluded WalkState = "skipped_excluded"

	// WalkStateAlias marks a key claimed as an alternate name of a
	// device already walked under another key. Alias entries reserve
	// the name in the visited set but represent no device of their own.
	WalkStateAlias WalkState = "alias"
)

// Terminal reports whether the state is a terminal state
func (s WalkState) Terminal() bool {
	switch s {
	case WalkStateWalked, WalkStateFailed, WalkStateSkippedBoundary,
		WalkStateSkippedDepth, WalkStateSkippedExcluded, WalkStateAlias:
		return true
	}
	return false
}

// Device is one inventoried network device, keyed by normalized hostname.
// At most one canonical row exists per key; a provisional row is upgraded
// in place once the device is walked.
type Device struct {
	ID              int64        `json:"id"`
	Key             Key          `json:"key"`
	Hostname        string       `json:"hostname"`
	SerialNumber    string       `json:"serial_number,omitempty"`
	Platform        string       `json:"platform,omitempty"`
	HardwareModel   string       `json:"hardware_model,omitempty"`
	SoftwareVersion string       `json:"software_version,omitempty"`
	Capabilities    []string     `json:"capabilities,omitempty"`
	IsStack         bool         `json:"is_stack"`
	Status          DeviceStatus `json:"status"`
	FirstSeen       time.Time    `json:"first_seen"`
	LastSeen        time.Time    `json:"last_seen"`
}

// Interface is one interface owned by a device. Device identity is never
// derived from interface addresses, only from hostname.
type Interface struct {
	DeviceID  int64    `json:"device_id"`
	Name      string   `json:"name"`
	Addresses []string `json:"addresses,omitempty"`
	Type      string   `json:"type,omitempty"`
}

// Vlan is one VLAN owned by a device, unique per (device, vlan_id)
type Vlan struct {
	DeviceID         int64     `json:"device_id"`
	VlanID           int       `json:"vlan_id"`
	Name             string    `json:"name,omitempty"`
	PortCount        int       `json:"port_count"`
	PortchannelCount int       `json:"portchannel_count"`
	LastSeen         time.Time `json:"last_seen"`
}

// StackMemberRole is the role a member plays within a switch stack
type StackMemberRole string

const (
	StackRoleActive  StackMemberRole = "active"
	StackRoleStandby StackMemberRole = "standby"
	StackRoleMember  StackMemberRole = "member"
)

// StackMember is one member of a switch stack, unique per (device, member_number)
type StackMember struct {
	DeviceID     int64           `json:"device_id"`
	MemberNumber int             `json:"member_number"`
	SerialNumber string          `json:"serial_number,omitempty"`
	Model        string          `json:"model,omitempty"`
	Role         StackMemberRole `json:"role,omitempty"`
	Priority     int             `json:"priority"`
	State        string          `json:"state,omitempty"`
	LastSeen     time.Time       `json:"last_seen"`
}
