package domain

// DeviceFacts is the structured output of the fact extractor for one walked
// device. Fields the extractor could not parse are left at their zero
// value; a best-effort partial record is always produced.
type DeviceFacts struct {
	Hostname        string
	SerialNumber    string
	Platform        string
	HardwareModel   string
	SoftwareVersion string
	Capabilities    []string
	IsStack         bool
	Interfaces      []InterfaceFact
	Vlans           []VlanFact
	StackMembers    []StackMemberFact
	Neighbors       []NeighborFact
}

// Key returns the normalized identity of the device the facts describe
func (f *DeviceFacts) Key() Key {
	return Normalize(f.Hostname)
}

// InterfaceFact is one parsed interface row
type InterfaceFact struct {
	Name      string
	Addresses []string
	Type      string
}

// VlanFact is one parsed VLAN table row
type VlanFact struct {
	VlanID           int
	Name             string
	PortCount        int
	PortchannelCount int
}

// StackMemberFact is one parsed stack member row
type StackMemberFact struct {
	MemberNumber int
	SerialNumber string
	Model        string
	Role         StackMemberRole
	Priority     int
	State        string
}

// NeighborFact is one CDP/LLDP neighbor announcement as seen from the
// walked device: the advertised remote name, the two interface ends, and
// whatever identity hints the protocol carried.
type NeighborFact struct {
	DestName     string
	DestIf       string
	SrcIf        string
	Protocol     string
	Platform     string
	Capabilities []string
	MgmtAddress  string
}
