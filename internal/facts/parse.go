package facts

import (
	"regexp"
	"strconv"
	"strings"

	"netwalker/internal/domain"
)

var (
	reUptime    = regexp.MustCompile(`(?m)^(\S+)\s+uptime is `)
	reVersion   = regexp.MustCompile(`Version\s+([^,\s]+)`)
	reSerial    = regexp.MustCompile(`(?im)^System serial number\s*:\s*(\S+)`)
	reBoardID   = regexp.MustCompile(`(?m)^Processor board ID\s+(\S+)`)
	reModelNum  = regexp.MustCompile(`(?im)^Model number\s*:\s*(\S+)`)
	rePlatform  = regexp.MustCompile(`(?m)^(cisco\s+\S+)\s+\(`)
	reCDPIface  = regexp.MustCompile(`Interface:\s*([^,]+),\s*Port ID \(outgoing port\):\s*(.+)`)
	reCDPAddr   = regexp.MustCompile(`IP address:\s*(\S+)`)
	reCDPPlat   = regexp.MustCompile(`Platform:\s*([^,]+?)\s*,\s*Capabilities:\s*(.+)`)
	reStackRow  = regexp.MustCompile(`(?m)^\*?\s*(\d+)\s+(Active|Standby|Member)\s+(\S+)\s+(\d+)\s+(\S+)\s+(\S+)`)
	reVlanRow   = regexp.MustCompile(`^(\d+)\s+(\S+)\s+(\S+)\s*(.*)$`)
	reInvSwitch = regexp.MustCompile(`^NAME: "Switch (\d+)"`)
	reInvPID    = regexp.MustCompile(`^PID:\s*(\S+)\s*,\s*VID:[^,]*,\s*SN:\s*(\S+)`)
)

// parseVersion extracts identity facts from "show version"
func parseVersion(out string, f *domain.DeviceFacts) {
	if out == "" {
		return
	}

	if m := reUptime.FindStringSubmatch(out); m != nil {
		f.Hostname = m[1]
	}
	if m := reVersion.FindStringSubmatch(out); m != nil {
		f.SoftwareVersion = m[1]
	}
	if m := reSerial.FindStringSubmatch(out); m != nil {
		f.SerialNumber = m[1]
	} else if m := reBoardID.FindStringSubmatch(out); m != nil {
		f.SerialNumber = m[1]
	}
	if m := reModelNum.FindStringSubmatch(out); m != nil {
		f.HardwareModel = m[1]
	}
	if m := rePlatform.FindStringSubmatch(out); m != nil {
		f.Platform = m[1]
		if f.HardwareModel == "" {
			f.HardwareModel = strings.TrimSpace(strings.TrimPrefix(m[1], "cisco"))
		}
	}
}

// parseCDPNeighbors splits "show cdp neighbors detail" into per-neighbor
// blocks. CDP appends the remote serial to the device ID in parentheses;
// identity normalization downstream strips it.
func parseCDPNeighbors(out string) []domain.NeighborFact {
	if out == "" {
		return nil
	}

	var neighbors []domain.NeighborFact
	blocks := strings.Split(out, "Device ID:")
	for _, block := range blocks[1:] {
		lines := strings.SplitN(block, "\n", 2)
		name := strings.TrimSpace(lines[0])
		if name == "" {
			continue
		}

		n := domain.NeighborFact{DestName: name, Protocol: "CDP"}

		if m := reCDPAddr.FindStringSubmatch(block); m != nil {
			n.MgmtAddress = m[1]
		}
		if m := reCDPPlat.FindStringSubmatch(block); m != nil {
			n.Platform = strings.TrimSpace(m[1])
			n.Capabilities = strings.Fields(strings.TrimSpace(m[2]))
		}
		if m := reCDPIface.FindStringSubmatch(block); m != nil {
			n.SrcIf = strings.TrimSpace(m[1])
			n.DestIf = strings.TrimSpace(m[2])
		}

		neighbors = append(neighbors, n)
	}
	return neighbors
}

// parseLLDPNeighbors splits "show lldp neighbors detail" into blocks
// keyed by "Local Intf:"
func parseLLDPNeighbors(out string) []domain.NeighborFact {
	if out == "" {
		return nil
	}

	var neighbors []domain.NeighborFact
	blocks := strings.Split(out, "Local Intf:")
	for _, block := range blocks[1:] {
		lines := strings.SplitN(block, "\n", 2)
		localIf := strings.TrimSpace(lines[0])
		if localIf == "" {
			continue
		}

		n := domain.NeighborFact{SrcIf: localIf, Protocol: "LLDP"}
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(line, "System Name:"):
				n.DestName = strings.TrimSpace(strings.TrimPrefix(line, "System Name:"))
			case strings.HasPrefix(line, "Port id:"):
				n.DestIf = strings.TrimSpace(strings.TrimPrefix(line, "Port id:"))
			case strings.HasPrefix(line, "IP:"):
				if n.MgmtAddress == "" {
					n.MgmtAddress = strings.TrimSpace(strings.TrimPrefix(line, "IP:"))
				}
			}
		}

		if n.DestName == "" {
			continue
		}
		neighbors = append(neighbors, n)
	}
	return neighbors
}

// parseVlanBrief parses the "show vlan brief" table, following port-list
// continuation lines, and counts ports and port-channels per VLAN
func parseVlanBrief(out string) []domain.VlanFact {
	if out == "" {
		return nil
	}

	var (
		vlans   []domain.VlanFact
		current *domain.VlanFact
	)

	countPorts := func(v *domain.VlanFact, portList string) {
		for _, p := range strings.Split(portList, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if strings.HasPrefix(p, "Po") {
				v.PortchannelCount++
			} else {
				v.PortCount++
			}
		}
	}

	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "----") || strings.HasPrefix(line, "VLAN ") {
			continue
		}

		if m := reVlanRow.FindStringSubmatch(line); m != nil {
			id, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			vlans = append(vlans, domain.VlanFact{VlanID: id, Name: m[2]})
			current = &vlans[len(vlans)-1]
			countPorts(current, m[4])
			continue
		}

		// Continuation line: more ports for the current VLAN
		if current != nil && strings.HasPrefix(line, " ") {
			countPorts(current, line)
		}
	}
	return vlans
}

// parseStackDetail parses the member table of "show switch detail". The
// active member's row is marked with a leading asterisk.
func parseStackDetail(out string) []domain.StackMemberFact {
	if out == "" {
		return nil
	}

	var members []domain.StackMemberFact
	for _, m := range reStackRow.FindAllStringSubmatch(out, -1) {
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		priority, _ := strconv.Atoi(m[4])
		members = append(members, domain.StackMemberFact{
			MemberNumber: num,
			Role:         domain.StackMemberRole(strings.ToLower(m[2])),
			Priority:     priority,
			State:        m[6],
		})
	}
	return members
}

type inventoryItem struct {
	model  string
	serial string
}

// parseInventory pulls per-member PID and serial from "show inventory".
// Stack member chassis entries are named "Switch N"; power supplies, fan
// trays and uplink modules carry longer names and are ignored.
func parseInventory(out string) map[int]inventoryItem {
	if out == "" {
		return nil
	}

	items := make(map[int]inventoryItem)
	member := -1
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)

		if m := reInvSwitch.FindStringSubmatch(line); m != nil {
			num, err := strconv.Atoi(m[1])
			if err != nil {
				member = -1
				continue
			}
			member = num
			continue
		}

		// Only the PID line directly under a chassis NAME line counts.
		if member >= 0 {
			if m := reInvPID.FindStringSubmatch(line); m != nil {
				items[member] = inventoryItem{model: m[1], serial: m[2]}
			}
			member = -1
		}
	}
	return items
}

// parseIPInterfaceBrief extracts addressed interfaces from
// "show ip interface brief"
func parseIPInterfaceBrief(out string) []domain.InterfaceFact {
	if out == "" {
		return nil
	}

	var ifaces []domain.InterfaceFact
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] == "Interface" {
			continue
		}
		addr := fields[1]
		if addr == "unassigned" || !strings.Contains(addr, ".") {
			continue
		}
		ifaces = append(ifaces, domain.InterfaceFact{
			Name:      fields[0],
			Addresses: []string{addr},
			Type:      interfaceType(fields[0]),
		})
	}
	return ifaces
}

func interfaceType(name string) string {
	switch {
	case strings.HasPrefix(name, "Vlan"):
		return "svi"
	case strings.HasPrefix(name, "Loopback"):
		return "loopback"
	case strings.HasPrefix(name, "Port-channel"), strings.HasPrefix(name, "Po"):
		return "portchannel"
	case strings.HasPrefix(name, "Tunnel"):
		return "tunnel"
	default:
		return "physical"
	}
}
