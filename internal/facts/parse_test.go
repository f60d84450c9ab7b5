package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netwalker/internal/domain"
)

const showVersion = `Cisco IOS XE Software, Version 16.12.04
Cisco IOS Software [Gibraltar], Catalyst L3 Switch Software (CAT3K_CAA-UNIVERSALK9-M), Version 16.12.4, RELEASE SOFTWARE (fc5)
Technical Support: http://www.cisco.com/techsupport
Copyright (c) 1986-2020 by Cisco Systems, Inc.

WTSP-CORE-A uptime is 1 year, 12 weeks, 3 days, 2 hours, 33 minutes
System returned to ROM by Reload Command

cisco WS-C3850-48T (MIPS) processor (revision V04) with 865815K/6147K bytes of memory.
Processor board ID FOX2130A1BC
Model number                    : WS-C3850-48T
System serial number            : FOX2130A1BC
`

const showCDP = `-------------------------
Device ID: WTSP-EDGE-1.corp.example.com(FOC1876X0LR)
Entry address(es):
  IP address: 10.1.20.3
Platform: cisco WS-C2960X-24PS-L,  Capabilities: Switch IGMP
Interface: GigabitEthernet1/0/47,  Port ID (outgoing port): GigabitEthernet0/1
Holdtime : 154 sec

-------------------------
Device ID: SEP001122334455
Entry address(es):
  IP address: 10.1.30.12
Platform: Cisco IP Phone 8851,  Capabilities: Host Phone Two-port Mac Relay
Interface: GigabitEthernet1/0/12,  Port ID (outgoing port): Port 1
Holdtime : 132 sec
`

const showLLDP = `------------------------------------------------
Local Intf: Gi1/0/48
Chassis id: 00aa.bb12.cd34
Port id: Gi0/2
Port Description: uplink
System Name: WTSP-EDGE-2

System Capabilities: B
Enabled Capabilities: B
Management Addresses:
    IP: 10.1.20.4
`

const showVlan = `VLAN Name                             Status    Ports
---- -------------------------------- --------- -------------------------------
1    default                          active    Gi1/0/1, Gi1/0/2, Gi1/0/3
100  USERS                            active    Gi1/0/4, Gi1/0/5, Gi1/0/6,
                                                Gi1/0/7, Po1
200  VOICE                            active    Gi1/0/12
`

const showSwitch = `Switch/Stack Mac Address : 689c.e2ff.b4c0
                                             H/W   Current
Switch#  Role      Mac Address     Priority Version  State
------------------------------------------------------------
*1       Active    689c.e2ff.b4c0     15     V04     Ready
 2       Standby   689c.e2ff.b4c1     14     V04     Ready
 3       Member    689c.e2ff.b4c2     1      V04     Ready
`

const showInventory = `NAME: "Switch 1", DESCR: "WS-C3850-48T-E"
PID: WS-C3850-48T-E    , VID: V04  , SN: FOX2130A1BC

NAME: "Switch 1 - Power Supply A", DESCR: "Switch 1 - Power Supply A"
PID: PWR-C1-715WAC     , VID: V01  , SN: LIT21300AAA

NAME: "Switch 2", DESCR: "WS-C3850-48T-E"
PID: WS-C3850-48T-E    , VID: V04  , SN: FOX2130A1BD

NAME: "Switch 3", DESCR: "WS-C3850-48T-E"
PID: WS-C3850-48T-E    , VID: V04  , SN: FOX2130A1BE
`

const showIPInt = `Interface              IP-Address      OK? Method Status                Protocol
Vlan100                10.1.100.2      YES NVRAM  up                    up
GigabitEthernet1/0/1   unassigned      YES unset  up                    up
Loopback0              10.255.0.1      YES NVRAM  up                    up
`

func TestParseFullCommandSet(t *testing.T) {
	f := CiscoExtractor{}.Parse(map[string]string{
		"version":    showVersion,
		"cdp":        showCDP,
		"lldp":       showLLDP,
		"vlan":       showVlan,
		"stack":      showSwitch,
		"inventory":  showInventory,
		"interfaces": showIPInt,
	})

	assert.Equal(t, "WTSP-CORE-A", f.Hostname)
	assert.Equal(t, "FOX2130A1BC", f.SerialNumber)
	assert.Equal(t, "16.12.04", f.SoftwareVersion)
	assert.Equal(t, "WS-C3850-48T", f.HardwareModel)
	assert.Equal(t, "cisco WS-C3850-48T", f.Platform)
	assert.True(t, f.IsStack)

	require.Len(t, f.Neighbors, 3, "two CDP neighbors plus one LLDP neighbor")

	edge := f.Neighbors[0]
	assert.Equal(t, "WTSP-EDGE-1.corp.example.com(FOC1876X0LR)", edge.DestName)
	assert.Equal(t, domain.Key("wtsp-edge-1"), domain.Normalize(edge.DestName))
	assert.Equal(t, "GigabitEthernet1/0/47", edge.SrcIf)
	assert.Equal(t, "GigabitEthernet0/1", edge.DestIf)
	assert.Equal(t, "10.1.20.3", edge.MgmtAddress)
	assert.Equal(t, "cisco WS-C2960X-24PS-L", edge.Platform)
	assert.Equal(t, "CDP", edge.Protocol)

	phone := f.Neighbors[1]
	assert.Contains(t, phone.Capabilities, "Phone")

	lldp := f.Neighbors[2]
	assert.Equal(t, "WTSP-EDGE-2", lldp.DestName)
	assert.Equal(t, "Gi1/0/48", lldp.SrcIf)
	assert.Equal(t, "Gi0/2", lldp.DestIf)
	assert.Equal(t, "10.1.20.4", lldp.MgmtAddress)
	assert.Equal(t, "LLDP", lldp.Protocol)
}

func TestParseVlanBriefCountsPorts(t *testing.T) {
	vlans := parseVlanBrief(showVlan)
	require.Len(t, vlans, 3)

	byID := map[int]domain.VlanFact{}
	for _, v := range vlans {
		byID[v.VlanID] = v
	}

	assert.Equal(t, "USERS", byID[100].Name)
	assert.Equal(t, 4, byID[100].PortCount, "continuation line ports counted")
	assert.Equal(t, 1, byID[100].PortchannelCount)
	assert.Equal(t, 3, byID[1].PortCount)
	assert.Equal(t, 1, byID[200].PortCount)
}

func TestParseStackDetail(t *testing.T) {
	members := parseStackDetail(showSwitch)
	require.Len(t, members, 3)

	assert.Equal(t, 1, members[0].MemberNumber)
	assert.Equal(t, domain.StackRoleActive, members[0].Role)
	assert.Equal(t, 15, members[0].Priority)
	assert.Equal(t, "Ready", members[0].State)
	assert.Equal(t, domain.StackRoleStandby, members[1].Role)
	assert.Equal(t, domain.StackRoleMember, members[2].Role)
}

func TestParseInventory(t *testing.T) {
	items := parseInventory(showInventory)
	require.Len(t, items, 3, "only chassis entries, not power supplies")

	assert.Equal(t, "FOX2130A1BC", items[1].serial)
	assert.Equal(t, "WS-C3850-48T-E", items[1].model)
	assert.Equal(t, "FOX2130A1BD", items[2].serial)
	assert.Equal(t, "FOX2130A1BE", items[3].serial)
}

func TestParseMergesInventoryIntoStackMembers(t *testing.T) {
	f := CiscoExtractor{}.Parse(map[string]string{
		"stack":     showSwitch,
		"inventory": showInventory,
	})

	require.Len(t, f.StackMembers, 3)
	for i, m := range f.StackMembers {
		assert.NotEmpty(t, m.SerialNumber, "member %d", i)
		assert.Equal(t, "WS-C3850-48T-E", m.Model, "member %d", i)
	}
	assert.Equal(t, "FOX2130A1BC", f.StackMembers[0].SerialNumber)
	assert.Equal(t, "FOX2130A1BD", f.StackMembers[1].SerialNumber)
}

func TestParseIPInterfaceBrief(t *testing.T) {
	ifaces := parseIPInterfaceBrief(showIPInt)
	require.Len(t, ifaces, 2, "unassigned interfaces are skipped")
	assert.Equal(t, "Vlan100", ifaces[0].Name)
	assert.Equal(t, []string{"10.1.100.2"}, ifaces[0].Addresses)
	assert.Equal(t, "svi", ifaces[0].Type)
	assert.Equal(t, "loopback", ifaces[1].Type)
}

func TestParseNeverErrorsOnGarbage(t *testing.T) {
	f := CiscoExtractor{}.Parse(map[string]string{
		"version": "% Invalid input detected at '^' marker.",
		"cdp":     "garbage\nnot a table\n",
		"vlan":    "----\n",
	})
	require.NotNil(t, f)
	assert.Empty(t, f.Hostname)
	assert.Empty(t, f.Neighbors)
	assert.Empty(t, f.Vlans)
}

func TestParseEmptyOutputs(t *testing.T) {
	f := CiscoExtractor{}.Parse(map[string]string{})
	require.NotNil(t, f)
	assert.False(t, f.IsStack)
}
