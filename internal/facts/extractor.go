// Package facts turns raw CLI command output into structured DeviceFacts.
// Parsing is best-effort by contract: malformed or truncated output
// degrades to partial facts with zero-valued fields, never to an error.
package facts

import (
	"context"

	"netwalker/internal/connector"
	"netwalker/internal/domain"
)

// Command is one CLI command the extractor wants run on a device
type Command struct {
	Name string // output map key, e.g. "version"
	CLI  string // the command line, e.g. "show version"
}

// Extractor produces DeviceFacts from raw command output
type Extractor interface {
	// Commands lists the commands to run, in order
	Commands() []Command
	// Parse extracts facts from the collected outputs, keyed by command
	// name. Missing or garbled outputs yield partial facts.
	Parse(outputs map[string]string) *domain.DeviceFacts
}

// Gatherer drives a session through an extractor's command set. It is the
// piece the traversal engine talks to; tests substitute their own.
type Gatherer interface {
	Gather(ctx context.Context, sess connector.Session) (*domain.DeviceFacts, int, error)
}

// CiscoExtractor parses Cisco IOS/IOS-XE command output
type CiscoExtractor struct{}

// Commands returns the standard inventory command set
func (CiscoExtractor) Commands() []Command {
	return []Command{
		{Name: "version", CLI: "show version"},
		{Name: "cdp", CLI: "show cdp neighbors detail"},
		{Name: "lldp", CLI: "show lldp neighbors detail"},
		{Name: "vlan", CLI: "show vlan brief"},
		{Name: "stack", CLI: "show switch detail"},
		{Name: "inventory", CLI: "show inventory"},
		{Name: "interfaces", CLI: "show ip interface brief"},
	}
}

// Parse assembles DeviceFacts from whatever outputs were collected
func (CiscoExtractor) Parse(outputs map[string]string) *domain.DeviceFacts {
	f := &domain.DeviceFacts{}

	parseVersion(outputs["version"], f)
	f.Neighbors = append(f.Neighbors, parseCDPNeighbors(outputs["cdp"])...)
	f.Neighbors = append(f.Neighbors, parseLLDPNeighbors(outputs["lldp"])...)
	f.Vlans = parseVlanBrief(outputs["vlan"])
	f.StackMembers = parseStackDetail(outputs["stack"])
	f.Interfaces = parseIPInterfaceBrief(outputs["interfaces"])
	f.IsStack = len(f.StackMembers) > 1

	// The switch detail table carries no serials or models; the chassis
	// entries of "show inventory" do.
	inventory := parseInventory(outputs["inventory"])
	for i := range f.StackMembers {
		if item, ok := inventory[f.StackMembers[i].MemberNumber]; ok {
			f.StackMembers[i].SerialNumber = item.serial
			f.StackMembers[i].Model = item.model
		}
	}

	return f
}

// CiscoGatherer runs the Cisco command set over a session, tolerating
// per-command failures. The returned count is the number of commands that
// failed; the caller decides what a walk with failures means.
type CiscoGatherer struct {
	Extractor Extractor
}

// NewCiscoGatherer creates a gatherer over the Cisco extractor
func NewCiscoGatherer() *CiscoGatherer {
	return &CiscoGatherer{Extractor: CiscoExtractor{}}
}

// Gather runs every command, collecting what it can. Only a canceled
// context aborts the loop; a device rejecting one command still yields
// facts from the rest.
func (g *CiscoGatherer) Gather(ctx context.Context, sess connector.Session) (*domain.DeviceFacts, int, error) {
	outputs := make(map[string]string)
	failed := 0

	for _, cmd := range g.Extractor.Commands() {
		out, err := sess.Run(ctx, cmd.CLI)
		if err != nil {
			if ctx.Err() != nil {
				return nil, failed, ctx.Err()
			}
			failed++
			continue
		}
		outputs[cmd.Name] = out
	}

	return g.Extractor.Parse(outputs), failed, nil
}
