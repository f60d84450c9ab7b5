package sweep

import (
	"testing"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/stretchr/testify/assert"
)

func host(state, addr string, portStates ...string) nmap.Host {
	h := nmap.Host{
		Status:    nmap.Status{State: state},
		Addresses: []nmap.Address{{Addr: addr, AddrType: "ipv4"}},
	}
	for _, ps := range portStates {
		h.Ports = append(h.Ports, nmap.Port{ID: 22, State: nmap.State{State: ps}})
	}
	return h
}

func TestHostsWithOpenSSH(t *testing.T) {
	run := &nmap.Run{Hosts: []nmap.Host{
		host("up", "10.1.20.1", "open"),
		host("up", "10.1.20.2", "closed"),
		host("down", "10.1.20.3", "open"),
		host("up", "10.1.20.4", "filtered", "open"),
		{Status: nmap.Status{State: "up"}}, // no addresses
	}}

	assert.Equal(t, []string{"10.1.20.1", "10.1.20.4"}, hostsWithOpenSSH(run))
}

func TestHostsWithOpenSSHNilRun(t *testing.T) {
	assert.Empty(t, hostsWithOpenSSH(nil))
}
