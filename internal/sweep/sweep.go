// Package sweep discovers additional walk seeds by scanning configured
// networks for hosts answering on the SSH port.
package sweep

import (
	"context"
	"fmt"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/rs/zerolog"
)

const sshPort = "22"

// Scanner finds SSH-reachable hosts on CIDR ranges with nmap.
type Scanner struct {
	timeout time.Duration
	log     zerolog.Logger
}

func NewScanner(timeout time.Duration, log zerolog.Logger) *Scanner {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Scanner{timeout: timeout, log: log}
}

// Run scans the given networks and returns the addresses of every up
// host with an open SSH port, in scan order.
func (s *Scanner) Run(ctx context.Context, networks []string) ([]string, error) {
	if len(networks) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets(networks...),
		nmap.WithPorts(sshPort),
		nmap.WithSkipHostDiscovery(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating scanner: %w", err)
	}

	s.log.Info().Strs("networks", networks).Msg("sweeping for SSH hosts")
	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("sweep failed: %w", err)
	}
	if warnings != nil && len(*warnings) > 0 {
		s.log.Warn().Strs("warnings", *warnings).Msg("sweep completed with warnings")
	}

	addrs := hostsWithOpenSSH(result)
	s.log.Info().Int("hosts", len(addrs)).Msg("sweep complete")
	return addrs, nil
}

func hostsWithOpenSSH(result *nmap.Run) []string {
	if result == nil {
		return nil
	}

	var addrs []string
	for _, host := range result.Hosts {
		if host.Status.State != "up" || len(host.Addresses) == 0 {
			continue
		}

		open := false
		for _, port := range host.Ports {
			if port.State.State == "open" {
				open = true
				break
			}
		}
		if !open {
			continue
		}

		ip := host.Addresses[0].Addr
		for _, addr := range host.Addresses {
			if addr.AddrType == "ipv4" {
				ip = addr.Addr
				break
			}
		}
		addrs = append(addrs, ip)
	}
	return addrs
}
