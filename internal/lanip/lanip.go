// Package lanip finds the host's LAN-facing IPv4 address, the one a
// phone on the same network can reach.
package lanip

import (
	"fmt"
	"net"

	"github.com/jackpal/gateway"
)

// LocalIP returns the IPv4 address of the interface that shares a
// subnet with the default gateway. Binding happens on the wildcard
// address; this is only the address worth advertising.
func LocalIP() (net.IP, error) {
	gw, err := gateway.DiscoverGateway()
	if err != nil {
		return nil, fmt.Errorf("discover gateway: %w", err)
	}
	ip, err := localIPForGateway(gw)
	if err != nil {
		return nil, err
	}
	return ip, nil
}

// localIPForGateway walks the up interfaces for a global-unicast IPv4
// whose subnet contains the gateway.
func localIPForGateway(gw net.IP) (net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ipv4 := ipnet.IP.To4()
			if ipv4 == nil || ipv4.IsLoopback() || !ipv4.IsGlobalUnicast() {
				continue
			}
			if ipnet.Contains(gw) {
				return ipv4, nil
			}
		}
	}
	return nil, fmt.Errorf("no IPv4 address in the same subnet as gateway %s", gw)
}
