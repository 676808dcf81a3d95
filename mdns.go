// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package icepool

import (
	"net"

	"github.com/google/uuid"
	"github.com/pion/logging"
	"github.com/pion/mdns/v2"
	"github.com/pion/transport/v3"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// MulticastDNSMode represents the different Multicast modes a gather
// session can run in
type MulticastDNSMode byte

// MulticastDNSMode enum
const (
	// MulticastDNSModeDisabled means host candidates expose their IPs
	MulticastDNSModeDisabled MulticastDNSMode = iota + 1

	// MulticastDNSModeQueryAndGather means host candidates use an mDNS
	// hostname announced by the session instead of their IPs
	MulticastDNSModeQueryAndGather
)

func generateMulticastDNSName() (string, error) {
	// https://tools.ietf.org/id/draft-ietf-rtcweb-mdns-ice-candidates-02.html#gathering
	// The unique name MUST consist of a version 4 UUID as defined in [RFC4122], followed by ".local".
	u, err := uuid.NewRandom()

	return u.String() + ".local", err
}

func createMulticastListener(n transport.Net, network, address string) (net.PacketConn, error) {
	addr, err := n.ResolveUDPAddr(network, address)
	if err != nil {
		return nil, err
	}

	return n.ListenUDP(network, addr)
}

func createMulticastDNS(n transport.Net, mDNSName string, networkTypes []NetworkType, log logging.LeveledLogger) (*mdns.Conn, error) {
	var (
		pktConnIPV4              *ipv4.PacketConn
		pktConnIPV6              *ipv6.PacketConn
		ipV4Enabled, ipV6Enabled bool
	)

	for _, t := range networkTypes {
		if t == NetworkTypeUDP4 {
			ipV4Enabled = true
		} else if t == NetworkTypeUDP6 {
			ipV6Enabled = true
		}
	}

	if ipV4Enabled {
		l, err := createMulticastListener(n, "udp4", mdns.DefaultAddressIPv4)
		if err != nil {
			log.Errorf("Failed to enable IPv4 mDNS (%s)", err)
		} else {
			pktConnIPV4 = ipv4.NewPacketConn(l)
		}
	}

	if ipV6Enabled {
		l, err := createMulticastListener(n, "udp6", mdns.DefaultAddressIPv6)
		if err != nil {
			log.Errorf("Failed to enable IPv6 mDNS (%s)", err)
		} else {
			pktConnIPV6 = ipv6.NewPacketConn(l)
		}
	}

	if pktConnIPV4 == nil && pktConnIPV6 == nil {
		log.Errorf("Failed to enable IPv4 or IPv6 mDNS, host candidates will expose IPs")

		return nil, nil //nolint:nilnil
	}

	return mdns.Server(pktConnIPV4, pktConnIPV6, &mdns.Config{
		LocalNames: []string{mDNSName},
	})
}
