// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package icepool

// NetworkType represents the type of network
type NetworkType int

// NetworkType enum
const (
	// NetworkTypeUDP4 indicates UDP over IPv4
	NetworkTypeUDP4 NetworkType = iota + 1

	// NetworkTypeUDP6 indicates UDP over IPv6
	NetworkTypeUDP6
)

// String makes NetworkType printable
func (t NetworkType) String() string {
	switch t {
	case NetworkTypeUDP4:
		return "udp4"
	case NetworkTypeUDP6:
		return "udp6"
	default:
		return "unknown network type"
	}
}

// IsIPv4 returns whether the network type is IPv4
func (t NetworkType) IsIPv4() bool {
	return t == NetworkTypeUDP4
}

// IsIPv6 returns whether the network type is IPv6
func (t NetworkType) IsIPv6() bool {
	return t == NetworkTypeUDP6
}

func supportedNetworkTypes() []NetworkType {
	return []NetworkType{NetworkTypeUDP4, NetworkTypeUDP6}
}
