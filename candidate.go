// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package icepool

import "fmt"

const (
	// ComponentRTP indicates that the candidate is used for RTP
	ComponentRTP uint16 = 1
	// ComponentRTCP indicates that the candidate is used for RTCP
	ComponentRTCP uint16 = 2
)

// Candidate is a discovered network address usable for a connection
// attempt. Unlike a live agent candidate it carries no connection; pooled
// sessions report candidates as plain values.
type Candidate struct {
	ID          string
	Type        CandidateType
	NetworkType NetworkType
	Address     string
	Port        int
	Component   uint16

	// RelatedAddress and RelatedPort carry the base address a reflexive or
	// relayed candidate was derived from. Empty for host candidates.
	RelatedAddress string
	RelatedPort    int
}

// String makes Candidate printable
func (c Candidate) String() string {
	if c.RelatedAddress == "" {
		return fmt.Sprintf("%s %s %s:%d", c.Type, c.NetworkType, c.Address, c.Port)
	}

	return fmt.Sprintf("%s %s %s:%d related %s:%d", c.Type, c.NetworkType, c.Address, c.Port, c.RelatedAddress, c.RelatedPort)
}
