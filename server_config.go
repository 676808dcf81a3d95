// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package icepool

import (
	"github.com/pion/stun/v3"
)

// RelayServer describes a single TURN relay the pool gathers against.
// Relays are order-sensitive: two configurations with the same relays in a
// different order are treated as different server sets.
type RelayServer struct {
	Address    string
	Port       int
	Username   string
	Credential string
	Proto      stun.ProtoType
	Secure     bool
}

// URI converts the relay descriptor into a STUN URI usable for gathering.
func (r RelayServer) URI() *stun.URI {
	scheme := stun.SchemeTypeTURN
	if r.Secure {
		scheme = stun.SchemeTypeTURNS
	}

	return &stun.URI{
		Scheme:   scheme,
		Host:     r.Address,
		Port:     r.Port,
		Username: r.Username,
		Password: r.Credential,
		Proto:    r.Proto,
	}
}

func uriSet(urls []*stun.URI) map[string]struct{} {
	set := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		set[u.String()] = struct{}{}
	}

	return set
}

// stunServersEqual reports whether two STUN server lists describe the same
// unordered set of endpoints. Duplicates collapse, order is ignored.
func stunServersEqual(a, b []*stun.URI) bool {
	setA, setB := uriSet(a), uriSet(b)
	if len(setA) != len(setB) {
		return false
	}

	for k := range setA {
		if _, ok := setB[k]; !ok {
			return false
		}
	}

	return true
}

// turnServersEqual reports whether two relay sequences are equal
// element-wise, order included.
func turnServersEqual(a, b []RelayServer) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
