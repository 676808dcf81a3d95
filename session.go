// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package icepool

import (
	"github.com/pion/stun/v3"
)

// Session is a single candidate-gathering run against a fixed server set.
// A Session is owned by exactly one party at any time: the Allocator while
// pooled, the caller after TakePooledSession.
type Session interface {
	// StartGathering begins candidate discovery. The Allocator calls this
	// exactly once, immediately after the factory returns the session, so
	// every pooled session is already gathering.
	StartGathering()

	// UpdateIdentity binds the session to a negotiated transport. Called
	// exactly once, by TakePooledSession, never while the session is pooled.
	UpdateIdentity(contentName string, component uint16, ufrag, pwd string)

	// Discard releases a still-pooled session. Implementations must stop
	// any in-flight gathering and free network resources.
	Discard()
}

// SessionFactory creates Sessions for the Allocator. Pooled sessions are
// content-agnostic, so the factory receives placeholder identity values
// (empty content name, component 0) at pool-fill time.
type SessionFactory interface {
	NewSession(contentName string, component uint16, stunServers []*stun.URI, turnServers []RelayServer) (Session, error)
}

// The SessionFactoryFunc type is an adapter to allow the use of an
// ordinary function as a SessionFactory.
type SessionFactoryFunc func(contentName string, component uint16, stunServers []*stun.URI, turnServers []RelayServer) (Session, error)

// NewSession calls f.
func (f SessionFactoryFunc) NewSession(contentName string, component uint16, stunServers []*stun.URI, turnServers []RelayServer) (Session, error) {
	return f(contentName, component, stunServers, turnServers)
}
