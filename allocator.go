// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package icepool implements the JSEP candidate pool: speculatively
// pre-gathered ICE candidate sessions that are handed off, with identity
// bound, once a transport is negotiated.
package icepool

import (
	"fmt"

	"github.com/pion/logging"
	"github.com/pion/stun/v3"
)

// Allocator owns the candidate pool. It tracks the active STUN/TURN server
// set, keeps the pool filled to the configured size, and transfers
// exclusive ownership of a pooled session to the caller on take.
//
// All mutating calls must be serialized by the caller, typically by
// confining them to the signaling goroutine. Gathering inside the pooled
// sessions proceeds asynchronously and is opaque to the Allocator.
type Allocator struct {
	factory SessionFactory

	stunServers []*stun.URI
	turnServers []RelayServer
	poolSize    int

	// pooled is FIFO ordered: pooled[0] is the next session to be taken.
	pooled []Session

	// highWatermark counts the sessions ever created in the current server
	// epoch. It never decreases within an epoch, so slots consumed by a
	// take or a trim are not refilled when the pool size grows back.
	highWatermark int

	closed bool

	loggerFactory logging.LoggerFactory
	log           logging.LeveledLogger
}

// NewAllocator creates a new Allocator with an empty configuration.
func NewAllocator(config *AllocatorConfig) (*Allocator, error) {
	if config.SessionFactory == nil {
		return nil, ErrNoSessionFactory
	}

	a := &Allocator{}
	config.initWithDefaults(a)

	return a, nil
}

// SetConfiguration replaces the active server set and pool size target.
//
// A change to the server set invalidates the epoch: every pooled session is
// discarded and the slot high-watermark resets. A pool size above the
// high-watermark creates exactly the missing sessions and starts them
// gathering; a pool size below the current entry count trims sessions from
// the tail. Trimmed and taken slots stay spent for the rest of the epoch,
// so shrink/grow cycles never allocate more sessions in total than the
// largest size requested since the servers last changed.
//
// A negative poolSize is treated as zero. A factory failure aborts the fill
// and is returned wrapped in ErrSessionCreation; sessions created before
// the failure remain pooled and counted against the high-watermark.
func (a *Allocator) SetConfiguration(stunServers []*stun.URI, turnServers []RelayServer, poolSize int) error {
	if a.closed {
		return ErrClosed
	}

	if poolSize < 0 {
		poolSize = 0
	}

	if !stunServersEqual(a.stunServers, stunServers) || !turnServersEqual(a.turnServers, turnServers) {
		a.log.Debugf("Server set changed, discarding %d pooled sessions", len(a.pooled))
		a.discardPooled()
		a.highWatermark = 0
		a.stunServers = append([]*stun.URI(nil), stunServers...)
		a.turnServers = append([]RelayServer(nil), turnServers...)
	}

	a.poolSize = poolSize

	if poolSize > a.highWatermark {
		for a.highWatermark < poolSize {
			session, err := a.factory.NewSession("", 0, a.stunServers, a.turnServers)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrSessionCreation, err) //nolint:errorlint
			}

			a.highWatermark++
			session.StartGathering()
			a.pooled = append(a.pooled, session)
		}
	} else {
		// Trim from the tail so the remaining entries keep FIFO order.
		// The high-watermark is untouched: these slots are spent.
		for len(a.pooled) > poolSize {
			last := len(a.pooled) - 1
			a.pooled[last].Discard()
			a.pooled[last] = nil
			a.pooled = a.pooled[:last]
		}
	}

	return nil
}

// GetPooledSession returns the session the next TakePooledSession call
// would remove, or nil if the pool is empty. Ownership is not transferred;
// callers must not mutate the returned session.
func (a *Allocator) GetPooledSession() Session {
	if len(a.pooled) == 0 {
		return nil
	}

	return a.pooled[0]
}

// TakePooledSession removes the longest-pooled session, binds it to the
// given transport identity and returns it. The Allocator retains no
// reference afterwards. An empty pool returns nil; callers are expected to
// fall back to on-demand gathering.
func (a *Allocator) TakePooledSession(contentName string, component uint16, ufrag, pwd string) Session {
	if len(a.pooled) == 0 {
		return nil
	}

	session := a.pooled[0]
	a.pooled[0] = nil
	a.pooled = a.pooled[1:]

	session.UpdateIdentity(contentName, component, ufrag, pwd)

	return session
}

// STUNServers returns the STUN server set from the last applied configuration.
func (a *Allocator) STUNServers() []*stun.URI {
	return append([]*stun.URI(nil), a.stunServers...)
}

// TURNServers returns the relay list from the last applied configuration.
func (a *Allocator) TURNServers() []RelayServer {
	return append([]RelayServer(nil), a.turnServers...)
}

// CandidatePoolSize returns the pool size target from the last applied configuration.
func (a *Allocator) CandidatePoolSize() int {
	return a.poolSize
}

// Close discards every still-pooled session. Further SetConfiguration
// calls fail with ErrClosed; sessions already taken are unaffected.
func (a *Allocator) Close() error {
	if a.closed {
		return ErrClosed
	}

	a.closed = true
	a.discardPooled()

	return nil
}

func (a *Allocator) discardPooled() {
	for i, session := range a.pooled {
		session.Discard()
		a.pooled[i] = nil
	}
	a.pooled = a.pooled[:0]
}
