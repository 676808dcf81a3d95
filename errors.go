// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package icepool

import "errors"

var (
	// ErrNoSessionFactory indicates an Allocator was constructed without a SessionFactory
	ErrNoSessionFactory = errors.New("no session factory provided")

	// ErrClosed indicates the Allocator has been closed and no longer accepts configuration
	ErrClosed = errors.New("allocator is closed")

	// ErrSessionCreation indicates the session factory failed while filling the pool
	ErrSessionCreation = errors.New("failed to create pooled session")

	// ErrPort indicates a configured port range where max is smaller than min
	ErrPort = errors.New("invalid port range, max must not be smaller than min")

	// ErrInvalidMulticastDNSHostName indicates a malformed mDNS hostname was provided
	ErrInvalidMulticastDNSHostName = errors.New("invalid mDNS hostname, must end with .local and contain no additional subdomains")
)
