// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package icepool

import (
	"github.com/pion/logging"
)

// AllocatorConfig collects the arguments to Allocator construction into
// a single structure, for future-proofness of the interface.
type AllocatorConfig struct {
	// SessionFactory creates the candidate-gathering sessions the pool
	// hands out. Required.
	SessionFactory SessionFactory

	LoggerFactory logging.LoggerFactory
}

// initWithDefaults populates an allocator and falls back to defaults if fields are unset
func (config *AllocatorConfig) initWithDefaults(a *Allocator) {
	if config.LoggerFactory == nil {
		a.loggerFactory = logging.NewDefaultLoggerFactory()
	} else {
		a.loggerFactory = config.LoggerFactory
	}

	a.log = a.loggerFactory.NewLogger("icepool")
	a.factory = config.SessionFactory
}
