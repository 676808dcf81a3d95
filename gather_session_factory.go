// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package icepool

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pion/logging"
	"github.com/pion/stun/v3"
	"github.com/pion/transport/v3"
	"github.com/pion/transport/v3/stdnet"
	"golang.org/x/net/proxy"
)

const defaultSTUNGatherTimeout = 5 * time.Second

// GatherConfig collects the arguments to GatherSessionFactory construction
// into a single structure, for future-proofness of the interface.
type GatherConfig struct {
	// NetworkTypes is an optional configuration for disabling or enabling
	// support for specific network types. Defaults to UDP over IPv4 and IPv6.
	NetworkTypes []NetworkType

	// CandidateTypes is an optional configuration for disabling or enabling
	// support for specific candidate types. Defaults to host, server
	// reflexive and relay.
	CandidateTypes []CandidateType

	// PortMin and PortMax are optional. Leave them 0 for the default UDP port allocation strategy.
	PortMin uint16
	PortMax uint16

	// IncludeLoopback includes loopback addresses in the candidate list.
	IncludeLoopback bool

	// InsecureSkipVerify controls if self-signed certificates are accepted when connecting
	// to TURN servers via TLS or DTLS
	InsecureSkipVerify bool

	// MulticastDNSMode controls mDNS obfuscation of host candidate addresses
	MulticastDNSMode MulticastDNSMode

	// MulticastDNSHostName controls the hostname announced for this session's
	// host candidates. If none is specified a random one will be generated.
	MulticastDNSHostName string

	// InterfaceFilter is a function that you can use in order to whitelist or blacklist
	// the interfaces which are used to gather candidates.
	InterfaceFilter func(string) bool

	// IPFilter is a function that you can use in order to whitelist or blacklist
	// the IPs which are used to gather candidates.
	IPFilter func(net.IP) bool

	// ProxyDialer is a dialer that should be implemented by the user based on golang.org/x/net/proxy
	// dial interface in order to support corporate proxies
	ProxyDialer proxy.Dialer

	// STUNGatherTimeout is the maximum amount of time to wait for a STUN
	// binding response. Defaults to 5 seconds.
	STUNGatherTimeout time.Duration

	// Net is the abstracted network interface, see github.com/pion/transport/v3
	Net transport.Net

	// OnCandidate, when set, is invoked for every candidate a session
	// discovers. Called from the session's gathering goroutines.
	OnCandidate func(Candidate)

	LoggerFactory logging.LoggerFactory
}

// GatherSessionFactory creates network-backed gathering sessions. It
// implements SessionFactory and is the default collaborator to plug into
// an Allocator.
type GatherSessionFactory struct {
	networkTypes   []NetworkType
	candidateTypes []CandidateType

	portMin, portMax uint16

	includeLoopback    bool
	insecureSkipVerify bool

	mDNSMode MulticastDNSMode
	mDNSName string

	interfaceFilter func(string) bool
	ipFilter        func(net.IP) bool

	proxyDialer proxy.Dialer

	stunGatherTimeout time.Duration

	net transport.Net

	onCandidate func(Candidate)

	loggerFactory logging.LoggerFactory
	log           logging.LeveledLogger
}

// NewGatherSessionFactory creates a new GatherSessionFactory, falling back
// to defaults for unset fields.
func NewGatherSessionFactory(config *GatherConfig) (*GatherSessionFactory, error) { //nolint:cyclop
	if config.PortMax < config.PortMin {
		return nil, ErrPort
	}

	factory := &GatherSessionFactory{
		networkTypes:       config.NetworkTypes,
		candidateTypes:     config.CandidateTypes,
		portMin:            config.PortMin,
		portMax:            config.PortMax,
		includeLoopback:    config.IncludeLoopback,
		insecureSkipVerify: config.InsecureSkipVerify,
		mDNSMode:           config.MulticastDNSMode,
		interfaceFilter:    config.InterfaceFilter,
		ipFilter:           config.IPFilter,
		proxyDialer:        config.ProxyDialer,
		stunGatherTimeout:  config.STUNGatherTimeout,
		net:                config.Net,
		onCandidate:        config.OnCandidate,
		loggerFactory:      config.LoggerFactory,
	}

	if factory.loggerFactory == nil {
		factory.loggerFactory = logging.NewDefaultLoggerFactory()
	}
	factory.log = factory.loggerFactory.NewLogger("gather")

	if len(factory.networkTypes) == 0 {
		factory.networkTypes = supportedNetworkTypes()
	}

	if len(factory.candidateTypes) == 0 {
		factory.candidateTypes = []CandidateType{CandidateTypeHost, CandidateTypeServerReflexive, CandidateTypeRelay}
	}

	if factory.stunGatherTimeout == 0 {
		factory.stunGatherTimeout = defaultSTUNGatherTimeout
	}

	if factory.net == nil {
		n, err := stdnet.NewNet()
		if err != nil {
			return nil, err
		}
		factory.net = n
	}

	if factory.mDNSMode == 0 {
		factory.mDNSMode = MulticastDNSModeDisabled
	}

	if factory.mDNSMode == MulticastDNSModeQueryAndGather {
		name := config.MulticastDNSHostName
		if name == "" {
			var err error
			if name, err = generateMulticastDNSName(); err != nil {
				return nil, err
			}
		}

		if !strings.HasSuffix(name, ".local") || len(strings.Split(name, ".")) != 2 {
			return nil, ErrInvalidMulticastDNSHostName
		}
		factory.mDNSName = name
	}

	return factory, nil
}

// NewSession creates a single gathering session against the given server
// set. The session is idle until the Allocator calls StartGathering.
func (f *GatherSessionFactory) NewSession(
	contentName string,
	component uint16,
	stunServers []*stun.URI,
	turnServers []RelayServer,
) (Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &GatherSession{
		id:          id.String(),
		factory:     f,
		contentName: contentName,
		component:   component,
		stunServers: append([]*stun.URI(nil), stunServers...),
		turnServers: append([]RelayServer(nil), turnServers...),
		state:       GatheringStateNew,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		log:         f.loggerFactory.NewLogger("gather"),
	}, nil
}
