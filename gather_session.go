// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package icepool

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"

	"github.com/pion/dtls/v3"
	"github.com/pion/logging"
	"github.com/pion/mdns/v2"
	"github.com/pion/stun/v3"
	"github.com/pion/turn/v4"

	stunx "github.com/pion/icepool/internal/stun"
)

var (
	errUnsupportedRelayProto = errors.New("unsupported relay transport protocol")
	errInvalidRelayAddress   = errors.New("relay returned a non-UDP allocation address")
)

// GatherSession is a network-backed Session. Once started it discovers
// host, server reflexive and relay candidates against the server set it
// was created with, in parallel, until done or discarded.
type GatherSession struct {
	id      string
	factory *GatherSessionFactory

	stunServers []*stun.URI
	turnServers []RelayServer

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       GatheringState
	started     bool
	discarded   bool
	contentName string
	component   uint16
	ufrag       string
	pwd         string
	candidates  []Candidate
	closers     []io.Closer
	mDNSConn    *mdns.Conn

	doneOnce sync.Once
	done     chan struct{}

	log logging.LeveledLogger
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// StartGathering begins candidate discovery. Gathering runs in background
// goroutines; the call itself does not block. Subsequent calls are no-ops.
func (s *GatherSession) StartGathering() {
	s.mu.Lock()
	if s.started || s.discarded {
		s.mu.Unlock()

		return
	}
	s.started = true
	s.state = GatheringStateGathering

	if s.factory.mDNSMode == MulticastDNSModeQueryAndGather && containsCandidateType(CandidateTypeHost, s.factory.candidateTypes) {
		conn, err := createMulticastDNS(s.factory.net, s.factory.mDNSName, s.factory.networkTypes, s.log)
		if err != nil {
			s.log.Warnf("Failed to start mDNS, host candidates will expose IPs: %v", err)
		} else {
			s.mDNSConn = conn
		}
	}
	s.mu.Unlock()

	s.log.Debugf("Session %s gathering against %d STUN and %d TURN servers",
		s.id, len(s.stunServers), len(s.turnServers))

	go s.gather()
}

func (s *GatherSession) gather() {
	defer s.doneOnce.Do(func() { close(s.done) })

	var wg sync.WaitGroup
	for _, candidateType := range s.factory.candidateTypes {
		switch candidateType {
		case CandidateTypeHost:
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.gatherCandidatesLocal(s.ctx)
			}()
		case CandidateTypeServerReflexive:
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.gatherCandidatesSrflx(s.ctx)
			}()
		case CandidateTypeRelay:
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.gatherCandidatesRelay(s.ctx)
			}()
		case CandidateTypeUnspecified:
		}
	}
	wg.Wait()

	s.mu.Lock()
	if s.state == GatheringStateGathering {
		s.state = GatheringStateComplete
	}
	gathered := len(s.candidates)
	s.mu.Unlock()

	s.log.Debugf("Session %s gathering complete, %d candidates", s.id, gathered)
}

func (s *GatherSession) gatherCandidatesLocal(ctx context.Context) {
	localIPs, err := localInterfaces(
		s.factory.net,
		s.factory.interfaceFilter,
		s.factory.ipFilter,
		s.factory.networkTypes,
		s.factory.includeLoopback,
	)
	if err != nil {
		s.log.Warnf("Failed to enumerate local interfaces: %v", err)

		return
	}

	for _, ip := range localIPs {
		if ctx.Err() != nil {
			return
		}

		network, networkType := "udp4", NetworkTypeUDP4
		if ip.To4() == nil {
			network, networkType = "udp6", NetworkTypeUDP6
		}

		conn, err := listenUDPInPortRange(
			s.factory.net, s.log,
			int(s.factory.portMax), int(s.factory.portMin),
			network, &net.UDPAddr{IP: ip, Port: 0},
		)
		if err != nil {
			s.log.Warnf("Failed to listen %s %s: %v", network, ip, err)

			continue
		}
		if !s.trackCloser(conn) {
			return
		}

		laddr, ok := conn.LocalAddr().(*net.UDPAddr)
		if !ok {
			continue
		}

		address := ip.String()
		if name := s.mDNSHostName(); name != "" {
			address = name
		}

		s.addCandidate(Candidate{
			ID:          newCandidateID(),
			Type:        CandidateTypeHost,
			NetworkType: networkType,
			Address:     address,
			Port:        laddr.Port,
		})
	}
}

func (s *GatherSession) gatherCandidatesSrflx(ctx context.Context) {
	for _, server := range s.stunServers {
		if server.Scheme != stun.SchemeTypeSTUN {
			continue
		}

		for _, networkType := range s.factory.networkTypes {
			if ctx.Err() != nil {
				return
			}
			network := networkType.String()

			serverAddr, err := s.factory.net.ResolveUDPAddr(network, net.JoinHostPort(server.Host, strconv.Itoa(server.Port)))
			if err != nil {
				s.log.Warnf("Failed to resolve STUN host %s: %v", server.Host, err)

				continue
			}

			conn, err := listenUDPInPortRange(
				s.factory.net, s.log,
				int(s.factory.portMax), int(s.factory.portMin),
				network, &net.UDPAddr{Port: 0},
			)
			if err != nil {
				s.log.Warnf("Failed to listen %s: %v", network, err)

				continue
			}
			if !s.trackCloser(conn) {
				return
			}

			xorAddr, err := stunx.GetXORMappedAddr(conn, serverAddr, s.factory.stunGatherTimeout)
			if err != nil {
				s.log.Warnf("Failed to get server reflexive address from %s: %v", server, err)

				continue
			}

			laddr, ok := conn.LocalAddr().(*net.UDPAddr)
			if !ok {
				continue
			}

			s.addCandidate(Candidate{
				ID:             newCandidateID(),
				Type:           CandidateTypeServerReflexive,
				NetworkType:    networkType,
				Address:        xorAddr.IP.String(),
				Port:           xorAddr.Port,
				RelatedAddress: laddr.IP.String(),
				RelatedPort:    laddr.Port,
			})
		}
	}
}

func (s *GatherSession) gatherCandidatesRelay(ctx context.Context) {
	for _, server := range s.turnServers {
		if ctx.Err() != nil {
			return
		}

		if err := s.gatherRelayCandidate(server); err != nil {
			s.log.Warnf("Failed to gather relay candidate from %s:%d: %v", server.Address, server.Port, err)
		}
	}
}

//nolint:cyclop
func (s *GatherSession) gatherRelayCandidate(server RelayServer) error {
	serverAddr := net.JoinHostPort(server.Address, strconv.Itoa(server.Port))

	var conn net.PacketConn
	switch {
	case server.Proto == stun.ProtoTypeUDP && !server.Secure:
		udpConn, err := s.factory.net.ListenPacket("udp4", "0.0.0.0:0")
		if err != nil {
			return err
		}
		conn = udpConn
	case server.Proto == stun.ProtoTypeUDP && server.Secure:
		raddr, err := s.factory.net.ResolveUDPAddr("udp4", serverAddr)
		if err != nil {
			return err
		}

		dtlsConn, err := dtls.Dial("udp", raddr, &dtls.Config{
			ServerName:         server.Address,
			InsecureSkipVerify: s.factory.insecureSkipVerify, //nolint:gosec
		})
		if err != nil {
			return err
		}
		conn = turn.NewSTUNConn(dtlsConn)
	case server.Proto == stun.ProtoTypeTCP && !server.Secure:
		tcpConn, err := s.dialTCP(serverAddr)
		if err != nil {
			return err
		}
		conn = turn.NewSTUNConn(tcpConn)
	case server.Proto == stun.ProtoTypeTCP && server.Secure:
		tcpConn, err := s.dialTCP(serverAddr)
		if err != nil {
			return err
		}

		tlsConn := tls.Client(tcpConn, &tls.Config{
			ServerName:         server.Address,
			InsecureSkipVerify: s.factory.insecureSkipVerify, //nolint:gosec
			MinVersion:         tls.VersionTLS12,
		})
		conn = turn.NewSTUNConn(tlsConn)
	default:
		return errUnsupportedRelayProto
	}

	if !s.trackCloser(conn) {
		return nil
	}

	client, err := turn.NewClient(&turn.ClientConfig{
		TURNServerAddr: serverAddr,
		Conn:           conn,
		Username:       server.Username,
		Password:       server.Credential,
		LoggerFactory:  s.factory.loggerFactory,
	})
	if err != nil {
		return err
	}
	if err = client.Listen(); err != nil {
		client.Close()

		return err
	}
	if !s.trackCloser(closerFunc(func() error {
		client.Close()

		return nil
	})) {
		return nil
	}

	relayConn, err := client.Allocate()
	if err != nil {
		return err
	}
	if !s.trackCloser(relayConn) {
		return nil
	}

	raddr, ok := relayConn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return errInvalidRelayAddress
	}

	s.addCandidate(Candidate{
		ID:             newCandidateID(),
		Type:           CandidateTypeRelay,
		NetworkType:    NetworkTypeUDP4,
		Address:        raddr.IP.String(),
		Port:           raddr.Port,
		RelatedAddress: server.Address,
		RelatedPort:    server.Port,
	})

	return nil
}

func (s *GatherSession) dialTCP(serverAddr string) (net.Conn, error) {
	if s.factory.proxyDialer != nil {
		return s.factory.proxyDialer.Dial("tcp", serverAddr)
	}

	return s.factory.net.Dial("tcp", serverAddr)
}

// UpdateIdentity binds the session to its negotiated transport. The
// Allocator calls this exactly once, from TakePooledSession.
func (s *GatherSession) UpdateIdentity(contentName string, component uint16, ufrag, pwd string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contentName = contentName
	s.component = component
	s.ufrag = ufrag
	s.pwd = pwd

	s.log.Debugf("Session %s bound to content %q component %d", s.id, contentName, component)
}

// Discard stops any in-flight gathering and releases every network
// resource the session holds. Safe to call more than once.
func (s *GatherSession) Discard() {
	s.mu.Lock()
	if s.discarded {
		s.mu.Unlock()

		return
	}
	s.discarded = true
	closers := s.closers
	s.closers = nil
	mDNSConn := s.mDNSConn
	s.mDNSConn = nil
	started := s.started
	s.mu.Unlock()

	s.cancel()

	// Close in reverse acquisition order: relay allocations before their
	// clients, clients before their transport conns.
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			s.log.Warnf("Failed to close gathering resource: %v", err)
		}
	}
	if mDNSConn != nil {
		if err := mDNSConn.Close(); err != nil {
			s.log.Warnf("Failed to close mDNS: %v", err)
		}
	}

	if !started {
		s.doneOnce.Do(func() { close(s.done) })
	}
}

// trackCloser registers a resource for cleanup on Discard. It reports
// false, and closes the resource immediately, if the session has already
// been discarded.
func (s *GatherSession) trackCloser(c io.Closer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.discarded {
		_ = c.Close()

		return false
	}
	s.closers = append(s.closers, c)

	return true
}

func (s *GatherSession) addCandidate(candidate Candidate) {
	s.mu.Lock()
	if s.discarded {
		s.mu.Unlock()

		return
	}
	candidate.Component = s.component
	s.candidates = append(s.candidates, candidate)
	s.mu.Unlock()

	s.log.Debugf("Session %s discovered %s", s.id, candidate)

	if s.factory.onCandidate != nil {
		s.factory.onCandidate(candidate)
	}
}

func (s *GatherSession) mDNSHostName() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mDNSConn != nil {
		return s.factory.mDNSName
	}

	return ""
}

// ID returns the unique identifier of this session.
func (s *GatherSession) ID() string { return s.id }

// ContentName returns the content name assigned at take time, empty while pooled.
func (s *GatherSession) ContentName() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.contentName
}

// Component returns the component assigned at take time, zero while pooled.
func (s *GatherSession) Component() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.component
}

// UFrag returns the ICE username fragment assigned at take time, empty while pooled.
func (s *GatherSession) UFrag() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ufrag
}

// Pwd returns the ICE password assigned at take time, empty while pooled.
func (s *GatherSession) Pwd() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pwd
}

// STUNServers returns the STUN server snapshot the session gathers against.
func (s *GatherSession) STUNServers() []*stun.URI {
	return append([]*stun.URI(nil), s.stunServers...)
}

// TURNServers returns the relay snapshot the session gathers against.
func (s *GatherSession) TURNServers() []RelayServer {
	return append([]RelayServer(nil), s.turnServers...)
}

// GatheringState returns the state of the gathering run.
func (s *GatherSession) GatheringState() GatheringState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Candidates returns a snapshot of the candidates discovered so far.
func (s *GatherSession) Candidates() []Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Candidate(nil), s.candidates...)
}

// Done returns a channel that is closed once the gathering run has
// finished, or immediately on Discard if gathering never started.
func (s *GatherSession) Done() <-chan struct{} {
	return s.done
}
