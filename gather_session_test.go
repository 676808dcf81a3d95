// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

//go:build !js
// +build !js

package icepool

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/pion/stun/v3"
	"github.com/pion/transport/v3/test"
	"github.com/pion/turn/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomPort(t *testing.T) int {
	t.Helper()

	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() {
		_ = conn.Close()
	}()

	udpAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	require.True(t, ok)

	return udpAddr.Port
}

func optimisticAuthHandler(username string, realm string, _ net.Addr) (key []byte, ok bool) {
	return turn.GenerateAuthKey(username, realm, "password"), true
}

func newLocalTurnServer(t *testing.T) (*turn.Server, int) {
	t.Helper()

	serverPort := randomPort(t)
	serverListener, err := net.ListenPacket("udp4", "127.0.0.1:"+strconv.Itoa(serverPort))
	require.NoError(t, err)

	server, err := turn.NewServer(turn.ServerConfig{
		Realm:       "pion.ly",
		AuthHandler: optimisticAuthHandler,
		PacketConnConfigs: []turn.PacketConnConfig{
			{
				PacketConn:            serverListener,
				RelayAddressGenerator: &turn.RelayAddressGeneratorNone{Address: "127.0.0.1"},
			},
		},
	})
	require.NoError(t, err)

	return server, serverPort
}

func TestGatherSessionHost(t *testing.T) {
	defer test.CheckRoutines(t)()
	defer test.TimeOut(time.Second * 30).Stop()

	var callbackCount int
	factory, err := NewGatherSessionFactory(&GatherConfig{
		CandidateTypes:  []CandidateType{CandidateTypeHost},
		NetworkTypes:    []NetworkType{NetworkTypeUDP4},
		IncludeLoopback: true,
		OnCandidate:     func(Candidate) { callbackCount++ },
	})
	require.NoError(t, err)

	session, err := factory.NewSession("", 0, nil, nil)
	require.NoError(t, err)
	gatherSession, ok := session.(*GatherSession)
	require.True(t, ok)

	assert.Equal(t, GatheringStateNew, gatherSession.GatheringState())
	gatherSession.StartGathering()
	<-gatherSession.Done()

	candidates := gatherSession.Candidates()
	require.NotEmpty(t, candidates)
	for _, c := range candidates {
		assert.Equal(t, CandidateTypeHost, c.Type)
		assert.Equal(t, NetworkTypeUDP4, c.NetworkType)
		assert.NotZero(t, c.Port)
	}
	assert.Equal(t, len(candidates), callbackCount)
	assert.Equal(t, GatheringStateComplete, gatherSession.GatheringState())

	gatherSession.Discard()
}

func TestGatherSessionServerReflexive(t *testing.T) {
	defer test.CheckRoutines(t)()
	defer test.TimeOut(time.Second * 30).Stop()

	server, serverPort := newLocalTurnServer(t)
	defer func() {
		require.NoError(t, server.Close())
	}()

	factory, err := NewGatherSessionFactory(&GatherConfig{
		CandidateTypes: []CandidateType{CandidateTypeServerReflexive},
		NetworkTypes:   []NetworkType{NetworkTypeUDP4},
	})
	require.NoError(t, err)

	stunServers := []*stun.URI{
		{
			Scheme: stun.SchemeTypeSTUN,
			Host:   "127.0.0.1",
			Port:   serverPort,
		},
	}

	session, err := factory.NewSession("", 0, stunServers, nil)
	require.NoError(t, err)
	gatherSession, ok := session.(*GatherSession)
	require.True(t, ok)

	gatherSession.StartGathering()
	<-gatherSession.Done()
	defer gatherSession.Discard()

	candidates := gatherSession.Candidates()
	require.Len(t, candidates, 1)
	assert.Equal(t, CandidateTypeServerReflexive, candidates[0].Type)
	assert.Equal(t, "127.0.0.1", candidates[0].Address)
	assert.NotZero(t, candidates[0].Port)
	assert.NotEmpty(t, candidates[0].RelatedAddress)
}

func TestGatherSessionRelay(t *testing.T) {
	defer test.CheckRoutines(t)()
	defer test.TimeOut(time.Second * 30).Stop()

	server, serverPort := newLocalTurnServer(t)
	defer func() {
		require.NoError(t, server.Close())
	}()

	factory, err := NewGatherSessionFactory(&GatherConfig{
		CandidateTypes: []CandidateType{CandidateTypeRelay},
		NetworkTypes:   []NetworkType{NetworkTypeUDP4},
	})
	require.NoError(t, err)

	turnServers := []RelayServer{
		{
			Address:    "127.0.0.1",
			Port:       serverPort,
			Username:   "username",
			Credential: "password",
			Proto:      stun.ProtoTypeUDP,
		},
	}

	session, err := factory.NewSession("", 0, nil, turnServers)
	require.NoError(t, err)
	gatherSession, ok := session.(*GatherSession)
	require.True(t, ok)

	gatherSession.StartGathering()
	<-gatherSession.Done()
	defer gatherSession.Discard()

	candidates := gatherSession.Candidates()
	require.Len(t, candidates, 1)
	assert.Equal(t, CandidateTypeRelay, candidates[0].Type)
	assert.Equal(t, "127.0.0.1", candidates[0].Address)
	assert.Equal(t, "127.0.0.1", candidates[0].RelatedAddress)
	assert.Equal(t, serverPort, candidates[0].RelatedPort)
}

func TestGatherSessionDiscardBeforeStart(t *testing.T) {
	factory, err := NewGatherSessionFactory(&GatherConfig{
		CandidateTypes: []CandidateType{CandidateTypeHost},
	})
	require.NoError(t, err)

	session, err := factory.NewSession("", 0, nil, nil)
	require.NoError(t, err)
	gatherSession, ok := session.(*GatherSession)
	require.True(t, ok)

	gatherSession.Discard()
	<-gatherSession.Done()

	// A discarded session never starts gathering.
	gatherSession.StartGathering()
	assert.Equal(t, GatheringStateNew, gatherSession.GatheringState())
	assert.Empty(t, gatherSession.Candidates())

	// Discard is idempotent.
	gatherSession.Discard()
}

func TestGatherSessionIdentity(t *testing.T) {
	factory, err := NewGatherSessionFactory(&GatherConfig{})
	require.NoError(t, err)

	session, err := factory.NewSession("", 0, nil, nil)
	require.NoError(t, err)
	gatherSession, ok := session.(*GatherSession)
	require.True(t, ok)
	defer gatherSession.Discard()

	assert.Empty(t, gatherSession.ContentName())
	assert.Zero(t, gatherSession.Component())

	gatherSession.UpdateIdentity(testContentName, 1, testIceUfrag, testIcePwd)

	assert.Equal(t, testContentName, gatherSession.ContentName())
	assert.Equal(t, uint16(1), gatherSession.Component())
	assert.Equal(t, testIceUfrag, gatherSession.UFrag())
	assert.Equal(t, testIcePwd, gatherSession.Pwd())
}

func TestNewGatherSessionFactoryValidation(t *testing.T) {
	_, err := NewGatherSessionFactory(&GatherConfig{PortMin: 2000, PortMax: 1000})
	assert.ErrorIs(t, err, ErrPort)

	_, err = NewGatherSessionFactory(&GatherConfig{
		MulticastDNSMode:     MulticastDNSModeQueryAndGather,
		MulticastDNSHostName: "not-a-local-name",
	})
	assert.ErrorIs(t, err, ErrInvalidMulticastDNSHostName)

	factory, err := NewGatherSessionFactory(&GatherConfig{
		MulticastDNSMode: MulticastDNSModeQueryAndGather,
	})
	require.NoError(t, err)
	assert.Contains(t, factory.mDNSName, ".local")
}

func TestAllocatorWithGatherSessionFactory(t *testing.T) {
	defer test.CheckRoutines(t)()
	defer test.TimeOut(time.Second * 30).Stop()

	factory, err := NewGatherSessionFactory(&GatherConfig{
		CandidateTypes:  []CandidateType{CandidateTypeHost},
		NetworkTypes:    []NetworkType{NetworkTypeUDP4},
		IncludeLoopback: true,
	})
	require.NoError(t, err)

	allocator, err := NewAllocator(&AllocatorConfig{SessionFactory: factory})
	require.NoError(t, err)

	require.NoError(t, allocator.SetConfiguration(nil, nil, 1))

	// The pooled session must already be gathering.
	pooled, ok := allocator.GetPooledSession().(*GatherSession)
	require.True(t, ok)
	assert.NotEqual(t, GatheringStateNew, pooled.GatheringState())

	taken, ok := allocator.TakePooledSession(testContentName, ComponentRTP, testIceUfrag, testIcePwd).(*GatherSession)
	require.True(t, ok)
	assert.Same(t, pooled, taken)

	assert.Equal(t, testContentName, taken.ContentName())
	assert.Equal(t, ComponentRTP, taken.Component())
	assert.Equal(t, testIceUfrag, taken.UFrag())
	assert.Equal(t, testIcePwd, taken.Pwd())

	<-taken.Done()
	assert.NotEmpty(t, taken.Candidates())
	taken.Discard()

	require.NoError(t, allocator.Close())
}
