// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package icepool

import (
	"github.com/pion/randutil"
)

const (
	runesAlpha                 = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	runesCandidateIDFoundation = runesAlpha + "0123456789+/"

	lenUFrag = 16
	lenPwd   = 32
)

// Seeding random generator each time limits number of generated sequence to 31-bits,
// and causes collision on low time accuracy environments.
// Use global random generator seeded by crypto grade random.
var globalCandidateIDGenerator = randutil.NewMathRandomGenerator() //nolint:gochecknoglobals

// newCandidateID generates a random candidate ID. Candidate IDs are shared
// with the remote peer and don't require cryptographic random.
func newCandidateID() string {
	return "candidate:" + globalCandidateIDGenerator.GenerateString(32, runesCandidateIDFoundation)
}

// GenerateUFrag generates an ICE username fragment suitable for
// TakePooledSession, per RFC 8445 at least 24 bits of randomness.
func GenerateUFrag() (string, error) {
	return randutil.GenerateCryptoRandomString(lenUFrag, runesAlpha)
}

// GeneratePwd generates an ICE password suitable for TakePooledSession,
// per RFC 8445 at least 128 bits of randomness.
func GeneratePwd() (string, error) {
	return randutil.GenerateCryptoRandomString(lenPwd, runesAlpha)
}
