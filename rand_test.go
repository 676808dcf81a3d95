// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package icepool

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCredentials(t *testing.T) {
	ufrag, err := GenerateUFrag()
	require.NoError(t, err)
	pwd, err := GeneratePwd()
	require.NoError(t, err)

	assert.Len(t, ufrag, lenUFrag)
	assert.Len(t, pwd, lenPwd)

	for _, r := range ufrag + pwd {
		assert.True(t, strings.ContainsRune(runesAlpha, r))
	}

	ufrag2, err := GenerateUFrag()
	require.NoError(t, err)
	assert.NotEqual(t, ufrag, ufrag2)
}

func TestNewCandidateID(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		id := newCandidateID()
		assert.True(t, strings.HasPrefix(id, "candidate:"))

		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
	}
}
