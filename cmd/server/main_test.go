package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAdminKey(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, hashAdminKey(strings.NewReader("  let-me-in\n"), &out))

	hash := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(hash, "$2"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("let-me-in")))

	assert.Error(t, hashAdminKey(strings.NewReader("\n"), &out))
}
