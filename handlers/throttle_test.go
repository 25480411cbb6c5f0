package handlers

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCooldownSecondsForFailCount(t *testing.T) {
	tests := []struct {
		failCount int
		want      int
	}{
		{0, 1},
		{1, 2},
		{2, 4},
		{3, 8},
		{4, 16},
		{5, 30}, // 32 capped
		{6, 30},
		{10, 30},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cooldownSecondsForFailCount(tt.failCount), "failCount %d", tt.failCount)
	}
}

func TestKeyThrottle(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	th := newKeyThrottle(func() time.Time { return now })

	assert.Zero(t, th.wait("10.0.0.1"))

	th.failed("10.0.0.1")
	assert.Equal(t, 2*time.Second, th.wait("10.0.0.1"))
	assert.Zero(t, th.wait("10.0.0.2"), "other clients are not affected")

	th.failed("10.0.0.1")
	assert.Equal(t, 4*time.Second, th.wait("10.0.0.1"))

	now = now.Add(4 * time.Second)
	assert.Zero(t, th.wait("10.0.0.1"))

	for i := 0; i < 8; i++ {
		th.failed("10.0.0.1")
	}
	assert.Equal(t, 30*time.Second, th.wait("10.0.0.1"))

	th.succeeded("10.0.0.1")
	assert.Zero(t, th.wait("10.0.0.1"))
}

func TestKeyThrottle_PrunesIdleClients(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	th := newKeyThrottle(func() time.Time { return now })
	for i := 0; i <= throttlePruneAbove; i++ {
		th.failed(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}
	require.Greater(t, len(th.clients), throttlePruneAbove)

	now = now.Add(time.Hour)
	th.failed("192.0.2.50")
	assert.Len(t, th.clients, 1)
}

func TestClientAddr(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	assert.Equal(t, "203.0.113.7", clientAddr(r))

	r.RemoteAddr = "no-port"
	assert.Equal(t, "no-port", clientAddr(r))
}

func TestGenerateAccessKey(t *testing.T) {
	a, err := GenerateAccessKey()
	require.NoError(t, err)
	b, err := GenerateAccessKey()
	require.NoError(t, err)

	assert.Len(t, a, accessKeyLen)
	assert.NotEqual(t, a, b)
	for _, c := range a {
		assert.True(t, strings.ContainsRune(accessKeyAlphabet, c), "unexpected %q", c)
	}
}
