package webrunner

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tpgainz/smart-business-directory/config"
	"github.com/Tpgainz/smart-business-directory/runner"
)

func freeAddr(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return addr
}

func TestNewRequiresAddr(t *testing.T) {
	_, err := New(&runner.Config{})
	assert.Error(t, err)
}

func TestRunServesUntilCancelled(t *testing.T) {
	addr := freeAddr(t)

	r, err := New(&runner.Config{Addr: addr, EnrichConcurrency: 1, Settings: &config.Config{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	assert.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/healthz", addr))
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("runner did not stop")
	}

	assert.NoError(t, r.Close(context.Background()))
}
