package httpclient

import (
	"crypto/x509"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestManager_Client(t *testing.T) {
	t.Run("given concurrent first callers, then all observe one instance", func(t *testing.T) {
		var builds atomic.Int32
		m := NewManager(WithRootCAsLoader(func() (*x509.CertPool, error) {
			builds.Add(1)
			return x509.NewCertPool(), nil
		}))

		const callers = 64
		clients := make([]*Client, callers)
		start := make(chan struct{})

		var g errgroup.Group
		for i := range callers {
			g.Go(func() error {
				<-start
				c, err := m.Client()
				clients[i] = c
				return err
			})
		}
		close(start)
		require.NoError(t, g.Wait())

		for _, c := range clients {
			assert.Same(t, clients[0], c)
		}
		assert.Equal(t, int32(1), builds.Load())
		assert.True(t, m.Ready())
	})

	t.Run("given construction failure, then error is sticky", func(t *testing.T) {
		var attempts atomic.Int32
		m := NewManager(WithRootCAsLoader(func() (*x509.CertPool, error) {
			attempts.Add(1)
			return nil, errors.New("trust store unavailable")
		}))

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c, err := m.Client()
				assert.Nil(t, c)
				assert.ErrorIs(t, err, ErrClientInit)
			}()
		}
		wg.Wait()

		_, err := m.Client()
		require.ErrorIs(t, err, ErrClientInit)
		assert.Contains(t, err.Error(), "trust store unavailable")
		assert.Equal(t, int32(1), attempts.Load())
		assert.False(t, m.Ready())
	})

	t.Run("given unused manager, then not ready", func(t *testing.T) {
		m := NewManager()
		assert.False(t, m.Ready())
	})
}

func TestDefaultManager(t *testing.T) {
	assert.Same(t, DefaultManager(), DefaultManager())

	first, err := Shared()
	require.NoError(t, err)
	second, err := Shared()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.True(t, DefaultManager().Ready())
}
