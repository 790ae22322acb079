package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) RequiresNetworkIdentity() bool { return false }
func (s *stubProvider) Defaults() Defaults { return Defaults{} }
func (s *stubProvider) Provision(context.Context, ProvisionRequest) (string, error) {
	return "ref", nil
}
func (s *stubProvider) Deprovision(context.Context, string) error { return nil }
func (s *stubProvider) GetServerInfo(context.Context, string) (*ServerInfo, error) {
	return &ServerInfo{}, nil
}
func (s *stubProvider) Start(context.Context, string) error { return nil }
func (s *stubProvider) Stop(context.Context, string) error { return nil }
func (s *stubProvider) Restart(context.Context, string) error { return nil }

func TestRegistry(t *testing.T) {
	r := NewRegistry("digitalocean")
	require.NoError(t, r.Register(&stubProvider{name: "digitalocean"}))
	require.NoError(t, r.Register(&stubProvider{name: "static"}))

	t.Run("duplicate name", func(t *testing.T) {
		assert.Error(t, r.Register(&stubProvider{name: "static"}))
	})

	t.Run("empty name", func(t *testing.T) {
		assert.Error(t, r.Register(&stubProvider{}))
	})

	t.Run("lookup by name", func(t *testing.T) {
		p, err := r.Get("static")
		require.NoError(t, err)
		assert.Equal(t, "static", p.Name())
	})

	t.Run("empty name uses default", func(t *testing.T) {
		p, err := r.Get("")
		require.NoError(t, err)
		assert.Equal(t, "digitalocean", p.Name())
		assert.Equal(t, "digitalocean", r.Resolve(""))
		assert.Equal(t, "static", r.Resolve("static"))
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := r.Get("hetzner")
		assert.ErrorIs(t, err, ErrUnknownProvider)
	})

	assert.Equal(t, []string{"digitalocean", "static"}, r.Names())
}
