package adapter

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapviz/pkg/viz"
)

type stubAdapter struct {
	BaseSQLAdapter
	connectErr error
	connected  bool
}

func (s *stubAdapter) Connect(context.Context, Config) error {
	if s.connectErr != nil {
		return s.connectErr
	}
	s.connected = true
	return nil
}

func (s *stubAdapter) Query(context.Context, string, int) (viz.Dataset, error) {
	return viz.Dataset{}, nil
}

func (s *stubAdapter) ListTables(context.Context) ([]string, error) { return nil, nil }

func (s *stubAdapter) GetTableMetadata(context.Context, string) (*Metadata, error) {
	return nil, nil
}

func TestUnknownAdapterError_Error(t *testing.T) {
	err := &UnknownAdapterError{
		Type:      "fake_db",
		Available: []string{"duckdb", "postgres"},
	}

	msg := err.Error()
	assert.Contains(t, msg, "fake_db")
	assert.Contains(t, msg, "leapviz.yaml")
	assert.Contains(t, msg, "postgres")
}

func TestRegister(t *testing.T) {
	Register("test_adapter_internal", func(_ *slog.Logger) Adapter { return &stubAdapter{} })

	assert.True(t, IsRegistered("test_adapter_internal"))
	assert.Contains(t, ListAdapters(), "test_adapter_internal")

	factory, ok := Get("test_adapter_internal")
	assert.True(t, ok)
	assert.NotNil(t, factory)
}

func TestNewAdapter_EmptyType(t *testing.T) {
	_, err := NewAdapter(Config{}, nil)
	require.Error(t, err)
	assert.Equal(t, "adapter type not specified", err.Error())
}

func TestOpen(t *testing.T) {
	Register("test_open_ok", func(_ *slog.Logger) Adapter { return &stubAdapter{} })
	Register("test_open_fail", func(_ *slog.Logger) Adapter { return &stubAdapter{connectErr: assert.AnError} })

	a, err := Open(context.Background(), Config{Type: "test_open_ok"}, nil)
	require.NoError(t, err)
	assert.True(t, a.(*stubAdapter).connected)

	_, err = Open(context.Background(), Config{Type: "test_open_fail"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed to connect to test_open_fail")

	_, err = Open(context.Background(), Config{Type: "nope"}, nil)
	var unknown *UnknownAdapterError
	assert.ErrorAs(t, err, &unknown)
}

func TestRegisterAliases(t *testing.T) {
	Register("Test_Alias_DB", func(_ *slog.Logger) Adapter { return &stubAdapter{} }, "tadb", "TADB2")

	tests := []struct {
		in   string
		want string
	}{
		{"test_alias_db", "test_alias_db"},
		{"TEST_ALIAS_DB", "test_alias_db"},
		{"tadb", "test_alias_db"},
		{" tadb2 ", "test_alias_db"},
		{"Other", "other"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonical(tt.in))
		})
	}

	assert.True(t, IsRegistered("tadb"))
	assert.NotContains(t, ListAdapters(), "tadb")

	a, err := Open(context.Background(), Config{Type: "TADB"}, nil)
	require.NoError(t, err)
	assert.True(t, a.(*stubAdapter).connected)
}
