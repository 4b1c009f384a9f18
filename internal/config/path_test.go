package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("EVENTRECON_TEST_DIR", "/var/lib/eventrecon")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty stays empty", in: "", want: ""},
		{name: "plain path untouched", in: "/tmp/results.db", want: "/tmp/results.db"},
		{name: "tilde prefix", in: "~/data/results.db", want: filepath.Join(home, "data/results.db")},
		{name: "bare tilde", in: "~", want: home},
		{name: "environment variable", in: "$EVENTRECON_TEST_DIR/results.db", want: "/var/lib/eventrecon/results.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}
