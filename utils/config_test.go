package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigParse(t *testing.T) {
	yml := `
path_to_file: /var/lib/aku/db.akumuli
max_late_write: 10s
max_cache_size: 64M
log_level: warning
`
	var c Config
	require.NoError(t, c.Parse([]byte(yml)))
	assert.Equal(t, "/var/lib/aku/db.akumuli", c.PathToFile)
	assert.Equal(t, 10*time.Second, c.MaxLateWrite)
	assert.Equal(t, 64*1024*1024, c.MaxCacheSize)
}

func TestConfigParseDefaults(t *testing.T) {
	var c Config
	require.NoError(t, c.Parse([]byte("path_to_file: db.akumuli\n")))
	assert.Equal(t, 10*time.Second, c.MaxLateWrite)
	assert.Equal(t, 1<<20, c.MaxCacheSize)
}

func TestConfigParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{"missing path", "max_late_write: 10s\n"},
		{"bad duration", "path_to_file: x\nmax_late_write: soon\n"},
		{"bad size", "path_to_file: x\nmax_cache_size: lots\n"},
		{"not yaml", ":\n\t:"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			assert.Error(t, c.Parse([]byte(tt.yml)))
		})
	}
}
