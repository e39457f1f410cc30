package cmd

import (
	"io"
	"testing"

	"github.com/quantmind-br/pyprobe/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()
	logger := zerolog.New(io.Discard)
	cfg := &config.Config{}

	cmd := NewRootCmd(cfg, &logger, "1.0.0")

	assert.NotNil(t, cmd)
	assert.Equal(t, "pyprobe", cmd.Use)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "probe")
	assert.Contains(t, names, "candidates")
	assert.Contains(t, names, "doctor")
	assert.Contains(t, names, "version")
	assert.Contains(t, names, "completion")
}
