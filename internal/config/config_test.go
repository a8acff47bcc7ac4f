package config

import (
	"strings"
	"testing"

	"github.com/rudransh-shrivastava/peer-drop/internal/history"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()

	require.NoError(t, c.Validate())
	assert.NotEmpty(t, c.DeviceName)
	assert.Equal(t, 5000, c.Port)
	assert.Equal(t, 1, c.PortAttempts)
	assert.Equal(t, "./downloads", c.DownloadDir)
	assert.Equal(t, "info", c.LogLevel)
	assert.Empty(t, c.HistoryPath)
	assert.True(t, strings.HasSuffix(c.SocketPath, "peerdrop.sock"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty name", func(c *Config) { c.DeviceName = "" }},
		{"long name", func(c *Config) { c.DeviceName = strings.Repeat("x", 256) }},
		{"multiline name", func(c *Config) { c.DeviceName = "a\nb" }},
		{"invalid utf8 name", func(c *Config) { c.DeviceName = "\xff" }},
		{"zero port", func(c *Config) { c.Port = 0 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"no attempts", func(c *Config) { c.PortAttempts = 0 }},
		{"range overflow", func(c *Config) { c.Port = 65535; c.PortAttempts = 2 }},
		{"no download dir", func(c *Config) { c.DownloadDir = "" }},
		{"no socket", func(c *Config) { c.SocketPath = "" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	c := Default()
	c.Port = 0
	c.DownloadDir = ""

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port 0 out of range")
	assert.Contains(t, err.Error(), "download dir is empty")
}

func TestOptions(t *testing.T) {
	c := Default()
	c.DeviceName = "desk"
	c.Port = 6000
	c.PortAttempts = 3
	c.DownloadDir = "/tmp/in"

	store, err := history.Open("")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	log := logrus.New()

	opts := c.Options(log, store)
	assert.Equal(t, "desk", opts.DeviceName)
	assert.Equal(t, 6000, opts.Port)
	assert.Equal(t, 6000, opts.PeerPort)
	assert.Equal(t, 3, opts.PortAttempts)
	assert.Equal(t, "/tmp/in", opts.DownloadDir)
	assert.Same(t, store, opts.History)
	assert.Same(t, log, opts.Logger)
	assert.Nil(t, opts.Discovery)
}
