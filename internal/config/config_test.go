package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func (s *ConfigTestSuite) SetupTest() {
	s.T().Setenv("DATA_DIR", s.T().TempDir())
	for _, key := range []string{
		"STORAGE_TYPE", "DATABASE_URL", "SAMPLE_RATE", "BOUNDARY_THRESHOLD",
		"MIN_FRAMES_PER_HAND", "SAMPLE_INTERVAL", "DIFF_THRESHOLD", "QUEUE_SIZE",
		"DISCORD_TOKEN", "DISCORD_CHANNEL_ID",
	} {
		s.T().Setenv(key, "")
	}
}

func (s *ConfigTestSuite) TestDefaults() {
	cfg, err := Load()
	s.Require().NoError(err)

	s.Equal(StorageSQLite, cfg.StorageType)
	s.Equal(30, cfg.SampleRate)
	s.Equal(0.1, cfg.BoundaryThreshold)
	s.Equal(3, cfg.MinFramesPerHand)
	s.Equal(2*time.Second, cfg.SampleInterval)
	s.Equal(0.05, cfg.DiffThreshold)
	s.Equal(10, cfg.QueueSize)
	s.Equal("eng", cfg.OCRLanguage)
	s.True(cfg.IsDevelopment())
}

func (s *ConfigTestSuite) TestOverrides() {
	s.T().Setenv("STORAGE_TYPE", "memory")
	s.T().Setenv("SAMPLE_RATE", "15")
	s.T().Setenv("MIN_FRAMES_PER_HAND", "2")
	s.T().Setenv("SAMPLE_INTERVAL", "1.5")
	s.T().Setenv("QUEUE_SIZE", "4")

	cfg, err := Load()
	s.Require().NoError(err)

	s.Equal(StorageMemory, cfg.StorageType)
	s.Equal(15, cfg.SampleRate)
	s.Equal(2, cfg.MinFramesPerHand)
	s.Equal(1500*time.Millisecond, cfg.SampleInterval)
	s.Equal(4, cfg.QueueSize)
}

func (s *ConfigTestSuite) TestValidation() {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown storage", "STORAGE_TYPE", "redis"},
		{"postgres without url", "STORAGE_TYPE", "postgres"},
		{"zero sample rate", "SAMPLE_RATE", "0"},
		{"threshold out of range", "BOUNDARY_THRESHOLD", "1.5"},
		{"bad integer", "QUEUE_SIZE", "ten"},
		{"bad duration", "SAMPLE_INTERVAL", "soon"},
		{"token without channel", "DISCORD_TOKEN", "abc"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.T().Setenv(tt.key, tt.val)
			_, err := Load()
			s.Error(err)
		})
	}
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func TestGetDurationWithDefault(t *testing.T) {
	t.Setenv("TEST_DURATION", "")
	d, err := getDurationWithDefault("TEST_DURATION", time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)

	t.Setenv("TEST_DURATION", "250ms")
	d, err = getDurationWithDefault("TEST_DURATION", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)
}
