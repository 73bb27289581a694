package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/avalontools/avalonctl/shared"
)

func TestSetDefaultConfigValues(t *testing.T) {
	viper.Reset()
	SetDefaultConfigValues()

	tests := []struct {
		name     string
		key      string
		expected any
		getter   func(string) any
	}{
		{
			name:     "api_port defaults to the CGMiner port",
			key:      "api_port",
			expected: 4028,
			getter:   func(k string) any { return viper.GetInt(k) },
		},
		{
			name:     "timeout defaults to 10 seconds",
			key:      "timeout",
			expected: 10 * time.Second,
			getter:   func(k string) any { return viper.GetDuration(k) },
		},
		{
			name:     "parallel defaults to 16",
			key:      "parallel",
			expected: 16,
			getter:   func(k string) any { return viper.GetInt(k) },
		},
		{
			name:     "chunk_size defaults to 10000",
			key:      "chunk_size",
			expected: uint64(10000),
			getter:   func(k string) any { return viper.GetUint64(k) },
		},
		{
			name:     "progress_interval defaults to 5 seconds",
			key:      "progress_interval",
			expected: 5 * time.Second,
			getter:   func(k string) any { return viper.GetDuration(k) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.getter(tt.key), "config key %q mismatch", tt.key)
		})
	}

	t.Run("workers defaults to a positive core count", func(t *testing.T) {
		assert.Positive(t, viper.GetInt("workers"))
	})

	t.Run("data_path is set", func(t *testing.T) {
		assert.NotEmpty(t, viper.GetString("data_path"))
	})
}

func TestSetupSharedState(t *testing.T) {
	viper.Reset()
	SetDefaultConfigValues()
	viper.Set("api_port", 14028)
	viper.Set("parallel", 4)
	viper.Set("debug", true)

	SetupSharedState()

	assert.Equal(t, 14028, shared.State.APIPort)
	assert.Equal(t, 4, shared.State.Parallel)
	assert.True(t, shared.State.Debug)
	assert.Positive(t, shared.State.Workers)
	assert.Equal(t, uint64(10000), shared.State.ChunkSize)
}

func TestDefaultWorkerCount(t *testing.T) {
	assert.Positive(t, defaultWorkerCount())
}
