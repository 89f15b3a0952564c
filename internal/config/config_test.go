package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestInitFromViper(t *testing.T) {
	t.Run("Applies defaults when nothing is set", func(t *testing.T) {
		opts := Options{}
		opts.InitFromViper(viper.New())

		cfg := opts.Configuration
		assert.Equal(t, ":1990", cfg.HTTPAddr)
		assert.Equal(t, ":4317", cfg.GRPCAddr)
		assert.Equal(t, 5*time.Minute, cfg.TraceTTL)
		assert.Equal(t, 30*time.Second, cfg.SweepInterval)
		assert.Equal(t, time.Second, cfg.SlowThreshold)
		assert.Equal(t, 100*time.Millisecond, cfg.FastThreshold)
		assert.Equal(t, 256, cfg.SubscriberQueueSize)
		assert.False(t, cfg.SeedDemoData)
	})

	t.Run("Explicit values override the defaults", func(t *testing.T) {
		v := viper.New()
		v.Set("http_addr", ":8080")
		v.Set("trace_ttl", "90s")
		v.Set("subscriber_queue_size", 32)
		v.Set("seed_demo_data", true)

		opts := Options{}
		opts.InitFromViper(v)

		cfg := opts.Configuration
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, 90*time.Second, cfg.TraceTTL)
		assert.Equal(t, 32, cfg.SubscriberQueueSize)
		assert.True(t, cfg.SeedDemoData)
	})
}
