package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	httpAddr            = "http_addr"
	grpcAddr            = "grpc_addr"
	traceTTL            = "trace_ttl"
	sweepInterval       = "sweep_interval"
	slowThreshold       = "slow_threshold"
	fastThreshold       = "fast_threshold"
	subscriberQueueSize = "subscriber_queue_size"
	seedDemoData        = "seed_demo_data"
)

// Configuration is everything the collector consumes from the
// environment. TraceTTL bounds how long an idle trace stays resident;
// the thresholds drive slow/fast classification; SubscriberQueueSize
// caps each event stream subscriber's buffer.
type Configuration struct {
	HTTPAddr            string        `yaml:"http_addr"`
	GRPCAddr            string        `yaml:"grpc_addr"`
	TraceTTL            time.Duration `yaml:"trace_ttl"`
	SweepInterval       time.Duration `yaml:"sweep_interval"`
	SlowThreshold       time.Duration `yaml:"slow_threshold"`
	FastThreshold       time.Duration `yaml:"fast_threshold"`
	SubscriberQueueSize int           `yaml:"subscriber_queue_size"`
	SeedDemoData        bool          `yaml:"seed_demo_data"`
}

// Options stores the configuration entries for the collector
type Options struct {
	Configuration Configuration
}

// InitFromViper initializes the options struct with values from Viper
func (opt *Options) InitFromViper(v *viper.Viper) {
	v.SetEnvPrefix("retrospect")
	v.AutomaticEnv()

	v.SetDefault(httpAddr, ":1990")
	v.SetDefault(grpcAddr, ":4317")
	v.SetDefault(traceTTL, "5m")
	v.SetDefault(sweepInterval, "30s")
	v.SetDefault(slowThreshold, "1s")
	v.SetDefault(fastThreshold, "100ms")
	v.SetDefault(subscriberQueueSize, 256)
	v.SetDefault(seedDemoData, false)

	opt.Configuration.HTTPAddr = v.GetString(httpAddr)
	opt.Configuration.GRPCAddr = v.GetString(grpcAddr)
	opt.Configuration.TraceTTL = v.GetDuration(traceTTL)
	opt.Configuration.SweepInterval = v.GetDuration(sweepInterval)
	opt.Configuration.SlowThreshold = v.GetDuration(slowThreshold)
	opt.Configuration.FastThreshold = v.GetDuration(fastThreshold)
	opt.Configuration.SubscriberQueueSize = v.GetInt(subscriberQueueSize)
	opt.Configuration.SeedDemoData = v.GetBool(seedDemoData)
}
