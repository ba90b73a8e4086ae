package dispatcher_config

import (
	"time"

	"github.com/NordCoder/Remindus/internal/obs"
	pginfra "github.com/NordCoder/Remindus/internal/repository/postgres"
)

type KafkaOut struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type DispatchCfg struct {
	Tick        time.Duration `mapstructure:"tick"`
	BatchSize   int           `mapstructure:"batch_size"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
}

type NotifyCfg struct {
	OffsetMinutes int `mapstructure:"offset_minutes"`
}

func (n NotifyCfg) Offset() time.Duration {
	return time.Duration(n.OffsetMinutes) * time.Minute
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
	Env    string `mapstructure:"env"`
}

func (l Log) AsLoggerConfig(app string) obs.LogConfig {
	return obs.LogConfig{Level: l.Level, Pretty: l.Pretty, App: app, Env: l.Env}
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
}

func (o OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      o.Enable,
		Endpoint:    o.OTLPEndpoint,
		ServiceName: o.ServiceName,
		SampleRatio: o.SampleRatio,
	}
}

type Config struct {
	DB     pginfra.Config `mapstructure:"db"`
	Kafka  KafkaOut       `mapstructure:"kafka"`
	Sched  DispatchCfg    `mapstructure:"sched"`
	Notify NotifyCfg      `mapstructure:"notify"`
	Log    Log            `mapstructure:"log"`
	OTEL   OTEL           `mapstructure:"otel"`
}
