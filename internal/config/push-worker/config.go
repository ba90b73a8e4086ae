package push_worker_config

import (
	"time"

	"github.com/NordCoder/Remindus/internal/obs"
	kafkax "github.com/NordCoder/Remindus/internal/repository/kafka"
	pginfra "github.com/NordCoder/Remindus/internal/repository/postgres"
)

type KafkaIn struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

func (k KafkaIn) AsConsumerConfig() *kafkax.ConsumerConfig {
	return &kafkax.ConsumerConfig{
		Brokers: k.Brokers,
		GroupID: k.GroupID,
		Topic:   k.Topic,
	}
}

type FCM struct {
	CredentialsFile string        `mapstructure:"credentials_file"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type Retry struct {
	Attempts int           `mapstructure:"attempts"`
	Delay    time.Duration `mapstructure:"delay"`
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
	Workers     int    `mapstructure:"workers"`
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
	In     KafkaIn        `mapstructure:"kafka_in"`
	FCM    FCM            `mapstructure:"fcm"`
	Retry  Retry          `mapstructure:"retry"`
	Server Server         `mapstructure:"server"`
	Log    Log            `mapstructure:"log"`
	OTEL   OTEL           `mapstructure:"otel"`
}
