// Package config loads service settings from .env and the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"liyu1981.xyz/aquapure-service/pkg/common"
)

type Config struct {
	DBType string
	DBPath string

	HttpHostPort string
	GrpcHostPort string

	DefaultRate  float64
	DefaultBurst int

	UnitRate         decimal.Decimal
	FilterLifeLiters float64
	AlertCooldown    time.Duration
	Location         *time.Location

	StoreRetry common.RetryPolicy

	Redis RedisConfig
	Kafka KafkaConfig
	Mqtt  MqttConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type MqttConfig struct {
	Broker      string
	TopicPrefix string
	Users       []string
	Username    string
	Password    string
}

func (m MqttConfig) Enabled() bool {
	return m.Broker != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(common.EnvKeyAquaDBType, "file")
	v.SetDefault(common.EnvKeyAquaDbPath, "aquapure.db")
	v.SetDefault(common.EnvKeyAquaHttpHostPort, ":1080")
	v.SetDefault(common.EnvKeyAquaGrpcHostPort, "")
	v.SetDefault(common.EnvKeyAquaDefaultRate, 10.0)
	v.SetDefault(common.EnvKeyAquaDefaultBurst, 20)
	v.SetDefault(common.EnvKeyAquaUnitRate, "3.00")
	v.SetDefault(common.EnvKeyAquaFilterLifeLiters, 2000.0)
	v.SetDefault(common.EnvKeyAquaAlertCooldown, "1h")
	v.SetDefault(common.EnvKeyAquaTimezone, "Local")
	v.SetDefault(common.EnvKeyAquaStoreTimeout, "5s")
	v.SetDefault(common.EnvKeyAquaStoreRetries, 3)
	v.SetDefault(common.EnvKeyAquaStoreBackoff, "100ms")
	v.SetDefault(common.EnvKeyAquaRedisDB, 0)
	v.SetDefault(common.EnvKeyAquaKafkaTopic, "aquapure.notifications")
	v.SetDefault(common.EnvKeyAquaMqttTopicPrefix, "users")
}

// Load reads envFiles (missing files are fine unless requireEnvFile is set)
// into the environment and then resolves every setting through viper.
func Load(requireEnvFile bool, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil {
		if requireEnvFile || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", strings.Join(envFiles, ","), err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	unitRate, err := decimal.NewFromString(strings.TrimSpace(v.GetString(common.EnvKeyAquaUnitRate)))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", common.EnvKeyAquaUnitRate, err)
	}
	if unitRate.IsNegative() {
		return nil, fmt.Errorf("invalid %s: must not be negative", common.EnvKeyAquaUnitRate)
	}

	location, err := time.LoadLocation(v.GetString(common.EnvKeyAquaTimezone))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", common.EnvKeyAquaTimezone, err)
	}

	cfg := &Config{
		DBType:           v.GetString(common.EnvKeyAquaDBType),
		DBPath:           v.GetString(common.EnvKeyAquaDbPath),
		HttpHostPort:     strings.TrimSpace(v.GetString(common.EnvKeyAquaHttpHostPort)),
		GrpcHostPort:     strings.TrimSpace(v.GetString(common.EnvKeyAquaGrpcHostPort)),
		DefaultRate:      v.GetFloat64(common.EnvKeyAquaDefaultRate),
		DefaultBurst:     v.GetInt(common.EnvKeyAquaDefaultBurst),
		UnitRate:         unitRate,
		FilterLifeLiters: v.GetFloat64(common.EnvKeyAquaFilterLifeLiters),
		AlertCooldown:    v.GetDuration(common.EnvKeyAquaAlertCooldown),
		Location:         location,
		StoreRetry: common.RetryPolicy{
			Attempts:   v.GetInt(common.EnvKeyAquaStoreRetries),
			Timeout:    v.GetDuration(common.EnvKeyAquaStoreTimeout),
			Backoff:    v.GetDuration(common.EnvKeyAquaStoreBackoff),
			MaxBackoff: common.DefaultRetryPolicy.MaxBackoff,
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(v.GetString(common.EnvKeyAquaRedisAddr)),
			Password: v.GetString(common.EnvKeyAquaRedisPassword),
			DB:       v.GetInt(common.EnvKeyAquaRedisDB),
		},
		Kafka: KafkaConfig{
			Brokers: common.SplitList(v.GetString(common.EnvKeyAquaKafkaBrokers)),
			Topic:   v.GetString(common.EnvKeyAquaKafkaTopic),
		},
		Mqtt: MqttConfig{
			Broker:      strings.TrimSpace(v.GetString(common.EnvKeyAquaMqttBroker)),
			TopicPrefix: v.GetString(common.EnvKeyAquaMqttTopicPrefix),
			Users:       common.SplitList(v.GetString(common.EnvKeyAquaMqttUsers)),
			Username:    v.GetString(common.EnvKeyAquaMqttUsername),
			Password:    v.GetString(common.EnvKeyAquaMqttPassword),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.DBType {
	case "file", "memory":
	default:
		return fmt.Errorf("unknown %s: %q", common.EnvKeyAquaDBType, cfg.DBType)
	}
	if cfg.DefaultRate <= 0 {
		return fmt.Errorf("invalid %s, should be a positive float64 value", common.EnvKeyAquaDefaultRate)
	}
	if cfg.DefaultBurst <= 0 {
		return fmt.Errorf("invalid %s, should be a positive int value", common.EnvKeyAquaDefaultBurst)
	}
	if cfg.FilterLifeLiters <= 0 {
		return fmt.Errorf("invalid %s, should be a positive number of liters", common.EnvKeyAquaFilterLifeLiters)
	}
	if cfg.AlertCooldown < 0 {
		return fmt.Errorf("invalid %s, should not be negative", common.EnvKeyAquaAlertCooldown)
	}
	return nil
}
