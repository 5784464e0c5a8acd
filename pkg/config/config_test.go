package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/aquapure-service/pkg/common"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(false, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.DBType)
	assert.Equal(t, ":1080", cfg.HttpHostPort)
	assert.Equal(t, "", cfg.GrpcHostPort)
	assert.True(t, cfg.UnitRate.Equal(decimal.RequireFromString("3")))
	assert.Equal(t, 2000.0, cfg.FilterLifeLiters)
	assert.Equal(t, time.Hour, cfg.AlertCooldown)
	assert.Equal(t, 3, cfg.StoreRetry.Attempts)
	assert.Equal(t, 5*time.Second, cfg.StoreRetry.Timeout)
	assert.Equal(t, 100*time.Millisecond, cfg.StoreRetry.Backoff)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Mqtt.Enabled())
}

func TestLoad_RequiredEnvFileMissing(t *testing.T) {
	_, err := Load(true, filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLoad_FromEnvFileAndEnvironment(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "AQUA_DB_TYPE=memory\n" +
		"AQUA_UNIT_RATE=2.50\n" +
		"AQUA_ALERT_COOLDOWN=10s\n" +
		"AQUA_KAFKA_BROKERS=k1:9092, k2:9092\n" +
		"AQUA_MQTT_USERS=alice,bob\n" +
		"AQUA_TIMEZONE=Asia/Manila\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	// godotenv never overrides variables that are already set
	t.Setenv(common.EnvKeyAquaDBType, "file")
	t.Setenv(common.EnvKeyAquaMqttBroker, "tcp://broker:1883")
	for _, key := range []string{
		common.EnvKeyAquaUnitRate,
		common.EnvKeyAquaAlertCooldown,
		common.EnvKeyAquaKafkaBrokers,
		common.EnvKeyAquaMqttUsers,
		common.EnvKeyAquaTimezone,
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load(true, envFile)
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.DBType)
	assert.True(t, cfg.UnitRate.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, 10*time.Second, cfg.AlertCooldown)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "aquapure.notifications", cfg.Kafka.Topic)
	assert.Equal(t, []string{"alice", "bob"}, cfg.Mqtt.Users)
	assert.True(t, cfg.Mqtt.Enabled())
	assert.Equal(t, "Asia/Manila", cfg.Location.String())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		common.EnvKeyAquaDBType:   "postgres",
		common.EnvKeyAquaUnitRate: "three",
		common.EnvKeyAquaTimezone: "Mars/Olympus",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load(false, filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}
