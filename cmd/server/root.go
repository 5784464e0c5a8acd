package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"liyu1981.xyz/aquapure-service/pkg/aqua"
	"liyu1981.xyz/aquapure-service/pkg/common"
	"liyu1981.xyz/aquapure-service/pkg/config"
	"liyu1981.xyz/aquapure-service/pkg/db"
	"liyu1981.xyz/aquapure-service/pkg/metrics"
	"liyu1981.xyz/aquapure-service/pkg/notify"
	"liyu1981.xyz/aquapure-service/pkg/store"
)

var (
	envFile string
	userID  string
)

var rootCmd = &cobra.Command{
	Use:   "aquapure",
	Short: "Water usage aggregation and safety alert service",
	Long: `aquapure tracks daily water usage per user, serves weekly, monthly and yearly
reports over HTTP and gRPC, and raises contamination alerts from sensor readings.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "env file to load before reading the environment")
}

func loadConfig(requireEnvFile bool) (*config.Config, error) {
	return config.Load(requireEnvFile, envFile)
}

// core is the wired service plus whatever needs closing on the way out.
type core struct {
	aqua    *aqua.Aqua
	metrics *metrics.Metrics
	closers []func() error
}

func (c *core) Close() {
	logger := common.GetLoggerWith(common.LoggerNameCli)
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			logger.Warn("Close failed", zap.Error(err))
		}
	}
}

func buildCore(ctx context.Context, cfg *config.Config) (*core, error) {
	logger := common.GetLoggerWith(common.LoggerNameCli)
	c := &core{metrics: metrics.NewMetrics()}

	dbInstance := db.GetInstance(db.UseDialector(cfg.DBType, cfg.DBPath))

	var notifier store.Notifier
	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		redisNotifier, err := store.NewRedisNotifier(ctx, client)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}
		c.closers = append(c.closers, client.Close, redisNotifier.Close)
		notifier = redisNotifier
		logger.Info("Using redis change notifier", zap.String("addr", cfg.Redis.Addr))
	} else {
		localNotifier := store.NewLocalNotifier()
		c.closers = append(c.closers, localNotifier.Close)
		notifier = localNotifier
	}

	dispatchers := notify.MultiDispatcher{notify.NewLogDispatcher()}
	if cfg.Kafka.Enabled() {
		kafkaDispatcher, err := notify.NewKafkaDispatcher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("creating kafka dispatcher: %w", err)
		}
		c.closers = append(c.closers, kafkaDispatcher.Close)
		dispatchers = append(dispatchers, kafkaDispatcher)
		logger.Info("Publishing notifications to kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}

	c.aqua = aqua.New(
		store.NewGormUsageStore(dbInstance, notifier),
		store.NewGormHistoryStore(dbInstance, notifier),
		dispatchers,
		aqua.SettingsFromConfig(cfg),
	).WithMetrics(c.metrics)

	return c, nil
}

// withCore loads config, builds the core and hands it to fn for the
// one-shot commands.
func withCore(cmd *cobra.Command, fn func(ctx context.Context, c *core) error) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, err := buildCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	return fn(ctx, c)
}

func requireUser(cmd *cobra.Command) {
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	_ = cmd.MarkFlagRequired("user")
}
