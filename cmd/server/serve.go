package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"liyu1981.xyz/aquapure-service/pkg/aqua"
	"liyu1981.xyz/aquapure-service/pkg/common"
	"liyu1981.xyz/aquapure-service/pkg/config"
	"liyu1981.xyz/aquapure-service/pkg/feed"
	aquaGrpc "liyu1981.xyz/aquapure-service/pkg/grpc"
	aquaHttp "liyu1981.xyz/aquapure-service/pkg/http"
	"liyu1981.xyz/aquapure-service/pkg/models"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and gRPC servers",
	Long: `Starts the REST API, the gRPC API when AQUA_GRPC_HOST_PORT is set, and a
sensor monitor for every user in AQUA_MQTT_USERS when an MQTT broker is configured.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return fmt.Errorf("loading config, copy .env.example to .env first if in development: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := common.GetLogger()

	c, err := buildCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	limiterStore := aqua.NewRateLimiterStore(rate.Limit(cfg.DefaultRate), cfg.DefaultBurst)
	defaultLimiter := zap.String("default_limiter",
		fmt.Sprintf("{\"default_rate\": %v, \"default_burst\": %v}", cfg.DefaultRate, cfg.DefaultBurst))

	var wg sync.WaitGroup
	errs := make(chan error, 3)

	sensorFeed := feed.NewChanFeed()
	if cfg.Mqtt.Enabled() {
		if err := startMonitors(ctx, &wg, c.aqua, cfg.Mqtt, sensorFeed); err != nil {
			return err
		}
	}

	if cfg.GrpcHostPort != "" {
		s := aquaGrpc.NewServer(&aquaGrpc.AquaServer{
			Aqua:             c.aqua,
			RateLimiterStore: limiterStore,
			Metrics:          c.metrics,
		})
		logger.Info("gRPC server created with:", defaultLimiter)

		listener, err := net.Listen("tcp", cfg.GrpcHostPort)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.GrpcHostPort, err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("start gRPC server on " + cfg.GrpcHostPort)
			if err := s.Serve(listener); err != nil {
				errs <- fmt.Errorf("grpc server failed to serve: %w", err)
			}
		}()
		go func() {
			<-ctx.Done()
			// open WatchWindow streams keep GracefulStop waiting
			timer := time.AfterFunc(shutdownTimeout, s.Stop)
			s.GracefulStop()
			timer.Stop()
		}()
	}

	rs := &aquaHttp.RestfulServer{
		Server:           gin.Default(),
		Aqua:             c.aqua,
		RateLimiterStore: limiterStore,
		Metrics:          c.metrics,
		Feed:             sensorFeed,
	}
	rs.Setup()
	logger.Info("http server created with:", defaultLimiter)

	httpServer := &http.Server{Addr: cfg.HttpHostPort, Handler: rs.Server}
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("Starting HTTP server on: " + cfg.HttpHostPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("http server failed to serve: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case serveErr = <-errs:
		logger.Error("Server stopped", zap.Error(serveErr))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", zap.Error(err))
	}
	rs.Close()

	wg.Wait()
	return serveErr
}

// startMonitors runs one sensor monitor per configured user on a shared
// MQTT connection until ctx is done. Readings are also republished on
// local so dashboard sessions see them.
func startMonitors(ctx context.Context, wg *sync.WaitGroup, a *aqua.Aqua, cfg config.MqttConfig, local *feed.ChanFeed) error {
	logger := common.GetLoggerWith(common.LoggerNameFeed)

	mqttFeed, err := feed.NewMQTTFeed(cfg)
	if err != nil {
		return fmt.Errorf("connecting to mqtt broker %s: %w", cfg.Broker, err)
	}

	var monitors sync.WaitGroup
	for _, user := range cfg.Users {
		if _, err := mqttFeed.Subscribe(ctx, user, func(snapshot models.SensorSnapshot) {
			local.Publish(user, snapshot)
		}); err != nil {
			mqttFeed.Close()
			return fmt.Errorf("subscribing to sensor feed of %s: %w", user, err)
		}

		monitor := aqua.NewMonitor(a, user)
		monitors.Add(1)
		go func() {
			defer monitors.Done()
			if err := monitor.Run(ctx, mqttFeed); err != nil {
				logger.Error("Sensor monitor failed", zap.String("user_id", user), zap.Error(err))
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		monitors.Wait()
		mqttFeed.Close()
	}()

	logger.Info("Sensor monitors started", zap.Strings("users", cfg.Users))
	return nil
}
