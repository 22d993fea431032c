package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/LeonardoBeccarini/agri_inference/internal/services/inference"
	"github.com/LeonardoBeccarini/agri_inference/pkg/dedup"
	"github.com/LeonardoBeccarini/agri_inference/pkg/logging"
	"github.com/LeonardoBeccarini/agri_inference/pkg/rabbitmq"
)

func main() {
	// .env è opzionale
	_ = godotenv.Load()

	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := logging.New(cfg.LogVerbosity, cfg.LogDev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	setupLog := logger.WithName("setup")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === Models ===
	registry := inference.LoadRegistry(ctx, logger.WithName("models"), map[inference.Kind]string{
		inference.KindFertility:  cfg.modelPath(cfg.FertilityModel),
		inference.KindIrrigation: cfg.modelPath(cfg.IrrigationModel),
		inference.KindCrop:       cfg.modelPath(cfg.CropModel),
	})
	setupLog.Info("Models status", "models", registry.Status(), "allLoaded", registry.AllLoaded())

	// === Metrics ===
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := inference.NewMetrics(reg)

	routerCfg := inference.RouterConfig{
		Logger:         logger.WithName("http"),
		AllowedOrigins: cfg.CORSOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		Gatherer:       reg,
		MinErrorAge:    30 * time.Second,
	}
	var sinks inference.MultiSink

	// === InfluxDB ===
	if cfg.InfluxURL != "" {
		influx := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
		defer influx.Close()
		writeAPI := influx.WriteAPI(cfg.InfluxOrg, cfg.InfluxBucket)
		defer writeAPI.Flush()

		writer := inference.NewWriter(writeAPI, logger.WithName("influx"))
		sinks = append(sinks, writer)
		routerCfg.Writer = writer
		routerCfg.History = inference.NewHistoryHandler(influx.QueryAPI(cfg.InfluxOrg), cfg.InfluxBucket, logger.WithName("history"))
		setupLog.Info("Prediction history enabled", "url", cfg.InfluxURL, "bucket", cfg.InfluxBucket)
	}

	// === MQTT ===
	var (
		mqttClient mqtt.Client
		pub        *rabbitmq.Publisher
	)
	mqttLog := logger.WithName("mqtt")
	if cfg.RabbitHost != "" {
		client, err := rabbitmq.NewRabbitMQConn(ctx, &rabbitmq.RabbitMQConfig{
			Host:     cfg.RabbitHost,
			Port:     cfg.RabbitPort,
			User:     cfg.RabbitUser,
			Password: cfg.RabbitPassword,
			ClientID: cfg.ClientID,
		}, mqttLog)
		if err != nil {
			setupLog.Error(err, "MQTT unavailable, prediction events and bridge disabled")
		} else {
			defer rabbitmq.CloseRabbitMQConn(client, mqttLog)
			mqttClient = client
			pub = rabbitmq.NewPublisher(client, 5*time.Second)
			mqttSink := inference.NewMQTTSink(pub, cfg.PredictionTopic, inference.DefaultSinkBuffer, mqttLog)
			defer mqttSink.Close()
			sinks = append(sinks, mqttSink)
		}
	}

	opts := []inference.Option{inference.WithMetrics(metrics), inference.WithLogger(logger.WithName("service"))}
	if len(sinks) > 0 {
		opts = append(opts, inference.WithSink(sinks))
	}
	svc := inference.NewService(registry, opts...)

	if cfg.BridgeEnabled && mqttClient != nil {
		bridgeCfg := inference.BridgeConfig{RequestTopic: cfg.BridgeRequests, ResultTopic: cfg.BridgeResults}
		consumer := rabbitmq.NewConsumer(mqttClient, bridgeCfg.SubscriptionTopic(), 1, mqttLog)
		bridge := inference.NewBridge(svc, consumer, pub, dedup.New(10*time.Minute, 20000), bridgeCfg, logger.WithName("bridge"))
		go func() {
			if err := bridge.Run(ctx); err != nil {
				setupLog.Error(err, "MQTT bridge stopped")
			}
		}()
	}

	// === gRPC health ===
	if cfg.GRPCHealthPort > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCHealthPort))
		if err != nil {
			setupLog.Error(err, "gRPC health listener failed")
			os.Exit(1)
		}
		gs := grpc.NewServer()
		healthpb.RegisterHealthServer(gs, inference.NewHealthServer(registry))
		go func() {
			setupLog.Info("gRPC health listening", "port", cfg.GRPCHealthPort)
			if err := gs.Serve(lis); err != nil {
				setupLog.Error(err, "gRPC server error")
			}
		}()
		defer gs.GracefulStop()
	}

	// === HTTP ===
	hs := &http.Server{
		Addr:              cfg.Addr,
		Handler:           inference.NewRouter(svc, routerCfg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		setupLog.Info("HTTP listening", "addr", cfg.Addr)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			setupLog.Error(err, "http server error")
			stop()
		}
	}()

	<-ctx.Done()
	setupLog.Info("Shutting down")

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	_ = hs.Shutdown(shCtx)
}
