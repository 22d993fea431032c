package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

type Config struct {
	Addr            string
	ModelsDir       string
	FertilityModel  string
	IrrigationModel string
	CropModel       string
	MaxBodyBytes    int64
	CORSOrigins     []string
	ShutdownGrace   time.Duration
	GRPCHealthPort  int

	LogVerbosity int
	LogDev       bool

	// InfluxDB (opzionale): storico delle predizioni
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string

	// MQTT (opzionale): eventi di predizione e bridge
	RabbitHost      string
	RabbitPort      int
	RabbitUser      string
	RabbitPassword  string
	ClientID        string
	PredictionTopic string
	BridgeEnabled   bool
	BridgeRequests  string
	BridgeResults   string
}

func getenv(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getenvBool(k string, d bool) bool {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return d
}

func getenvDuration(k string, d time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if dd, err := time.ParseDuration(v); err == nil {
			return dd
		}
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// loadConfig reads the environment (already populated from .env) and lets flags override it.
func loadConfig(args []string) (Config, error) {
	var cfg Config
	var origins string
	var maxBody int

	fs := pflag.NewFlagSet("inference", pflag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", getenv("ADDR", ":8000"), "HTTP listen address")
	fs.StringVar(&cfg.ModelsDir, "models-dir", getenv("MODELS_DIR", "models"), "directory holding the model manifests")
	fs.StringVar(&cfg.FertilityModel, "fertility-model", getenv("FERTILITY_MODEL", "fertility.yaml"), "fertility manifest, relative to models-dir")
	fs.StringVar(&cfg.IrrigationModel, "irrigation-model", getenv("IRRIGATION_MODEL", "irrigation.yaml"), "irrigation manifest, relative to models-dir")
	fs.StringVar(&cfg.CropModel, "crop-model", getenv("CROP_MODEL", "crop.yaml"), "crop manifest, relative to models-dir")
	fs.IntVar(&maxBody, "max-body-bytes", getenvInt("MAX_BODY_BYTES", 1<<20), "maximum request body size")
	fs.StringVar(&origins, "cors-origins", getenv("CORS_ORIGINS", "*"), "comma separated allowed CORS origins")
	fs.DurationVar(&cfg.ShutdownGrace, "shutdown-grace", getenvDuration("SHUTDOWN_GRACE", 5*time.Second), "graceful shutdown timeout")
	fs.IntVar(&cfg.GRPCHealthPort, "grpc-health-port", getenvInt("GRPC_HEALTH_PORT", 0), "gRPC health port, 0 disables it")
	fs.IntVar(&cfg.LogVerbosity, "v", getenvInt("LOG_VERBOSITY", 2), "log verbosity")
	fs.BoolVar(&cfg.LogDev, "log-dev", getenvBool("LOG_DEV", false), "human readable logs")

	fs.StringVar(&cfg.InfluxURL, "influx-url", getenv("INFLUX_URL", ""), "InfluxDB URL, empty disables prediction history")
	fs.StringVar(&cfg.InfluxOrg, "influx-org", getenv("INFLUX_ORG", "agri"), "InfluxDB organisation")
	fs.StringVar(&cfg.InfluxBucket, "influx-bucket", getenv("INFLUX_BUCKET", "predictions"), "InfluxDB bucket")

	fs.StringVar(&cfg.RabbitHost, "rabbitmq-host", getenv("RABBITMQ_HOST", ""), "MQTT broker host, empty disables MQTT")
	fs.IntVar(&cfg.RabbitPort, "rabbitmq-port", getenvInt("RABBITMQ_PORT", 1883), "MQTT broker port")
	fs.StringVar(&cfg.ClientID, "mqtt-client-id", getenv("MQTT_CLIENT_ID", getenv("HOSTNAME", "inference-service")), "MQTT client id")
	fs.StringVar(&cfg.PredictionTopic, "prediction-topic", getenv("PREDICTION_TOPIC", "event/prediction/{model}"), "topic for prediction events")
	fs.BoolVar(&cfg.BridgeEnabled, "bridge", getenvBool("BRIDGE_ENABLED", false), "serve predictions over MQTT")
	fs.StringVar(&cfg.BridgeRequests, "bridge-request-topic", getenv("BRIDGE_REQUEST_TOPIC", "inference/request"), "bridge request topic prefix")
	fs.StringVar(&cfg.BridgeResults, "bridge-result-topic", getenv("BRIDGE_RESULT_TOPIC", "inference/result"), "bridge result topic prefix")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	// segreti solo da env
	cfg.InfluxToken = os.Getenv("INFLUX_TOKEN")
	cfg.RabbitUser = getenv("RABBITMQ_USER", "guest")
	cfg.RabbitPassword = getenv("RABBITMQ_PASSWORD", "guest")

	cfg.MaxBodyBytes = int64(maxBody)
	cfg.CORSOrigins = splitList(origins)
	return cfg, nil
}

// modelPath resolves a manifest name against ModelsDir; absolute paths and "" are kept.
func (c Config) modelPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.ModelsDir, name)
}
