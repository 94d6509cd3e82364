package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	SQLite     SQLiteConfig
	Redis      RedisConfig
	History    HistoryConfig
	Media      MediaConfig
	Dataset    DatasetConfig
	Simulation SimulationConfig
	Predictor  PredictorConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    int
	WriteTimeout   int
	BodyLimit      int
	AllowedOrigins []string
	Development    bool
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// HistoryConfig selects where training results are persisted and where the
// prediction history table gets its rows from.
type HistoryConfig struct {
	// Store is "redis" or "memory".
	Store string
	Key   string
	// Source is "records" or "mock".
	Source   string
	MockRows int
}

type MediaConfig struct {
	Dir string
}

type DatasetConfig struct {
	DefaultPath string
	// Roots bound the paths a training request may name. Empty means
	// DefaultPath only.
	Roots           []string
	CacheTTLSeconds int
}

type SimulationConfig struct {
	PredictDelayMs  int
	TrainDelayMs    int
	FeedbackDelayMs int
	Seed            uint64
	Tuning          TuningConfig
}

// TuningConfig adjustments are pointers so an explicit 0 can switch one off.
type TuningConfig struct {
	BaseAccuracy     map[string]float64
	NoiseBand        *float64
	SplitBonusAbove  int
	SplitBonus       *float64
	AugmentBonus     *float64
	ShuffleBonus     *float64
	NoShufflePenalty *float64
	Ceiling          float64
	Floor            float64
	MinConfidence    float64
	MaxConfidence    float64
}

type PredictorConfig struct {
	// Mode is "mock" or "remote".
	Mode          string
	RemoteBaseURL string
	TimeoutSec    int
	MaxAttempts   int
}

type RateLimitConfig struct {
	Enabled              bool
	MaxRequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads the given file when path is non-empty, otherwise it searches
// the default locations for config.yaml.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/genre-tester")
	}

	v.SetEnvPrefix("GENRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.bodyLimit", 52428800)
	v.SetDefault("server.allowedOrigins", []string{"http://localhost:5173"})
	v.SetDefault("server.development", true)

	v.SetDefault("sqlite.path", "./data/genre.db")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("history.store", "redis")
	v.SetDefault("history.key", "trainingHistory")
	v.SetDefault("history.source", "records")
	v.SetDefault("history.mockRows", 75)

	v.SetDefault("media.dir", "./media")

	v.SetDefault("dataset.defaultPath", "/datasets/gtzan")
	v.SetDefault("dataset.cacheTTLSeconds", 300)

	v.SetDefault("simulation.predictDelayMs", 5000)
	v.SetDefault("simulation.trainDelayMs", 5000)
	v.SetDefault("simulation.feedbackDelayMs", 1200)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.tuning.baseAccuracy", map[string]float64{
		"cnn":  0.83,
		"crnn": 0.86,
		"svm":  0.78,
		"rf":   0.75,
		"knn":  0.70,
	})
	v.SetDefault("simulation.tuning.noiseBand", 0.02)
	v.SetDefault("simulation.tuning.splitBonusAbove", 80)
	v.SetDefault("simulation.tuning.splitBonus", 0.01)
	v.SetDefault("simulation.tuning.augmentBonus", 0.015)
	v.SetDefault("simulation.tuning.shuffleBonus", 0.005)
	v.SetDefault("simulation.tuning.noShufflePenalty", 0.005)
	v.SetDefault("simulation.tuning.ceiling", 0.95)
	v.SetDefault("simulation.tuning.floor", 0.01)
	v.SetDefault("simulation.tuning.minConfidence", 0.55)
	v.SetDefault("simulation.tuning.maxConfidence", 0.99)

	v.SetDefault("predictor.mode", "mock")
	v.SetDefault("predictor.remoteBaseURL", "http://localhost:8001")
	v.SetDefault("predictor.timeoutSec", 60)
	v.SetDefault("predictor.maxAttempts", 3)

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.maxRequestsPerMinute", 120)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
