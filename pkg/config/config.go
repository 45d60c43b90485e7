package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"ARMTS/pkg/logger"
)

type Config struct {
	Environment string        `yaml:"environment" default:"development"`
	Log         logger.Config `yaml:"log"`
	Dataset     Dataset       `yaml:"dataset"`
	Mining      Mining        `yaml:"mining"`
	Optimizer   Optimizer     `yaml:"optimizer"`
	Server      Server        `yaml:"server"`
	Metrics     struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	ClickHouse ClickHouse `yaml:"clickhouse"`
	Kafka      Kafka      `yaml:"kafka"`
	Redis      Redis      `yaml:"redis"`
	SQLite     struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"armts.db"`
	} `yaml:"sqlite"`
}

// Dataset selects where transactions come from and how they are segmented.
type Dataset struct {
	Source          string        `yaml:"source" default:"csv" validate:"oneof=csv clickhouse"`
	Path            string        `yaml:"path"`
	TimestampColumn string        `yaml:"timestamp_column" default:"timestamp"`
	SegmentColumn   string        `yaml:"segment_column"`
	Categorical     []string      `yaml:"categorical"`
	Ignore          []string      `yaml:"ignore"`
	Segments        int           `yaml:"segments" default:"1" validate:"gte=1"`
	SegmentDuration time.Duration `yaml:"segment_duration"`
}

type Mining struct {
	IntervalMode string  `yaml:"interval_mode" default:"fixed" validate:"oneof=fixed segmented true false"`
	Lower        float64 `yaml:"lower" default:"0"`
	Upper        float64 `yaml:"upper" default:"1"`
	Cutoff       float64 `yaml:"selection_cutoff" default:"0.5"`
	RoundDigits  int     `yaml:"round_digits" default:"4" validate:"gte=0,lte=15"`
	EmptyFitness float64 `yaml:"empty_fitness" default:"0" validate:"lte=0"`
	Epsilon      float64 `yaml:"archive_epsilon" default:"0.000001" validate:"gte=0"`
	TopN         int     `yaml:"top_n" default:"10" validate:"gte=1"`
	Weights      Weights `yaml:"weights"`
}

// Weights mirrors the fitness weights; at least one must be positive.
type Weights struct {
	Alpha float64 `yaml:"alpha" default:"1" validate:"gte=0"`
	Beta  float64 `yaml:"beta" default:"1" validate:"gte=0"`
	Gamma float64 `yaml:"gamma" default:"1" validate:"gte=0"`
	Delta float64 `yaml:"delta" default:"1" validate:"gte=0"`
}

type Optimizer struct {
	Population     int     `yaml:"population" default:"50" validate:"gte=2"`
	Generations    int     `yaml:"generations" default:"100" validate:"gte=1"`
	MaxEvaluations int     `yaml:"max_evaluations" validate:"gte=0"`
	TournamentSize int     `yaml:"tournament_size" default:"3" validate:"gte=1"`
	CrossoverRate  float64 `yaml:"crossover_rate" default:"0.9" validate:"gte=0,lte=1"`
	MutationRate   float64 `yaml:"mutation_rate" default:"0.1" validate:"gte=0,lte=1"`
	MutationSigma  float64 `yaml:"mutation_sigma" default:"0.1" validate:"gt=0"`
	Elite          int     `yaml:"elite" default:"2" validate:"gte=0"`
	Workers        int     `yaml:"workers" default:"4" validate:"gte=1"`
	Seed           uint64  `yaml:"seed"`
}

type Server struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	RateLimit       struct {
		RPS   float64 `yaml:"rps" default:"50" validate:"gt=0"`
		Burst int     `yaml:"burst" default:"100" validate:"gte=1"`
	} `yaml:"rate_limit"`
}

type ClickHouse struct {
	Enabled     bool          `yaml:"enabled"`
	Host        string        `yaml:"host" default:"localhost"`
	Port        int           `yaml:"port" default:"9000"`
	Database    string        `yaml:"database" default:"default"`
	User        string        `yaml:"user" default:"default"`
	Password    string        `yaml:"password"`
	UseHTTP     bool          `yaml:"use_http"`
	AsyncInsert bool          `yaml:"async_insert"`
	MaxOpen     int           `yaml:"max_open" default:"10" validate:"gte=1"`
	MaxIdle     int           `yaml:"max_idle" default:"5" validate:"gte=0"`
	DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout time.Duration `yaml:"read_timeout" default:"30s"`
	SourceTable string        `yaml:"source_table" default:"transactions"`
	RulesTable  string        `yaml:"rules_table" default:"rules"`
}

type Kafka struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic" default:"armts.rules"`
	LogTopic     string        `yaml:"log_topic" default:"armts.logs"`
	RequiredAcks int           `yaml:"required_acks" default:"-1"`
	Compression  string        `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd none"`
	MaxAttempts  int           `yaml:"max_attempts" default:"3" validate:"gte=1"`
	BatchSize    int           `yaml:"batch_size" default:"100" validate:"gte=1"`
	BatchTimeout time.Duration `yaml:"batch_timeout" default:"1s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
}

type Redis struct {
	Enabled      bool          `yaml:"enabled"`
	Host         string        `yaml:"host" default:"localhost"`
	Port         int           `yaml:"port" default:"6379"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Prefix       string        `yaml:"prefix" default:"armts"`
	TTL          time.Duration `yaml:"ttl" default:"24h"`
	PoolSize     int           `yaml:"pool_size" default:"10" validate:"gte=1"`
	MinIdleConns int           `yaml:"min_idle_conns" default:"2" validate:"gte=0"`
	PoolTimeout  time.Duration `yaml:"pool_timeout" default:"4s"`
}

var validate = validator.New()

// Default returns a configuration holding only default values.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file. Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes over the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML (or defaults when path is empty) and overrides with
// environment variables.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if path == "" {
		c, err = Default()
	} else {
		c, err = Load(path)
	}
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("ARMTS_INTERVAL_MODE"); v != "" {
		c.Mining.IntervalMode = v
	}
	if v := os.Getenv("ARMTS_DATASET_PATH"); v != "" {
		c.Dataset.Path = v
	}
	if v := os.Getenv("ARMTS_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ARMTS_SEED: %w", err)
		}
		c.Optimizer.Seed = seed
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Mining.Lower >= c.Mining.Upper {
		return fmt.Errorf("mining.lower must be below mining.upper")
	}
	w := c.Mining.Weights
	if w.Alpha+w.Beta+w.Gamma+w.Delta <= 0 {
		return errors.New("mining.weights: at least one weight must be positive")
	}
	if c.Optimizer.Elite >= c.Optimizer.Population {
		return fmt.Errorf("optimizer.elite must be below optimizer.population")
	}
	if c.Dataset.Source == "clickhouse" && !c.ClickHouse.Enabled {
		return errors.New("dataset.source clickhouse requires clickhouse.enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
