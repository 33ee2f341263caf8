package config

import (
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"cardroom-server/internal/util"
)

// Config provides configuration for the cardroom server
type Config struct {
	loaded         bool
	PGDSN          string `yaml:"pgDsn" envconfig:"pg_dsn"`
	MigrationsPath string `yaml:"migrationsPath" envconfig:"migrations_path"`
	JWT            struct {
		PublicKey  string `yaml:"publicKey" envconfig:"public_key"`
		PrivateKey string `yaml:"privateKey" envconfig:"private_key"`
	}
	RecaptchaSecret string `yaml:"recaptchaSecret" envconfig:"recaptcha_secret"`
	Email           struct {
		From, Sender, Username, Password, Host string
	}
	Room struct {
		SmallBlind    int `yaml:"smallBlind" envconfig:"small_blind"`
		BigBlind      int `yaml:"bigBlind" envconfig:"big_blind"`
		StartingChips int `yaml:"startingChips" envconfig:"starting_chips"`
		// TurnTimeout is how many seconds a player gets before an auto-fold
		TurnTimeout int `yaml:"turnTimeout" envconfig:"turn_timeout"`
		MinPlayers  int `yaml:"minPlayers" envconfig:"min_players"`
		MaxPlayers  int `yaml:"maxPlayers" envconfig:"max_players"`
	}
	NATS struct {
		URL string `yaml:"url" envconfig:"url"`
	}
	RateLimit struct {
		// RoomCreatePerMinute is the per-address sustained rate for creating rooms
		RoomCreatePerMinute float64 `yaml:"roomCreatePerMinute" envconfig:"room_create_per_minute"`
		RoomCreateBurst     int     `yaml:"roomCreateBurst" envconfig:"room_create_burst"`
	}
	Log struct {
		Level             string `yaml:"level" envconfig:"level"`
		DisableAccessLogs bool   `yaml:"disableAccessLogs" envconfig:"disable_access_logs"`
	}
}

// TurnTimeoutDuration returns the turn timeout as a duration
func (c Config) TurnTimeoutDuration() time.Duration {
	return time.Second * time.Duration(c.Room.TurnTimeout)
}

// DefaultConfig returns the configuration defaults
func DefaultConfig() Config {
	var c Config
	c.PGDSN = "postgres://postgres@localhost:5432/postgres?sslmode=disable"
	c.MigrationsPath = "./sql"
	c.JWT.PublicKey = "public.pem"
	c.JWT.PrivateKey = "private.key"
	c.Room.SmallBlind = 25
	c.Room.BigBlind = 50
	c.Room.StartingChips = 5000
	c.Room.TurnTimeout = 45
	c.Room.MinPlayers = 2
	c.Room.MaxPlayers = 10
	c.RateLimit.RoomCreatePerMinute = 1
	c.RateLimit.RoomCreateBurst = 3

	return c
}

var config Config

// Instance returns a singleton instance
// If the config hasn't been loaded, it will be loaded
func Instance() Config {
	if !config.loaded {
		if err := Load(); err != nil {
			panic(err)
		}
	}

	return config
}

// Load will load the configuration
func Load() error {
	config = DefaultConfig()

	configFile := util.Getenv("CARDROOM_CONFIG_FILE", "config.yaml")
	file, err := os.Open(configFile)
	if err == nil {
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(&config); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := envconfig.Process("cardroom", &config); err != nil {
		return err
	}

	config.loaded = true
	return nil
}
