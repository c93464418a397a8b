package utils

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type NetworkConfig struct {
	Endpoint   string
	PlayerName string
	// MaxReconnectAttempts bounds automatic retries after a dropped connection.
	MaxReconnectAttempts int
	// ReconnectDelayMS is multiplied by the attempt number.
	ReconnectDelayMS int
	DialTimeoutMS    int
}

type SyncConfig struct {
	UpdateIntervalMS int
	BlendFactor      float64
	RespawnDelayMS   int
}

type ServerConfig struct {
	Address        string
	TickRate       int
	BroadcastEvery int
	MaxPlayers     int
}

type ResolutionConfig struct {
	X, Y int
}

type UIConfig struct {
	Resolution ResolutionConfig
}

type LogConfig struct {
	Level string
}

type Config struct {
	Network NetworkConfig
	Sync    SyncConfig
	Server  ServerConfig
	UI      UIConfig
	Log     LogConfig
}

// Default returns the configuration the game ships with.
func Default() *Config {
	return &Config{
		Network: NetworkConfig{
			Endpoint:             "ws://localhost:8080",
			PlayerName:           "Player",
			MaxReconnectAttempts: 5,
			ReconnectDelayMS:     1000,
			DialTimeoutMS:        5000,
		},
		Sync: SyncConfig{
			UpdateIntervalMS: 50,
			BlendFactor:      0.3,
			RespawnDelayMS:   3000,
		},
		Server: ServerConfig{
			Address:        "localhost:8080",
			TickRate:       60,
			BroadcastEvery: 10,
			MaxPlayers:     16,
		},
		UI: UIConfig{
			Resolution: ResolutionConfig{X: 1280, Y: 720},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ReadTOML overlays the file onto the defaults. Keys missing from the file
// keep their default values.
func ReadTOML(fileName string) (*Config, error) {
	file, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}

	config := Default()
	if err := toml.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", fileName, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Network.MaxReconnectAttempts < 0 {
		errs = append(errs, fmt.Errorf("network.MaxReconnectAttempts must not be negative, got %d", c.Network.MaxReconnectAttempts))
	}
	if c.Network.ReconnectDelayMS <= 0 {
		errs = append(errs, fmt.Errorf("network.ReconnectDelayMS must be positive, got %d", c.Network.ReconnectDelayMS))
	}
	if c.Sync.UpdateIntervalMS <= 0 {
		errs = append(errs, fmt.Errorf("sync.UpdateIntervalMS must be positive, got %d", c.Sync.UpdateIntervalMS))
	}
	if c.Sync.BlendFactor <= 0 || c.Sync.BlendFactor > 1 {
		errs = append(errs, fmt.Errorf("sync.BlendFactor must be in (0, 1], got %v", c.Sync.BlendFactor))
	}
	if c.Sync.RespawnDelayMS < 0 {
		errs = append(errs, fmt.Errorf("sync.RespawnDelayMS must not be negative, got %d", c.Sync.RespawnDelayMS))
	}
	if c.Server.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("server.TickRate must be positive, got %d", c.Server.TickRate))
	}
	if c.Server.BroadcastEvery <= 0 {
		errs = append(errs, fmt.Errorf("server.BroadcastEvery must be positive, got %d", c.Server.BroadcastEvery))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c NetworkConfig) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelayMS) * time.Millisecond
}

func (c NetworkConfig) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutMS) * time.Millisecond
}

func (c SyncConfig) UpdateInterval() time.Duration {
	return time.Duration(c.UpdateIntervalMS) * time.Millisecond
}

func (c SyncConfig) RespawnDelay() time.Duration {
	return time.Duration(c.RespawnDelayMS) * time.Millisecond
}

func (c ServerConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

func AlmostEqual(a, b, threshold float64) bool {
	return math.Abs(a-b) <= threshold
}
