package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"gopkg.in/yaml.v2"

	"github.com/ollie314/Akumuli/utils/log"
)

// Config is the surface consumed by the storage core.
type Config struct {
	// PathToFile locates the metadata file.
	PathToFile string
	// MaxLateWrite is how far behind the newest timestamp a write may
	// arrive before the cache refuses it.
	MaxLateWrite time.Duration
	// MaxCacheSize is the max_cache_size setting as a byte count.
	MaxCacheSize int
}

// Parse fills the config from yaml. Durations use Go duration syntax
// ("10s"), sizes use human units ("64M").
func (c *Config) Parse(data []byte) error {
	var aux struct {
		PathToFile   string `yaml:"path_to_file"`
		MaxLateWrite string `yaml:"max_late_write"`
		MaxCacheSize string `yaml:"max_cache_size"`
		LogLevel     string `yaml:"log_level"`
	}

	if err := yaml.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.PathToFile == "" {
		return errors.New("invalid path_to_file")
	}
	c.PathToFile = aux.PathToFile

	if aux.MaxLateWrite != "" {
		d, err := time.ParseDuration(aux.MaxLateWrite)
		if err != nil {
			return fmt.Errorf("invalid max_late_write: %w", err)
		}
		c.MaxLateWrite = d
	} else {
		c.MaxLateWrite = 10 * time.Second
	}

	if aux.MaxCacheSize != "" {
		n, err := bytefmt.ToBytes(aux.MaxCacheSize)
		if err != nil {
			return fmt.Errorf("invalid max_cache_size: %w", err)
		}
		c.MaxCacheSize = int(n)
	} else {
		c.MaxCacheSize = 1 << 20
	}

	if aux.LogLevel != "" {
		switch strings.ToLower(aux.LogLevel) {
		case "fatal":
			log.SetLevel(log.FATAL)
		case "error":
			log.SetLevel(log.ERROR)
		case "warning":
			log.SetLevel(log.WARNING)
		case "debug":
			log.SetLevel(log.DEBUG)
		case "info":
			fallthrough
		default:
			log.SetLevel(log.INFO)
		}
	}

	return nil
}
