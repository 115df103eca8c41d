// Package config loads the controller tunables from defaults, an optional
// YAML file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/room-controller/internal/logic"
)

// Environment variables consulted by Load.
const (
	EnvTimeScale = "ROOM_TIME_SCALE"
	EnvTCheckMS  = "ROOM_T_CHECK_MS"
	EnvTHumMS    = "ROOM_T_HUM_MS"

	EnvMQTTUsername = "MQTT_USERNAME"
	EnvMQTTPassword = "MQTT_PASSWORD"
)

// File mirrors the YAML tunables file. Absent keys keep their defaults.
type File struct {
	DayThreshold *int     `yaml:"day_threshold"`
	LMin         *int     `yaml:"l_min"`
	LMax         *int     `yaml:"l_max"`
	HMin         *int     `yaml:"h_min"`
	LNight       *int     `yaml:"l_night"`
	HNight       *int     `yaml:"h_night"`
	LNightAlt    *int     `yaml:"l_night_alt"`
	HNightAlt    *int     `yaml:"h_night_alt"`
	TCheckMS     *int64   `yaml:"t_check_ms"`
	THumMS       *int64   `yaml:"t_hum_ms"`
	TimeScale    *float64 `yaml:"time_scale"`
}

func (f File) apply(cfg *logic.Config) {
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setInt(&cfg.DayThreshold, f.DayThreshold)
	setInt(&cfg.LMin, f.LMin)
	setInt(&cfg.LMax, f.LMax)
	setInt(&cfg.HMin, f.HMin)
	setInt(&cfg.LNight, f.LNight)
	setInt(&cfg.HNight, f.HNight)
	setInt(&cfg.LNightAlt, f.LNightAlt)
	setInt(&cfg.HNightAlt, f.HNightAlt)

	if f.TCheckMS != nil {
		cfg.TCheck = time.Duration(*f.TCheckMS) * time.Millisecond
	}
	if f.THumMS != nil {
		cfg.THum = time.Duration(*f.THumMS) * time.Millisecond
	}
	if f.TimeScale != nil {
		cfg.TimeScale = *f.TimeScale
	}
}

// Load returns the defaults overlaid by the YAML file at path (skipped when
// path is empty) and then by the ROOM_* environment variables. The result is
// validated.
func Load(path string) (logic.Config, error) {
	cfg := logic.DefaultConfig()

	if path != "" {
		f, err := readFile(path)
		if err != nil {
			return cfg, err
		}
		f.apply(&cfg)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func readFile(path string) (File, error) {
	var f File
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return f, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return f, nil
}

func applyEnv(cfg *logic.Config) error {
	if v := os.Getenv(EnvTimeScale); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvTimeScale, err)
		}
		cfg.TimeScale = scale
	}

	for _, e := range []struct {
		key string
		dst *time.Duration
	}{
		{EnvTCheckMS, &cfg.TCheck},
		{EnvTHumMS, &cfg.THum},
	} {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: %s: %w", e.key, err)
		}
		*e.dst = time.Duration(ms) * time.Millisecond
	}
	return nil
}

// LoadEnv loads .env files into the process environment without overriding
// variables that are already set. With no arguments it reads ./.env. A
// missing file is logged and skipped.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, name := range files {
		err := godotenv.Load(name)
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("Warning: no env file %s", name)
			continue
		}
		if err != nil {
			return fmt.Errorf("config: load %s: %w", name, err)
		}
	}
	return nil
}

// MQTTCredentials returns the broker username and password from the environment.
func MQTTCredentials() (username, password string) {
	return os.Getenv(EnvMQTTUsername), os.Getenv(EnvMQTTPassword)
}
