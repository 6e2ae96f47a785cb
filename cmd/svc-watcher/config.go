package main

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var config = &appConfig{viper.New()}

type appConfig struct {
	*viper.Viper
}

// initConfig loads the optional yaml file named by CONFIG and applies
// SVCWATCHER_* environment overrides. Every key has a default, so running
// with no configuration at all is fine.
func initConfig() {
	config.SetConfigType("yaml")

	config.SetEnvPrefix("SVCWATCHER")
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	config.AutomaticEnv()

	config.SetDefault("bus.scope", "system")
	config.SetDefault("watch.interval", 1*time.Second)
	config.SetDefault("watch.buffer", 32)
	config.SetDefault("watch.ignore_file", "/etc/systemd-svc-watcher/ignore.list")
	config.SetDefault("notify.icon", "text-x-systemd-unit")
	config.SetDefault("notify.timeout_ms", 0)
	config.SetDefault("http.address", "")

	configFile := os.Getenv("CONFIG")
	if configFile == "" {
		return
	}

	f, err := os.Open(configFile)
	if err != nil {
		log.Fatal().Msgf("%v", err)
	}
	defer f.Close()

	err = config.ReadConfig(f)
	if err != nil {
		log.Fatal().Msgf("%v", err)
	}
}
