package main

import (
	"errors"
	"os"
	"path"

	"github.com/spf13/viper"

	"github.com/vvv850/infra-mapper/cli/commands"
	app_info "github.com/vvv850/infra-mapper/internal/app-info"
	"github.com/vvv850/infra-mapper/internal/logger"
)

func setConfigPaths() error {
	userHomeDir, err := os.UserHomeDir()

	if err != nil {
		return err
	}

	configDir := path.Join(userHomeDir, ".config", app_info.NAME)

	if err := os.MkdirAll(configDir, 0755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}

	configFile := path.Join(configDir, "servers.yaml")

	logFile := path.Join(configDir, app_info.NAME+".log")

	userCacheDir, err := os.UserCacheDir()

	if err != nil {
		return err
	}

	cacheDir := path.Join(userCacheDir, app_info.NAME)

	if err := os.MkdirAll(cacheDir, 0755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}

	dbFile := path.Join(cacheDir, app_info.NAME+".db")

	// share location of files and directories globally using viper
	viper.Set("log-file", logFile)
	viper.Set("config-dir", configDir)
	viper.Set("config-file", configFile)
	viper.Set("cache-dir", cacheDir)
	viper.Set("database-file", dbFile)

	return nil
}

// Entry point for the cli.
func main() {
	log := logger.New()

	if err := setConfigPaths(); err != nil {
		log.Fatal().Err(err).Msg("failed to prepare config paths")
	}

	if err := commands.Root().Execute(); err != nil {
		os.Exit(1)
	}
}
