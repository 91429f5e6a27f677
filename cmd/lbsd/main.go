// Command lbsd runs the patchgo release server: it serves signed version
// and hash metadata plus release downloads for the versions declared in
// its configuration.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/patchgo/patchgo/pkg/release"
	"github.com/patchgo/patchgo/pkg/server"
	"github.com/patchgo/patchgo/pkg/serverconfig"
	"github.com/patchgo/patchgo/pkg/signing"
)

var buildVersion = "dev" // set via -ldflags at build time

var cfgFile string

var rootCmd = &cobra.Command{
	Use:     "lbsd",
	Short:   "patchgo release server daemon",
	Version: buildVersion,
	RunE:    runServe,
}

func init() {
	cobra.OnInitialize(initViper)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./patchgo-server.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, console)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initViper() {
	viper.SetEnvPrefix("PATCHGO")
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := serverconfig.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("lbsd: failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("lbsd: failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	if err := cfg.EnsureReleasesDir(); err != nil {
		return fmt.Errorf("lbsd: failed to create releases directory: %w", err)
	}

	keyManager := signing.NewKeyManager(cfg.KeysDir)
	if err := keyManager.EnsureKeyExists(); err != nil {
		return fmt.Errorf("lbsd: failed to ensure signing key: %w", err)
	}
	logger.Info("signing key ready",
		zap.String("keys_dir", cfg.KeysDir),
		zap.String("verifying_key", keyManager.Key().VerifyingKey().String()),
	)

	versions, err := cfg.VersionMap()
	if err != nil {
		return fmt.Errorf("lbsd: invalid version configuration: %w", err)
	}

	registry, err := release.New(release.Config{
		Appname:     cfg.Appname,
		ReleasesDir: cfg.ReleasesDir,
		Versions:    versions,
		Key:         keyManager.Key(),
		Streaming:   cfg.StreamingParams(),
	})
	if err != nil {
		return fmt.Errorf("lbsd: failed to build release registry: %w", err)
	}
	logger.Info("release registry validated",
		zap.Int("versions", len(versions)),
		zap.String("latest", registry.LatestVersion().String()),
	)

	srv := server.New(cfg.ListenAddr, registry, logger)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("lbsd: failed to start server: %w", err)
	}

	if err := writePIDFile(cfg.ListenAddr); err != nil {
		logger.Warn("failed to write PID file", zap.Error(err))
	}
	defer removePIDFile()

	logger.Info("patchgo release server listening", zap.String("addr", srv.Addr()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("lbsd: graceful shutdown failed: %w", err)
	}

	logger.Info("stopped")
	return nil
}

func newLogger(level, format string) (*zap.Logger, error) {
	var zapLevel zap.AtomicLevel
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zapLevel

	return cfg.Build()
}

func pidFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "lbsd.pid")
	}
	return filepath.Join(home, ".local", "share", "patchgo", "lbsd.pid")
}

func writePIDFile(listenAddr string) error {
	path := pidFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	content := fmt.Sprintf("%d:%s\n", os.Getpid(), listenAddr)
	return os.WriteFile(path, []byte(content), 0644)
}

func removePIDFile() {
	os.Remove(pidFilePath())
}
