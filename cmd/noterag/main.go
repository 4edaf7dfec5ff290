package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/noterag/internal/observability"
	"github.com/hrygo/noterag/internal/profile"
	"github.com/hrygo/noterag/internal/version"
	"github.com/hrygo/noterag/server"
	"github.com/hrygo/noterag/store"
	"github.com/hrygo/noterag/store/db"
)

var (
	rootCmd = &cobra.Command{
		Use:   "noterag",
		Short: `Answers questions from your notes with retrieval-augmented generation.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			instanceProfile, storeInstance, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer storeInstance.Close()

			s, err := server.NewServer(ctx, instanceProfile, storeInstance)
			if err != nil {
				return err
			}
			printGreetings(instanceProfile)
			return s.Start(ctx)
		},
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, storeInstance, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer storeInstance.Close()
			slog.Info("database migrated")
			return nil
		},
	}

	drainCmd = &cobra.Command{
		Use:   "drain",
		Short: "Run every queued or interrupted note ingestion to completion and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			instanceProfile, storeInstance, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer storeInstance.Close()

			s, err := server.NewServer(ctx, instanceProfile, storeInstance)
			if err != nil {
				return err
			}
			s.DrainIngestion(ctx)
			return nil
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)

	rootCmd.PersistentFlags().String("config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver, sqlite or postgres")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")
	rootCmd.PersistentFlags().String("vector-driver", "", "vector index: pgvector, qdrant or memory")
	rootCmd.PersistentFlags().Int("retrieval-top-k", 1, "number of notes retrieved as context")

	for _, name := range []string{"config", "mode", "addr", "port", "data", "driver", "dsn", "vector-driver", "retrieval-top-k"} {
		// Keys use underscores so flags, config files and NOTERAG_* variables share one name.
		key := strings.ReplaceAll(name, "-", "_")
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("noterag")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	rootCmd.AddCommand(migrateCmd, drainCmd)
}

// loadProfile reads .env, the optional config file, flags and NOTERAG_* variables.
// Flags win over variables, which win over the config file.
func loadProfile() (*profile.Profile, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	instanceProfile := &profile.Profile{
		Mode:   viper.GetString("mode"),
		Addr:   viper.GetString("addr"),
		Port:   viper.GetInt("port"),
		Data:   viper.GetString("data"),
		Driver: viper.GetString("driver"),
		DSN:    viper.GetString("dsn"),
	}
	instanceProfile.FromViper(viper.GetViper())
	instanceProfile.Version = version.GetCurrentVersion(instanceProfile.Mode)
	if err := instanceProfile.Validate(); err != nil {
		return nil, err
	}
	return instanceProfile, nil
}

func openStore(ctx context.Context) (*profile.Profile, *store.Store, error) {
	instanceProfile, err := loadProfile()
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(observability.NewLogger(os.Stderr, instanceProfile.Mode))

	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create db driver: %w", err)
	}
	storeInstance := store.New(dbDriver, instanceProfile)
	if err := storeInstance.Migrate(ctx); err != nil {
		storeInstance.Close()
		return nil, nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return instanceProfile, storeInstance, nil
}

func printGreetings(p *profile.Profile) {
	fmt.Printf("noterag %s started successfully!\n", p.Version)
	fmt.Printf("Data directory: %s\n", p.Data)
	fmt.Printf("Database driver: %s\n", p.Driver)
	fmt.Printf("Vector index: %s\n", p.VectorDriver)
	fmt.Printf("Server running on port %d\n", p.Port)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("noterag exited with error", "error", err)
		os.Exit(1)
	}
}
