package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/moz-herbarium/medplants/internal/app"
	"github.com/moz-herbarium/medplants/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "medplants",
		Short: "Medicinal plants catalog API",
		Long: `medplants serves the medicinal plants catalog REST API: the public
botanical catalog, authentication with sessions and account lockout, user
management and the back-office dashboard.

Configuration is read from config.yaml (or --config / CONFIG_PATH) with
environment overrides such as DATABASE_URL, JWT_SECRET and CORS_ORIGINS.

Running without a subcommand is the same as 'medplants serve'.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogging(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (or env CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(getServeCmd())
	rootCmd.AddCommand(getMigrateCmd())
	rootCmd.AddCommand(getCreateAdminCmd())
	rootCmd.AddCommand(getInitCmd())
	return rootCmd
}

// appConfig resolves the config path from the flag or the environment.
func appConfig() (config.AppConfig, error) {
	appCfg, err := config.LoadFromEnv()
	if err != nil {
		return config.AppConfig{}, err
	}
	if strings.TrimSpace(cfgFile) != "" {
		appCfg.ConfigPath = config.ResolveConfigPath(cfgFile)
	}
	return appCfg, nil
}

func configureLogging(level string) error {
	parsed, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	log.SetLevel(parsed)
	log.SetOutput(os.Stdout)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return nil
}

func runServe(cmd *cobra.Command) error {
	appCfg, err := appConfig()
	if err != nil {
		return err
	}
	return app.RunServer(cmd.Context(), appCfg)
}

func getServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func getMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Creates or updates the database schema and default profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, err := appConfig()
			if err != nil {
				return err
			}
			return app.Migrate(cmd.Context(), appCfg)
		},
	}
}

func getCreateAdminCmd() *cobra.Command {
	var (
		email    string
		name     string
		password string
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Creates an administrator account",
		Long: `Creates an administrator account unless the email is already registered.

The password may also be passed through ADMIN_PASSWORD to keep it out of the
shell history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv(config.EnvAdminPassword)
			}
			if strings.TrimSpace(email) == "" || password == "" {
				return fmt.Errorf("--email and --password (or ADMIN_PASSWORD) are required")
			}
			appCfg, err := appConfig()
			if err != nil {
				return err
			}
			created, err := app.CreateAdmin(cmd.Context(), appCfg, name, email, password)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "administrator %s created\n", email)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "email %s already registered, nothing to do\n", email)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "administrator email")
	cmd.Flags().StringVar(&name, "name", "Administrator", "administrator full name")
	cmd.Flags().StringVar(&password, "password", "", "administrator password")
	return cmd
}

func getInitCmd() *cobra.Command {
	var (
		req     app.InitRequest
		origins []string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Writes a first config file with a fresh signing key",
		Long: `Writes config.yaml (or --config) with the database DSN, a random JWT
signing key and the default lockout policy. An existing file is never
overwritten. The database must be reachable.

Examples:
  # SQLite next to the binary
  medplants init --db-type sqlite --db-path ./medplants.db

  # PostgreSQL
  medplants init --db-type postgres --db-host localhost --db-user plants \
    --db-password secret --db-name plants`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, err := appConfig()
			if err != nil {
				return err
			}
			req.CORSOrigins = origins
			if errInit := app.InitConfig(appCfg.ConfigPath, req); errInit != nil {
				return errInit
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config written to %s\n", appCfg.ConfigPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.DatabaseType, "db-type", "sqlite", "database type (sqlite or postgres)")
	cmd.Flags().StringVar(&req.DatabasePath, "db-path", "", "SQLite database file")
	cmd.Flags().StringVar(&req.DatabaseHost, "db-host", "", "PostgreSQL host")
	cmd.Flags().IntVar(&req.DatabasePort, "db-port", 5432, "PostgreSQL port")
	cmd.Flags().StringVar(&req.DatabaseUser, "db-user", "", "PostgreSQL user")
	cmd.Flags().StringVar(&req.DatabasePassword, "db-password", "", "PostgreSQL password")
	cmd.Flags().StringVar(&req.DatabaseName, "db-name", "", "PostgreSQL database name")
	cmd.Flags().StringVar(&req.DatabaseSSLMode, "db-sslmode", "disable", "PostgreSQL sslmode")
	cmd.Flags().IntVar(&req.Port, "port", 0, "HTTP port written to the config (default 5000)")
	cmd.Flags().StringVar(&req.UploadDir, "upload-dir", "", "image upload directory")
	cmd.Flags().StringSliceVar(&origins, "cors-origin", nil, "allowed CORS origin (repeatable)")
	return cmd
}
