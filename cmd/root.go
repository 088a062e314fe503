// Package cmd implements the proautofill command-line interface. The serve
// command runs the dashboard backend; the other commands talk to the
// AutoFillPro API directly with a bearer token.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Activ8Auto/ProAutoFill/internal/analytics"
)

const (
	defaultAPIURL = "http://localhost:8000"

	keyAPIURL = "backend.base_url"
	keyToken  = "token"
	keyDebug  = "service.debug"

	keyTimeframe = "dashboard.default_timeframe"
)

// Version is set at build time.
var Version = "dev"

// Execute runs the root command.
func Execute() error {
	_ = godotenv.Load()
	return NewRootCommand().ExecuteContext(context.Background())
}

// NewRootCommand builds the command tree with its own viper instance.
func NewRootCommand() *cobra.Command {
	cli := &cliContext{v: viper.New()}

	root := &cobra.Command{
		Use:           "proautofill",
		Short:         "AutoFillPro dashboard backend and client",
		Long:          `Serve the AutoFillPro dashboard backend or inspect runs, jobs, profiles and diagnoses from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cli.out = cmd.OutOrStdout()
			return cli.initConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cli.cfgFile, "config", "", "config file (default is ./config.yml)")
	flags.String("api-url", "", "AutoFillPro API base URL")
	flags.String("token", "", "bearer token from `proautofill login`")
	flags.Bool("debug", false, "enable debug logging")

	root.AddCommand(
		newServeCommand(cli),
		newLoginCommand(cli),
		newDashboardCommand(cli),
		newJobsCommand(cli),
		newProfilesCommand(cli),
		newDiagnosesCommand(cli),
		newErrorsCommand(cli),
		newVersionCommand(),
	)
	return root
}

// initConfig reads the config file and binds flags and env vars. Flags beat
// env vars, which beat the config file.
func (c *cliContext) initConfig(cmd *cobra.Command) error {
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()
	c.v.SetDefault(keyAPIURL, defaultAPIURL)
	c.v.SetDefault(keyTimeframe, string(analytics.DefaultTimeframe))

	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
	} else {
		c.v.SetConfigName("config")
		c.v.SetConfigType("yaml")
		c.v.AddConfigPath(".")
	}

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if c.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	flags := cmd.Root().PersistentFlags()
	bindings := []struct {
		key, flag, env string
	}{
		{keyAPIURL, "api-url", "PROAUTOFILL_API_URL"},
		{keyToken, "token", "PROAUTOFILL_TOKEN"},
		{keyDebug, "debug", "APP_DEBUG"},
	}
	if err := c.v.BindEnv(keyTimeframe, "PROAUTOFILL_TIMEFRAME"); err != nil {
		return fmt.Errorf("failed to bind PROAUTOFILL_TIMEFRAME: %w", err)
	}
	for _, b := range bindings {
		if err := c.v.BindPFlag(b.key, flags.Lookup(b.flag)); err != nil {
			return fmt.Errorf("failed to bind %s flag: %w", b.flag, err)
		}
		if err := c.v.BindEnv(b.key, b.env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b.env, err)
		}
	}
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "proautofill version %s\n", Version)
		},
	}
}
