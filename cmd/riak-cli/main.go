package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pior/riak"
)

var (
	client *riak.Client

	rootCmd = &cobra.Command{
		Use:   "riak-cli",
		Short: "Command line client for the Riak protocol-buffers interface",
		Long: `riak-cli sends single requests to a Riak node.

Flags can also be set with RIAK_ environment variables (RIAK_ENDPOINT,
RIAK_TIMEOUT, ...) or a YAML file given with --config.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  connect,
		PersistentPostRunE: disconnect,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringSlice("endpoint", nil, "Node address as host[:port], repeatable (default localhost:8087)")
	flags.Duration("timeout", 10*time.Second, "Connection timeout and server-side operation timeout")
	flags.String("content-type", riak.DefaultContentType, "Content type of stored values")
	flags.String("config", "", "YAML configuration file")
	flags.String("log-level", "", "Log level (debug, info, warn, error), logging is off when empty")

	rootCmd.AddCommand(getCmd, putCmd, deleteCmd, listKeysCmd, pingCmd, infoCmd)
}

func initConfig() {
	viper.SetEnvPrefix("riak")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// loadConfig builds the client configuration: the --config file first,
// then flags and environment variables over it.
func loadConfig() (riak.Config, error) {
	var config riak.Config
	if path := viper.GetString("config"); path != "" {
		var err error
		if config, err = riak.LoadConfig(path); err != nil {
			return riak.Config{}, err
		}
	}

	if addrs := viper.GetStringSlice("endpoint"); len(addrs) > 0 {
		endpoints, err := riak.ParseEndpoints(addrs...)
		if err != nil {
			return riak.Config{}, err
		}
		config.Endpoints = endpoints
	}
	if config.Timeout == 0 || viper.IsSet("timeout") {
		config.Timeout = viper.GetDuration("timeout")
	}
	if config.DefaultContentType == "" || viper.IsSet("content-type") {
		config.DefaultContentType = viper.GetString("content-type")
	}
	if level := viper.GetString("log-level"); level != "" {
		logger, err := riak.NewLogger(riak.LoggingConfig{Level: level, Format: "console"})
		if err != nil {
			return riak.Config{}, err
		}
		config.Logger = logger
	}

	return config, config.Validate()
}

func connect(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	config, err := loadConfig()
	if err != nil {
		return err
	}

	client, err = riak.New(config)
	if err != nil {
		return err
	}
	if err := client.Start(cmd.Context()); err != nil {
		return err
	}

	// With endpoints, requests queue until the supervisor connects.
	ctx, cancel := context.WithTimeout(cmd.Context(), config.Timeout)
	defer cancel()
	return client.Ping(ctx)
}

func disconnect(*cobra.Command, []string) error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// requestContext bounds a command by the configured timeout.
func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), viper.GetDuration("timeout"))
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
