package main

import (
	"fmt"
	"os"

	"github.com/coffersTech/logconsole/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time.
var Version = "dev"

func main() {
	root, err := newRootCmd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand needs once the config has been loaded.
type app struct {
	v   *viper.Viper
	cfg *config.Config
}

func newRootCmd() (*cobra.Command, error) {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "logconsole",
		Short:         "Query and inspect node logs from a status server",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return setupLogging(cfg.LogLevel)
		},
	}
	if err := config.BindFlags(root, a.v); err != nil {
		return nil, err
	}

	root.AddCommand(
		newURLCmd(a),
		newLogsCmd(a),
		newWatchCmd(a),
		newShowCmd(a),
	)
	return root, nil
}

func setupLogging(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}
