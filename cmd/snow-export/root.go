package main

import (
	"fmt"

	"github.com/Sternrassler/servicenow-client/internal/config"
	"github.com/Sternrassler/servicenow-client/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cli carries the state shared by the subcommands.
type cli struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{v: config.New()}

	root := &cobra.Command{
		Use:   "snow-export",
		Short: "Export server records from the ServiceNOW CMDB",
		Long: `snow-export pages through the CI relationship table of a ServiceNOW
instance and writes the matching records as JSON.

Credentials are read from --username/--password, SERVICENOW_U/SERVICENOW_P
or the config file. The instance defaults to SERVICENOW_H, then ` + client.DefaultHostname + `.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configFile, "config", "c", "", "config file (yaml, json or toml)")
	flags.String("hostname", "", "ServiceNOW instance hostname")
	flags.String("username", "", "ServiceNOW username")
	flags.String("password", "", "ServiceNOW password")
	flags.Bool("http2", false, "use an HTTP/2 transport")
	flags.Int("page-size", 0, "records per page (0 selects the query default)")
	flags.String("sink", config.SinkStdout, "output sink: stdout or redis")
	flags.String("redis-addr", "localhost:6379", "Redis address for the redis sink")
	flags.String("redis-key", "", "Redis list key (default servicenow:export:<command>)")
	flags.String("log-level", "info", "log level: debug, info, warn, error or disabled")
	flags.Bool("log-pretty", false, "human-readable log output")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address while exporting")

	for name, key := range map[string]string{
		"hostname":     "servicenow.hostname",
		"username":     "servicenow.username",
		"password":     "servicenow.password",
		"http2":        "servicenow.http2",
		"page-size":    "export.page_size",
		"sink":         "export.sink",
		"redis-addr":   "redis.addr",
		"redis-key":    "redis.key",
		"log-level":    "log.level",
		"log-pretty":   "log.pretty",
		"metrics-addr": "metrics.addr",
	} {
		if err := c.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}

	root.AddCommand(newHardwareCmd(c), newServersCmd(c))

	return root
}

func (c *cli) load() error {
	if c.configFile != "" {
		c.v.SetConfigFile(c.configFile)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	cfg, err := config.Unmarshal(c.v)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}
