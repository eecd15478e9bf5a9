// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"flag"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/contractvm/host"
)

const (
	versionKey        = "version"
	httpHostKey       = "http-host"
	httpPortKey       = "http-port"
	logLevelKey       = "log-level"
	configFileKey     = "config-file"
	traceKey          = "trace"
	genesisBalanceKey = "genesis-balance"
)

// config is the resolved configuration of the sandbox binary.
type config struct {
	httpHost string
	httpPort uint
	logLevel string
	trace    bool

	// genesisBalance is the balance of every well known account, in NEAR
	genesisBalance uint64

	host host.Config
}

func buildFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("contractvm", flag.ContinueOnError)

	fs.Bool(versionKey, false, "If true, prints the version and quits")
	fs.String(httpHostKey, "127.0.0.1", "Address the sandbox API listens on")
	fs.Uint(httpPortKey, 9650, "Port the sandbox API listens on")
	fs.String(logLevelKey, "info", "Log level (crit, error, warn, info, debug)")
	fs.String(configFileKey, "", "Optional file overriding the fee schedule and limits")
	fs.Bool(traceKey, false, "If true, prints the receipt table of every transaction")
	fs.Uint64(genesisBalanceKey, 100, "Balance in NEAR of each well known account")

	return fs
}

// getViper returns the viper environment for the sandbox binary
func getViper(args []string) (*viper.Viper, error) {
	v := viper.New()

	fs := pflag.NewFlagSet("contractvm", pflag.ContinueOnError)
	fs.AddGoFlagSet(buildFlagSet())
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	if path := v.GetString(configFileKey); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("couldn't read config file %q: %w", path, err)
		}
	}
	return v, nil
}

// PrintVersion reports whether the version flag is set.
func PrintVersion(v *viper.Viper) bool {
	return v.GetBool(versionKey)
}

// getConfig resolves the binary configuration. Fees and limits not present in
// the config file keep their defaults.
func getConfig(v *viper.Viper) (config, error) {
	c := config{
		httpHost:       v.GetString(httpHostKey),
		httpPort:       v.GetUint(httpPortKey),
		logLevel:       v.GetString(logLevelKey),
		trace:          v.GetBool(traceKey),
		genesisBalance: v.GetUint64(genesisBalanceKey),
		host:           host.DefaultConfig(),
	}
	if err := v.Unmarshal(&c.host); err != nil {
		return config{}, fmt.Errorf("couldn't parse host config: %w", err)
	}
	return c, nil
}
