package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gostonefire/flowlookup"
	"github.com/gostonefire/flowlookup/platform"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Persistent flag names, also the viper keys and, upper cased with a FLOWCTL_ prefix, the environment variables
const (
	flagConfig           = "config"
	flagLogLevel         = "log-level"
	flagTableSize        = "table-size"
	flagOverflow         = "overflow"
	flagQuiescence       = "quiescence"
	flagStrictArgs       = "strict-args"
	flagConsistencyCheck = "consistency-check"
	flagDebugFSM         = "debug-fsm"
	flagLargeTransform   = "large-transform"
)

var vp = viper.New()

var rootCmd = &cobra.Command{
	Use:   "flowctl",
	Short: "Drive the flow lookup engine on an emulated classification device",
	Long: `flowctl runs the flow lookup engine against an emulated device.
It reports table geometry, replays add, read and remove scenarios and dumps
the resulting bucket chains.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	defaults := flowlookup.DefaultConfig()

	flags := rootCmd.PersistentFlags()
	flags.String(flagConfig, "", "YAML configuration file")
	flags.String(flagLogLevel, "warning", "Log level (debug, info, warning, error)")
	flags.Int(flagTableSize, flowlookup.TableSize32.Buckets(), "Number of primary buckets, a power of two from 32 to 1M")
	flags.Int(flagOverflow, 32, "Number of overflow buckets")
	flags.Uint(flagQuiescence, defaults.QuiescenceDelay, "Busy-wait iterations before a vacated bucket is reused")
	flags.Bool(flagStrictArgs, defaults.StrictArgs, "Check record address windows and record kinds")
	flags.Bool(flagConsistencyCheck, defaults.ConsistencyCheck, "Validate bucket chains on every add and remove")
	flags.Bool(flagDebugFSM, defaults.DebugFSM, "Track call order")
	flags.Bool(flagLargeTransform, defaults.LargeTransformSupport, "Allow large transform records")

	bindFlags(vp, flags)
}

// bindFlags - Binds every flag of the set to its viper key and environment variable
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	v.SetEnvPrefix("FLOWCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	flags.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})
}

// loadConfig - Reads the configuration file, if any, on top of flags and environment
func loadConfig(cmd *cobra.Command, args []string) error {
	file := vp.GetString(flagConfig)
	if file == "" {
		return nil
	}

	vp.SetConfigFile(file)
	if err := vp.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", file, err)
	}

	return nil
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger - Returns a logger on stderr at the configured level
func newLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(vp.GetString(flagLogLevel))
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)

	return logger, nil
}

// tableSize - Converts the configured bucket count to a table size code
func tableSize() (flowlookup.TableSize, error) {
	buckets := vp.GetInt(flagTableSize)
	for s := flowlookup.TableSize32; s <= flowlookup.TableSize1M; s++ {
		if s.Buckets() == buckets {
			return s, nil
		}
	}
	return 0, fmt.Errorf("table size %d is not a power of two from 32 to 1M", buckets)
}

// engineConfig - Returns the engine configuration from flags, environment and config file
func engineConfig(logger logrus.FieldLogger, reg prometheus.Registerer) flowlookup.Config {
	cfg := flowlookup.DefaultConfig()
	cfg.StrictArgs = vp.GetBool(flagStrictArgs)
	cfg.ConsistencyCheck = vp.GetBool(flagConsistencyCheck)
	cfg.DebugFSM = vp.GetBool(flagDebugFSM)
	cfg.LargeTransformSupport = vp.GetBool(flagLargeTransform)
	cfg.QuiescenceDelay = vp.GetUint(flagQuiescence)
	cfg.Cache = platform.RegisterCache{}
	cfg.Logger = logger
	cfg.Registerer = reg

	return cfg
}

// printInfo prints to stdout
func printInfo(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, format, args...)
}
