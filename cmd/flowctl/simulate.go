package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/gostonefire/flowlookup"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"
)

var (
	scenarioPath string
	htFile       string
	showMetrics  bool
)

func init() {
	rootCmd.AddCommand(newSimulateCmd())
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a scenario of record adds, reads and removes",
		Long: `The simulate command installs hash table 0 on an emulated device, replays the
steps of a YAML scenario and prints the resulting table statistics.

Example:
  flowctl simulate --scenario flows.yaml
  flowctl simulate --scenario flows.yaml --ht-file /tmp/ht.bin --metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(os.Stdout)
		},
	}
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "YAML scenario file")
	cmd.Flags().StringVar(&htFile, "ht-file", "", "Keep the hash table in this memory mapped file")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print the engine metrics")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func runSimulate(out io.Writer) (err error) {
	reg := prometheus.NewRegistry()

	sim, err := setupSimulation(scenarioPath, htFile, reg, out)
	if err != nil {
		return
	}
	defer func() {
		if cerr := sim.close(); err == nil {
			err = cerr
		}
	}()

	stats, err := sim.engine.Stats(0)
	if err != nil {
		return
	}
	printStats(out, stats)

	if showMetrics {
		var families []*dto.MetricFamily
		if families, err = reg.Gather(); err != nil {
			return fmt.Errorf("failed to gather metrics: %w", err)
		}
		printMetrics(out, families)
	}

	return
}

// printStats prints table statistics
func printStats(out io.Writer, stats flowlookup.TableStats) {
	fmt.Fprintf(out, "\nHash table 0:\n")
	fmt.Fprintf(out, "  Records:               %d\n", stats.Records)
	fmt.Fprintf(out, "  Primary records:       %d\n", stats.PrimaryRecords)
	fmt.Fprintf(out, "  Overflow records:      %d\n", stats.OverflowRecords)
	fmt.Fprintf(out, "  Overflow buckets:      %d\n", stats.OverflowBuckets)
	fmt.Fprintf(out, "  Free overflow buckets: %d\n", stats.FreeOverflowBuckets)
	fmt.Fprintf(out, "  Longest chain:         %d\n", stats.LongestChain)

	used := 0
	for _, n := range stats.BucketDistribution {
		if n > 0 {
			used++
		}
	}
	fmt.Fprintf(out, "  Buckets in use:        %d of %d\n", used, len(stats.BucketDistribution))
}

// printMetrics prints gathered metric families, one sample per line
func printMetrics(out io.Writer, families []*dto.MetricFamily) {
	fmt.Fprintf(out, "\nMetrics:\n")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			sort.Strings(labels)

			var value string
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				value = fmt.Sprintf("%g", m.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				value = fmt.Sprintf("%g", m.GetGauge().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				value = fmt.Sprintf("count=%d sum=%g", h.GetSampleCount(), h.GetSampleSum())
			default:
				continue
			}
			fmt.Fprintf(out, "  %s{%s} %s\n", mf.GetName(), strings.Join(labels, ","), value)
		}
	}
}
