package main

import (
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/gostonefire/flowlookup"
	"github.com/spf13/cobra"
)

var (
	dumpBucket int
	dumpRaw    bool
)

func init() {
	rootCmd.AddCommand(newDumpCmd())
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the chain of one bucket after replaying a scenario",
		Long: `The dump command replays a scenario like simulate does and then decodes a
primary bucket together with the overflow buckets chained below it.

Example:
  flowctl dump --scenario flows.yaml --bucket 1
  flowctl dump --scenario flows.yaml --bucket 1 --raw`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(os.Stdout)
		},
	}
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "YAML scenario file")
	cmd.Flags().IntVar(&dumpBucket, "bucket", 0, "Primary bucket index")
	cmd.Flags().BoolVar(&dumpRaw, "raw", false, "Dump the decoded structures as they are")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func runDump(out io.Writer) error {
	sim, err := setupSimulation(scenarioPath, "", nil, io.Discard)
	if err != nil {
		return err
	}
	defer func() { _ = sim.close() }()

	chain, err := sim.engine.Bucket(0, dumpBucket)
	if err != nil {
		return err
	}

	if dumpRaw {
		spew.Fdump(out, chain)
		return nil
	}

	printChain(out, dumpBucket, chain)

	return nil
}

// printChain prints the buckets of a chain and their slots
func printChain(out io.Writer, index int, chain []flowlookup.BucketContents) {
	fmt.Fprintf(out, "\nBucket %d:\n", index)
	for i, b := range chain {
		kind := "primary"
		if b.Overflow {
			kind = "overflow"
		}
		fmt.Fprintf(out, "  [%d] %s descriptor %d at %#x, %d records\n", i, kind, b.Descriptor, b.ByteOffset, b.RecordCount)
		for s, slot := range b.Slots {
			if !slot.InUse {
				fmt.Fprintf(out, "      slot %d: empty\n", s+1)
				continue
			}
			fmt.Fprintf(out, "      slot %d: %s record at offset %#x, hash ID %08x\n", s+1, slot.RecordType, slot.RecordOffset, slot.HashID.Word32)
		}
		if b.HasOverflow {
			fmt.Fprintf(out, "      overflow: %#x\n", b.OverflowOffset)
		}
	}
}
