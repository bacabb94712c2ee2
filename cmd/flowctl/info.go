package main

import (
	"github.com/gostonefire/flowlookup"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Report record sizes and the memory needed by a hash table",
		Long: `The info command prints the sizes of the records and descriptors used by
the engine together with the DMA memory a table of the configured geometry needs.

Example:
  flowctl info --table-size 4096 --overflow 512`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo()
		},
	}
	return cmd
}

func runInfo() error {
	size, err := tableSize()
	if err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	buckets := size.Buckets()
	overflow := vp.GetInt(flagOverflow)
	bucketBytes := flowlookup.BucketWordCount() * 4

	printInfo("\nRecord sizes:\n")
	printInfo("  Bucket:                 %s\n", p.Sprintf("%d bytes", bucketBytes))
	printInfo("  Flow record:            %s\n", p.Sprintf("%d bytes", flowlookup.FlowRecordWordCount()*4))
	printInfo("  Transform record:       %s\n", p.Sprintf("%d bytes", flowlookup.TransformRecordWordCount()*4))
	printInfo("  Large transform record: %s\n", p.Sprintf("%d bytes", flowlookup.TransformRecordLargeWordCount()*4))

	printInfo("\nHost sizes:\n")
	printInfo("  Engine context:         %s\n", p.Sprintf("%d bytes", flowlookup.IOAreaSize()))
	printInfo("  Record descriptor:      %s\n", p.Sprintf("%d bytes", flowlookup.FlowDescriptorSize()))
	printInfo("  Bucket descriptor:      %s\n", p.Sprintf("%d bytes", flowlookup.HTEDescriptorSize()))

	printInfo("\nHash table:\n")
	printInfo("  Size code:              %d\n", size)
	printInfo("  Primary buckets:        %s\n", p.Sprintf("%d", buckets))
	printInfo("  Overflow buckets:       %s\n", p.Sprintf("%d", overflow))
	printInfo("  Record capacity:        %s\n", p.Sprintf("%d", (buckets+overflow)*3))
	printInfo("  DMA memory:             %s\n", p.Sprintf("%d bytes", (buckets+overflow)*bucketBytes))
	printInfo("  Bookkeeping:            %s\n", p.Sprintf("%d bytes", (buckets+overflow)*flowlookup.HTEDescriptorSize()))

	return nil
}
