// 命令行：对单个快照文件运行判定并打印诊断行
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"ca-probe/internal/aggregation"
	"ca-probe/internal/logger"
	"ca-probe/internal/snapshotio"

	"github.com/spf13/cobra"
)

type options struct {
	networkType int
	asJSON      bool
}

func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "ca-classify [file|-]",
		Short: "Guess whether a cell snapshot shows carrier aggregation (HSPA+ 42 / LTE-A)",
		Long: "Reads a snapshot of visible cells (JSON or YAML) and prints the network type line\n" +
			"followed by the serving/sibling diagnostics for each technology present.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			var (
				snap aggregation.Snapshot
				err  error
			)
			if path == "-" {
				snap, err = snapshotio.Decode(stdin, snapshotio.Auto)
			} else {
				snap, err = snapshotio.DecodeFile(path)
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			if cmd.Flags().Changed("network-type") {
				snap.NetworkType = opts.networkType
			}
			c := aggregation.New(nil)
			rep := c.Classify(snap)
			logger.L().Debug("classify_done", "source", path, "verdicts", c.Document(rep).Summary(), "dropped", aggregation.Dropped(snap))
			if opts.asJSON {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(c.Document(rep))
			}
			_, err = io.WriteString(stdout, rep.Text())
			return err
		},
	}
	cmd.Flags().IntVar(&opts.networkType, "network-type", 0, "override the snapshot's framework network type code")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the structured report as JSON")
	return cmd
}

func main() {
	logger.Setup()
	cmd := newRootCmd(os.Stdin, os.Stdout)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
