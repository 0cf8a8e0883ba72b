package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zpak-io/zpak"
)

var (
	inspectAlgo   string
	inspectPrefix string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <archive>",
	Short: "Show an archive's manifest without extracting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts []zpak.InspectOption
		if inspectAlgo != "" {
			opts = append(opts, zpak.InspectWithAlgorithm(inspectAlgo))
		}
		if inspectPrefix != "" {
			opts = append(opts, zpak.InspectWithPrefix(inspectPrefix))
		}

		info, err := zpak.Inspect(args[0], opts...)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "digest:     %s\n", info.Digest)
		fmt.Fprintf(out, "compressed: %d bytes\n", info.CompressedSize)
		fmt.Fprintf(out, "data:       %d bytes\n", info.DataBytes)
		fmt.Fprintf(out, "algorithm:  %s", info.Algorithm)
		if info.AlgorithmID == 0 {
			fmt.Fprintf(out, " (not recorded in manifest)")
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "version:    %d\n", info.Version)
		fmt.Fprintf(out, "entries:    %d\n", len(info.Entries))

		if len(info.Entries) > 0 {
			fmt.Fprintln(out)
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tSIZE\tCRC32\tLOCATOR")
			for _, e := range info.Entries {
				fmt.Fprintf(w, "%s\t%d\t%08x\t%s\n", e.OriginalPath, e.OriginalSize, e.Checksum, e.EncodedPath)
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectAlgo, "algo", "",
		"force a compression algorithm instead of detecting it")
	inspectCmd.Flags().StringVar(&inspectPrefix, "prefix", "",
		"only list entries under this directory prefix")
	rootCmd.AddCommand(inspectCmd)
}
