package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zpak-io/zpak"
)

var decodeAlgo string

var decodeCmd = &cobra.Command{
	Use:   "decode <archive> <dir>",
	Short: "Restore a directory tree from an archive",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts []zpak.DecodeOption
		if decodeAlgo != "" {
			opts = append(opts, zpak.DecodeWithAlgorithm(decodeAlgo))
		}

		stats, err := zpak.Decode(args[0], args[1], opts...)
		if err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"files":     stats.FileCount,
			"data":      stats.DataBytes,
			"algorithm": stats.Algorithm,
		}).Info("archive extracted")
		return nil
	},
}

func init() {
	decodeCmd.Flags().StringVar(&decodeAlgo, "algo", "",
		"force a compression algorithm instead of detecting it")
	rootCmd.AddCommand(decodeCmd)
}
