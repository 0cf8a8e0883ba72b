package cmd

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zpak-io/zpak"
)

var (
	encodeAlgo  string
	encodeLevel string
)

var encodeCmd = &cobra.Command{
	Use:   "encode <dir> <archive>",
	Short: "Pack a directory tree into a compressed archive",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := zpak.ParseLevel(encodeLevel)
		if err != nil {
			return err
		}

		stats, err := zpak.Encode(args[0], args[1],
			zpak.EncodeWithAlgorithm(encodeAlgo),
			zpak.EncodeWithLevel(level),
		)
		if err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"files":     stats.FileCount,
			"data":      stats.DataBytes,
			"archive":   stats.ArchiveBytes,
			"algorithm": stats.Algorithm,
			"level":     stats.Level.String(),
		}).Info("archive written")
		return nil
	},
}

func init() {
	encodeCmd.Flags().StringVar(&encodeAlgo, "algo", zpak.DefaultAlgorithm,
		fmt.Sprintf("compression algorithm (%s)", strings.Join(zpak.Algorithms(), ", ")))
	encodeCmd.Flags().StringVar(&encodeLevel, "level", "medium", "compression level (low, medium, high)")
	rootCmd.AddCommand(encodeCmd)
}
