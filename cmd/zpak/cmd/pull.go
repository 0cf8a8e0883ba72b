package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var pullPlainHTTP bool

var pullCmd = &cobra.Command{
	Use:   "pull <ref> <archive>",
	Short: "Pull an archive from an OCI registry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newRegistryClient(pullPlainHTTP)
		if err != nil {
			return err
		}

		desc, err := client.Pull(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"ref":    args[0],
			"digest": desc.Digest.String(),
			"file":   args[1],
		}).Info("archive pulled")
		return nil
	},
}

func init() {
	pullCmd.Flags().BoolVar(&pullPlainHTTP, "plain-http", false, "use HTTP instead of HTTPS")
	rootCmd.AddCommand(pullCmd)
}
