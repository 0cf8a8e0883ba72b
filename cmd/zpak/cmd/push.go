package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zpak-io/zpak/registry"
)

var (
	pushPlainHTTP bool
	pushTags      []string
)

var pushCmd = &cobra.Command{
	Use:   "push <archive> <ref>",
	Short: "Push an archive to an OCI registry",
	Long: `Push uploads an archive file to an OCI registry as an artifact.
The reference must include a tag, e.g. registry.example.com/backups/src:v1.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newRegistryClient(pushPlainHTTP)
		if err != nil {
			return err
		}

		desc, err := client.Push(cmd.Context(), args[1], args[0],
			registry.PushWithTags(pushTags...))
		if err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"ref":    args[1],
			"digest": desc.Digest.String(),
			"size":   desc.Size,
		}).Info("archive pushed")
		return nil
	},
}

func newRegistryClient(plainHTTP bool) (*registry.Client, error) {
	creds, err := registry.WithDockerCredentials()
	if err != nil {
		return nil, err
	}
	return registry.New(creds, registry.WithPlainHTTP(plainHTTP)), nil
}

func init() {
	pushCmd.Flags().BoolVar(&pushPlainHTTP, "plain-http", false, "use HTTP instead of HTTPS")
	pushCmd.Flags().StringSliceVar(&pushTags, "tag", nil, "additional tags to apply")
	rootCmd.AddCommand(pushCmd)
}
