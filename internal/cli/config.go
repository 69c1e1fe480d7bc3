package cli

import (
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/pipemon/internal/config"
	"github.com/Dicklesworthstone/pipemon/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config [flags]",
	Short: "Print the resolved configuration as YAML",
	Long: `Resolve defaults, the --config file, PIPEMON_* environment variables and
flags exactly as a dashboard run would, and print the result.

Examples:
  pipemon config
  PIPEMON_SAMPLES=50 pipemon config --cpu`,
	DisableFlagParsing: true,
	SilenceUsage:       true,
	SilenceErrors:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if wantsHelp(args) {
			return cmd.Help()
		}
		cfg := config.FromFlags(args, cmd.ErrOrStderr())
		out, err := cfg.YAML()
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, "Cannot render configuration", "")
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}
