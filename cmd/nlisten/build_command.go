package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/joshweier/nlisten/internal/resume"
	"github.com/joshweier/nlisten/internal/runner"
	"github.com/joshweier/nlisten/internal/services"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var metadataOnly bool
	var updateOnly bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Synthesize audio for every sentence and write the manifest",
		Long: `Reads paths.input, synthesizes each sentence with a random VOICEVOX
speaker, transcodes it to MP3 in paths.output_dir and writes the manifest to
paths.manifest.

  --update-only    only produce audio whose MP3 is missing
  --metadata-only  rewrite the manifest without touching audio`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := resume.ParseMode(metadataOnly, updateOnly)
			if err != nil {
				return services.Wrap(services.ErrValidation, "build", "flags", "", err)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var progressFile *os.File
			if f, ok := out.(*os.File); ok {
				progressFile = f
			}
			_, err = runner.Build(cmd.Context(), cfg, runner.Options{
				Mode:         mode,
				Out:          out,
				ProgressFile: progressFile,
				Logger:       logger,
			})
			return err
		},
	}

	cmd.Flags().BoolVarP(&metadataOnly, "metadata-only", "m", false, "Rewrite the manifest without synthesizing audio")
	cmd.Flags().BoolVarP(&updateOnly, "update-only", "u", false, "Only synthesize sentences whose MP3 is missing")
	return cmd
}
