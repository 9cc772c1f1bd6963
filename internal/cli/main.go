package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "viralcut <input>",
		Short:        "Cut captioned vertical clips from a local video",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.PersistentFlags().String("config", "", "Config file (default: ./viralcut.yaml or ~/.viralcut/config.yaml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Debug logging")

	root.Flags().String("out", "", "Output directory")
	root.Flags().Int("clips", 0, "Maximum number of clips")
	root.Flags().Int("bucket", 0, "Words per caption cue")
	root.Flags().Bool("no-subs", false, "Do not burn captions into clips")
	root.Flags().Bool("publish", false, "Store clips in the library database")

	// Hidden tuning flag (internal)
	root.Flags().Int("workers", 0, "Segments planned concurrently")
	_ = root.Flags().MarkHidden("workers")

	root.AddCommand(newPlanCmd(), newClipsCmd())
	return root
}
