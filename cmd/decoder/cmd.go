package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/born-ml/decoder/internal/envconfig"
)

// appendEnvDocs adds the environment variables a command honors to its usage.
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI creates the root command.
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "decoder",
		Short:         "Inspect decoder checkpoints and run feed-forward blocks",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			if v, _ := cmd.Flags().GetBool("version"); v {
				versionHandler(cmd, args)
				return
			}

			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run:   versionHandler,
	}
	inspectCmd := newInspectCmd()
	forwardCmd := newForwardCmd()

	envVars := envconfig.AsMap()
	appendEnvDocs(inspectCmd, []envconfig.EnvVar{envVars["DECODER_DEBUG"]})
	appendEnvDocs(forwardCmd, []envconfig.EnvVar{envVars["DECODER_DEBUG"], envVars["DECODER_NUM_WORKERS"]})

	rootCmd.AddCommand(versionCmd, inspectCmd, forwardCmd)
	return rootCmd
}

func versionHandler(cmd *cobra.Command, _ []string) {
	cmd.Printf("decoder version %s\n", version)
}

// addModelFlags registers the flags shared by commands that read a model.
func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "Model config file (.json, .yaml)")
	cmd.Flags().StringP("weights", "w", "", "SafeTensors file or checkpoint directory")
	cmd.Flags().String("prefix", "", "Tensor name prefix of the decoder layers (e.g. model)")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("weights")
}
