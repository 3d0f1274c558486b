package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var debug bool

	rootCmd := &cobra.Command{
		Use:           "ff",
		Short:         "FreeFlow client (ff): voice ordering, cart and kitchen display",
		Long:          "ff talks to the FreeFlow ordering assistant, keeps your cart and session between runs, reads replies aloud and runs the kitchen display board from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		app.setupLogging(cmd.ErrOrStderr(), debug)
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newConfigCmd(app),
		newAuthCmd(app),
		newChatCmd(app),
		newSessionCmd(app),
		newCartCmd(app),
		newKDSCmd(app),
		newSpeakCmd(app),
		newListenCmd(app),
		newToolsCmd(app),
		newAgentCmd(app),
	)

	return rootCmd
}
