package main

import (
	"os"

	"github.com/spf13/cobra"
	configx "github.com/tanpawarit/chative-sei/pkg/config"
	logx "github.com/tanpawarit/chative-sei/pkg/logger"
	_ "github.com/tanpawarit/chative-sei/pkg/logger/autoload"
)

// annotationOwnsStdout marks commands whose stdout is user output; their logs
// go to stderr.
const annotationOwnsStdout = "owns-stdout"

var envFile string

var rootCmd = &cobra.Command{
	Use:   "sei-chat",
	Short: "Chat assistant for SEI case lookups",
	Long: `sei-chat answers questions about SEI processes of the TRE-RN.

It can tell whether a process exists, how many documents it has, which
documents of a given type it holds and list documents by position.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			configx.SetEnvFile(envFile)
		}
		cfg, err := configx.New[logx.Config]("LOG")
		if err != nil {
			return err
		}
		if cmd.Annotations[annotationOwnsStdout] != "" {
			cfg.Stderr = true
		}
		logx.Init(*cfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path of a .env file to load (default ./.env when present)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(lookupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
