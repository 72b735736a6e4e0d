package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/cli"
)

var headlessCmd = &cobra.Command{
	Use:   "headless",
	Short: "Answer JSON requests on stdin, one per line",
	Long: `Read {"id","method","params"} objects from stdin, one per line, and write one
response object per line to stdout. The first line written is a ready
message listing the available methods.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return cli.NewHeadlessCLI(dispatcher, os.Stdin, os.Stdout).Run(ctx)
	},
}

var shellCmd = &cobra.Command{
	Use:     "shell",
	Aliases: []string{"interactive"},
	Short:   "Interactive slash-command shell",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return cli.NewInteractiveCLI(cli.NewCommandHandler(dispatcher), os.Stdin, os.Stdout).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(headlessCmd)
	rootCmd.AddCommand(shellCmd)
}
