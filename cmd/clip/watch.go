package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/winkit/nativeclipboard"
)

var watchImage bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print clipboard changes until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		format := nativeclipboard.Text
		if watchImage {
			format = nativeclipboard.Image
		}
		return watch(ctx, cmd, format)
	},
}

func watch(ctx context.Context, cmd *cobra.Command, format nativeclipboard.Format) error {
	ch, err := format.Watch(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for data := range ch {
		if format == nativeclipboard.Image {
			fmt.Fprintf(out, "image: %d bytes\n", len(data))
			continue
		}
		fmt.Fprintln(out, string(data))
	}
	return nil
}

func init() {
	watchCmd.Flags().BoolVar(&watchImage, "image", false, "watch for images instead of text")
}
