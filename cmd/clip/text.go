package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/winkit/nativeclipboard"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the clipboard text",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := nativeclipboard.Text.Read()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var setCmd = &cobra.Command{
	Use:   "set [text|-]",
	Short: "Put text on the clipboard",
	Long: `Put text on the clipboard. Without arguments, or with "-", the text
is read from stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
			var err error
			if data, err = io.ReadAll(cmd.InOrStdin()); err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
		} else {
			data = []byte(strings.Join(args, " "))
		}

		changed, err := nativeclipboard.Text.Write(data)
		if err != nil {
			return err
		}
		holdSelection(changed)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the clipboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := nativeclipboard.Text.Write(nil)
		return err
	},
}

// holdSelection keeps the process alive on X11, where clipboard content
// is served by its owner and disappears when the owner exits.
func holdSelection(changed <-chan struct{}) {
	if runtime.GOOS != "linux" && runtime.GOOS != "freebsd" {
		return
	}
	logger.Info("serving clipboard until another application takes it", zap.Int("pid", os.Getpid()))
	<-changed
}
