package main

import (
	"bytes"
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/winkit/nativeclipboard"
	"github.com/winkit/nativeclipboard/internal/imageio"
)

var outFile string

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Copy images to and from the clipboard",
}

var imageGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Save the clipboard image",
	Long: `Save the clipboard image to the file given by --output, in the format
implied by its extension. Without --output the image is written to stdout as
PNG.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := nativeclipboard.Image.Read()
		if err != nil {
			return err
		}
		if outFile == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}

		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("decode clipboard image: %w", err)
		}
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := imageio.Encode(f, img, imageio.FormatFromPath(outFile)); err != nil {
			return err
		}
		logger.Debug("saved clipboard image", zap.String("path", outFile),
			zap.Int("width", img.Bounds().Dx()), zap.Int("height", img.Bounds().Dy()))
		return f.Close()
	},
}

var imageSetCmd = &cobra.Command{
	Use:   "set FILE",
	Short: "Put an image file on the clipboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		img, format, err := imageio.Decode(f)
		if err != nil {
			return err
		}
		logger.Debug("loaded image", zap.String("format", format), zap.Stringer("bounds", img.Bounds()))

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
		changed, err := nativeclipboard.Image.Write(buf.Bytes())
		if err != nil {
			return err
		}
		holdSelection(changed)
		return nil
	},
}

func init() {
	imageGetCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (.png, .bmp, .jpg)")
	imageCmd.AddCommand(imageGetCmd, imageSetCmd)
}
