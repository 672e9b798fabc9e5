package ui

import (
	"image"
	"os"
	"strings"

	"github.com/qeesung/image2ascii/convert"
)

// TerminalCapabilities describes how rich a thumbnail the terminal can show.
type TerminalCapabilities struct {
	Color     bool
	TrueColor bool
}

// DetectTerminalCapabilities inspects the environment for color support.
func DetectTerminalCapabilities() TerminalCapabilities {
	return detectCapabilities(os.Getenv)
}

func detectCapabilities(getenv func(string) string) TerminalCapabilities {
	if getenv("NO_COLOR") != "" {
		return TerminalCapabilities{}
	}

	term := getenv("TERM")
	if term == "dumb" {
		return TerminalCapabilities{}
	}

	colorTerm := getenv("COLORTERM")
	trueColor := colorTerm == "truecolor" || colorTerm == "24bit" ||
		strings.Contains(term, "kitty") || getenv("KITTY_WINDOW_ID") != "" ||
		getenv("WEZTERM_EXECUTABLE") != "" ||
		getenv("TERM_PROGRAM") == "iTerm.app"

	return TerminalCapabilities{
		Color:     trueColor || strings.Contains(term, "256color") || strings.Contains(term, "xterm"),
		TrueColor: trueColor,
	}
}

// RenderThumbnail draws an article thumbnail as ASCII art sized to the box.
func RenderThumbnail(img image.Image, caps TerminalCapabilities, targetWidth, targetHeight int) string {
	if img == nil || targetWidth <= 0 || targetHeight <= 0 {
		return ""
	}
	return convertToASCII(img, caps.Color, targetWidth, targetHeight)
}

// convertToASCII converts an image to ASCII art, colored when asked.
func convertToASCII(img image.Image, colored bool, targetWidth, targetHeight int) string {
	converter := convert.NewImageConverter()

	opts := convert.DefaultOptions
	opts.FixedWidth = targetWidth
	opts.FixedHeight = targetHeight
	opts.FitScreen = false
	opts.Colored = colored
	opts.Ratio = 0.5 // terminal cells are about twice as tall as wide

	return converter.Image2ASCIIString(img, &opts)
}

// thumbnailBox picks a width and height for a thumbnail that keeps the image
// aspect ratio inside maxWidth columns and maxHeight rows.
func thumbnailBox(bounds image.Rectangle, maxWidth, maxHeight int) (int, int) {
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 || maxWidth <= 0 || maxHeight <= 0 {
		return 0, 0
	}
	w := maxWidth
	h := int(float64(w) * float64(bounds.Dy()) / float64(bounds.Dx()) / 2)
	if h > maxHeight {
		h = maxHeight
		w = int(float64(h) * 2 * float64(bounds.Dx()) / float64(bounds.Dy()))
	}
	return max(w, 1), max(h, 1)
}
