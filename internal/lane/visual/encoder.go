package visual

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/tomallicino/terminal-demo-studio/internal/evaluator"
)

// FakeEncoder rasterizes each sampled screen into a PNG frame under a
// directory, standing in for a real screen-video encoder's flush-to-
// container step. Close reports the frame directory as its output, since
// no real muxer is available to produce an actual container file.
type FakeEncoder struct {
	dir        string
	width      int
	height     int
	charWidth  int
	charHeight int
	face       font.Face
	background color.RGBA
	foreground color.RGBA
	frameCount int
}

// NewFakeEncoder creates an encoder that writes numbered PNG frames into
// dir, sized for a width x height character grid.
func NewFakeEncoder(dir string, width, height int) (*FakeEncoder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating frame directory: %w", err)
	}
	return &FakeEncoder{
		dir: dir, width: width, height: height,
		charWidth: 8, charHeight: 16,
		face:       basicfont.Face7x13,
		background: color.RGBA{0, 0, 0, 255},
		foreground: color.RGBA{255, 255, 255, 255},
	}, nil
}

// EncodeFrame rasterizes one ANSI-stripped screen snapshot to a frame
// file. Control sequences are stripped via the shared ANSI normalizer
// rather than interpreted for color, since the fake encoder's purpose is
// exercising the capture pipeline's shape, not faithful color rendering.
func (e *FakeEncoder) EncodeFrame(screenText string) error {
	img := image.NewRGBA(image.Rect(0, 0, e.width*e.charWidth, e.height*e.charHeight))
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			img.Set(x, y, e.background)
		}
	}

	drawer := &font.Drawer{Dst: img, Src: image.NewUniform(e.foreground), Face: e.face}
	lines := strings.Split(evaluator.NormalizeANSI(screenText), "\n")
	for lineIdx, line := range lines {
		if lineIdx >= e.height {
			break
		}
		for charIdx, ch := range []rune(line) {
			if charIdx >= e.width || ch == ' ' || ch == 0 {
				continue
			}
			drawer.Dot = fixed.Point26_6{
				X: fixed.Int26_6((charIdx * e.charWidth) << 6),
				Y: fixed.Int26_6(((lineIdx + 1) * e.charHeight) << 6),
			}
			drawer.DrawString(string(ch))
		}
	}

	path := filepath.Join(e.dir, fmt.Sprintf("frame_%05d.png", e.frameCount))
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return err
	}
	e.frameCount++
	return nil
}

// Close reports the frame directory; a real encoder would mux frames into
// a container file here.
func (e *FakeEncoder) Close() (string, error) {
	return e.dir, nil
}
