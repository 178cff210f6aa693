package imagegen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/lox/tempcast/internal/models"
)

var (
	fontRegularTTF *opentype.Font
	fontBoldTTF    *opentype.Font
	fontOnce       sync.Once
	fontErr        error
)

func loadFonts() error {
	fontOnce.Do(func() {
		var err error
		if fontRegularTTF, err = opentype.Parse(goregular.TTF); err != nil {
			fontErr = fmt.Errorf("parse Go Regular: %w", err)
			return
		}
		if fontBoldTTF, err = opentype.Parse(gobold.TTF); err != nil {
			fontErr = fmt.Errorf("parse Go Bold: %w", err)
		}
	})
	return fontErr
}

// faces are per render: a font.Face keeps glyph buffers and must not be
// shared between goroutines.
type faces struct {
	title   font.Face
	regular font.Face
	bold    font.Face
}

func newFaces() (*faces, error) {
	if err := loadFonts(); err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}
	title, err := newFace(fontBoldTTF, 40)
	if err != nil {
		return nil, err
	}
	bold, err := newFace(fontBoldTTF, 24)
	if err != nil {
		return nil, err
	}
	regular, err := newFace(fontRegularTTF, 24)
	if err != nil {
		return nil, err
	}
	return &faces{title: title, regular: regular, bold: bold}, nil
}

func (f *faces) Close() {
	f.title.Close()
	f.regular.Close()
	f.bold.Close()
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	return face, nil
}

const (
	Width     = 1200
	headerH   = 170
	rowH      = 40
	footerH   = 70
	marginX   = 60
	MaxRows   = 36
	minHeight = 630
)

// Columns in display order.
var Columns = []string{"Fecha a pronosticar", "Pronóstico de temperatura", "IC inferior", "IC superior"}

// ImageData is the content of a forecast share image.
type ImageData struct {
	Title    string
	Subtitle string
	Result   models.ForecastResult
}

// GenerateForecastImage renders the forecast table as a PNG. Tables longer
// than MaxRows are truncated with a note of how many months were left out.
func GenerateForecastImage(data ImageData) ([]byte, error) {
	fc, err := newFaces()
	if err != nil {
		return nil, err
	}
	defer fc.Close()

	rows := min(len(data.Result), MaxRows)
	height := max(headerH+rowH*(rows+1)+footerH, minHeight)
	img := image.NewRGBA(image.Rect(0, 0, Width, height))

	drawBackground(img)

	white := color.RGBA{255, 255, 255, 255}
	lightGray := color.RGBA{200, 200, 200, 255}
	accent := color.RGBA{255, 183, 77, 255}

	drawText(img, data.Title, marginX, 70, white, fc.title)
	if data.Subtitle != "" {
		drawText(img, data.Subtitle, marginX, 120, lightGray, fc.regular)
	}

	colX := []int{marginX, 460, 800, 1140}
	y := headerH
	drawText(img, Columns[0], colX[0], y, accent, fc.bold)
	for c := 1; c < len(Columns); c++ {
		drawTextRight(img, Columns[c], colX[c], y, accent, fc.bold)
	}

	for i := 0; i < rows; i++ {
		y += rowH
		if i%2 == 0 {
			shadeRow(img, y-rowH+12, y+12)
		}
		p := data.Result[i]
		drawText(img, p.Date.Format("2006-01-02"), colX[0], y, white, fc.regular)
		drawTextRight(img, fmt.Sprintf("%.2f", p.Forecast), colX[1], y, white, fc.regular)
		drawTextRight(img, fmt.Sprintf("%.2f", p.Lower), colX[2], y, lightGray, fc.regular)
		drawTextRight(img, fmt.Sprintf("%.2f", p.Upper), colX[3], y, lightGray, fc.regular)
	}

	if hidden := len(data.Result) - rows; hidden > 0 {
		drawText(img, fmt.Sprintf("… y %d meses más", hidden), marginX, height-30, lightGray, fc.regular)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode forecast image: %w", err)
	}
	return buf.Bytes(), nil
}

func drawBackground(img *image.RGBA) {
	bounds := img.Bounds()
	h := bounds.Dy()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		progress := float64(y) / float64(h)
		r := uint8(20 + progress*10)
		g := uint8(20 + progress*15)
		b := uint8(40 + progress*20)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			img.SetRGBA(x, y, color.RGBA{r, g, b, 255})
		}
	}
}

// shadeRow lightens the band [top, bottom) for zebra striping.
func shadeRow(img *image.RGBA, top, bottom int) {
	bounds := img.Bounds()
	for y := max(top, bounds.Min.Y); y < min(bottom, bounds.Max.Y); y++ {
		for x := marginX - 10; x < Width-marginX+10; x++ {
			c := img.RGBAAt(x, y)
			c.R += 12
			c.G += 12
			c.B += 14
			img.SetRGBA(x, y, c)
		}
	}
}

func drawText(img *image.RGBA, text string, x, y int, col color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// drawTextRight draws text so that it ends at x.
func drawTextRight(img *image.RGBA, text string, x, y int, col color.Color, face font.Face) {
	w := font.MeasureString(face, text).Ceil()
	drawText(img, text, x-w, y, col, face)
}
