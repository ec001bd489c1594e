package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/pkordes/eld-planner/internal/domain"
)

// PNG geometry in pixels.
const (
	pngWidth  = 1200
	pngHeight = 300
	pngGridX  = 170
	pngGridY  = 60
	pngGridW  = 960
	pngRowH   = 40
	pngTrace  = 3 // half-width of the duty line
)

var (
	white     = color.RGBA{255, 255, 255, 255}
	gridColor = color.RGBA{150, 150, 150, 255}
	textColor = color.RGBA{20, 20, 20, 255}
	lineColor = color.RGBA{0, 70, 160, 255}
)

// PNG writes l as a duty-status grid image.
func PNG(w io.Writer, l domain.LogEntry) error {
	img := image.NewRGBA(image.Rect(0, 0, pngWidth, pngHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(white), image.Point{}, draw.Src)

	label(img, 10, 20, ascii(title(l)+"  "+l.DriverName))
	label(img, 10, 38, fmt.Sprintf("%.1f miles, on duty %s-%s", l.TotalMiles, clock(l.StartTime), clock(l.EndTime)))

	gridH := len(rows) * pngRowH
	for h := 0; h <= 24; h++ {
		x := pngGridX + h*pngGridW/24
		fill(img, image.Rect(x, pngGridY, x+1, pngGridY+gridH), gridColor)
		label(img, x-3, pngGridY-4, hourLabel(h))
	}
	hours := rowHours(l)
	for i, r := range rows {
		y := pngGridY + i*pngRowH
		fill(img, image.Rect(pngGridX, y, pngGridX+pngGridW, y+1), gridColor)
		label(img, 10, y+pngRowH/2+4, r.label)
		label(img, pngGridX+pngGridW+8, y+pngRowH/2+4, fmt.Sprintf("%.2f", hours[i]))
	}
	fill(img, image.Rect(pngGridX, pngGridY+gridH, pngGridX+pngGridW+1, pngGridY+gridH+1), gridColor)

	trace := spans(l)
	for i, s := range trace {
		x0, x1, y := pngX(s.from), pngX(s.to), pngRowMid(s.row)
		fill(img, image.Rect(x0, y-pngTrace, x1+1, y+pngTrace), lineColor)
		if i > 0 && trace[i-1].row != s.row {
			ya, yb := pngRowMid(trace[i-1].row), y
			if ya > yb {
				ya, yb = yb, ya
			}
			fill(img, image.Rect(x0-1, ya, x0+2, yb), lineColor)
		}
	}

	label(img, 10, pngGridY+gridH+30, ascii("Remarks: "+l.Remarks))

	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("render.PNG: %w", err)
	}
	return nil
}

func pngX(minute float64) int {
	return pngGridX + int(minute/minutesPerDay*pngGridW)
}

func pngRowMid(row int) int {
	return pngGridY + row*pngRowH + pngRowH/2
}

func fill(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func label(img *image.RGBA, x, y int, s string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
