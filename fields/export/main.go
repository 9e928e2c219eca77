// Command export renders the contours of each synthetic field to PNG
// for visual inspection.  Run from the go-contour module root
// directory; output goes to debug/fields/.
package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"seehuhn.de/go/contour"
	"seehuhn.de/go/contour/fields"
)

const size = 512

func main() {
	outDir := filepath.Join("debug", "fields")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		log.Fatal(err)
	}

	gen := contour.NewGenerator()
	ren := contour.NewRenderer()
	ren.Width = 2

	for _, category := range slices.Sorted(maps.Keys(fields.All)) {
		for _, f := range fields.All[category] {
			res, err := gen.Generate(context.Background(), f.Grid, f.Axes, f.Levels)
			if err != nil {
				log.Fatalf("%s_%s: %v", category, f.Name, err)
			}
			for _, lo := range res.Levels {
				if lo.Err != nil {
					log.Printf("%s_%s: level %g skipped: %v",
						category, f.Name, lo.Level, lo.Err)
				}
			}

			img := image.NewGray(image.Rect(0, 0, size, size))
			draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
			ren.CTM = contour.FitCTM(res.Bounds(), size, size)
			ren.Draw(res, img)

			name := fmt.Sprintf("%s_%s.png", category, f.Name)
			if err := writePNG(filepath.Join(outDir, name), img); err != nil {
				log.Fatal(err)
			}
			log.Printf("%s: %d lines", name, len(res.Lines))
		}
	}
}

func writePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = png.Encode(f, img)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
