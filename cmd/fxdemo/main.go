// Command fxdemo applies an effect chain to an image file.
//
// With no -input, it synthesizes a test card so the pipeline can be
// exercised without an image on hand.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/gogpu/fx"
)

func main() {
	var (
		input    = flag.String("input", "", "input image (PNG or JPEG); empty synthesizes a test card")
		output   = flag.String("output", "out.png", "output file")
		effects  = flag.String("effects", "blur:radius=4,sharpen:amount=1.5", "comma-separated effect chain, id:key=val;key=val")
		maxDim   = flag.Int("max", 2048, "downscale inputs larger than this dimension")
		workers  = flag.Int("workers", 0, "worker cap, 0 uses the engine default")
		preview  = flag.Bool("preview", false, "render the fast preview instead of the full result")
		traceOut = flag.Bool("trace", false, "print traced boundary polygons instead of writing an image")
	)
	flag.Parse()

	buf, err := loadInput(*input, *maxDim)
	if err != nil {
		log.Fatalf("Failed to load input: %v", err)
	}

	var opts []fx.EngineOption
	if *workers > 0 {
		opts = append(opts, fx.WithWorkers(*workers))
	}
	eng := fx.New(opts...)
	defer eng.Close()

	chain, err := parseChain(*effects)
	if err != nil {
		log.Fatalf("Bad -effects: %v", err)
	}

	ctx := context.Background()
	for _, step := range chain {
		if *preview {
			buf, err = eng.Preview(ctx, step.id, step.settings, buf)
		} else {
			buf, err = eng.ApplyEffect(ctx, step.id, step.settings, buf)
		}
		if err != nil {
			log.Fatalf("Effect %s failed: %v", step.id, err)
		}
	}

	if *traceOut {
		polys, err := eng.TraceVector(buf, 128, 2)
		if err != nil {
			log.Fatalf("Trace failed: %v", err)
		}
		for i, poly := range polys {
			log.Printf("polygon %d: %d points", i, len(poly))
		}
		return
	}

	if err := imaging.Save(buf.ToImage(), *output); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Saved %s (%dx%d)\n", *output, buf.Width(), buf.Height())
}

type chainStep struct {
	id       string
	settings fx.Settings
}

// parseChain parses "blur:radius=4;quality=2,sharpen:amount=1.5" into
// ordered steps.
func parseChain(s string) ([]chainStep, error) {
	var chain []chainStep
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, params, _ := strings.Cut(part, ":")
		step := chainStep{id: id, settings: fx.Settings{}}
		if params != "" {
			for _, kv := range strings.Split(params, ";") {
				key, val, ok := strings.Cut(kv, "=")
				if !ok {
					return nil, fmt.Errorf("malformed parameter %q in %q", kv, part)
				}
				f, err := strconv.ParseFloat(val, 64)
				if err != nil {
					return nil, fmt.Errorf("parameter %s: %w", key, err)
				}
				step.settings[key] = f
			}
		}
		chain = append(chain, step)
	}
	return chain, nil
}

// loadInput decodes and bounds an image file, or synthesizes a test card.
func loadInput(path string, maxDim int) (*fx.Buffer, error) {
	if path == "" {
		return testCard(), nil
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() > maxDim || b.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}
	return fx.FromImage(img), nil
}

// testCard renders overlapping color fields and a sharp checkerboard,
// enough structure for blur, sharpen, and edge effects to show.
func testCard() *fx.Buffer {
	const size = 512
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r := uint8(x * 255 / size)
			g := uint8(y * 255 / size)
			b := uint8(255 - (x+y)*255/(2*size))
			if (x/32+y/32)%2 == 0 {
				r, g, b = 255-r, 255-g, 255-b
			}
			i := img.PixOffset(x, y)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, 255
		}
	}
	return fx.FromImage(img)
}
