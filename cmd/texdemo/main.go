// Command texdemo streams generated or decoded images into textures a few
// rows per frame and reports progress.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/texstream"
	"github.com/gogpu/texstream/backend"
	_ "github.com/gogpu/texstream/backend/software"
	"github.com/gogpu/texstream/pixels"
)

const boundary texstream.FrameBoundary = "frame_end"

type config struct {
	backend string
	width   int
	height  int
	rows    int
	caches  int
	format  texstream.PixelFormat
	input   string
	frame   time.Duration
	maxRuns int
}

func main() {
	var (
		backendName = flag.String("backend", "", "backend name (default: best available)")
		width       = flag.Int("width", 1024, "texture width")
		height      = flag.Int("height", 1024, "texture height")
		rows        = flag.Int("rows", 64, "rows uploaded per frame")
		caches      = flag.Int("caches", 4, "number of textures uploaded concurrently")
		format      = flag.String("format", "rgba8", "pixel format: rgba8, bgra8, r8, rg8, rgba16f")
		input       = flag.String("input", "", "optional image file fitted to every texture")
		frame       = flag.Duration("frame", 16*time.Millisecond, "simulated frame time")
		maxFrames   = flag.Int("max-frames", 10000, "stop after this many frames")
		verbose     = flag.Bool("v", false, "log uploader activity to stderr")
		list        = flag.Bool("list", false, "list registered backends and exit")
	)
	flag.Parse()

	if *list {
		fmt.Println(strings.Join(backend.Available(), "\n"))
		return
	}
	if *verbose {
		texstream.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	pf, err := texstream.ParsePixelFormat(*format)
	if err != nil {
		log.Fatal(err)
	}

	cfg := config{
		backend: *backendName,
		width:   *width,
		height:  *height,
		rows:    *rows,
		caches:  *caches,
		format:  pf,
		input:   *input,
		frame:   *frame,
		maxRuns: *maxFrames,
	}
	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config) error {
	b, name, err := openBackend(cfg.backend)
	if err != nil {
		return err
	}
	if c, ok := b.(io.Closer); ok {
		defer c.Close()
	}

	payloads, err := buildPayloads(cfg)
	if err != nil {
		return err
	}

	var queue texstream.QueueIssuer
	u, err := texstream.New(b, texstream.WithIssuer(queue.Issue))
	if err != nil {
		return err
	}
	defer u.Close()

	jobs := make([]*texstream.Job, 0, len(payloads))
	defer func() {
		for _, job := range jobs {
			_ = job.Close()
		}
	}()
	for _, payload := range payloads {
		job, err := texstream.WritePixelsAsync(u, nil, cfg.width, cfg.height, cfg.format, payload, boundary)
		if err != nil {
			return err
		}
		jobs = append(jobs, job)
		if err := job.SetRowsPerTick(cfg.rows); err != nil {
			return err
		}
	}

	p := message.NewPrinter(language.English)
	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	p.Printf("%s: uploading %d textures of %dx%d %s (%d bytes)\n",
		name, len(jobs), cfg.width, cfg.height, cfg.format, totalBytes(payloads))

	start := time.Now()
	frames, err := frameLoop(u, &queue, jobs, cfg, func(frame int, progress float64) {
		if interactive {
			fmt.Printf("\rframe %5d  %6.2f%%", frame, progress*100)
		} else if frame%30 == 0 {
			fmt.Printf("frame %d: %.2f%%\n", frame, progress*100)
		}
	})
	if interactive {
		fmt.Println()
	}
	if err != nil {
		return err
	}

	p.Printf("done: %d bytes in %d frames (%v), %s\n",
		totalBytes(payloads), frames, time.Since(start).Round(time.Millisecond), u.Stats())
	return nil
}

// openBackend resolves a backend by name, or the best available one.
func openBackend(name string) (texstream.Backend, string, error) {
	if name == "" {
		return backend.Default()
	}
	b, err := backend.Get(name)
	return b, name, err
}

// buildPayloads prepares one payload per cache concurrently.
func buildPayloads(cfg config) ([][]byte, error) {
	var src image.Image
	if cfg.input != "" {
		img, err := imaging.Open(cfg.input)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		src = imaging.Fill(img, cfg.width, cfg.height, imaging.Center, imaging.Lanczos)
	}

	palette := []color.Color{
		color.RGBA{R: 0xe6, G: 0x39, B: 0x46, A: 0xff},
		color.RGBA{R: 0xf1, G: 0xfa, B: 0xee, A: 0xff},
		color.RGBA{R: 0xa8, G: 0xda, B: 0xdc, A: 0xff},
		color.RGBA{R: 0x45, G: 0x7b, B: 0x9d, A: 0xff},
		color.RGBA{R: 0x1d, G: 0x35, B: 0x57, A: 0xff},
	}

	payloads := make([][]byte, cfg.caches)
	var g errgroup.Group
	for i := range payloads {
		g.Go(func() error {
			var err error
			if src != nil {
				payloads[i], err = pixels.FromImage(imaging.AdjustBrightness(src, float64(i*5)), cfg.format)
			} else {
				rotated := append(append([]color.Color{}, palette[i%len(palette):]...), palette[:i%len(palette)]...)
				payloads[i], err = pixels.Stripes(cfg.width, cfg.height, max(cfg.rows, 1), cfg.format, rotated...)
			}
			if err != nil {
				return fmt.Errorf("payload %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return payloads, nil
}

// frameLoop reaches the frame boundary once per frame and runs the queued
// copies the way a render loop would, until every job finished.
func frameLoop(u *texstream.Uploader, queue *texstream.QueueIssuer, jobs []*texstream.Job, cfg config, report func(int, float64)) (int, error) {
	ticker := time.NewTicker(cfg.frame)
	defer ticker.Stop()

	for frame := 1; frame <= cfg.maxRuns; frame++ {
		if _, err := u.ReachFrameBoundary(boundary); err != nil {
			return frame, err
		}
		queue.Flush()

		var (
			sum  float64
			done = true
		)
		for _, job := range jobs {
			p, err := job.Progress()
			if err != nil {
				return frame, err
			}
			sum += p
			finished, err := job.HasFinished()
			if err != nil {
				return frame, err
			}
			done = done && finished
		}
		report(frame, sum/float64(max(len(jobs), 1)))
		if done {
			return frame, nil
		}
		<-ticker.C
	}
	return cfg.maxRuns, fmt.Errorf("uploads not finished after %d frames", cfg.maxRuns)
}

func totalBytes(payloads [][]byte) int {
	n := 0
	for _, p := range payloads {
		n += len(p)
	}
	return n
}
