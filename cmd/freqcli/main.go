// Command freqcli runs the frequency-domain resampling, rotation, or
// translation pipeline over a raw raster file, streaming it block by
// block and optionally serving live progress over a terminal monitor
// or a websocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"time"

	"freqimage/internal/imgbuf"
	"freqimage/internal/monitor"
	"freqimage/internal/progress"
	"freqimage/pkg/filter"
	"freqimage/pkg/geom"
	"freqimage/pkg/raster"
	"freqimage/pkg/stream"
	"freqimage/pkg/transform"
)

// resampleBlock zooms a streamed block's full buffer -- interior plus
// the margin the pipeline already baked in as real (or edge-synthesized)
// pixel data -- then crops the zoomed result back down to just the
// interior, scaled by the zoom ratio. b.Padding is not forwarded to
// Resampler.Compute's own padding parameter: that parameter adds a fresh
// margin and strips the same amount back off again, which is the right
// shape for giving a single whole image extra FFT boundary context, but
// double-pads a block whose margin is already physically present in
// b.Buffer.
func resampleBlock(r *transform.Resampler, b stream.StreamBlock, zr geom.ZoomRatio, f *filter.Filter) (imgbuf.Image, error) {
	zoomed, err := r.Compute(b.Buffer, geom.Padding{}, zr, f)
	if err != nil {
		return imgbuf.Image{}, err
	}

	ratio := float64(zr.InputResolution()) / float64(zr.OutputResolution())
	core := geom.Size{
		Row: b.Buffer.Size.Row - b.Padding.Top - b.Padding.Bottom,
		Col: b.Buffer.Size.Col - b.Padding.Left - b.Padding.Right,
	}
	if core == b.Buffer.Size {
		return zoomed, nil
	}

	top := int(math.Round(float64(b.Padding.Top) * ratio))
	left := int(math.Round(float64(b.Padding.Left) * ratio))
	target := geom.Size{
		Row: int(math.Round(float64(core.Row) * ratio)),
		Col: int(math.Round(float64(core.Col) * ratio)),
	}
	if top+target.Row > zoomed.Size.Row {
		target.Row = zoomed.Size.Row - top
	}
	if left+target.Col > zoomed.Size.Col {
		target.Col = zoomed.Size.Col - left
	}
	return zoomed.Crop(top, left, target), nil
}

func main() {
	op := flag.String("op", "zoom", "operation to run: zoom, rotate, translate")
	input := flag.String("input", "", "path to input raw raster file")
	output := flag.String("output", "", "path to output raw raster file")
	ratio := flag.String("ratio", "1:1", "zoom ratio as input:output resolution")
	angle := flag.Float64("angle", 0, "rotation angle in degrees")
	rowShift := flag.Float64("row-shift", 0, "translation row shift in pixels")
	colShift := flag.Float64("col-shift", 0, "translation column shift in pixels")
	blockRows := flag.Int("block-rows", 512, "stream block height")
	blockCols := flag.Int("block-cols", 512, "stream block width")
	marginRows := flag.Int("margin-rows", 16, "stream block vertical margin")
	marginCols := flag.Int("margin-cols", 16, "stream block horizontal margin")
	workers := flag.Int("workers", 1, "number of concurrent worker goroutines")
	periodicSmooth := flag.Bool("periodic-smooth", false, "use periodic-plus-smooth decomposition for zoom")
	filterPath := flag.String("filter", "", "path to a raw filter kernel raster file (zoom op only)")
	filterNormalize := flag.Bool("filter-normalize", true, "renormalize the filter kernel's polyphase sub-filters")
	zeroPadRealEdges := flag.Bool("zero-pad-real-edges", true, "padding kind recorded on the filter: zero, or mirror when false (the resampler does not read it)")
	hotPointX := flag.Int("hot-point-x", -1, "filter kernel hot point column (-1 for kernel center)")
	hotPointY := flag.Int("hot-point-y", -1, "filter kernel hot point row (-1 for kernel center)")
	noMonitor := flag.Bool("no-monitor", false, "disable the terminal progress monitor")
	progressPort := flag.Int("progress-port", 0, "serve live progress over a websocket on this port (0 disables)")
	logFile := flag.String("log", "freqcli.log", "log file path")

	flag.Parse()

	if *input == "" || *output == "" {
		fmt.Println("freqcli: -input and -output are required")
		flag.PrintDefaults()
		os.Exit(2)
	}

	file, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Printf("freqcli: failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()
	slog.SetDefault(slog.New(slog.NewTextHandler(file, nil)))
	slog.Info("starting freqcli", "args", os.Args)

	if err := run(runConfig{
		op: *op, inputPath: *input, outputPath: *output,
		ratio: *ratio, angle: *angle, rowShift: *rowShift, colShift: *colShift,
		blockSize:        geom.Size{Row: *blockRows, Col: *blockCols},
		margin:           geom.Size{Row: *marginRows, Col: *marginCols},
		workers:          *workers,
		periodicSmooth:   *periodicSmooth,
		filterPath:       *filterPath,
		filterNormalize:  *filterNormalize,
		zeroPadRealEdges: *zeroPadRealEdges,
		hotPointX:        *hotPointX,
		hotPointY:        *hotPointY,
		monitorUI:        !*noMonitor,
		progressPort:     *progressPort,
	}); err != nil {
		slog.Error("freqcli failed", "error", err)
		fmt.Printf("freqcli: %v\n", err)
		os.Exit(1)
	}
	slog.Info("freqcli finished")
}

type runConfig struct {
	op, inputPath, outputPath, ratio string
	angle, rowShift, colShift        float64
	blockSize, margin                geom.Size
	workers                          int
	periodicSmooth                   bool
	filterPath                       string
	filterNormalize                  bool
	zeroPadRealEdges                 bool
	hotPointX, hotPointY             int
	monitorUI                        bool
	progressPort                     int
}

// loadFilter reads a raw filter kernel raster file and builds a
// filter.Filter oriented for zr. An empty path yields filter.Empty(), a
// pass-through.
func loadFilter(ctx context.Context, cfg runConfig, zr geom.ZoomRatio) (*filter.Filter, error) {
	if cfg.filterPath == "" {
		return filter.Empty(), nil
	}

	kernelFile, err := os.Open(cfg.filterPath)
	if err != nil {
		return nil, fmt.Errorf("open filter: %w", err)
	}
	defer kernelFile.Close()

	kernelSrc, err := raster.OpenRawCodec(kernelFile)
	if err != nil {
		return nil, fmt.Errorf("parse filter: %w", err)
	}
	data, err := kernelSrc.Read(ctx, 0, 0, kernelSrc.Size())
	if err != nil {
		return nil, fmt.Errorf("read filter: %w", err)
	}
	kernel := imgbuf.Image{Size: kernelSrc.Size(), Data: data}

	kind := geom.PaddingZero
	if !cfg.zeroPadRealEdges {
		kind = geom.PaddingMirror
	}
	hotPoint := geom.Point{X: cfg.hotPointX, Y: cfg.hotPointY}
	return filter.New(kernel, zr, hotPoint, kind, cfg.filterNormalize)
}

func run(cfg runConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	inFile, err := os.Open(cfg.inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inFile.Close()
	src, err := raster.OpenRawCodec(inFile)
	if err != nil {
		return fmt.Errorf("parse input raster: %w", err)
	}

	outFile, err := os.OpenFile(cfg.outputPath, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer outFile.Close()
	dst := raster.NewRawCodec(outFile)

	var hub *progress.Hub
	if cfg.progressPort > 0 {
		hub = progress.NewHub()
		server := progress.NewServer(hub, cfg.progressPort)
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("progress server stopped", "error", err)
			}
		}()
	}

	var monState *monitor.State
	if cfg.monitorUI {
		monState = &monitor.State{}
		go func() {
			if err := monitor.Run(monState, 100*time.Millisecond); err != nil {
				slog.Error("monitor stopped", "error", err)
			}
		}()
	}

	onProgress := func(done, total int) {
		if monState != nil {
			monState.Done = done
			monState.TotalBlocks = total
		}
		if hub != nil {
			hub.Broadcast(progress.BlockEvent{Done: done, Total: total})
		}
	}

	var op stream.BlockOp
	var outSize geom.Size
	var placePosition func(row, col int) (int, int)
	outGeo := src.GeoReference()

	switch cfg.op {
	case "zoom":
		zr, err := geom.ParseZoomRatio(cfg.ratio)
		if err != nil {
			return fmt.Errorf("parse zoom ratio: %w", err)
		}
		var opts []transform.ResamplerOption
		if cfg.periodicSmooth {
			opts = append(opts, transform.WithPeriodicSmooth())
		}
		resampler := transform.NewResampler(opts...)
		f, err := loadFilter(ctx, cfg, zr)
		if err != nil {
			return fmt.Errorf("load filter: %w", err)
		}
		op = func(b stream.StreamBlock) (imgbuf.Image, error) {
			return resampleBlock(resampler, b, zr, f)
		}
		outSize = geom.Size{
			Row: src.Size().Row * zr.InputResolution() / zr.OutputResolution(),
			Col: src.Size().Col * zr.InputResolution() / zr.OutputResolution(),
		}
		placePosition = func(row, col int) (int, int) {
			return row * zr.InputResolution() / zr.OutputResolution(),
				col * zr.InputResolution() / zr.OutputResolution()
		}
		outGeo = raster.ResampledGeoReference(outGeo, zr)
	case "rotate":
		rotator := transform.Rotator{}
		op = func(b stream.StreamBlock) (imgbuf.Image, error) {
			return rotator.Compute(b.Buffer, cfg.angle)
		}
		outSize = src.Size()
	case "translate":
		translator := transform.Translator{}
		op = func(b stream.StreamBlock) (imgbuf.Image, error) {
			return translator.Compute(b.Buffer, cfg.rowShift, cfg.colShift)
		}
		outSize = src.Size()
		outGeo = raster.TranslatedGeoReference(outGeo, cfg.rowShift, cfg.colShift)
	default:
		return fmt.Errorf("unknown operation %q", cfg.op)
	}

	if err := dst.Create(ctx, outSize, outGeo); err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	pipeline := stream.Pipeline{
		Workers:       cfg.workers,
		BlockSize:     cfg.blockSize,
		Margin:        cfg.margin,
		OnProgress:    onProgress,
		PlacePosition: placePosition,
	}

	err = pipeline.Stream(ctx, src, dst, op)
	if monState != nil {
		monState.Finished = true
		monState.Err = err
	}
	return err
}
