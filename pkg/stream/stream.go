// Package stream implements the block-streaming pipeline: a producer
// reads overlapping tiles from a raster.Source, a pool of workers runs a
// transform over each tile, and a consumer writes the results to a
// raster.Sink, coordinated through activate/deactivate-aware queues so
// an error on any side drains the pipeline instead of deadlocking it.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"freqimage/internal/imgbuf"
	"freqimage/internal/numerics"
	"freqimage/internal/queue"
	"freqimage/pkg/geom"
	"freqimage/pkg/raster"
)

// StreamBlock is one tile moving through the pipeline: its pixel data,
// its absolute placement in the source raster, and the margin that was
// read around it to give the transform context past the tile edge.
type StreamBlock struct {
	Buffer  imgbuf.Image
	Row     int
	Col     int
	Padding geom.Padding
}

// BlockOp is a transform applied to a single streamed block.
type BlockOp func(StreamBlock) (imgbuf.Image, error)

// ProgressFunc is called once per block after it has been written,
// letting callers (the CLI's terminal monitor and websocket hub) report
// progress without the pipeline depending on either directly.
type ProgressFunc func(done, total int)

// Pipeline streams an entire raster through a BlockOp, block by block.
type Pipeline struct {
	Workers    int
	BlockSize  geom.Size
	Margin     geom.Size
	PadKind    geom.PaddingKind
	OnProgress ProgressFunc

	// PlacePosition maps a source block's (row, col) origin to the
	// corresponding origin in the output raster. Resampling scales this
	// by the zoom ratio; rotation and translation leave it unchanged.
	// A nil PlacePosition is the identity mapping.
	PlacePosition func(row, col int) (int, int)

	// Resize, when true, grows BlockSize before streaming to a size that
	// keeps every block's FFT well-behaved, mirroring
	// resampling::InputStream's stream_block_size adjustment: a
	// zoom-compliant size (row/col scale to an integer pixel count under
	// ZoomRatio) for a real zoom, otherwise a dyadic size (accounting for
	// Margin as the filter padding). ZoomRatio's zero value is not a real
	// zoom, so rotate/translate pipelines that leave it unset always take
	// the dyadic path.
	Resize    bool
	ZoomRatio geom.ZoomRatio
}

func (p Pipeline) place(row, col int) (int, int) {
	if p.PlacePosition == nil {
		return row, col
	}
	return p.PlacePosition(row, col)
}

// Stream reads src block by block, applies op to each block, and
// writes the result to dst. dst must already have been sized via
// Create with the op's expected output size. When Workers <= 1 it runs
// a single-threaded sequential loop; otherwise it runs a
// reader/workers/writer topology connected by bounded queues.
func (p Pipeline) Stream(ctx context.Context, src raster.Source, dst raster.Sink, op BlockOp) error {
	if n := runtime.NumCPU(); p.Workers > n {
		p.Workers = n
	}

	blockSize := p.BlockSize
	if p.Resize {
		var resized geom.Size
		var ok bool
		if p.ZoomRatio.IsRealZoom() {
			resized, ok = numerics.ZoomCompliantSize(blockSize, p.ZoomRatio)
		} else {
			resized, ok = numerics.DyadicSize(blockSize, max(p.ZoomRatio.InputResolution(), 1), p.Margin.Scale(2))
		}
		if ok {
			blockSize = resized
		} else {
			slog.Warn("stream: block resizing gave up, keeping the requested block size", "block", blockSize)
		}
	}

	srcSize := src.Size()
	blocks := planBlocks(srcSize, blockSize)

	if p.Workers <= 1 {
		return p.runMonothread(ctx, src, dst, op, blocks)
	}
	return p.runMultithread(ctx, src, dst, op, blocks)
}

type blockPlan struct {
	row, col int
	size     geom.Size
}

func planBlocks(srcSize, blockSize geom.Size) []blockPlan {
	var blocks []blockPlan
	for row := 0; row < srcSize.Row; row += blockSize.Row {
		for col := 0; col < srcSize.Col; col += blockSize.Col {
			h := minInt(blockSize.Row, srcSize.Row-row)
			w := minInt(blockSize.Col, srcSize.Col-col)
			blocks = append(blocks, blockPlan{
				row: row, col: col,
				size: geom.Size{Row: h, Col: w},
			})
		}
	}
	return blocks
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// readBlock reads a block's interior plus its surrounding margin. Inside
// the raster the margin comes from overlapping reads of adjacent pixels;
// at a raster edge there is nothing to overlap, so the missing rows/cols
// are synthesized according to p.PadKind (zero or mirror) instead of
// being silently shrunk. Every returned block therefore carries the full
// declared Margin on all four sides, letting a transform trim it
// uniformly without caring whether a given side sits at a raster edge.
func (p Pipeline) readBlock(ctx context.Context, src raster.Source, srcSize geom.Size, b blockPlan) (StreamBlock, error) {
	margin := p.Margin
	full := geom.Padding{Top: margin.Row, Bottom: margin.Row, Left: margin.Col, Right: margin.Col, Kind: p.PadKind}

	availTop := minInt(margin.Row, b.row)
	availLeft := minInt(margin.Col, b.col)
	availBottom := minInt(margin.Row, srcSize.Row-b.row-b.size.Row)
	availRight := minInt(margin.Col, srcSize.Col-b.col-b.size.Col)

	coreSize := geom.Size{
		Row: b.size.Row + availTop + availBottom,
		Col: b.size.Col + availLeft + availRight,
	}
	data, err := src.Read(ctx, b.row-availTop, b.col-availLeft, coreSize)
	if err != nil {
		return StreamBlock{}, err
	}
	core := imgbuf.Image{Size: coreSize, Data: data}

	buffer := core
	deficit := geom.Padding{
		Top:    margin.Row - availTop,
		Bottom: margin.Row - availBottom,
		Left:   margin.Col - availLeft,
		Right:  margin.Col - availRight,
		Kind:   p.PadKind,
	}
	if !deficit.IsEmpty() {
		buffer = core.Padded(deficit)
	}

	return StreamBlock{
		Buffer:  buffer,
		Row:     b.row,
		Col:     b.col,
		Padding: full,
	}, nil
}

func (p Pipeline) runMonothread(ctx context.Context, src raster.Source, dst raster.Sink, op BlockOp, blocks []blockPlan) error {
	slog.Info("stream: start monothreaded streaming", "blocks", len(blocks))
	srcSize := src.Size()
	for i, b := range blocks {
		block, err := p.readBlock(ctx, src, srcSize, b)
		if err != nil {
			return fmt.Errorf("stream: read block: %w", err)
		}
		result, err := op(block)
		if err != nil {
			return fmt.Errorf("stream: process block: %w", err)
		}
		outRow, outCol := p.place(b.row, b.col)
		if err := dst.Write(ctx, outRow, outCol, result.Size, result.Data); err != nil {
			return fmt.Errorf("stream: write block: %w", err)
		}
		if p.OnProgress != nil {
			p.OnProgress(i+1, len(blocks))
		}
	}
	slog.Info("stream: end monothreaded streaming")
	return nil
}

func (p Pipeline) runMultithread(ctx context.Context, src raster.Source, dst raster.Sink, op BlockOp, blocks []blockPlan) error {
	slog.Info("stream: start multithreaded streaming", "workers", p.Workers, "blocks", len(blocks))

	inputQueue := queue.New[StreamBlock](p.Workers)
	outputQueue := queue.New[StreamBlock](p.Workers)

	var readErr, writeErr, workErr error
	var errMu sync.Mutex
	setErr := func(dst *error, err error) {
		errMu.Lock()
		defer errMu.Unlock()
		if *dst == nil {
			*dst = err
		}
	}

	var wg sync.WaitGroup
	srcSize := src.Size()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, b := range blocks {
			if !inputQueue.IsActive() {
				break
			}
			block, err := p.readBlock(ctx, src, srcSize, b)
			if err != nil {
				setErr(&readErr, err)
				break
			}
			if err := inputQueue.Push(block); err != nil {
				break
			}
		}
		inputQueue.Deactivate()
	}()

	var workersWG sync.WaitGroup
	for i := 0; i < p.Workers; i++ {
		workersWG.Add(1)
		go func() {
			defer workersWG.Done()
			for inputQueue.CanPop() {
				block, err := inputQueue.Pop()
				if err != nil {
					break
				}
				result, err := op(block)
				if err != nil {
					setErr(&workErr, err)
					inputQueue.Deactivate()
					outputQueue.Deactivate()
					break
				}
				outBlock := StreamBlock{Buffer: result, Row: block.Row, Col: block.Col}
				if err := outputQueue.Push(outBlock); err != nil {
					break
				}
			}
		}()
	}

	var written int
	wg.Add(1)
	go func() {
		defer wg.Done()
		for outputQueue.CanPop() {
			block, err := outputQueue.Pop()
			if err != nil {
				break
			}
			outRow, outCol := p.place(block.Row, block.Col)
			if err := dst.Write(ctx, outRow, outCol, block.Buffer.Size, block.Buffer.Data); err != nil {
				setErr(&writeErr, err)
				outputQueue.DeactivateAndClear()
				inputQueue.Deactivate()
				break
			}
			written++
			if p.OnProgress != nil {
				p.OnProgress(written, len(blocks))
			}
		}
		outputQueue.Deactivate()
	}()

	workersWG.Wait()
	outputQueue.Deactivate()
	wg.Wait()

	slog.Info("stream: end multithreaded streaming")

	if readErr != nil {
		return fmt.Errorf("stream: read block: %w", readErr)
	}
	if workErr != nil {
		return fmt.Errorf("stream: process block: %w", workErr)
	}
	if writeErr != nil {
		return fmt.Errorf("stream: write block: %w", writeErr)
	}
	return nil
}
