package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/phpdave11/gofpdf"
	"github.com/rs/zerolog/log"

	"github.com/ichStark/byen-tech/internal/geometry"
	"github.com/ichStark/byen-tech/internal/raster"
)

// PageError reports the single image that aborted an assembly.
type PageError struct {
	Filename string
	Index    int
	Err      error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d (%s): %v", e.Index, e.Filename, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// Assembler runs decode, geometry resolution and re-encode across a batch and
// serializes the pages into one document. Per-image work fans out over a
// bounded worker pool; pages are merged back in original index order. The
// contract is all-or-nothing: any single failure aborts the whole batch and
// no partial document escapes.
type Assembler struct {
	decoder  *raster.Decoder
	renderer *Renderer
	workers  int
}

// NewAssembler creates an Assembler with the given worker bound.
func NewAssembler(decoder *raster.Decoder, renderer *Renderer, workers int) *Assembler {
	if workers <= 0 {
		workers = 4
	}
	return &Assembler{decoder: decoder, renderer: renderer, workers: workers}
}

type assembleTask struct {
	index int
	raw   RawImage
}

// Assemble converts the ordered batch into a single PDF byte stream. The
// returned error is a *PageError when one image failed decode or re-encode.
func (a *Assembler) Assemble(ctx context.Context, batch []RawImage, opts geometry.Options) ([]byte, error) {
	if len(batch) == 0 {
		return nil, errors.New("empty batch")
	}

	pages, err := a.renderAll(ctx, batch, opts)
	if err != nil {
		return nil, err
	}
	return serialize(pages)
}

// renderAll fans the per-image pipeline out over the worker pool and collects
// results indexed by original position. The first real failure cancels the
// remaining work.
func (a *Assembler) renderAll(ctx context.Context, batch []RawImage, opts geometry.Options) ([]*Page, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pages := make([]*Page, len(batch))
	errs := make([]error, len(batch))

	tasks := make(chan assembleTask)
	var wg sync.WaitGroup

	workers := a.workers
	if workers > len(batch) {
		workers = len(batch)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				if ctx.Err() != nil {
					errs[task.index] = ctx.Err()
					continue
				}
				page, err := a.renderOne(task, opts)
				if err != nil {
					errs[task.index] = err
					cancel()
					continue
				}
				pages[task.index] = page
			}
		}()
	}

	for i, raw := range batch {
		tasks <- assembleTask{index: i, raw: raw}
	}
	close(tasks)
	wg.Wait()

	// Report the first real failure; cancellations of in-flight siblings are
	// fallout, not the cause.
	for i, err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, &PageError{Filename: batch[i].Filename, Index: i, Err: err}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return pages, nil
}

func (a *Assembler) renderOne(task assembleTask, opts geometry.Options) (*Page, error) {
	img, err := a.decoder.Decode(task.raw.Data, task.raw.DeclaredMIME)
	if err != nil {
		return nil, err
	}
	geo := geometry.Resolve(img.Width, img.Height, img.DPIX, img.DPIY, opts)
	log.Debug().
		Int("page", task.index).
		Str("file", task.raw.Filename).
		Int("width_px", img.Width).
		Int("height_px", img.Height).
		Float64("page_w_mm", geo.PageW).
		Float64("page_h_mm", geo.PageH).
		Msg("resolved page geometry")
	return a.renderer.RenderPage(img, geo, task.index)
}

// serialize appends the pages in index order to a fresh document and returns
// the finished byte stream.
func serialize(pages []*Page) ([]byte, error) {
	doc := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "mm"})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)

	imgOpts := gofpdf.ImageOptions{ImageType: "JPEG", ReadDpi: false}
	for _, page := range pages {
		geo := page.Geometry
		doc.AddPageFormat("P", gofpdf.SizeType{Wd: geo.PageW, Ht: geo.PageH})
		doc.RegisterImageOptionsReader(page.imageName(), imgOpts, bytes.NewReader(page.JPEG))
		doc.ImageOptions(page.imageName(), geo.ContentX, geo.ContentY, geo.ContentW, geo.ContentH, false, imgOpts, 0, "")
	}
	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("build document: %w", err)
	}

	var out bytes.Buffer
	if err := doc.Output(&out); err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}
	return out.Bytes(), nil
}
