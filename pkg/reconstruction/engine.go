// Package reconstruction builds the immutable k-space context for one
// source image and renders partial reconstructions from selections made on
// its displayed magnitude map.
package reconstruction

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/dnaligase/kspace-vis/internal/models"
	"github.com/dnaligase/kspace-vis/pkg/imageio"
	"github.com/dnaligase/kspace-vis/pkg/kspace"
	"github.com/dnaligase/kspace-vis/pkg/visualization"
)

// Options holds the engine configuration.
type Options struct {
	// Image controls resizing and channel extraction of the source.
	Image imageio.Params

	// Decomposition configures the contribution tensor computation.
	Decomposition kspace.Params

	// Timeout bounds the start-up decomposition; zero means no limit.
	Timeout time.Duration

	// Epsilon guards the normalization denominator.
	Epsilon float64

	// SubstituteDCMean shows the DC hover preview as a flat raster at the
	// source mean instead of a flat black one.
	SubstituteDCMean bool

	// PlaceholderLevel is the gray level returned for empty selections.
	PlaceholderLevel uint8

	Logger *zerolog.Logger
}

// DefaultOptions returns the stock options:
// 86x86 red-channel source, direct decomposition, eps 1e-5, DC preview
// substituted by the mean.
func DefaultOptions() Options {
	return Options{
		Image:            imageio.Params{Size: imageio.DefaultSize, Channel: imageio.ChannelRed},
		Decomposition:    kspace.Params{Method: kspace.MethodDirect, Convention: kspace.ConventionSynthesis},
		Epsilon:          visualization.DefaultEpsilon,
		SubstituteDCMean: true,
		PlaceholderLevel: PlaceholderLevel,
	}
}

// Engine is the read-only k-space context of one source image. Everything
// it holds is computed once by NewEngine and never modified, so any number
// of goroutines may render selections concurrently.
type Engine struct {
	id        uuid.UUID
	source    *mat.Dense
	tensor    *kspace.Tensor
	natural   kspace.IndexGrid
	shifted   kspace.IndexGrid
	magnitude *mat.Dense
	display   *DisplaySet
	selector  *Selector
	log       zerolog.Logger
}

// InitializeFile loads the image at path and builds its Engine.
func InitializeFile(ctx context.Context, path string, opts Options) (*Engine, error) {
	grid, err := imageio.Load(path, opts.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to load source image: %w", err)
	}
	return NewEngine(ctx, grid, opts)
}

// InitializeBytes decodes an encoded image and builds its Engine.
func InitializeBytes(ctx context.Context, data []byte, opts Options) (*Engine, error) {
	grid, err := imageio.LoadBytes(data, opts.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to decode source image: %w", err)
	}
	return NewEngine(ctx, grid, opts)
}

// Initialize preprocesses an already decoded image and builds its Engine.
func Initialize(ctx context.Context, img image.Image, opts Options) (*Engine, error) {
	grid, err := imageio.ToGrid(img, opts.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to preprocess source image: %w", err)
	}
	return NewEngine(ctx, grid, opts)
}

// NewEngine decomposes a preprocessed intensity grid. This is the
// expensive start-up phase; it honors ctx cancellation and opts.Timeout and
// returns no Engine on failure.
func NewEngine(ctx context.Context, source mat.Matrix, opts Options) (*Engine, error) {
	id := uuid.New()
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "engine").Str("engine_id", id.String()).Logger()
	}
	if opts.Epsilon <= 0 {
		opts.Epsilon = visualization.DefaultEpsilon
	}

	rows, cols := source.Dims()
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", kspace.ErrInvalidSize, rows, cols)
	}
	src := mat.DenseCopyOf(source)
	raw := src.RawMatrix().Data
	mean := floats.Sum(raw) / float64(len(raw))
	log.Info().
		Int("rows", rows).
		Int("cols", cols).
		Float64("min", floats.Min(raw)).
		Float64("max", floats.Max(raw)).
		Float64("mean", mean).
		Msg("source image ready")

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	decompParams := opts.Decomposition
	if decompParams.Logger == nil {
		decompParams.Logger = opts.Logger
	}
	tensor, err := kspace.NewDecomposer(decompParams).Decompose(ctx, src)
	if err != nil {
		return nil, err
	}
	log.Info().Dur("elapsed", time.Since(start)).Int("contributions", tensor.Len()).Msg("decomposition finished")

	natural, shifted, err := kspace.BuildIndexMaps(rows, cols)
	if err != nil {
		return nil, err
	}

	display, err := BuildDisplaySet(tensor, shifted, DisplayParams{
		Epsilon:          opts.Epsilon,
		SubstituteDCMean: opts.SubstituteDCMean,
		Mean:             mean,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build preview set: %w", err)
	}

	selector, err := NewSelector(tensor, shifted, opts.Epsilon, opts.PlaceholderLevel)
	if err != nil {
		return nil, err
	}

	return &Engine{
		id:        id,
		source:    src,
		tensor:    tensor,
		natural:   natural,
		shifted:   shifted,
		magnitude: kspace.Magnitude(src),
		display:   display,
		selector:  selector,
		log:       log,
	}, nil
}

// ID identifies this engine instance in logs.
func (e *Engine) ID() uuid.UUID { return e.id }

// Source returns a copy of the preprocessed source grid.
func (e *Engine) Source() *mat.Dense { return mat.DenseCopyOf(e.source) }

// Magnitude returns a copy of the zero-frequency-centered log2 magnitude map.
func (e *Engine) Magnitude() *mat.Dense { return mat.DenseCopyOf(e.magnitude) }

// Tensor returns the shared, read-only contribution tensor.
func (e *Engine) Tensor() *kspace.Tensor { return e.tensor }

// NaturalGrid returns the natural-order index grid.
func (e *Engine) NaturalGrid() kspace.IndexGrid { return e.natural }

// ShiftedGrid returns the display-order index grid.
func (e *Engine) ShiftedGrid() kspace.IndexGrid { return e.shifted }

// DisplaySet returns the hover previews in display order.
func (e *Engine) DisplaySet() *DisplaySet { return e.display }

// Selector returns the engine's selection resolver.
func (e *Engine) Selector() *Selector { return e.selector }

// RenderSelection renders a point or rectangle selected on the displayed
// magnitude map.
func (e *Engine) RenderSelection(sel models.Selection) (*image.Gray, error) {
	res, err := e.selector.Reconstruct(sel)
	if err != nil {
		e.log.Warn().Err(err).Str("kind", sel.Kind.String()).Msg("selection rejected")
		return nil, err
	}
	e.log.Debug().
		Str("kind", sel.Kind.String()).
		Int("frequencies", len(res.Indices)).
		Bool("placeholder", res.Placeholder).
		Msg("selection rendered")
	return res.Image, nil
}

// Preview returns the hover preview of displayed cell (row, col).
func (e *Engine) Preview(row, col int) *image.Gray {
	return e.display.AtCell(row, col)
}

// Render dispatches on the interaction state: Idle gives the placeholder,
// Hovering the single-frequency preview, Selecting the rectangle
// reconstruction.
func (e *Engine) Render(state models.Interaction) (*image.Gray, error) {
	switch state.Mode {
	case models.Idle:
		return e.selector.Placeholder(), nil
	case models.Hovering:
		return e.Preview(state.Point.Row, state.Point.Col), nil
	case models.Selecting:
		r := state.Rect
		return e.RenderSelection(models.RectSelection(r.RowMin, r.RowMax, r.ColMin, r.ColMax))
	default:
		return nil, fmt.Errorf("reconstruction: unknown interaction mode %v", state.Mode)
	}
}

// Fidelity measures how close the raw sum of sel is to the source image.
// An empty selection is compared as an all-zero image.
func (e *Engine) Fidelity(sel models.Selection) (FidelityMetrics, error) {
	indices, err := e.selector.Resolve(sel)
	if err != nil {
		return FidelityMetrics{}, err
	}
	sum, err := e.tensor.Sum(indices)
	if err != nil {
		return FidelityMetrics{}, err
	}
	m := CompareImages(e.source.RawMatrix().Data, sum)
	m.Frequencies = len(indices)
	return m, nil
}
