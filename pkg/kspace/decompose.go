// Package kspace decomposes a grayscale image into its per-frequency
// contribution images and maintains the index correspondence between the
// natural DFT ordering and the zero-frequency-centered display ordering.
package kspace

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// Method selects how Fourier coefficients are obtained.
type Method int

const (
	// MethodDirect evaluates every coefficient as an explicit inner product
	// of the image with its complex exponential field.
	MethodDirect Method = iota
	// MethodFFT takes coefficients from a 2D FFT. Contribution images are
	// still built per frequency, so the Tensor is the same as with
	// MethodDirect up to rounding.
	MethodFFT
)

func (m Method) String() string {
	switch m {
	case MethodDirect:
		return "direct"
	case MethodFFT:
		return "fft"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod parses "direct" or "fft".
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "direct":
		return MethodDirect, nil
	case "fft":
		return MethodFFT, nil
	default:
		return 0, fmt.Errorf("kspace: unknown method %q", s)
	}
}

// Convention selects the sign of the exponential used to turn a
// coefficient back into a spatial contribution image.
type Convention int

const (
	// ConventionSynthesis uses exp(+2πi(k*r/rows + l*c/cols)), the inverse
	// DFT kernel. The entries of the Tensor sum to the source image.
	ConventionSynthesis Convention = iota
	// ConventionAnalysis reuses the forward kernel exp(-2πi(...)). The
	// entries then sum to the source image point-reflected about (0,0),
	// img((-r) mod rows, (-c) mod cols).
	ConventionAnalysis
)

func (c Convention) String() string {
	switch c {
	case ConventionSynthesis:
		return "synthesis"
	case ConventionAnalysis:
		return "analysis"
	default:
		return fmt.Sprintf("Convention(%d)", int(c))
	}
}

// ParseConvention parses "synthesis" or "analysis".
func ParseConvention(s string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "synthesis":
		return ConventionSynthesis, nil
	case "analysis":
		return ConventionAnalysis, nil
	default:
		return 0, fmt.Errorf("kspace: unknown basis convention %q", s)
	}
}

// ProgressFunc is called after each frequency row completes.
type ProgressFunc func(done, total int)

// Params configures a Decomposer.
type Params struct {
	Method     Method
	Convention Convention

	// Workers is the number of goroutines splitting the frequency rows.
	// Zero means runtime.NumCPU().
	Workers int

	Progress ProgressFunc
	Logger   *zerolog.Logger
}

// Decomposer computes the contribution Tensor of an image.
//
// The decomposition visits every one of the N = rows*cols frequency pairs
// and touches every pixel for each of them, so it costs O(N²) regardless of
// Method. At the default 86x86 resolution that is about 55 million complex
// multiply-adds and a 218 MB float32 tensor; it is meant to run once at
// start-up on small fixed resolutions.
type Decomposer struct {
	params Params
	log    zerolog.Logger
}

// NewDecomposer creates a Decomposer with the given parameters.
func NewDecomposer(params Params) *Decomposer {
	if params.Workers <= 0 {
		params.Workers = runtime.NumCPU()
	}
	log := zerolog.Nop()
	if params.Logger != nil {
		log = params.Logger.With().Str("component", "decomposer").Logger()
	}
	return &Decomposer{params: params, log: log}
}

type rowResult struct {
	k   int
	err error
}

// Decompose builds the contribution Tensor of img. The input is copied and
// never modified. If ctx is cancelled before every row is done, the
// context error is returned and no Tensor is produced.
func (d *Decomposer) Decompose(ctx context.Context, img mat.Matrix) (*Tensor, error) {
	rows, cols := img.Dims()
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidSize, rows, cols)
	}
	size := rows * cols

	pixels := make([]float64, size)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			pixels[r*cols+c] = img.At(r, c)
		}
	}

	t := &Tensor{
		rows:       rows,
		cols:       cols,
		convention: d.params.Convention,
		coefs:      make([]complex128, size),
		data:       make([]float32, size*size),
	}
	if d.params.Method == MethodFFT {
		copy(t.coefs, fft2D(pixels, rows, cols))
	}

	workers := d.params.Workers
	if workers > rows {
		workers = rows
	}
	d.log.Info().
		Int("rows", rows).
		Int("cols", cols).
		Int("frequencies", size).
		Str("method", d.params.Method.String()).
		Str("basis", d.params.Convention.String()).
		Int("workers", workers).
		Msg("decomposing image into frequency contributions")

	tr := twiddles(rows)
	tc := twiddles(cols)

	jobs := make(chan int, rows)
	for k := 0; k < rows; k++ {
		jobs <- k
	}
	close(jobs)

	results := make(chan rowResult, rows)
	for w := 0; w < workers; w++ {
		go func() {
			field := make([]complex128, size)
			for k := range jobs {
				if err := ctx.Err(); err != nil {
					results <- rowResult{k: k, err: err}
					continue
				}
				d.decomposeRow(t, pixels, field, tr, tc, k)
				results <- rowResult{k: k}
			}
		}()
	}

	var firstErr error
	lastDecile := -1
	for done := 1; done <= rows; done++ {
		res := <-results
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		if d.params.Progress != nil {
			d.params.Progress(done*cols, size)
		}
		if decile := done * 10 / rows; decile != lastDecile {
			lastDecile = decile
			d.log.Debug().Int("percent", done*100/rows).Int("rows_done", done).Msg("decomposition progress")
		}
	}

	if firstErr != nil {
		d.log.Warn().Err(firstErr).Msg("decomposition aborted")
		return nil, fmt.Errorf("kspace: decomposition aborted: %w", firstErr)
	}
	return t, nil
}

// decomposeRow fills the contributions of every frequency (k, l) for one k.
// field is per-worker scratch space of rows*cols values.
func (d *Decomposer) decomposeRow(t *Tensor, pixels []float64, field []complex128, tr, tc []complex128, k int) {
	rows, cols := t.rows, t.cols
	size := rows * cols
	scale := 1 / float64(size)

	for l := 0; l < cols; l++ {
		n := k*cols + l

		// exp(-2πi(k*r/rows + l*c/cols)) over the whole grid
		for r := 0; r < rows; r++ {
			wr := tr[(k*r)%rows]
			for c := 0; c < cols; c++ {
				field[r*cols+c] = wr * tc[(l*c)%cols]
			}
		}

		if d.params.Method == MethodDirect {
			var coef complex128
			for p, v := range pixels {
				coef += complex(v, 0) * field[p]
			}
			t.coefs[n] = coef
		}

		coef := t.coefs[n]
		cr, ci := real(coef), imag(coef)
		out := t.data[n*size : (n+1)*size]
		if d.params.Convention == ConventionAnalysis {
			// Re(coef * field)
			for p, f := range field {
				out[p] = float32((cr*real(f) - ci*imag(f)) * scale)
			}
		} else {
			// Re(coef * conj(field))
			for p, f := range field {
				out[p] = float32((cr*real(f) + ci*imag(f)) * scale)
			}
		}
	}
}
