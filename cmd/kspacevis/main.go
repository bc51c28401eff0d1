package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dnaligase/kspace-vis/internal/models"
	"github.com/dnaligase/kspace-vis/pkg/config"
	"github.com/dnaligase/kspace-vis/pkg/logger"
	"github.com/dnaligase/kspace-vis/pkg/reconstruction"
	"github.com/dnaligase/kspace-vis/pkg/visualization"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "kspacevis.yaml", "YAML configuration file")
	imagePath := flag.String("image", "", "Source image (overrides image.path)")
	size := flag.Int("size", 0, "Grid size the image is resized to (overrides image.size)")
	workers := flag.Int("workers", 0, "Decomposition goroutines (overrides decomposition.workers)")
	method := flag.String("method", "", "Coefficient method: direct or fft")
	point := flag.String("point", "", "Render one displayed frequency cell, as \"row,col\"")
	rect := flag.String("rect", "", "Render a displayed rectangle, as \"rowMin,rowMax,colMin,colMax\" (max exclusive)")
	previewRow := flag.Int("preview-row", -1, "Save the hover previews of one displayed row")
	outDir := flag.String("out", "", "Output directory (overrides output.dir)")
	writeConfig := flag.String("write-config", "", "Write a default configuration file to this path and exit")
	flag.Parse()

	if *writeConfig != "" {
		if err := config.CreateDefaultConfigFile(*writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration written to: %s\n", *writeConfig)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid environment: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, *imagePath, *size, *workers, *method, *outDir)

	if cfg.Image.Path == "" {
		flag.Usage()
		os.Exit(1)
	}

	log, err := logger.FromConfig(os.Stderr, cfg.Logging.Level, cfg.Logging.JSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid logging config: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, &log, *point, *rect, *previewRow); err != nil {
		log.Fatal().Err(err).Msg("kspacevis failed")
	}
}

func applyFlags(cfg *config.Config, imagePath string, size, workers int, method, outDir string) {
	if imagePath != "" {
		cfg.Image.Path = imagePath
	}
	if size > 0 {
		cfg.Image.Size = size
	}
	if workers > 0 {
		cfg.Decomposition.Workers = workers
	}
	if method != "" {
		cfg.Decomposition.Method = method
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
}

func run(cfg *config.Config, log *zerolog.Logger, point, rect string, previewRow int) error {
	opts, err := cfg.EngineOptions(log)
	if err != nil {
		return err
	}
	upscale, err := visualization.ParseInterpolator(cfg.Render.Upscale)
	if err != nil {
		return err
	}

	var selections []namedSelection
	if point != "" {
		v, err := parseInts(point, 2)
		if err != nil {
			return fmt.Errorf("invalid -point: %w", err)
		}
		selections = append(selections, namedSelection{
			name: fmt.Sprintf("point_%d_%d", v[0], v[1]),
			sel:  models.PointSelection(v[0], v[1]),
		})
	}
	if rect != "" {
		v, err := parseInts(rect, 4)
		if err != nil {
			return fmt.Errorf("invalid -rect: %w", err)
		}
		selections = append(selections, namedSelection{
			name: fmt.Sprintf("rect_%d_%d_%d_%d", v[0], v[1], v[2], v[3]),
			sel:  models.RectSelection(v[0], v[1], v[2], v[3]),
		})
	}

	if cfg.Output.Verbose {
		fmt.Println("================================")
		fmt.Println("K-SPACE BASIS DECOMPOSITION AND PARTIAL RECONSTRUCTION")
		fmt.Println("================================")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startTime := time.Now()
	engine, err := reconstruction.InitializeFile(ctx, cfg.Image.Path, opts)
	if err != nil {
		return err
	}
	rows, cols := engine.Tensor().Dims()
	if cfg.Output.Verbose {
		fmt.Printf("\nDecomposed %s into %d frequency contributions in %.2f seconds\n",
			cfg.Image.Path, engine.Tensor().Len(), time.Since(startTime).Seconds())
		fmt.Printf("Run ID: %s\n", engine.ID())
		fmt.Printf("Grid: %dx%d, method %s, basis %s\n", rows, cols, cfg.Decomposition.Method, cfg.Decomposition.Basis)
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if cfg.Output.SaveMagnitude {
		mag := visualization.NormalizeToU8(engine.Magnitude(), cfg.Render.Epsilon)
		path := filepath.Join(cfg.Output.Dir, "magnitude.png")
		if err := visualization.SavePNG(mag, path); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("saved log-magnitude map")
	}

	for _, s := range selections {
		img, err := engine.RenderSelection(s.sel)
		if err != nil {
			return err
		}
		big := visualization.Upscale(img, cfg.Render.OutputSize, cfg.Render.OutputSize, upscale)
		path := filepath.Join(cfg.Output.Dir, s.name+".png")
		if err := visualization.SavePNG(big, path); err != nil {
			return err
		}
		uri, err := visualization.DataURI(big)
		if err != nil {
			return err
		}
		metrics, err := engine.Fidelity(s.sel)
		if err != nil {
			return err
		}

		fmt.Printf("\n%s saved to: %s\n", s.name, path)
		fmt.Printf("=======================================\n")
		fmt.Printf("Frequencies summed: %d\n", metrics.Frequencies)
		fmt.Printf("Root Mean Square Error (RMSE): %.4f\n", metrics.RMSE)
		fmt.Printf("Affine-fit MSE: %.4f\n", metrics.FitMSE)
		fmt.Printf("Structural Similarity Index (SSIM): %.4f\n", metrics.SSIM)
		fmt.Printf("Data URI length: %d bytes\n", len(uri))
	}

	if previewRow >= 0 {
		row := previewRow
		if row >= rows {
			row = rows - 1
		}
		previews := make([]*image.Gray, cols)
		for c := 0; c < cols; c++ {
			previews[c] = engine.Preview(row, c)
		}
		dir := filepath.Join(cfg.Output.Dir, fmt.Sprintf("previews_row_%03d", row))
		if err := visualization.SaveSequence(previews, dir, "col"); err != nil {
			return err
		}
		fmt.Printf("\nSaved %d previews of displayed row %d to: %s\n", cols, row, dir)
	}

	return nil
}

type namedSelection struct {
	name string
	sel  models.Selection
}

// parseInts parses exactly n comma-separated integers.
func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated integers, got %q", n, s)
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
