package reconstruction

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FidelityMetrics compares a partial reconstruction with the source image.
type FidelityMetrics struct {
	// Frequencies is the number of contributions that were summed.
	Frequencies int

	// MSE and RMSE are measured on raw intensities (0-255 scale).
	MSE  float64
	RMSE float64

	// FitMSE is the mean-square error left after the best affine match
	// a*reconstructed + b, so it ignores any scale and offset difference.
	FitMSE float64

	// SSIM is the global structural similarity index over the whole image,
	// with an 8-bit dynamic range.
	SSIM float64
}

// CompareImages computes FidelityMetrics between two row-major grids of
// equal length. Mismatched or empty inputs give zero metrics.
func CompareImages(original, reconstructed []float64) FidelityMetrics {
	if len(original) != len(reconstructed) || len(original) == 0 {
		return FidelityMetrics{}
	}
	mse := calculateMSE(original, reconstructed)
	return FidelityMetrics{
		MSE:    mse,
		RMSE:   math.Sqrt(mse),
		FitMSE: calculateFitMSE(original, reconstructed),
		SSIM:   calculateSSIM(original, reconstructed, 255),
	}
}

// calculateMSE computes the mean square error
func calculateMSE(original, reconstructed []float64) float64 {
	d := floats.Distance(original, reconstructed, 2)
	return d * d / float64(len(original))
}

// calculateFitMSE regresses original on reconstructed and returns the
// residual mean square error
func calculateFitMSE(original, reconstructed []float64) float64 {
	if len(original) < 2 {
		return 0
	}
	if stat.Variance(reconstructed, nil) == 0 {
		// only the offset can be matched
		mean := stat.Mean(original, nil)
		sum := 0.0
		for _, v := range original {
			sum += (v - mean) * (v - mean)
		}
		return sum / float64(len(original))
	}

	alpha, beta := stat.LinearRegression(reconstructed, original, nil, false)
	sum := 0.0
	for i, v := range reconstructed {
		diff := original[i] - (alpha + beta*v)
		sum += diff * diff
	}
	return sum / float64(len(original))
}

// calculateSSIM computes the Structural Similarity Index
func calculateSSIM(original, reconstructed []float64, dynamicRange float64) float64 {
	const k1 = 0.01
	const k2 = 0.03

	c1 := (k1 * dynamicRange) * (k1 * dynamicRange)
	c2 := (k2 * dynamicRange) * (k2 * dynamicRange)

	muX := stat.Mean(original, nil)
	muY := stat.Mean(reconstructed, nil)

	var sigmaX, sigmaY, sigmaXY float64
	if len(original) > 1 {
		sigmaX = stat.Variance(original, nil)
		sigmaY = stat.Variance(reconstructed, nil)
		sigmaXY = stat.Covariance(original, reconstructed, nil)
	}

	num := (2*muX*muY + c1) * (2*sigmaXY + c2)
	den := (muX*muX + muY*muY + c1) * (sigmaX + sigmaY + c2)

	if den > 0 {
		return num / den
	}
	return 0
}
