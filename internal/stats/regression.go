package stats

import (
	"errors"

	"gonum.org/v1/gonum/stat"
)

// Line is y = Slope·x + Intercept
type Line struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
}

// At evaluates the line
func (l Line) At(x float64) float64 {
	return l.Slope*x + l.Intercept
}

// FitLine runs a (weighted) least-squares fit. weights may be nil.
func FitLine(x, y, weights []float64) (Line, error) {
	if len(x) != len(y) {
		return Line{}, errors.New("fit requires equal length x and y")
	}
	if len(x) < 2 {
		return Line{}, errors.New("fit requires at least two points")
	}
	if weights != nil && len(weights) != len(x) {
		return Line{}, errors.New("fit weights must match the number of points")
	}

	alpha, beta := stat.LinearRegression(x, y, weights, false)
	return Line{
		Slope:     beta,
		Intercept: alpha,
		RSquared:  stat.RSquared(x, y, weights, alpha, beta),
	}, nil
}
