package pulse

import (
	"math"

	"github.com/pulselabs/conversation-pulse/internal/model"
)

// Detection thresholds. Detectors are independent: a conversation may match
// zero, one, or several patterns at once.
const (
	minPointsForPatterns = 3
	minPointsTrend       = 5
	minPointsOscillating = 6
	minPointsStable      = 4

	trendSlopeThreshold = 0.05
	reversalRatioMin    = 0.4
	stableVolatilityMax = 0.1
)

// DetectPatterns runs every pattern detector over the ordered pulse point
// series. Fewer than three points yields no patterns.
func DetectPatterns(points []model.PulsePoint) []model.PulsePattern {
	if len(points) < minPointsForPatterns {
		return nil
	}

	var patterns []model.PulsePattern
	if p := detectRising(points); p != nil {
		patterns = append(patterns, *p)
	}
	if p := detectFalling(points); p != nil {
		patterns = append(patterns, *p)
	}
	if p := detectOscillating(points); p != nil {
		patterns = append(patterns, *p)
	}
	if p := detectStable(points); p != nil {
		patterns = append(patterns, *p)
	}
	return patterns
}

func intensities(points []model.PulsePoint) []float64 {
	vals := make([]float64, len(points))
	for i, p := range points {
		vals[i] = p.Intensity
	}
	return vals
}

// slope is the ordinary least-squares slope of values against their indices.
// The second return is false when the fit is degenerate (fewer than two
// values; index variance is otherwise always positive).
func slope(values []float64) (float64, bool) {
	n := len(values)
	if n < 2 {
		return 0, false
	}

	xMean := float64(n-1) / 2
	var yMean float64
	for _, v := range values {
		yMean += v
	}
	yMean /= float64(n)

	var numerator, denominator float64
	for i, v := range values {
		dx := float64(i) - xMean
		numerator += dx * (v - yMean)
		denominator += dx * dx
	}
	if denominator == 0 {
		return 0, false
	}
	return numerator / denominator, true
}

// Volatility is the population standard deviation of an intensity series
// (divide by n, not n−1).
func Volatility(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

func newPattern(points []model.PulsePoint, name, description string, typ model.PatternType, confidence float64) *model.PulsePattern {
	vals := intensities(points)
	var avg float64
	for _, v := range vals {
		avg += v
	}
	avg /= float64(len(vals))

	start := points[0].Timestamp
	end := points[len(points)-1].Timestamp
	return &model.PulsePattern{
		Name:         name,
		Description:  description,
		Type:         typ,
		Confidence:   confidence,
		StartTime:    &start,
		EndTime:      &end,
		AvgIntensity: avg,
		Volatility:   Volatility(vals),
	}
}

func detectRising(points []model.PulsePoint) *model.PulsePattern {
	if len(points) < minPointsTrend {
		return nil
	}
	s, ok := slope(intensities(points))
	if !ok || s <= trendSlopeThreshold {
		return nil
	}
	confidence := math.Min(s*10, 1.0)
	return newPattern(points,
		"Rising Trend",
		"Conversation intensity climbs over time, suggesting growing engagement and interest",
		model.PatternRising, confidence)
}

func detectFalling(points []model.PulsePoint) *model.PulsePattern {
	if len(points) < minPointsTrend {
		return nil
	}
	s, ok := slope(intensities(points))
	if !ok || s >= -trendSlopeThreshold {
		return nil
	}
	confidence := math.Min(math.Abs(s)*10, 1.0)
	return newPattern(points,
		"Falling Trend",
		"Conversation intensity declines over time, possibly indicating fatigue or waning interest",
		model.PatternFalling, confidence)
}

// detectOscillating counts local direction reversals: index i reverses when
// the intensity direction flips relative to i−1 and i−2.
func detectOscillating(points []model.PulsePoint) *model.PulsePattern {
	if len(points) < minPointsOscillating {
		return nil
	}
	vals := intensities(points)

	reversals := 0
	for i := 2; i < len(vals); i++ {
		up := vals[i] > vals[i-1] && vals[i-1] <= vals[i-2]
		down := vals[i] < vals[i-1] && vals[i-1] >= vals[i-2]
		if up || down {
			reversals++
		}
	}

	ratio := float64(reversals) / float64(len(vals)-2)
	if ratio <= reversalRatioMin {
		return nil
	}
	confidence := math.Min(ratio*2, 1.0)
	return newPattern(points,
		"Oscillation",
		"Conversation intensity swings frequently, possibly reflecting topic changes or mood shifts",
		model.PatternOscillating, confidence)
}

func detectStable(points []model.PulsePoint) *model.PulsePattern {
	if len(points) < minPointsStable {
		return nil
	}
	vol := Volatility(intensities(points))
	if vol >= stableVolatilityMax {
		return nil
	}
	confidence := 1.0 - math.Min(vol*5, 1.0)
	return newPattern(points,
		"Steady Rhythm",
		"Conversation intensity holds steady, suggesting a smooth, well-paced exchange",
		model.PatternStable, confidence)
}
