// Package forecast predicts the next days of a NAV series with an
// ARIMA(5,1,0) trend corrected by a gradient-boosted residual model.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"NavSentinel/internal/apperr"
	"NavSentinel/internal/metrics"
	"NavSentinel/internal/model"
)

// Options are the engine's hyperparameters.
type Options struct {
	Horizon         int
	MinObservations int
	TrainFraction   float64
	AROrder         int
	Trees           int
	LearningRate    float64
	MaxDepth        int
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{
		Horizon:         14,
		MinObservations: 50,
		TrainFraction:   0.8,
		AROrder:         5,
		Trees:           100,
		LearningRate:    0.1,
		MaxDepth:        3,
	}
}

// Engine runs the forecast pipeline. It holds no per-call state.
type Engine struct {
	opts    Options
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// New creates an Engine. m may be nil.
func New(opts Options, m *metrics.Metrics, log zerolog.Logger) *Engine {
	return &Engine{opts: opts, metrics: m, log: log}
}

// Forecast cleans s, evaluates the combined model on the held-out tail and
// returns predictions for the Horizon days after the last observation.
// A panic inside the numeric code is returned as a *apperr.ForecastError.
func (e *Engine) Forecast(s model.Series) (res *model.ForecastResult, err error) {
	start := time.Now()
	defer func() { e.metrics.ObserveForecast(time.Since(start).Seconds()) }()
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("forecast aborted")
			res, err = nil, &apperr.ForecastError{Stage: "fit", Err: fmt.Errorf("%v", r)}
		}
	}()

	series := clean(s)
	n := len(series.values)
	if n < e.opts.MinObservations {
		return nil, fmt.Errorf("%d observations, need %d: %w", n, e.opts.MinObservations, apperr.ErrInsufficientData)
	}

	train := int(math.Floor(e.opts.TrainFraction * float64(n)))
	trainVals, heldVals := series.values[:train], series.values[train:]

	trend, err := fitARIMA(trainVals, e.opts.AROrder)
	if err != nil {
		return nil, &apperr.ForecastError{Stage: "trend", Err: err}
	}
	fitted := trend.fitted()
	projected := trend.forecast(len(heldVals) + e.opts.Horizon)
	heldTrend, futureTrend := projected[:len(heldVals)], projected[len(heldVals):]

	trainX, trainRows := buildFeatures(trainVals)
	if len(trainRows) == 0 {
		return nil, fmt.Errorf("training span: %w", apperr.ErrFeatureGeneration)
	}
	resid := make([]float64, len(trainRows))
	for i, r := range trainRows {
		resid[i] = trainVals[r] - fitted[r]
	}
	booster := fitGBRT(trainX, resid, gbrtParams{
		trees:        e.opts.Trees,
		learningRate: e.opts.LearningRate,
		maxDepth:     e.opts.MaxDepth,
	})

	metricsOut, err := evaluate(heldVals, heldTrend, booster)
	if err != nil {
		return nil, err
	}

	seed := series.values[max(0, n-featureWindow):]
	values, err := recursiveForecast(seed, futureTrend, booster)
	if err != nil {
		return nil, err
	}

	last := series.last()
	preds := make([]model.Prediction, len(values))
	for i, v := range values {
		preds[i] = model.Prediction{Date: last.AddDays(i + 1), Predicted: v}
	}
	e.log.Debug().Int("observations", n).Int("train", train).
		Float64("rmse_pct", metricsOut.RMSEPercent).Float64("mae_pct", metricsOut.MAEPercent).
		Msg("forecast complete")
	return &model.ForecastResult{Predictions: preds, Metrics: metricsOut}, nil
}

// evaluate scores trend + residual on the held-out rows that have complete
// features. Errors are percentages of the mean held-out actual.
func evaluate(held, heldTrend []float64, booster *gbrt) (model.ForecastMetrics, error) {
	x, rows := buildFeatures(held)
	if len(rows) == 0 {
		return model.ForecastMetrics{}, fmt.Errorf("held-out span of %d: %w", len(held), apperr.ErrFeatureGeneration)
	}
	var se, ae, sum float64
	for i, r := range rows {
		diff := held[r] - (heldTrend[r] + booster.predict(x[i]))
		se += diff * diff
		ae += math.Abs(diff)
		sum += held[r]
	}
	cnt := float64(len(rows))
	mean := math.Abs(sum / cnt)
	if mean == 0 {
		return model.ForecastMetrics{}, &apperr.ForecastError{Stage: "evaluate", Err: errors.New("held-out mean is zero")}
	}
	out := model.ForecastMetrics{
		RMSEPercent: math.Sqrt(se/cnt) / mean * 100,
		MAEPercent:  ae / cnt / mean * 100,
	}
	if !finite(out.RMSEPercent) || !finite(out.MAEPercent) {
		return model.ForecastMetrics{}, &apperr.ForecastError{Stage: "evaluate", Err: errors.New("non-finite error metric")}
	}
	return out, nil
}

// recursiveForecast runs exactly len(trend) one-step predictions, feeding
// each combined value back into the trailing window.
func recursiveForecast(seed, trend []float64, booster *gbrt) ([]float64, error) {
	window := append([]float64(nil), seed...)
	out := make([]float64, 0, len(trend))
	for step := 0; step < len(trend); step++ {
		x, ok := featureRow(window)
		if !ok {
			return nil, fmt.Errorf("step %d has %d trailing values: %w", step+1, len(window), apperr.ErrFeatureGeneration)
		}
		v := trend[step] + booster.predict(x)
		if !finite(v) {
			return nil, &apperr.ForecastError{Stage: "predict", Err: fmt.Errorf("non-finite value at step %d", step+1)}
		}
		out = append(out, v)
		window = append(window[1:], v)
	}
	return out, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
