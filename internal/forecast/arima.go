package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ridge keeps the normal equations solvable for flat or perfectly linear
// histories.
const ridge = 1e-8

// arModel is an ARIMA(p,1,0) without constant: an AR(p) on first
// differences, fitted by conditional least squares.
type arModel struct {
	phi   []float64
	y     []float64
	diffs []float64
}

func fitARIMA(y []float64, p int) (*arModel, error) {
	if len(y) < p+2 {
		return nil, fmt.Errorf("need at least %d observations, have %d", p+2, len(y))
	}
	diffs := make([]float64, len(y)-1)
	for i := range diffs {
		diffs[i] = y[i+1] - y[i]
	}

	rows := len(diffs) - p
	x := mat.NewDense(rows, p, nil)
	target := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		t := r + p
		for k := 1; k <= p; k++ {
			x.Set(r, k-1, diffs[t-k])
		}
		target.SetVec(r, diffs[t])
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for i := 0; i < p; i++ {
		xtx.Set(i, i, xtx.At(i, i)+ridge)
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), target)

	var sol mat.VecDense
	if err := sol.SolveVec(&xtx, &xty); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("solve normal equations: %w", err)
		}
	}
	phi := make([]float64, p)
	for i := range phi {
		phi[i] = sol.AtVec(i)
		if math.IsNaN(phi[i]) || math.IsInf(phi[i], 0) {
			return nil, errors.New("non-finite AR coefficient")
		}
	}
	return &arModel{phi: phi, y: y, diffs: diffs}, nil
}

// fitted returns one-step-ahead in-sample predictions; the first value is
// the observation itself and lags before the start count as zero.
func (m *arModel) fitted() []float64 {
	out := make([]float64, len(m.y))
	out[0] = m.y[0]
	for t := 1; t < len(m.y); t++ {
		d := 0.0
		for k := 1; k <= len(m.phi); k++ {
			if j := t - 1 - k; j >= 0 {
				d += m.phi[k-1] * m.diffs[j]
			}
		}
		out[t] = m.y[t-1] + d
	}
	return out
}

// forecast projects h steps past the end of the training values.
func (m *arModel) forecast(h int) []float64 {
	hist := append([]float64(nil), m.diffs...)
	level := m.y[len(m.y)-1]
	out := make([]float64, h)
	for s := 0; s < h; s++ {
		d := 0.0
		for k := 1; k <= len(m.phi); k++ {
			if j := len(hist) - k; j >= 0 {
				d += m.phi[k-1] * hist[j]
			}
		}
		hist = append(hist, d)
		level += d
		out[s] = level
	}
	return out
}
