package sarima

import (
	"fmt"
	"math"
	"time"
)

// Prediction holds point estimates and a two-column (lower, upper)
// confidence interval aligned index-for-index with Mean.
type Prediction struct {
	Index   []time.Time
	Mean    []float64
	ConfInt [][2]float64
}

// Predict returns predictions for every month from start to end inclusive.
// Months inside the sample get one-step-ahead predictions; months after the
// last observation are forecast recursively with future shocks set to zero.
func (m *Model) Predict(start, end time.Time) (*Prediction, error) {
	si, err := m.index(start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	ei, err := m.index(end)
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}
	if ei < si {
		return nil, fmt.Errorf("%w: %s < %s", ErrEndBeforeStart, end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	count := ei - si + 1
	p := &Prediction{
		Index:   make([]time.Time, 0, count),
		Mean:    make([]float64, 0, count),
		ConfInt: make([][2]float64, 0, count),
	}

	n := len(m.obs)
	se := math.Sqrt(m.sigma2)

	for i := si; i <= ei && i < n; i++ {
		mean := m.inSample(i)
		p.add(m.dateAt(i), mean, m.z*se)
	}

	if ei >= n {
		forecasts := m.integrate(m.forecastDiff(ei - n + 1))
		from := max(si, n)
		for i := from; i <= ei; i++ {
			h := i - n
			p.add(m.dateAt(i), forecasts[h], m.z*se*m.growth(h))
		}
	}

	return p, nil
}

func (p *Prediction) add(t time.Time, mean, halfWidth float64) {
	p.Index = append(p.Index, t)
	p.Mean = append(p.Mean, mean)
	p.ConfInt = append(p.ConfInt, [2]float64{mean - halfWidth, mean + halfWidth})
}

// index converts a date to its position on the model's monthly axis.
func (m *Model) index(t time.Time) (int, error) {
	t = t.UTC()
	if t.Day() != 1 || t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotOnIndex, t.Format(time.RFC3339))
	}
	i := (t.Year()-m.start.Year())*12 + int(t.Month()) - int(m.start.Month())
	if i < 0 {
		return 0, fmt.Errorf("%w: %s < %s", ErrBeforeStart, t.Format("2006-01-02"), m.start.Format("2006-01-02"))
	}
	if i > maxIndex {
		return 0, fmt.Errorf("%w: %s", ErrRangeTooLong, t.Format("2006-01-02"))
	}
	return i, nil
}

func (m *Model) dateAt(i int) time.Time {
	return m.start.AddDate(0, i, 0)
}

// inSample is the one-step-ahead prediction for observation i. Observations
// consumed by differencing have no residual and predict themselves.
func (m *Model) inSample(i int) float64 {
	burn := m.order.burnIn()
	if i < burn {
		return m.obs[i]
	}
	return m.obs[i] - m.resid[i-burn]
}

// forecastDiff extends the differenced series by steps values.
func (m *Model) forecastDiff(steps int) []float64 {
	w := m.seasonal[len(m.seasonal)-1]
	n := len(w)
	c := m.intercept
	period := m.order.M

	extW := make([]float64, n+steps)
	copy(extW, w)
	extE := make([]float64, n+steps)
	copy(extE, m.resid)

	for t := n; t < n+steps; t++ {
		pred := c

		for i := 0; i < len(m.ar) && t-i-1 >= 0; i++ {
			pred += m.ar[i] * (extW[t-i-1] - c)
		}
		for i := range m.sar {
			if lag := (i + 1) * period; t-lag >= 0 {
				pred += m.sar[i] * (extW[t-lag] - c)
			}
		}
		for i := 0; i < len(m.ma) && t-i-1 >= 0; i++ {
			pred += m.ma[i] * extE[t-i-1]
		}
		for i := range m.sma {
			if lag := (i + 1) * period; t-lag >= 0 {
				pred += m.sma[i] * extE[t-lag]
			}
		}

		extW[t] = pred
	}

	return extW[n:]
}

// integrate undoes seasonal differencing, then non-seasonal differencing.
func (m *Model) integrate(f []float64) []float64 {
	out := f
	for k := m.order.SD; k >= 1; k-- {
		out = undiff(m.seasonal[k-1], out, m.order.M)
	}
	for k := m.order.D; k >= 1; k-- {
		out = undiff(m.levels[k-1], out, 1)
	}
	return out
}

func undiff(history, f []float64, lag int) []float64 {
	n := len(history)
	ext := make([]float64, n+len(f))
	copy(ext, history)
	for j, v := range f {
		ext[n+j] = v + ext[n+j-lag]
	}
	return ext[n:]
}

// growth widens the interval with the horizon for integrated series.
func (m *Model) growth(h int) float64 {
	g := 1.0
	if m.order.D > 0 {
		g *= math.Sqrt(float64(h + 1))
	}
	if m.order.SD > 0 && m.order.M > 0 {
		g *= math.Sqrt(float64(h/m.order.M + 1))
	}
	return g
}
