// Package sarima decodes a fitted seasonal ARIMA model artifact and produces
// predictions with confidence intervals over a monthly time index.
//
// The model is read-only once loaded. A SARIMA(p,d,q)(P,D,Q)[m] artifact
// carries the estimated coefficients, the innovation variance, the observed
// series and the one-step residuals on the differenced series; that is
// everything needed to reproduce in-sample predictions and to extend the
// series recursively into the future.
package sarima

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"time"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrModelNotFound  = errors.New("model artifact not found")
	ErrInvalidModel   = errors.New("invalid model artifact")
	ErrNotOnIndex     = errors.New("date is not on the model's monthly index")
	ErrBeforeStart    = errors.New("date is before the first observation")
	ErrEndBeforeStart = errors.New("end date is before start date")
	ErrRangeTooLong   = errors.New("prediction range too long")
)

const (
	defaultConfidence = 0.95

	// maxIndex bounds how far past the model start a prediction may reach.
	maxIndex = 100_000
)

// Order is the SARIMA order (p, d, q) x (P, D, Q, m).
type Order struct {
	P  int `json:"p"`
	D  int `json:"d"`
	Q  int `json:"q"`
	SP int `json:"sp"`
	SD int `json:"sd"`
	SQ int `json:"sq"`
	M  int `json:"m"`
}

func (o Order) String() string {
	return fmt.Sprintf("SARIMA(%d,%d,%d)(%d,%d,%d)[%d]", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
}

// burnIn is the number of leading observations consumed by differencing.
func (o Order) burnIn() int {
	return o.D + o.SD*o.M
}

// Artifact is the on-disk representation of a fitted model.
type Artifact struct {
	Name         string    `json:"name"`
	Order        Order     `json:"order"`
	AR           []float64 `json:"ar"`
	MA           []float64 `json:"ma"`
	SAR          []float64 `json:"sar"`
	SMA          []float64 `json:"sma"`
	Intercept    float64   `json:"intercept"`
	Sigma2       float64   `json:"sigma2"`
	Confidence   float64   `json:"confidence,omitempty"`
	Start        string    `json:"start"`
	Observations []float64 `json:"observations"`
	Residuals    []float64 `json:"residuals"`
}

// Model is a fitted SARIMA model. Safe for concurrent use.
type Model struct {
	name       string
	order      Order
	ar, ma     []float64
	sar, sma   []float64
	intercept  float64
	sigma2     float64
	confidence float64
	z          float64
	start      time.Time
	obs        []float64
	resid      []float64

	// levels[k] is the series after k non-seasonal differences; seasonal[k]
	// is levels[d] after k seasonal differences. seasonal[D] is the series
	// the ARMA recursion runs on.
	levels   [][]float64
	seasonal [][]float64
}

// Load reads and decodes the artifact at path.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes an artifact from JSON.
func Parse(data []byte) (*Model, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidModel, err)
	}
	return FromArtifact(a)
}

// FromArtifact validates a and builds the model.
func FromArtifact(a Artifact) (*Model, error) {
	o := a.Order
	if o.P < 0 || o.D < 0 || o.Q < 0 || o.SP < 0 || o.SD < 0 || o.SQ < 0 || o.M < 0 {
		return nil, fmt.Errorf("%w: negative order %s", ErrInvalidModel, o)
	}
	if (o.SP > 0 || o.SD > 0 || o.SQ > 0) && o.M < 1 {
		return nil, fmt.Errorf("%w: seasonal terms need a period", ErrInvalidModel)
	}
	if len(a.AR) != o.P || len(a.MA) != o.Q || len(a.SAR) != o.SP || len(a.SMA) != o.SQ {
		return nil, fmt.Errorf("%w: coefficient counts do not match %s", ErrInvalidModel, o)
	}
	if !(a.Sigma2 > 0) {
		return nil, fmt.Errorf("%w: sigma2 must be positive, got %v", ErrInvalidModel, a.Sigma2)
	}

	confidence := a.Confidence
	if confidence == 0 {
		confidence = defaultConfidence
	}
	if confidence <= 0 || confidence >= 1 {
		return nil, fmt.Errorf("%w: confidence %v outside (0, 1)", ErrInvalidModel, confidence)
	}

	start, err := time.Parse("2006-01-02", a.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: start: %v", ErrInvalidModel, err)
	}
	if start.Day() != 1 {
		return nil, fmt.Errorf("%w: start %s is not the first of a month", ErrInvalidModel, a.Start)
	}

	n := len(a.Observations)
	if n <= o.burnIn() {
		return nil, fmt.Errorf("%w: %d observations is too few for %s", ErrInvalidModel, n, o)
	}
	if len(a.Residuals) != n-o.burnIn() {
		return nil, fmt.Errorf("%w: have %d residuals, want %d", ErrInvalidModel, len(a.Residuals), n-o.burnIn())
	}

	m := &Model{
		name:       a.Name,
		order:      o,
		ar:         clone(a.AR),
		ma:         clone(a.MA),
		sar:        clone(a.SAR),
		sma:        clone(a.SMA),
		intercept:  a.Intercept,
		sigma2:     a.Sigma2,
		confidence: confidence,
		z:          distuv.UnitNormal.Quantile((1 + confidence) / 2),
		start:      start,
		obs:        clone(a.Observations),
		resid:      clone(a.Residuals),
	}

	cur := m.obs
	m.levels = append(m.levels, cur)
	for i := 0; i < o.D; i++ {
		cur = diff(cur, 1)
		m.levels = append(m.levels, cur)
	}
	m.seasonal = append(m.seasonal, cur)
	for i := 0; i < o.SD; i++ {
		cur = diff(cur, o.M)
		m.seasonal = append(m.seasonal, cur)
	}

	return m, nil
}

func (m *Model) Name() string { return m.name }

func (m *Model) Order() Order { return m.order }

// Start returns the date of the first observation.
func (m *Model) Start() time.Time { return m.start }

func (m *Model) NObs() int { return len(m.obs) }

func (m *Model) Confidence() float64 { return m.confidence }

// End returns the date of the last observation.
func (m *Model) End() time.Time {
	return m.dateAt(len(m.obs) - 1)
}

// Summary describes a loaded model.
type Summary struct {
	Name       string    `json:"name"`
	Order      string    `json:"order"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	NObs       int       `json:"nobs"`
	Sigma2     float64   `json:"sigma2"`
	Confidence float64   `json:"confidence"`
	LogLik     float64   `json:"loglik"`
	AIC        float64   `json:"aic"`
	BIC        float64   `json:"bic"`
}

func (m *Model) Summary() Summary {
	n := float64(len(m.resid))
	k := float64(m.order.P + m.order.Q + m.order.SP + m.order.SQ + 1)

	sse := 0.0
	for _, r := range m.resid {
		sse += r * r
	}
	logLik := -n/2*math.Log(2*math.Pi) - n/2*math.Log(m.sigma2) - sse/(2*m.sigma2)

	return Summary{
		Name:       m.name,
		Order:      m.order.String(),
		Start:      m.start,
		End:        m.End(),
		NObs:       len(m.obs),
		Sigma2:     m.sigma2,
		Confidence: m.confidence,
		LogLik:     logLik,
		AIC:        -2*logLik + 2*k,
		BIC:        -2*logLik + k*math.Log(n),
	}
}

func diff(x []float64, lag int) []float64 {
	if len(x) <= lag {
		return nil
	}
	out := make([]float64, len(x)-lag)
	for i := lag; i < len(x); i++ {
		out[i-lag] = x[i] - x[i-lag]
	}
	return out
}

func clone(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	return out
}
