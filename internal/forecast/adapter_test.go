package forecast

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/tempcast/internal/models"
	"github.com/lox/tempcast/internal/sarima"
)

type predictorFunc func(start, end time.Time) (*sarima.Prediction, error)

func (f predictorFunc) Predict(start, end time.Time) (*sarima.Prediction, error) {
	return f(start, end)
}

func loadModel(t *testing.T) *sarima.Model {
	t.Helper()
	m, err := sarima.Load(filepath.Join("..", "sarima", "testdata", "modelo_sarima.json"))
	require.NoError(t, err)
	return m
}

func TestMonthRange(t *testing.T) {
	tests := []struct {
		name      string
		req       models.ForecastRequest
		wantStart string
		wantEnd   string
	}{
		{"single month", models.ForecastRequest{StartYear: 2025, StartMonth: 1, HorizonMonths: 1}, "2025-01-01", "2025-01-01"},
		{"three months", models.ForecastRequest{StartYear: 2025, StartMonth: 1, HorizonMonths: 3}, "2025-01-01", "2025-03-01"},
		{"crosses year", models.ForecastRequest{StartYear: 2025, StartMonth: 11, HorizonMonths: 4}, "2025-11-01", "2026-02-01"},
		{"full year", models.ForecastRequest{StartYear: 2025, StartMonth: 1, HorizonMonths: 12}, "2025-01-01", "2025-12-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := MonthRange(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start.Format("2006-01-02"))
			assert.Equal(t, tt.wantEnd, end.Format("2006-01-02"))
		})
	}
}

func TestMonthRangeRejectsOutOfBounds(t *testing.T) {
	for _, req := range []models.ForecastRequest{
		{StartYear: 1899, StartMonth: 1, HorizonMonths: 1},
		{StartYear: 2101, StartMonth: 1, HorizonMonths: 1},
		{StartYear: 2025, StartMonth: 0, HorizonMonths: 1},
		{StartYear: 2025, StartMonth: 13, HorizonMonths: 1},
		{StartYear: 2025, StartMonth: 1, HorizonMonths: 0},
		{StartYear: 2025, StartMonth: 1, HorizonMonths: models.MaxHorizonMonths + 1},
	} {
		_, _, err := MonthRange(req)
		assert.Error(t, err, "%+v", req)
	}
}

func TestForecastRejectsHugeHorizon(t *testing.T) {
	a := NewAdapter(loadModel(t))

	_, err := a.Forecast(models.ForecastRequest{StartYear: 2025, StartMonth: 1, HorizonMonths: math.MaxInt})
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Contains(t, err.Error(), "exceeds the maximum of 100000")
	assert.NotContains(t, err.Error(), "before the first observation")
}

func TestForecastThreeMonthsFromJanuary(t *testing.T) {
	a := NewAdapter(loadModel(t))

	result, err := a.Forecast(models.ForecastRequest{StartYear: 2025, StartMonth: 1, HorizonMonths: 3})
	require.NoError(t, err)
	require.Len(t, result, 3)

	want := []string{"2025-01-01", "2025-02-01", "2025-03-01"}
	for i, p := range result {
		assert.Equal(t, want[i], p.Date.Format("2006-01-02"))
		assert.Less(t, p.Lower, p.Forecast)
		assert.Greater(t, p.Upper, p.Forecast)
	}
}

func TestForecastLengthMatchesHorizon(t *testing.T) {
	a := NewAdapter(loadModel(t))

	for _, horizon := range []int{1, 2, 12, 13, 36, 120} {
		for _, startMonth := range []int{1, 6, 12} {
			req := models.ForecastRequest{StartYear: 2025, StartMonth: startMonth, HorizonMonths: horizon}
			result, err := a.Forecast(req)
			require.NoError(t, err)
			require.Len(t, result, horizon)

			first := time.Date(2025, time.Month(startMonth), 1, 0, 0, 0, 0, time.UTC)
			assert.Equal(t, first, result[0].Date)
			for i := 1; i < len(result); i++ {
				assert.Equal(t, result[i-1].Date.AddDate(0, 1, 0), result[i].Date)
			}
		}
	}
}

func TestForecastDeterministic(t *testing.T) {
	a := NewAdapter(loadModel(t))
	req := models.DefaultRequest()

	first, err := a.Forecast(req)
	require.NoError(t, err)
	second, err := a.Forecast(req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestForecastModelErrorIsRequestError(t *testing.T) {
	boom := errors.New("index out of range for model")
	a := NewAdapter(predictorFunc(func(start, end time.Time) (*sarima.Prediction, error) {
		return nil, boom
	}))

	_, err := a.Forecast(models.DefaultRequest())
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "index out of range for model")
}

func TestForecastBeforeModelStart(t *testing.T) {
	a := NewAdapter(loadModel(t))

	_, err := a.Forecast(models.ForecastRequest{StartYear: 1900, StartMonth: 1, HorizonMonths: 3})
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.ErrorIs(t, err, sarima.ErrBeforeStart)
}

func TestForecastInvalidInputIsRequestError(t *testing.T) {
	a := NewAdapter(loadModel(t))

	_, err := a.Forecast(models.ForecastRequest{StartYear: 2025, StartMonth: 1, HorizonMonths: 0})
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
}

func TestForecastRecoversPanic(t *testing.T) {
	a := NewAdapter(predictorFunc(func(start, end time.Time) (*sarima.Prediction, error) {
		panic("singular matrix")
	}))

	result, err := a.Forecast(models.DefaultRequest())
	assert.Nil(t, result)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Contains(t, err.Error(), "singular matrix")
}

func TestForecastRejectsMisalignedPrediction(t *testing.T) {
	a := NewAdapter(predictorFunc(func(start, end time.Time) (*sarima.Prediction, error) {
		return &sarima.Prediction{
			Index:   []time.Time{start},
			Mean:    []float64{1, 2},
			ConfInt: [][2]float64{{0, 2}},
		}, nil
	}))

	_, err := a.Forecast(models.ForecastRequest{StartYear: 2025, StartMonth: 1, HorizonMonths: 2})
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
}
