package forecast

import (
	"fmt"
	"time"

	"github.com/lox/tempcast/internal/models"
	"github.com/lox/tempcast/internal/sarima"
)

// Predictor is the one operation the adapter needs from a fitted model.
type Predictor interface {
	Predict(start, end time.Time) (*sarima.Prediction, error)
}

// RequestError is the single failure outcome of a forecast request. Invalid
// input, date arithmetic and model failures all end up here.
type RequestError struct {
	Cause error
}

func (e *RequestError) Error() string {
	return e.Cause.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

func fail(format string, args ...any) *RequestError {
	return &RequestError{Cause: fmt.Errorf(format, args...)}
}

type Adapter struct {
	model Predictor
}

func NewAdapter(model Predictor) *Adapter {
	return &Adapter{model: model}
}

// MonthRange returns the first and last month covered by req.
// A horizon of one month gives start == end.
func MonthRange(req models.ForecastRequest) (start, end time.Time, err error) {
	if req.StartYear < models.MinStartYear || req.StartYear > models.MaxStartYear {
		return time.Time{}, time.Time{}, fmt.Errorf("start year %d outside %d-%d", req.StartYear, models.MinStartYear, models.MaxStartYear)
	}
	if req.StartMonth < 1 || req.StartMonth > 12 {
		return time.Time{}, time.Time{}, fmt.Errorf("start month %d outside 1-12", req.StartMonth)
	}
	if req.HorizonMonths < 1 {
		return time.Time{}, time.Time{}, fmt.Errorf("months to predict must be at least 1, got %d", req.HorizonMonths)
	}
	if req.HorizonMonths > models.MaxHorizonMonths {
		return time.Time{}, time.Time{}, fmt.Errorf("months to predict %d exceeds the maximum of %d", req.HorizonMonths, models.MaxHorizonMonths)
	}

	start = time.Date(req.StartYear, time.Month(req.StartMonth), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, req.HorizonMonths-1, 0)
	return start, end, nil
}

// Forecast runs req against the model. Every failure, including a panic
// inside the model, is returned as a *RequestError.
func (a *Adapter) Forecast(req models.ForecastRequest) (result models.ForecastResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fail("prediction panicked: %v", r)
		}
	}()

	start, end, err := MonthRange(req)
	if err != nil {
		return nil, &RequestError{Cause: err}
	}

	pred, err := a.model.Predict(start, end)
	if err != nil {
		return nil, &RequestError{Cause: err}
	}

	n := len(pred.Mean)
	if len(pred.ConfInt) != n || len(pred.Index) != n {
		return nil, fail("prediction returned %d values, %d intervals and %d dates", n, len(pred.ConfInt), len(pred.Index))
	}
	if n != req.HorizonMonths {
		return nil, fail("prediction returned %d months, want %d", n, req.HorizonMonths)
	}

	// Zip by position; the interval columns are (lower, upper).
	result = make(models.ForecastResult, n)
	for i := 0; i < n; i++ {
		result[i] = models.ForecastPoint{
			Date:     pred.Index[i],
			Forecast: pred.Mean[i],
			Lower:    pred.ConfInt[i][0],
			Upper:    pred.ConfInt[i][1],
		}
	}
	return result, nil
}
