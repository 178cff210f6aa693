package api

import (
	"net/url"
	"strconv"

	"github.com/lox/tempcast/internal/imagegen"
	"github.com/lox/tempcast/internal/models"
	"github.com/lox/tempcast/internal/sarima"
)

const pageTitle = "Predicción de temperatura en Curitiba"

// PageState is where the single page is in its submit/render cycle.
type PageState int

const (
	AwaitingInput PageState = iota
	ShowingResult
	ShowingError
)

func (p PageState) String() string {
	switch p {
	case ShowingResult:
		return "result"
	case ShowingError:
		return "error"
	default:
		return "awaiting"
	}
}

// FormData holds the form controls exactly as they will be re-rendered.
type FormData struct {
	StartYear  string
	Months     string
	StartMonth string // selector label
}

func defaultForm() FormData {
	req := models.DefaultRequest()
	return FormData{
		StartYear:  strconv.Itoa(req.StartYear),
		Months:     strconv.Itoa(req.HorizonMonths),
		StartMonth: req.MonthLabel(),
	}
}

// formFromValues echoes a submission back into the form. Blank fields fall
// back to the defaults, a numeric start month is shown as its label.
func formFromValues(values url.Values) FormData {
	form := defaultForm()
	if v := values.Get("start_year"); v != "" {
		form.StartYear = v
	}
	if v := values.Get("months"); v != "" {
		form.Months = v
	}
	if v := values.Get("start_month"); v != "" {
		form.StartMonth = v
		if n, err := strconv.Atoi(v); err == nil {
			if label := (models.ForecastRequest{StartMonth: n}).MonthLabel(); label != "" {
				form.StartMonth = label
			}
		}
	}
	return form
}

type IndexData struct {
	Title       string
	State       PageState
	Form        FormData
	MinYear     int
	MaxYear     int
	MonthLabels []string
	Columns     []string
	Result      models.ForecastResult
	Message     string
	ChartURL    string
	ImageURL    string
	Model       sarima.Summary
}

func (d IndexData) ShowResult() bool { return d.State == ShowingResult }

func (d IndexData) ShowError() bool { return d.State == ShowingError }

func (s *Server) newIndexData(form FormData) IndexData {
	return IndexData{
		Title:       pageTitle,
		State:       AwaitingInput,
		Form:        form,
		MinYear:     models.MinStartYear,
		MaxYear:     models.MaxStartYear,
		MonthLabels: models.MonthLabels,
		Columns:     imagegen.Columns,
		Model:       s.model.Summary(),
	}
}

// requestQuery encodes req for the chart and image links.
func requestQuery(req models.ForecastRequest) string {
	return url.Values{
		"start_year":  {strconv.Itoa(req.StartYear)},
		"start_month": {strconv.Itoa(req.StartMonth)},
		"months":      {strconv.Itoa(req.HorizonMonths)},
	}.Encode()
}
