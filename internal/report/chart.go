package report

import (
	"errors"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"epigrid/internal/sim"
)

// ErrTooFewDays is returned when a trajectory is too short to plot.
var ErrTooFewDays = errors.New("report: need at least two days to plot")

type curve struct {
	name  string
	color drawing.Color
	value func(sim.Record) int
}

var curves = []curve{
	{"Susceptible", chart.ColorBlue, func(r sim.Record) int { return r.Susceptible }},
	{"Infected", chart.ColorRed, func(r sim.Record) int { return r.Infected }},
	{"Recovered", chart.ColorGreen, func(r sim.Record) int { return r.Recovered }},
	{"Dead", chart.ColorBlack, func(r sim.Record) int { return r.Dead }},
	{"Vaccinated (Any)", chart.ColorOrange, func(r sim.Record) int { return r.VaccinatedAny }},
	{"Vaccine Effective", chart.ColorYellow, func(r sim.Record) int { return r.VaccineEffective }},
	{"Asymptomatic", chart.ColorCyan, func(r sim.Record) int { return r.AsymptomaticInfected }},
}

// RenderChart draws every per-day count as a PNG line chart.
func RenderChart(w io.Writer, title string, records []sim.Record) error {
	if len(records) < 2 {
		return ErrTooFewDays
	}
	days := make([]float64, len(records))
	for i, r := range records {
		days[i] = float64(r.Day)
	}

	series := make([]chart.Series, 0, len(curves))
	for _, c := range curves {
		ys := make([]float64, len(records))
		for i, r := range records {
			ys[i] = float64(c.value(r))
		}
		series = append(series, chart.ContinuousSeries{
			Name:    c.name,
			XValues: days,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: c.color,
				StrokeWidth: 2,
			},
		})
	}

	graph := chart.Chart{
		Title:  title,
		Width:  1200,
		Height: 600,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis:  chart.XAxis{Name: "Day"},
		YAxis:  chart.YAxis{Name: "People"},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}
	return graph.Render(chart.PNG, w)
}
