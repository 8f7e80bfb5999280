package plaintext

import (
	"bytes"
	"regexp"

	kcimodel "github.com/BayLibre/kernelci-backend/pkg/model"
	"github.com/wcharczuk/go-chart"
	"github.com/wcharczuk/go-chart/drawing"
)

var (
	rgbaFix  = regexp.MustCompile(`rgba\((\d+,\d+,\d+),1.0\)`)
	redStyle = chart.Style{
		FillColor:   drawing.ColorRed,
		StrokeColor: drawing.ColorRed,
		StrokeWidth: 0,
	}
	amberStyle = chart.Style{
		FillColor:   drawing.ColorFromHex("ffbf00"), //Amber
		StrokeColor: drawing.ColorFromHex("ffbf00"),
		StrokeWidth: 0,
	}
	greenStyle = chart.Style{
		FillColor:   drawing.ColorFromHex("008000"), //green
		StrokeColor: drawing.ColorFromHex("008000"),
		StrokeWidth: 0,
	}
)

//ResultsChart renders an SVG bar chart of the aggregate pass/fail/skip counts of the report
func ResultsChart(ctx kcimodel.ReportContext) (string, error) {
	_, pass, fail, skip := ctx.Totals()

	max := 1
	for _, count := range []int{pass, fail, skip} {
		if count > max {
			max = count
		}
	}

	graph := chart.BarChart{
		Width:  512,
		Height: 512,
		Title:  "Distribution of Test Results",
		Background: chart.Style{
			Padding: chart.Box{
				Top: 40,
			},
		},
		YAxis: chart.YAxis{
			Name: "Count",
			Range: &chart.ContinuousRange{
				Max: float64(max),
				Min: 0,
			},
		},
		Bars: []chart.Value{
			{Label: kcimodel.StatusPass, Value: float64(pass), Style: greenStyle},
			{Label: kcimodel.StatusFail, Value: float64(fail), Style: redStyle},
			{Label: kcimodel.StatusSkip, Value: float64(skip), Style: amberStyle},
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.SVG, buffer); err != nil {
		return "", err
	}
	return fixSVGColour(buffer.String()), nil
}

func fixSVGColour(svg string) string {
	return rgbaFix.ReplaceAllString(svg, "rgb($1)")
}
