package util

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"venue-radar/models/venue"
)

// RenderBatchChart renders an HTML bar chart of the batch: the distance of
// each venue and, on a second series, its rating. Venues are shown in batch
// order; missing values are plotted as zero.
func RenderBatchChart(w io.Writer, batch venue.Batch) error {
	names := make([]string, 0, batch.Len())
	distances := make([]opts.BarData, 0, batch.Len())
	ratings := make([]opts.BarData, 0, batch.Len())

	for _, v := range batch.Venues {
		names = append(names, v.Name)

		distance, _ := v.Distance()
		distances = append(distances, opts.BarData{Name: v.Name, Value: distance})

		rating := 0.0
		if v.Rating != nil {
			rating = *v.Rating
		}
		ratings = append(ratings, opts.BarData{Name: v.RatingStatus.String(), Value: rating})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Nearby venues",
			Width:     "900px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Nearby venues",
			Subtitle: fmt.Sprintf("batch %s at %s", batch.ID, batch.Location.String()),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	bar.SetXAxis(names).
		AddSeries("Distance (m)", distances).
		AddSeries("Rating", ratings)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render batch chart: %w", err)
	}
	return nil
}
