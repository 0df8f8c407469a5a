package output

import (
	"fmt"
	"os"

	"github.com/ChristianF88/splatsort/depthsort"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// PlotKeyHistogram renders an interactive bar chart of depth keys grouped by
// their high byte. Clustered bars mean many primitives share a narrow depth
// band, which is where extra radix passes buy precision.
func PlotKeyHistogram(hist *depthsort.Histogram, title, filename string) error {
	labels := make([]string, depthsort.RadixBuckets)
	barData := make([]opts.BarData, depthsort.RadixBuckets)
	var maxCount uint32
	for i, count := range hist {
		if count > maxCount {
			maxCount = count
		}
		labels[i] = fmt.Sprintf("0x%02X", i)
		barData[i] = opts.BarData{
			Value: count,
			Name:  fmt.Sprintf("keys 0x%02X00-0x%02XFF", i, i),
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       "Depth Key Histogram",
			Width:           "180vh",
			Height:          "100vh",
			Theme:           types.ThemeVintage,
			BackgroundColor: "transparent",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: title,
			Left:  "center",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Trigger: "item",
			Formatter: opts.FuncOpts(`function (params) {
		return params.name + '<br />Primitives: ' + params.value;
	}`),
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show: opts.Bool(true),
			Min:  0,
			Max:  float32(maxCount),
			InRange: &opts.VisualMapInRange{
				Color: []string{"#ffff8f", "#ff0000", "#000000"},
			},
			Orient: "vertical",
			Right:  "5%",
			Top:    "middle",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:        "Key high byte (near to far)",
			Type:        "category",
			SplitNumber: 16,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Primitives",
			Type: "value",
		}),
	)

	bar.SetXAxis(labels).AddSeries("Keys", barData)

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(bar)

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create histogram file %s: %w", filename, err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("rendering histogram: %w", err)
	}
	return nil
}
