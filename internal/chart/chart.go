/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package chart renders the dashboard charts as standalone HTML pages.
package chart

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kentakayama/comedores-dashboard/internal/analysis"
	"github.com/kentakayama/comedores-dashboard/internal/domain"
)

const (
	DefaultMaxCategories = 15
	othersLabel          = "Otros"
	width                = "1000px"
	barRowHeight         = 35
	minBarHeight         = 400
)

func initOpts(pageTitle string, height int) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		PageTitle: pageTitle,
		Width:     width,
		Height:    strconv.Itoa(height) + "px",
	})
}

// Pie renders counts as a pie chart. Beyond maxCategories the least frequent
// categories are grouped under "Otros".
func Pie(w io.Writer, title string, counts analysis.Counts, maxCategories int) error {
	if len(counts) == 0 {
		return domain.ErrNoData
	}
	if maxCategories < 2 {
		maxCategories = DefaultMaxCategories
	}
	if len(counts) > maxCategories {
		counts = counts.Fold(maxCategories-1, othersLabel)
	}

	data := make([]opts.PieData, len(counts))
	for i, c := range counts {
		data[i] = opts.PieData{Name: c.Category, Value: c.Count}
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		initOpts(title, 600),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("Total: %d", counts.Total())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Orient: "vertical", Left: "right", Type: "scroll"}),
	)
	pie.AddSeries(title, data).SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}),
		charts.WithPieChartOpts(opts.PieChart{Radius: []string{"40%", "70%"}}),
	)
	return pie.Render(w)
}

// Bars renders counts as horizontal bars, the most frequent on top.
func Bars(w io.Writer, title string, counts analysis.Counts) error {
	if len(counts) == 0 {
		return domain.ErrNoData
	}
	// the category axis is drawn bottom up
	categories := make([]string, len(counts))
	data := make([]opts.BarData, len(counts))
	for i, c := range counts {
		j := len(counts) - 1 - i
		categories[j] = c.Category
		data[j] = opts.BarData{Value: c.Count}
	}

	height := len(counts) * barRowHeight
	if height < minBarHeight {
		height = minBarHeight
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts(title, height),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frecuencia"}),
	)
	bar.SetXAxis(categories).
		AddSeries("Frecuencia", data).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "right"}))
	bar.XYReversal()
	return bar.Render(w)
}

// Trend renders kitchens linked per year as a line chart.
func Trend(w io.Writer, title string, years []analysis.YearCount) error {
	if len(years) == 0 {
		return domain.ErrNoData
	}
	xs := make([]string, len(years))
	data := make([]opts.LineData, len(years))
	for i, y := range years {
		xs[i] = strconv.Itoa(y.Year)
		data[i] = opts.LineData{Value: y.Count}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		initOpts(title, 500),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Año"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Comedores"}),
	)
	line.SetXAxis(xs).
		AddSeries("Comedores vinculados", data).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}),
		)
	return line.Render(w)
}

// Heatmap renders a crosstab, rows on the vertical axis.
func Heatmap(w io.Writer, title string, xt *analysis.CrosstabResult) error {
	if xt == nil || len(xt.Rows) == 0 || len(xt.Cols) == 0 {
		return domain.ErrNoData
	}
	var data []opts.HeatMapData
	for i, row := range xt.Cells {
		for j, n := range row {
			data = append(data, opts.HeatMapData{Value: [3]interface{}{j, i, n}})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		initOpts(title, 600),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: xt.Var1 + " × " + xt.Var2}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: xt.Cols, SplitArea: &opts.SplitArea{Show: opts.Bool(true)}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: xt.Rows, SplitArea: &opts.SplitArea{Show: opts.Bool(true)}}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(xt.Association.MaxCount),
			InRange:    &opts.VisualMapInRange{Color: []string{"#E3F2FD", "#1565C0"}},
		}),
	)
	hm.AddSeries("Casos", data).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}))
	return hm.Render(w)
}
