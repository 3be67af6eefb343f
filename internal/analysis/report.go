/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kentakayama/comedores-dashboard/internal/dataset"
	"github.com/kentakayama/comedores-dashboard/internal/domain"
)

const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// FullReport gathers every analysis that could run on the dataset. An
// analysis whose column is missing is left nil.
type FullReport struct {
	Summary    *SummaryResult                    `json:"summary"`
	Quality    *QualityReport                    `json:"quality"`
	Metrics    *MetricsResult                    `json:"metrics"`
	Tipo       *TipoComedorResult                `json:"tipo_analysis"`
	Geographic *GeographicResult                 `json:"geographic"`
	Temporal   *TemporalResult                   `json:"temporal"`
	Options    map[OptionKind]*MultiOptionResult `json:"options"`
}

// BuildReport runs all analyses. Only an empty dataset is an error; an
// analysis that lacks its column or its data is skipped.
func BuildReport(ds *dataset.Dataset) (*FullReport, error) {
	if ds.Empty() {
		return nil, domain.ErrNoData
	}
	r := &FullReport{Options: map[OptionKind]*MultiOptionResult{}}
	var err error
	if r.Summary, err = Summary(ds); err != nil {
		return nil, err
	}
	if r.Quality, err = Quality(ds); err != nil {
		return nil, err
	}
	r.Metrics = Metrics(ds)
	if r.Geographic, err = Geographic(ds); err != nil {
		return nil, err
	}
	if r.Tipo, err = TipoComedor(ds); err != nil && !skippable(err) {
		return nil, err
	}
	if r.Temporal, err = Temporal(ds); err != nil && !skippable(err) {
		return nil, err
	}
	for _, k := range OptionKinds() {
		res, err := MultiOption(ds, k)
		if err != nil {
			if skippable(err) {
				continue
			}
			return nil, err
		}
		r.Options[k] = res
	}
	return r, nil
}

// skippable reports whether err only means the analysis does not apply.
func skippable(err error) bool {
	var nf *ColumnNotFoundError
	return errors.As(err, &nf) || errors.Is(err, domain.ErrNoData)
}

// Report renders the full report as markdown or indented JSON.
func Report(ds *dataset.Dataset, format string) (string, error) {
	switch format {
	case FormatMarkdown, FormatJSON:
	default:
		return "", fmt.Errorf("report format %q: %w", format, domain.ErrUnsupportedFormat)
	}
	r, err := BuildReport(ds)
	if err != nil {
		return "", err
	}
	if format == FormatJSON {
		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return r.Markdown(), nil
}

// Markdown renders the executive summary, the kitchen type narrative and
// the leading territory of each level.
func (r *FullReport) Markdown() string {
	var b strings.Builder
	b.WriteString("# Reporte de Análisis de Comedores Comunitarios\n\n")
	b.WriteString("## Resumen Ejecutivo\n\n")
	fmt.Fprintf(&b, "- **Total de comedores:** %s\n", thousands(r.Summary.TotalRecords))
	fmt.Fprintf(&b, "- **Columnas de datos:** %d\n", r.Summary.TotalColumns)
	if r.Tipo != nil {
		fmt.Fprintf(&b, "- **Tipos de comedores:** %d\n", len(r.Tipo.Types))
	}
	if r.Geographic != nil && r.Geographic.Comunas != nil {
		fmt.Fprintf(&b, "- **Comunas cubiertas:** %d\n", r.Geographic.Comunas.Distinct)
	}
	if r.Tipo != nil {
		b.WriteString("\n" + r.Tipo.Narrative + "\n")
	}

	if levels := r.Geographic.Levels(); len(levels) > 0 {
		b.WriteString("\n## Distribución Geográfica\n\n")
		for _, l := range levels {
			if l.Top == "" {
				continue
			}
			fmt.Fprintf(&b, "- **%s:** %s (%d comedores)\n", l.Name, l.Top, l.TopCount)
		}
	}

	if r.Temporal != nil {
		t := r.Temporal
		b.WriteString("\n## Tendencia Temporal\n\n")
		fmt.Fprintf(&b, "- **Periodo:** %d - %d (%d años)\n", t.StartYear, t.EndYear, t.ActivePeriod)
		fmt.Fprintf(&b, "- **Año más activo:** %d (%d comedores)\n", t.BusiestYear, t.BusiestCount)
		fmt.Fprintf(&b, "- **Tendencia:** %s\n", t.Trend)
	}

	b.WriteString("\n## Calidad de Datos\n\n")
	for _, s := range r.Quality.Issues {
		fmt.Fprintf(&b, "- ❌ %s\n", s)
	}
	for _, s := range r.Quality.Warnings {
		fmt.Fprintf(&b, "- ⚠️ %s\n", s)
	}
	for _, s := range r.Quality.Recommendations {
		fmt.Fprintf(&b, "- 💡 %s\n", s)
	}
	return b.String()
}
