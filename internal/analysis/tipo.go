/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package analysis

import (
	"fmt"
	"strings"

	"github.com/kentakayama/comedores-dashboard/internal/dataset"
	"github.com/kentakayama/comedores-dashboard/internal/domain"
)

// TypeShare is one kitchen type with its share of the valid rows.
type TypeShare struct {
	Count
	Percentage float64 `json:"percentage"`
}

// TipoComedorResult is the distribution of kitchen types.
type TipoComedorResult struct {
	Column    string      `json:"column"`
	Records   int         `json:"records"`
	Valid     int         `json:"valid"`
	Types     []TypeShare `json:"types"`
	Narrative string      `json:"narrative"`
}

// Counts returns the raw type counts.
func (r *TipoComedorResult) Counts() Counts {
	out := make(Counts, len(r.Types))
	for i, t := range r.Types {
		out[i] = t.Count
	}
	return out
}

var tipoColumnNames = []string{dataset.ColTipoComedor, "Tipo de Comedor", "tipo_de_comedor", "TIPO COMEDOR"}

// TipoComedorColumn resolves the kitchen type column.
func TipoComedorColumn(ds *dataset.Dataset) (string, bool) {
	if col, ok := ds.FindColumn(tipoColumnNames); ok {
		return col, true
	}
	return ds.FindColumnFunc(dataset.ContainsAll("tipo", "comedor"))
}

// TipoComedor analyses the distribution of kitchen types.
func TipoComedor(ds *dataset.Dataset) (*TipoComedorResult, error) {
	if ds.Empty() {
		return nil, domain.ErrNoData
	}
	col, ok := TipoComedorColumn(ds)
	if !ok {
		return nil, &ColumnNotFoundError{Column: dataset.ColTipoComedor}
	}
	values, _ := ds.Column(col)
	valid := nonNull(values)
	if len(valid) == 0 {
		return nil, fmt.Errorf("column %q: %w", col, domain.ErrNoData)
	}

	counts := ValueCounts(valid)
	res := &TipoComedorResult{
		Column:  col,
		Records: ds.Len(),
		Valid:   len(valid),
		Types:   make([]TypeShare, len(counts)),
	}
	for i, c := range counts {
		res.Types[i] = TypeShare{Count: c, Percentage: percent(c.Count, len(valid))}
	}
	res.Narrative = tipoNarrative(res)
	return res, nil
}

func tipoNarrative(r *TipoComedorResult) string {
	var b strings.Builder
	b.WriteString("## 📊 Análisis de Tipos de Comedores\n\n")
	b.WriteString("**Resumen General:**\n")
	fmt.Fprintf(&b, "- **Total de comedores registrados:** %s\n", thousands(r.Valid))
	fmt.Fprintf(&b, "- **Tipos identificados:** %d\n", len(r.Types))
	fmt.Fprintf(&b, "- **Registros con datos válidos:** %s de %s (%s)\n\n",
		thousands(r.Valid), thousands(r.Records), pct(percent(r.Valid, r.Records)))

	b.WriteString("**Distribución por tipo:**\n")
	for _, t := range r.Types {
		fmt.Fprintf(&b, "\n- **%s:** %s comedores (%s)", t.Category, thousands(t.Count.Count), pct(t.Percentage))
	}

	b.WriteString("\n\n**Insights clave:**\n")
	fmt.Fprintf(&b, "- El tipo más común es: **%s**\n", r.Types[0].Category)
	fmt.Fprintf(&b, "- Representa el %s del total de comedores", pct(r.Types[0].Percentage))
	if len(r.Types) > 1 {
		fmt.Fprintf(&b, "\n- El segundo tipo más común es: **%s** (%s)", r.Types[1].Category, pct(r.Types[1].Percentage))
	}
	if len(r.Types) > 2 {
		top3 := r.Types[0].Percentage + r.Types[1].Percentage + r.Types[2].Percentage
		fmt.Fprintf(&b, "\n- Los 3 tipos principales representan el %s del total", pct(top3))
	}
	b.WriteString("\n")
	return b.String()
}
