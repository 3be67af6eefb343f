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

// OptionKind names one of the multiple-choice survey questions.
type OptionKind string

const (
	KindEnfoques        OptionKind = "enfoques"
	KindEtapas          OptionKind = "etapas"
	KindNecesidades     OptionKind = "necesidades"
	KindProblematicas   OptionKind = "problematicas"
	KindOtrasCategorias OptionKind = "otras-categorias"
)

// Severity buckets an option by its share of all mentions.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// SeverityOf buckets a share of mentions given in percent.
func SeverityOf(percentage float64) Severity {
	switch {
	case percentage >= 15:
		return SeverityCritical
	case percentage >= 8:
		return SeverityHigh
	case percentage >= 3:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func (s Severity) marker() string {
	switch s {
	case SeverityCritical:
		return "🔴"
	case SeverityHigh:
		return "🟠"
	case SeverityMedium:
		return "🟡"
	default:
		return "⚪"
	}
}

type optionQuestion struct {
	title   string
	noun    string
	exact   []string
	partial func(folded string) bool
}

const populationHint = "\r\n(Según su apreciación, indique cual es el tipo de población que es su mayoría se atiende en el comedor)"

var optionQuestions = map[OptionKind]optionQuestion{
	KindEnfoques: {
		title: "📊 Análisis de Enfoques Diferenciales/Étnicos",
		noun:  "enfoques",
		exact: []string{
			"ENFOQUES DIFERENCIALES/ETNICOS",
			"ENFOQUES DIFERENCIALES/ÉTNICOS",
			"ENFOQUES DIFERENCIALES/ETNICOS" + populationHint,
			"ENFOQUES DIFERENCIALES/ÉTNICOS" + populationHint,
		},
		partial: func(col string) bool {
			return strings.Contains(col, "enfoque") &&
				(strings.Contains(col, "diferencial") || strings.Contains(col, "etnico"))
		},
	},
	KindEtapas: {
		title: "🔄 Análisis de Etapa Vital",
		noun:  "etapas",
		exact: []string{"ETAPA VITAL", "ETAPA VITAL " + populationHint, "ETAPAS VITALES", "EDAD", "EDADES"},
		partial: func(col string) bool {
			return (strings.Contains(col, "etapa") && strings.Contains(col, "vital")) ||
				strings.Contains(col, "edad")
		},
	},
	KindNecesidades: {
		title:   "🎯 Análisis de Necesidades Identificadas",
		noun:    "necesidades",
		exact:   []string{dataset.ColNecesidades, "NECESIDAD", "REQUERIMIENTOS", "DEMANDAS"},
		partial: dataset.ContainsAll("necesidad"),
	},
	KindProblematicas: {
		title:   "⚠️ Análisis de Problemáticas Identificadas",
		noun:    "problemáticas",
		exact:   []string{dataset.ColProblematicas, "PROBLEMATICAS", "PROBLEMAS", "DIFICULTADES", "OBSTÁCULOS"},
		partial: dataset.ContainsAll("problem"),
	},
	KindOtrasCategorias: {
		title:   "📋 Análisis de Otras Categorías",
		noun:    "categorías",
		exact:   []string{"OTRAS CATEGORÍAS", "OTRAS CATEGORIAS"},
		partial: dataset.ContainsAll("otras", "categoria"),
	},
}

// OptionKinds lists the supported questions in display order.
func OptionKinds() []OptionKind {
	return []OptionKind{KindEnfoques, KindEtapas, KindNecesidades, KindProblematicas, KindOtrasCategorias}
}

// ParseOptionKind validates a kind given by a caller.
func ParseOptionKind(s string) (OptionKind, error) {
	k := OptionKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := optionQuestions[k]; !ok {
		return "", fmt.Errorf("option kind %q: %w", s, domain.ErrInvalidValue)
	}
	return k, nil
}

// Title is the heading shown above the analysis of k.
func (k OptionKind) Title() string {
	return optionQuestions[k].title
}

// Column resolves the dataset column holding the answers to k.
func (k OptionKind) Column(ds *dataset.Dataset) (string, bool) {
	q, ok := optionQuestions[k]
	if !ok {
		return "", false
	}
	if col, ok := ds.FindColumn(q.exact); ok {
		return col, true
	}
	return ds.FindColumnFunc(q.partial)
}

// OptionShare is one answer option with its share of all mentions.
type OptionShare struct {
	Count
	Percentage float64  `json:"percentage"`
	Severity   Severity `json:"severity"`
}

// MultiOptionResult summarises a multiple-choice question.
type MultiOptionResult struct {
	Kind             OptionKind       `json:"kind"`
	Column           string           `json:"column"`
	TotalKitchens    int              `json:"total_kitchens"`
	KitchensAnswered int              `json:"kitchens_answered"`
	TotalMentions    int              `json:"total_mentions"`
	UniqueOptions    int              `json:"unique_options"`
	MeanPerKitchen   float64          `json:"mean_per_kitchen"`
	Options          []OptionShare    `json:"options"`
	Severities       map[Severity]int `json:"severities"`
	Narrative        string           `json:"narrative"`
}

// Counts returns the option counts, most mentioned first.
func (r *MultiOptionResult) Counts() Counts {
	out := make(Counts, len(r.Options))
	for i, o := range r.Options {
		out[i] = o.Count
	}
	return out
}

const narrativeTop = 8

// MultiOption analyses the comma separated answers of a multiple-choice
// question.
func MultiOption(ds *dataset.Dataset, kind OptionKind) (*MultiOptionResult, error) {
	q, ok := optionQuestions[kind]
	if !ok {
		return nil, fmt.Errorf("option kind %q: %w", kind, domain.ErrInvalidValue)
	}
	if ds.Empty() {
		return nil, domain.ErrNoData
	}
	col, ok := kind.Column(ds)
	if !ok {
		name := string(kind)
		if len(q.exact) > 0 {
			name = q.exact[0]
		}
		return nil, &ColumnNotFoundError{Column: name}
	}

	values, _ := ds.Column(col)
	answered := nonNull(values)
	if len(answered) == 0 {
		return nil, fmt.Errorf("column %q: %w", col, domain.ErrNoData)
	}
	options := ParseMultipleOptions(answered)
	if len(options) == 0 {
		return nil, fmt.Errorf("column %q has no options: %w", col, domain.ErrNoData)
	}

	counts := ValueCounts(options)
	res := &MultiOptionResult{
		Kind:             kind,
		Column:           col,
		TotalKitchens:    ds.Len(),
		KitchensAnswered: len(answered),
		TotalMentions:    len(options),
		UniqueOptions:    len(counts),
		MeanPerKitchen:   float64(len(options)) / float64(len(answered)),
		Options:          make([]OptionShare, len(counts)),
		Severities: map[Severity]int{
			SeverityCritical: 0, SeverityHigh: 0, SeverityMedium: 0, SeverityLow: 0,
		},
	}
	for i, c := range counts {
		p := percent(c.Count, len(options))
		s := SeverityOf(p)
		res.Options[i] = OptionShare{Count: c, Percentage: p, Severity: s}
		res.Severities[s]++
	}
	res.Narrative = multiOptionNarrative(q, res)
	return res, nil
}

func multiOptionNarrative(q optionQuestion, r *MultiOptionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", q.title)
	b.WriteString("**Resumen:**\n")
	fmt.Fprintf(&b, "- **Total comedores:** %s\n", thousands(r.TotalKitchens))
	fmt.Fprintf(&b, "- **Con %s definidas:** %s (%s)\n", q.noun, thousands(r.KitchensAnswered),
		pct(percent(r.KitchensAnswered, r.TotalKitchens)))
	fmt.Fprintf(&b, "- **Total menciones:** %s\n", thousands(r.TotalMentions))
	fmt.Fprintf(&b, "- **Opciones únicas:** %d\n", r.UniqueOptions)
	fmt.Fprintf(&b, "- **Promedio por comedor:** %.1f\n\n", r.MeanPerKitchen)

	b.WriteString("**Clasificación por Severidad:**\n")
	fmt.Fprintf(&b, "- **🔴 Críticas (≥15%%):** %d\n", r.Severities[SeverityCritical])
	fmt.Fprintf(&b, "- **🟠 Altas (8-15%%):** %d\n", r.Severities[SeverityHigh])
	fmt.Fprintf(&b, "- **🟡 Medias (3-8%%):** %d\n", r.Severities[SeverityMedium])
	fmt.Fprintf(&b, "- **⚪ Bajas (<3%%):** %d\n\n", r.Severities[SeverityLow])

	fmt.Fprintf(&b, "**Top %d más frecuentes:**\n", narrativeTop)
	for i, o := range r.Options {
		if i == narrativeTop {
			break
		}
		fmt.Fprintf(&b, "\n- %s **%s:** %s (%s)", o.Severity.marker(), o.Category, thousands(o.Count.Count), pct(o.Percentage))
	}
	b.WriteString("\n")
	return b.String()
}
