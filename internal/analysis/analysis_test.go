/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package analysis

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kentakayama/comedores-dashboard/internal/dataset"
	"github.com/kentakayama/comedores-dashboard/internal/domain"
)

const (
	colAcciones = "¿El comedor realiza otras acciones aparte de la preparación y entrega de raciones?"
	colTemas    = "TEMAS O ACTIVIDADES QUE SE HAN EJECUTADO ANTERIORMENTE"
)

func sampleDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromRows([][]string{
		{
			dataset.ColTipoComedor, dataset.ColNombreComedor, dataset.ColBarrio, dataset.ColComuna,
			dataset.ColNodo, dataset.ColNicho, dataset.ColAnioVinculo, dataset.ColNecesidades,
			dataset.ColProblematicas, colAcciones, colTemas,
		},
		{"Comunitario", "A", "Robledo", "7", "1", "1", "2020", "Alimentos, Menaje", "Inseguridad", "Si", "Huerta; Reciclaje"},
		{"Comunitario", "B", "Robledo", "7", "1", "2", "2021", "Alimentos", "Inseguridad, Lluvias", "SI", "Huerta"},
		{"Solidario", "C", "Belén", "16", "2", "1", "2021", "Alimentos, Infraestructura", "", "No", ""},
		{"Comunitario", "A", "Castilla", "5", "3", "3", "2022", "None", "Lluvias", "no", "Arte, ok"},
		{"Escolar", "D", "Belén", "16", "2", "2", "2022.0", "Menaje", "Inseguridad", "Sí", "Huerta"},
	})
	require.Nil(t, err)
	return ds
}

func emptyDataset() *dataset.Dataset {
	return dataset.New([]string{dataset.ColTipoComedor}, nil)
}

func TestValueCounts_TiesKeepFirstAppearance(t *testing.T) {
	got := ValueCounts([]string{"b", "a", "c", "a", "b", "d"})
	assert.Equal(t, Counts{{"b", 2}, {"a", 2}, {"c", 1}, {"d", 1}}, got)
	assert.Equal(t, 6, got.Total())
	assert.Equal(t, 2, got.Lookup("a"))
	assert.Equal(t, 0, got.Lookup("z"))
}

func TestCounts_Fold(t *testing.T) {
	c := Counts{{"a", 5}, {"b", 3}, {"c", 2}, {"d", 1}}
	assert.Equal(t, Counts{{"a", 5}, {"b", 3}, {"Otros", 3}}, c.Fold(2, "Otros"))
	assert.Equal(t, c, c.Fold(4, "Otros"))

	// an existing entry with the label absorbs the rest
	c = Counts{{"Otros", 2}, {"a", 2}, {"b", 1}, {"c", 1}}
	assert.Equal(t, Counts{{"Otros", 4}, {"a", 2}}, c.Fold(2, "Otros"))
}

func TestParseMultipleOptions(t *testing.T) {
	got := ParseMultipleOptions([]string{"a, b", " nan ", "None", "c,,NONE", ""})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestTipoComedor(t *testing.T) {
	res, err := TipoComedor(sampleDataset(t))
	require.Nil(t, err)

	assert.Equal(t, dataset.ColTipoComedor, res.Column)
	assert.Equal(t, 5, res.Valid)
	assert.Equal(t, Counts{{"Comunitario", 3}, {"Solidario", 1}, {"Escolar", 1}}, res.Counts())
	assert.InDelta(t, 60.0, res.Types[0].Percentage, 1e-9)

	assert.Contains(t, res.Narrative, "El tipo más común es: **Comunitario**")
	assert.Contains(t, res.Narrative, "Representa el 60.0% del total de comedores")
	assert.Contains(t, res.Narrative, "El segundo tipo más común es: **Solidario** (20.0%)")
	assert.Contains(t, res.Narrative, "Los 3 tipos principales representan el 100.0% del total")
}

func TestTipoComedor_Errors(t *testing.T) {
	_, err := TipoComedor(emptyDataset())
	assert.ErrorIs(t, err, domain.ErrNoData)

	_, err = TipoComedor(dataset.New([]string{"BARRIO"}, [][]dataset.Value{{dataset.Text("x")}}))
	var nf *ColumnNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, dataset.ColTipoComedor, nf.Column)
}

func TestTipoComedor_PartialColumnName(t *testing.T) {
	ds := dataset.New([]string{"tipo del comedor comunitario"}, [][]dataset.Value{{dataset.Text("X")}})
	res, err := TipoComedor(ds)
	require.Nil(t, err)
	assert.Equal(t, "tipo del comedor comunitario", res.Column)
}

func TestGeographic(t *testing.T) {
	res, err := Geographic(sampleDataset(t))
	require.Nil(t, err)

	require.NotNil(t, res.Barrios)
	assert.Equal(t, "Robledo", res.Barrios.Top)
	assert.Equal(t, 2, res.Barrios.TopCount)
	assert.Equal(t, 3, res.Barrios.Distinct)

	require.NotNil(t, res.Comunas)
	assert.Equal(t, "7", res.Comunas.Top)
	assert.Len(t, res.Levels(), 4)
}

func TestTemporal(t *testing.T) {
	res, err := Temporal(sampleDataset(t))
	require.Nil(t, err)

	assert.Equal(t, []YearCount{{2020, 1}, {2021, 2}, {2022, 2}}, res.Years)
	assert.Equal(t, 2020, res.StartYear)
	assert.Equal(t, 2022, res.EndYear)
	assert.Equal(t, 3, res.ActivePeriod)
	assert.Equal(t, 2021, res.BusiestYear)
	assert.Equal(t, 2, res.BusiestCount)
	assert.InDelta(t, 5.0/3.0, res.YearlyMean, 1e-9)
	assert.Equal(t, TrendIncreasing, res.Trend)
}

func TestTemporal_Decreasing(t *testing.T) {
	ds, err := dataset.FromRows([][]string{
		{dataset.ColAnioVinculo},
		{"2019"}, {"2019"}, {"2023"},
	})
	require.Nil(t, err)
	res, err := Temporal(ds)
	require.Nil(t, err)
	assert.Equal(t, TrendDecreasing, res.Trend)
	assert.Equal(t, 5, res.ActivePeriod)
}

func TestSeverityOf(t *testing.T) {
	assert.Equal(t, SeverityCritical, SeverityOf(15))
	assert.Equal(t, SeverityHigh, SeverityOf(14.9))
	assert.Equal(t, SeverityHigh, SeverityOf(8))
	assert.Equal(t, SeverityMedium, SeverityOf(3))
	assert.Equal(t, SeverityLow, SeverityOf(2.9))
}

func TestMultiOption_Necesidades(t *testing.T) {
	res, err := MultiOption(sampleDataset(t), KindNecesidades)
	require.Nil(t, err)

	assert.Equal(t, dataset.ColNecesidades, res.Column)
	assert.Equal(t, 5, res.TotalKitchens)
	assert.Equal(t, 4, res.KitchensAnswered)
	assert.Equal(t, 6, res.TotalMentions)
	assert.Equal(t, 3, res.UniqueOptions)
	assert.InDelta(t, 1.5, res.MeanPerKitchen, 1e-9)
	assert.Equal(t, Counts{{"Alimentos", 3}, {"Menaje", 2}, {"Infraestructura", 1}}, res.Counts())
	assert.Equal(t, 3, res.Severities[SeverityCritical])
	assert.Contains(t, res.Narrative, "🔴 **Alimentos:** 3 (50.0%)")
}

func TestMultiOption_Problematicas(t *testing.T) {
	res, err := MultiOption(sampleDataset(t), KindProblematicas)
	require.Nil(t, err)
	assert.Equal(t, Counts{{"Inseguridad", 3}, {"Lluvias", 2}}, res.Counts())
}

func TestMultiOption_Errors(t *testing.T) {
	_, err := MultiOption(sampleDataset(t), KindEnfoques)
	var nf *ColumnNotFoundError
	assert.True(t, errors.As(err, &nf))

	_, err = MultiOption(sampleDataset(t), OptionKind("nope"))
	assert.ErrorIs(t, err, domain.ErrInvalidValue)

	_, err = MultiOption(emptyDataset(), KindNecesidades)
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestOptionKind_ColumnLookup(t *testing.T) {
	ds := dataset.New([]string{
		"ENFOQUES DIFERENCIALES/ÉTNICOS (población)",
		"ETAPA VITAL \r\n(Según su apreciación)",
		"OTRAS CATEGORÍAS\r\n(Máximo 3 opciones)",
	}, nil)

	col, ok := KindEnfoques.Column(ds)
	require.True(t, ok)
	assert.Equal(t, ds.Columns[0], col)

	col, ok = KindEtapas.Column(ds)
	require.True(t, ok)
	assert.Equal(t, ds.Columns[1], col)

	col, ok = KindOtrasCategorias.Column(ds)
	require.True(t, ok)
	assert.Equal(t, ds.Columns[2], col)
}

func TestParseOptionKind(t *testing.T) {
	k, err := ParseOptionKind(" Necesidades ")
	require.Nil(t, err)
	assert.Equal(t, KindNecesidades, k)

	_, err = ParseOptionKind("tipo")
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestSummary(t *testing.T) {
	res, err := Summary(sampleDataset(t))
	require.Nil(t, err)

	assert.Equal(t, 5, res.TotalRecords)
	assert.Equal(t, 11, res.TotalColumns)
	assert.Equal(t, 1, res.MissingValues[dataset.ColNecesidades])
	assert.InDelta(t, 80.0, res.Completeness[dataset.ColNecesidades], 1e-9)
	assert.Equal(t, 3, res.UniqueValues[dataset.ColTipoComedor])
	assert.ElementsMatch(t,
		[]string{dataset.ColComuna, dataset.ColNodo, dataset.ColNicho, dataset.ColAnioVinculo},
		res.NumericColumns)
	assert.Contains(t, res.TextColumns, dataset.ColBarrio)
}

func TestQuality(t *testing.T) {
	q, err := Quality(sampleDataset(t))
	require.Nil(t, err)

	assert.Empty(t, q.Issues)
	assert.Equal(t, []string{"Se encontraron 1 nombres de comedores duplicados"}, q.Warnings)
	assert.Equal(t, []string{RecommendationClean}, q.Recommendations)
}

func TestQuality_MissingAndSparseColumns(t *testing.T) {
	ds, err := dataset.FromRows([][]string{
		{dataset.ColTipoComedor, dataset.ColNombreComedor, dataset.ColBarrio, dataset.ColNicho},
		{"", "A", "", "x"},
		{"", "B", "Robledo", "1"},
		{"T", "C", "Belén", "2"},
	})
	require.Nil(t, err)

	q, err := Quality(ds)
	require.Nil(t, err)
	assert.Contains(t, q.Issues, "Columna crítica 'TIPO DE COMEDOR' tiene 66.7% de datos faltantes")
	assert.Contains(t, q.Issues, "Columna crítica 'COMUNA' no encontrada")
	assert.Contains(t, q.Warnings, "Columna 'BARRIO' tiene 33.3% de datos faltantes")
	assert.Contains(t, q.Warnings, "Columna 'NICHO ': 1 valores no pueden convertirse a número")
	assert.Equal(t, []string{RecommendationIssues, RecommendationClean}, q.Recommendations)
}

func TestQuality_Healthy(t *testing.T) {
	ds, err := dataset.FromRows([][]string{
		{dataset.ColTipoComedor, dataset.ColNombreComedor, dataset.ColBarrio, dataset.ColComuna},
		{"T", "A", "Robledo", "7"},
	})
	require.Nil(t, err)

	q, err := Quality(ds)
	require.Nil(t, err)
	assert.True(t, q.Healthy())
	assert.Equal(t, []string{RecommendationHealthy}, q.Recommendations)
}

func TestQuality_FilteredView(t *testing.T) {
	ds, err := dataset.FromRows([][]string{
		{dataset.ColTipoComedor, dataset.ColNombreComedor, dataset.ColBarrio, dataset.ColComuna},
		{"T", "A", "Robledo", "7"},
		{"T", "B", "Belén", "xx"},
		{"T", "C", "Castilla", "yy"},
	})
	require.Nil(t, err)

	q, err := Quality(ds)
	require.Nil(t, err)
	assert.Contains(t, q.Warnings, "Columna 'COMUNA': 2 valores no pueden convertirse a número")

	// failures in rows left out by the filter are not reported
	q, err = Quality(ds.Filter(dataset.Filters{dataset.ColBarrio: "Robledo"}))
	require.Nil(t, err)
	assert.True(t, q.Healthy(), q.Warnings)
}

func TestDistribution_YesNoNormalisation(t *testing.T) {
	res, err := Distribution(sampleDataset(t), colAcciones, 15)
	require.Nil(t, err)

	assert.Equal(t, 5, res.Total)
	assert.Equal(t, Counts{{"Sí", 3}, {"No", 2}}, res.Counts)
	require.Len(t, res.Table, 2)
	assert.True(t, res.Table[0].Percentage.Equal(decimal.NewFromInt(60)))

	b, err := json.Marshal(res.Table[1])
	require.Nil(t, err)
	assert.JSONEq(t, `{"category":"No","count":2,"percentage":"40"}`, string(b))
}

func TestDistribution_SplitsThemesAndGroupsOthers(t *testing.T) {
	res, err := Distribution(sampleDataset(t), colTemas, 15)
	require.Nil(t, err)
	assert.Equal(t, 6, res.Total)
	assert.Equal(t, 3, res.Counts.Lookup("Huerta"))
	assert.Equal(t, 1, res.Counts.Lookup("Sin respuesta"))
	// "ok" is too short to be a theme
	assert.Equal(t, 0, res.Counts.Lookup("ok"))

	res, err = Distribution(sampleDataset(t), colTemas, 3)
	require.Nil(t, err)
	assert.Equal(t, Counts{{"Huerta", 3}, {"Otros", 2}, {"Reciclaje", 1}}, res.Counts)
}

func TestFrequencyTable_Rounding(t *testing.T) {
	rows := FrequencyTable(Counts{{"a", 1}, {"b", 2}})
	assert.Equal(t, "33.33", rows[0].Percentage.String())
	assert.Equal(t, "66.67", rows[1].Percentage.String())
}

func TestCrossVariables(t *testing.T) {
	ds := sampleDataset(t)
	avail := AvailableVariables(ds)
	require.Len(t, avail, 2)
	assert.Equal(t, "acciones_aparte", avail[0].Key)
	assert.Equal(t, colAcciones, avail[0].Column)
	assert.Equal(t, "temas_ejecutados", avail[1].Key)

	_, err := ResolveVariable(ds, "unknown")
	assert.ErrorIs(t, err, domain.ErrInvalidValue)

	_, err = ResolveVariable(ds, "comercial")
	var nf *ColumnNotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestCrosstab(t *testing.T) {
	res, err := Crosstab(sampleDataset(t), colAcciones, dataset.ColTipoComedor, 8)
	require.Nil(t, err)

	assert.Equal(t, []string{"Sí", "No"}, res.Rows)
	assert.Equal(t, []string{"Comunitario", "Solidario", "Escolar"}, res.Cols)
	assert.Equal(t, 2, res.Cell("Sí", "Comunitario"))
	assert.Equal(t, 1, res.Cell("No", "Solidario"))
	assert.Equal(t, 0, res.Cell("No", "Escolar"))

	a := res.Association
	assert.Equal(t, 5, a.Total)
	assert.Equal(t, 4, a.NonZero)
	assert.Equal(t, "Sí", a.MaxRow)
	assert.Equal(t, "Comunitario", a.MaxCol)
	assert.InDelta(t, 40.0, a.MaxShare, 1e-9)

	require.Len(t, res.Combinations, 4)
	assert.Equal(t, "Sí × Comunitario", res.Combinations[0].Label)
	assert.Equal(t, 40, res.Combinations[0].Percentage)
	assert.Equal(t, 0, res.Remainder)
	assert.Contains(t, res.Insights, "**Combinación más frecuente:** Sí + Comunitario: 2 casos (40.0%)")
}

func TestCrosstab_GroupsOthers(t *testing.T) {
	res, err := Crosstab(sampleDataset(t), colAcciones, dataset.ColTipoComedor, 1)
	require.Nil(t, err)

	assert.Equal(t, []string{"Sí", "Otros"}, res.Rows)
	assert.Equal(t, []string{"Comunitario", "Otros"}, res.Cols)
	assert.Equal(t, 1, res.Association.RowsInOthers)
	assert.Equal(t, 2, res.Association.RowOthers)
	assert.Equal(t, 2, res.Association.ColsInOthers)
	assert.Equal(t, 2, res.Association.ColOthers)
	assert.Contains(t, res.Insights, "Variable 2: 2 categorías en 'Otros' (2 casos)")
}

func TestCrosstab_SourceOthersCategory(t *testing.T) {
	ds, err := dataset.FromRows([][]string{
		{"ORIGEN", "TIPO"},
		{"Otros", "T"},
		{"Otros", "T"},
		{"Otros", "T"},
		{"Propio", "T"},
		{"Propio", "T"},
		{"Donación", "T"},
		{"Mercado", "T"},
	})
	require.Nil(t, err)

	res, err := Crosstab(ds, "ORIGEN", "TIPO", 2)
	require.Nil(t, err)
	assert.Equal(t, []string{"Otros", "Propio"}, res.Rows)
	assert.Equal(t, 4, res.Association.RowDistinct)
	// only Donación and Mercado were folded
	assert.Equal(t, 2, res.Association.RowsInOthers)
	assert.Equal(t, 5, res.Association.RowOthers)
	assert.Zero(t, res.Association.ColsInOthers)
	assert.Contains(t, res.Insights, "Variable 1: 2 categorías en 'Otros' (5 casos)")
}

func TestCrosstab_Errors(t *testing.T) {
	_, err := Crosstab(sampleDataset(t), "missing", dataset.ColBarrio, 8)
	var nf *ColumnNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "missing", nf.Column)

	_, err = Crosstab(emptyDataset(), dataset.ColTipoComedor, dataset.ColTipoComedor, 8)
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestTruncateLabel(t *testing.T) {
	assert.Equal(t, "corto", truncateLabel("corto"))
	assert.Equal(t, "ñandúñandúñandúñandú...", truncateLabel("ñandúñandúñandúñandúñandú"))
}

func TestMetrics(t *testing.T) {
	m := Metrics(sampleDataset(t))
	assert.Equal(t, &MetricsResult{TotalKitchens: 5, Types: 3, Barrios: 3, Comunas: 3}, m)

	assert.Equal(t, &MetricsResult{}, Metrics(emptyDataset()))
}

func TestReport_Markdown(t *testing.T) {
	out, err := Report(sampleDataset(t), FormatMarkdown)
	require.Nil(t, err)

	assert.True(t, strings.HasPrefix(out, "# Reporte de Análisis de Comedores Comunitarios"))
	assert.Contains(t, out, "- **Total de comedores:** 5")
	assert.Contains(t, out, "- **Comunas cubiertas:** 3")
	assert.Contains(t, out, "- **Barrios:** Robledo (2 comedores)")
	assert.Contains(t, out, "- **Tendencia:** creciente")
}

func TestReport_JSON(t *testing.T) {
	out, err := Report(sampleDataset(t), FormatJSON)
	require.Nil(t, err)

	var got map[string]any
	require.Nil(t, json.Unmarshal([]byte(out), &got))
	assert.Contains(t, got, "summary")
	assert.Contains(t, got, "quality")
	options, ok := got["options"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, options, string(KindNecesidades))
	assert.NotContains(t, options, string(KindEnfoques))
}

func TestReport_Errors(t *testing.T) {
	_, err := Report(sampleDataset(t), "html")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = Report(emptyDataset(), FormatMarkdown)
	assert.ErrorIs(t, err, domain.ErrNoData)
}
