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

// CrossVariable is a qualitative survey question offered for distribution and
// crosstab analysis.
type CrossVariable struct {
	Key   string   `json:"key"`
	Label string   `json:"label"`
	Terms []string `json:"-"`
}

// CrossVariables is the catalogue in display order.
var CrossVariables = []CrossVariable{
	{
		Key:   "acciones_aparte",
		Label: "¿El comedor realiza otras acciones aparte de la preparación y entrega de raciones?",
		Terms: []string{"acciones aparte", "otras acciones", "preparación y entrega"},
	},
	{
		Key:   "frecuencia_actividades",
		Label: "¿Con que frecuencia realiza estas actividades y/o procesos?",
		Terms: []string{"frecuencia", "actividades y/o procesos"},
	},
	{
		Key:   "temas_ejecutados",
		Label: "TEMAS O ACTIVIDADES QUE SE HAN EJECUTADO ANTERIORMENTE",
		Terms: []string{"TEMAS O ACTIVIDADES", "ejecutado anteriormente"},
	},
	{
		Key:   "articulacion_institucion",
		Label: "Para el desarrollo de actividades ¿El comedor se ha articulado con alguna institución?",
		Terms: []string{"articulado con alguna institución", "articulación"},
	},
	{
		Key:   "sector_articulacion",
		Label: "De qué sector (Solo se responde, si marcó SI en la anterior pregunta)",
		Terms: []string{"De qué sector", "sector"},
	},
	{
		Key:   "lineas_accion",
		Label: "VII. LINEAS DE ACCIÓN/TIPOLOGIA DEL COMEDOR",
		Terms: []string{"LINEAS DE ACCIÓN", "TIPOLOGIA DEL COMEDOR"},
	},
	{
		Key:   "social_comunitaria",
		Label: "SOCIAL COMUNITARIA",
		Terms: []string{"SOCIAL COMUNITARIA", "Colectivos, JAL"},
	},
	{
		Key:   "comercial",
		Label: "COMERCIAL",
		Terms: []string{"COMERCIAL", "Supermercados, tiendas"},
	},
	{
		Key:   "institucional",
		Label: "INSTITUCIONAL",
		Terms: []string{"INSTITUCIONAL", "Alcaldía, gobernación"},
	},
}

// LookupVariable returns the catalogue entry for key.
func LookupVariable(key string) (CrossVariable, error) {
	for _, v := range CrossVariables {
		if v.Key == key {
			return v, nil
		}
	}
	return CrossVariable{}, fmt.Errorf("variable %q: %w", key, domain.ErrInvalidValue)
}

// Column resolves v against the dataset: an exact header first, then any
// header containing one of the terms, ignoring case and accents.
func (v CrossVariable) Column(ds *dataset.Dataset) (string, bool) {
	return ds.FindColumn(v.Terms, v.Terms...)
}

// ResolvedVariable is a catalogue entry found in a dataset.
type ResolvedVariable struct {
	CrossVariable
	Column string `json:"column"`
}

// AvailableVariables returns the catalogue entries present in ds.
func AvailableVariables(ds *dataset.Dataset) []ResolvedVariable {
	var out []ResolvedVariable
	for _, v := range CrossVariables {
		if col, ok := v.Column(ds); ok {
			out = append(out, ResolvedVariable{CrossVariable: v, Column: col})
		}
	}
	return out
}

// Resolve is Column reporting a ColumnNotFoundError when v is absent.
func (v CrossVariable) Resolve(ds *dataset.Dataset) (string, error) {
	col, ok := v.Column(ds)
	if !ok {
		return "", &ColumnNotFoundError{Column: v.Label}
	}
	return col, nil
}

// ResolveVariable maps a catalogue key to a dataset column.
func ResolveVariable(ds *dataset.Dataset, key string) (string, error) {
	v, err := LookupVariable(key)
	if err != nil {
		return "", err
	}
	return v.Resolve(ds)
}

const noAnswer = "Sin respuesta"

// cleanCategory normalises a categorical answer: nulls become "Sin respuesta"
// and the spellings of yes and no are unified.
func cleanCategory(v dataset.Value) string {
	if v.IsNull() {
		return noAnswer
	}
	s := strings.TrimSpace(v.String())
	if dataset.IsNullToken(s) {
		return noAnswer
	}
	switch s {
	case "Si", "si", "SI":
		return "Sí"
	case "no", "NO":
		return "No"
	}
	return s
}
