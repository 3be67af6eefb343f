/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package dataset

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind tells which field of a Value is meaningful.
type Kind uint8

const (
	KindNull Kind = iota
	KindText
	KindNumber
	// KindUnreadable is a numeric cell whose text could not be read as a
	// number. It behaves as Null and keeps the original text.
	KindUnreadable
)

// Value is a single cleaned cell of the survey sheet.
type Value struct {
	_    struct{} `cbor:",toarray"`
	Kind Kind
	Text string
	Num  float64
}

// nullTokens are the textual spellings of a missing answer.
var nullTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"NaN":  {},
	"None": {},
}

func Null() Value {
	return Value{Kind: KindNull}
}

func Text(s string) Value {
	return Value{Kind: KindText, Text: s}
}

func Number(f float64) Value {
	return Value{Kind: KindNumber, Num: f}
}

func Unreadable(s string) Value {
	return Value{Kind: KindUnreadable, Text: s}
}

// ParseCell trims raw and maps the null spellings to Null.
func ParseCell(raw string) Value {
	s := strings.TrimSpace(raw)
	if IsNullToken(s) {
		return Null()
	}
	return Text(s)
}

// IsNullToken reports whether s (already trimmed) spells a missing answer.
func IsNullToken(s string) bool {
	_, ok := nullTokens[s]
	return ok
}

func (v Value) IsNull() bool {
	return v.Kind == KindNull || v.Kind == KindUnreadable
}

func (v Value) IsNumber() bool {
	return v.Kind == KindNumber
}

// String returns the canonical text of v. Integral numbers carry no
// fractional part, so 3.0 renders as "3".
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return ""
	}
}

// AsNumber parses v as a number. Text that does not parse reports false.
func (v Value) AsNumber() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindText:
		return json.Marshal(v.Text)
	case KindNumber:
		return json.Marshal(v.Num)
	default:
		return []byte("null"), nil
	}
}
