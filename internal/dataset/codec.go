/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package dataset

import (
	"fmt"

	"github.com/kentakayama/comedores-dashboard/internal/util"
)

type snapshotPayload struct {
	Columns []string  `cbor:"1,keyasint"`
	Rows    [][]Value `cbor:"2,keyasint"`
}

// Encode serialises the dataset as CBOR for snapshot storage.
func (d *Dataset) Encode() ([]byte, error) {
	return util.MarshalCBOR(snapshotPayload{
		Columns: d.Columns,
		Rows:    d.Rows,
	})
}

// Decode restores a dataset written by Encode.
func Decode(data []byte) (*Dataset, error) {
	var p snapshotPayload
	if err := util.UnmarshalCBOR(data, &p); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	for i, row := range p.Rows {
		if len(row) != len(p.Columns) {
			return nil, fmt.Errorf("decode dataset: row %d has %d values, want %d", i, len(row), len(p.Columns))
		}
	}
	return New(p.Columns, p.Rows), nil
}
