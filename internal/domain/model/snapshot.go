/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

import "time"

// Snapshot is a successfully loaded dataset kept for when the source is
// unreachable. Payload is the CBOR encoding of the dataset.
type Snapshot struct {
	ID       int64
	Source   string
	RowCount int
	Payload  []byte
	LoadedAt time.Time
}
