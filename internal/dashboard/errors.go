/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package dashboard

import "errors"

var (
	ErrNotInitialized = errors.New("dashboard storage not initialized")
	ErrInvalidURL     = errors.New("invalid dashboard url")
	ErrMissingField   = errors.New("missing required field")
	ErrDuplicateTitle = errors.New("dashboard title already exists")
)
