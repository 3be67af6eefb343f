/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package analysis

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// thousands renders n with comma grouping, e.g. 1,234.
func thousands(n int) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

func pct(f float64) string {
	return message.NewPrinter(language.English).Sprintf("%.1f%%", f)
}
