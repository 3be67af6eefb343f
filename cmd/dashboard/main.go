/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Command dashboard serves and queries the comedores comunitarios survey.
package main

import "github.com/kentakayama/comedores-dashboard/cmd/dashboard/cmd"

// set by -ldflags at build time
var (
	version = "dev"
	commit  = "none"
)

func main() {
	cmd.Version = version
	cmd.Commit = commit
	cmd.Execute()
}
