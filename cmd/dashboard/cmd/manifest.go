/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kentakayama/comedores-dashboard/internal/manifest"
	"github.com/kentakayama/comedores-dashboard/resources"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Inspect the dependency manifest",
}

var manifestCheckCmd = &cobra.Command{
	Use:   "check [FILE]",
	Short: "Validate a requirements file",
	Long: `Parse a requirements file and report unsatisfiable or conflicting
constraints. Without FILE the manifest bundled with the dashboard is checked.

Exits non-zero when an error is found; duplicates are only reported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runManifestCheck,
}

func init() {
	rootCmd.AddCommand(manifestCmd)
	manifestCmd.AddCommand(manifestCheckCmd)
}

func runManifestCheck(cmd *cobra.Command, args []string) error {
	var (
		m    *manifest.Manifest
		err  error
		name = "requirements.txt (bundled)"
	)
	if len(args) == 1 {
		name = args[0]
		m, err = manifest.ParseFile(name)
	} else {
		m, err = manifest.Parse(bytes.NewReader(resources.RequirementsTxt))
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	issues := manifest.Validate(m)
	failed := 0
	for _, issue := range issues {
		if issue.IsError() {
			failed++
			fmt.Fprintln(out, errStyle.Render("✗ " + issue.String()))
		} else {
			fmt.Fprintln(out, warnStyle.Render("! " + issue.String()))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%s: %d unsatisfiable requirement(s)", name, failed)
	}
	fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("✓ %s: %d active requirement(s) in %d categories", name, len(m.Active()), len(m.Categories))))
	return nil
}
