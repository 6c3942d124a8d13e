// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jeranaias/docchat-tui/internal/locale"
)

// errUnhealthy is returned when the service is down or has no document.
var errUnhealthy = errors.New("service is not ready")

func newHealthCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the chat service",
		Long:  "Calls GET /health on the service. Exits non-zero unless the service is up and its document is loaded.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(root, wireOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RequestTimeout())
			defer cancel()
			status, err := a.client.Health(ctx)

			out := cmd.OutOrStdout()
			if asJSON {
				record := map[string]any{"base_url": a.client.BaseURL(), "reachable": err == nil}
				if err != nil {
					record["error"] = err.Error()
				} else {
					record["status"] = status.Status
					record["timestamp"] = status.Timestamp
					record["pdf_loaded"] = status.PDFLoaded
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(record); encErr != nil {
					return encErr
				}
			} else {
				fmt.Fprintln(out, styles.label.Render("Service")+a.client.BaseURL())
				switch {
				case err != nil:
					fmt.Fprintln(out, styles.fail.Render("[X] "+a.texts.Text(locale.HealthDown)))
					fmt.Fprintln(out, styles.label.Render("Error")+err.Error())
				case status.Healthy():
					fmt.Fprintln(out, styles.ok.Render("[OK] "+a.texts.Text(locale.HealthOK)))
				default:
					fmt.Fprintln(out, styles.warn.Render("[!] "+a.texts.Text(locale.HealthNoDocument)))
				}
				if err == nil {
					fmt.Fprintln(out, styles.label.Render("Status")+status.Status)
					if status.Timestamp != "" {
						fmt.Fprintln(out, styles.label.Render("Timestamp")+status.Timestamp)
					}
					fmt.Fprintln(out, styles.label.Render("Document")+strconv.FormatBool(status.PDFLoaded))
				}
			}

			if err != nil {
				return fmt.Errorf("health check: %w", err)
			}
			if !status.Healthy() {
				return errUnhealthy
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
