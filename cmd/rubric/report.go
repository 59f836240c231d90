package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ahrav/go-rubric/infrastructure/export"
	"github.com/ahrav/go-rubric/infrastructure/middleware"
	"github.com/ahrav/go-rubric/infrastructure/schema"
	"github.com/ahrav/go-rubric/internal/application"
	"github.com/ahrav/go-rubric/internal/domain"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		format     string
		out        string
		indent     bool
		noColor    bool
		metricsOut string
	)

	cmd := &cobra.Command{
		Use:   "report <session-file>...",
		Short: "Assemble session reports from session record files",
		Long: `Report loads one or more session records (JSON or YAML), validates every
analyst output they carry and renders one report per session. Sessions
are processed concurrently up to batch.concurrency.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := export.NewRenderer(format, export.Options{
				Indent: indent,
				Color:  out == "" && !noColor && !color.NoColor,
			})
			if err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			metrics := middleware.NewPrometheusMetrics(registry)
			v, err := schema.NewValidator(a.config.Validator)
			if err != nil {
				return err
			}
			loader := application.NewSessionLoader(v, a.logger, metrics)

			sessions := make([]domain.Session, 0, len(args))
			for _, path := range args {
				session, err := loader.LoadFile(path)
				if err != nil {
					return err
				}
				sessions = append(sessions, session)
			}

			service, err := application.NewReportService(a.config,
				application.WithLogger(a.logger),
				application.WithMetrics(metrics),
			)
			if err != nil {
				return err
			}
			results, err := service.GenerateBatch(cmd.Context(), sessions)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			var failed int
			for i, res := range results {
				if res.Err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", args[i], res.Err)
					continue
				}
				if err := renderer.Render(&buf, res.Report); err != nil {
					return fmt.Errorf("%s: %w", args[i], err)
				}
			}

			if out == "" {
				if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
					return err
				}
			} else if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			if metricsOut != "" {
				if err := writeMetrics(metricsOut, registry); err != nil {
					return err
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d sessions failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: json or text")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write output to a file instead of stdout")
	cmd.Flags().BoolVar(&indent, "indent", false, "pretty-print JSON output")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable coloured text output")
	cmd.Flags().StringVar(&metricsOut, "metrics-out", "", "write run metrics in Prometheus text format to a file")
	return cmd
}

func writeMetrics(path string, g prometheus.Gatherer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	if err := middleware.WriteText(f, g); err != nil {
		_ = f.Close()
		return fmt.Errorf("write metrics: %w", err)
	}
	return f.Close()
}
