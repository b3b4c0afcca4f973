// cmd/simrun/run.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dalemusser/stratasim/internal/app/system/export"
	"github.com/dalemusser/stratasim/internal/app/system/simclient"
	"github.com/dalemusser/stratasim/internal/domain/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	params, err := buildParams(configPath, sets)
	if err != nil {
		return err
	}
	if verbose {
		params.Verbose = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := simclient.New(simclient.Config{Endpoint: backendURL, Timeout: timeout}, logger)
	defer client.Close()

	logger.Debug("running simulation",
		zap.String("backend", client.Endpoint()),
		zap.Any("config", params.Config()))

	res, err := client.Run(ctx, params)
	if err != nil {
		var be *simclient.BackendError
		if errors.As(err, &be) {
			logger.Debug("backend rejected run", zap.Int("status", be.Status))
		}
		return errors.New(simclient.UserMessage(err))
	}

	sum := models.Summarize(res.Curve, params.N, params.Max)
	printSummary(cmd.OutOrStdout(), sum, res)

	if csvPath != "" {
		if err := writeCSV(csvPath, res.Curve); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Curve written to %s\n", csvPath)
	}
	return nil
}

// buildParams starts from the defaults, merges the YAML file at path (if
// any) and then applies each key=value override in order.
func buildParams(path string, overrides []string) (models.Parameters, error) {
	params := models.DefaultParameters()

	if path != "" {
		cfg, err := readParamFile(path)
		if err != nil {
			return params, err
		}
		if params, err = models.ApplyConfig(params, cfg); err != nil {
			return params, fmt.Errorf("%s: %w", path, err)
		}
	}

	for _, kv := range overrides {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return params, fmt.Errorf("--set %q: want key=value", kv)
		}
		var err error
		if params, err = models.ApplyEdit(params, strings.TrimSpace(key), raw); err != nil {
			return params, fmt.Errorf("--set %s: %w", kv, err)
		}
	}
	return params, nil
}

// readParamFile decodes a YAML mapping of parameter keys to values. A file
// holding {config: {...}} is accepted too, matching the backend request body.
func readParamFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parameter file: %w", err)
	}
	var cfg map[string]any
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if inner, ok := cfg["config"].(map[string]any); ok && len(cfg) == 1 {
		cfg = inner
	}
	return cfg, nil
}

func printSummary(w io.Writer, sum models.Summary, res simclient.Result) {
	fmt.Fprintf(w, "Peak Infections: %s\n", models.FormatNumber(sum.PeakInfections))
	fmt.Fprintf(w, "Day of Peak: %d\n", sum.DayOfPeak)
	fmt.Fprintf(w, "Total Infections: %s\n", models.FormatNumber(sum.TotalInfections))
	fmt.Fprintf(w, "Percentage Infected: %s%%\n", sum.PercentageInfected)
	fmt.Fprintf(w, "Days simulated: %d (%s)\n", len(res.Curve), res.Duration.Round(time.Millisecond))

	if len(res.VerboseLogs) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Logs:")
		for _, line := range res.VerboseLogs {
			fmt.Fprintln(w, line)
		}
	}
}

func writeCSV(path string, curve []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := export.CurveCSV(f, curve); err != nil {
		f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}
