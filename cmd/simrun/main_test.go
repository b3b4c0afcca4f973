package main

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/stratasim/internal/domain/models"
	"github.com/dalemusser/stratasim/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// resetFlags puts the package flag variables back to their zero state.
func resetFlags(t *testing.T) {
	t.Helper()
	logger = zap.NewNop()
	backendURL, configPath, csvPath = "", "", ""
	sets = nil
	verbose, asYAML = false, false
	timeout = 5 * time.Second
	t.Cleanup(func() {
		backendURL, configPath, csvPath = "", "", ""
		sets = nil
		verbose, asYAML = false, false
	})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuildParams_FileThenOverrides(t *testing.T) {
	path := writeFile(t, "p.yaml", "N: 5000\ntpe: 0.05\nverbose: true\n")

	p, err := buildParams(path, []string{"N=2500", "seed=7"})
	require.NoError(t, err)
	require.Equal(t, 2500.0, p.N)
	require.Equal(t, 0.05, p.Tpe)
	require.Equal(t, 7.0, p.Seed)
	require.True(t, p.Verbose)
	require.Equal(t, models.DefaultParameters().Max, p.Max)
}

func TestBuildParams_AcceptsWrappedConfig(t *testing.T) {
	path := writeFile(t, "p.yaml", "config:\n  I: 3\n  max: 30\n")

	p, err := buildParams(path, nil)
	require.NoError(t, err)
	require.Equal(t, 3.0, p.I)
	require.Equal(t, 30.0, p.Max)
}

func TestBuildParams_Rejections(t *testing.T) {
	var rejected *models.RejectedEditError

	_, err := buildParams("", []string{"N=-1"})
	require.True(t, errors.As(err, &rejected))
	require.Equal(t, "N", rejected.Field)

	_, err = buildParams("", []string{"N"})
	require.ErrorContains(t, err, "key=value")

	_, err = buildParams("", []string{"beta=0.3"})
	require.True(t, errors.As(err, &rejected))

	path := writeFile(t, "bad.yaml", "N: many\n")
	_, err = buildParams(path, nil)
	require.True(t, errors.As(err, &rejected))

	_, err = buildParams(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.ErrorContains(t, err, "read parameter file")
}

func TestRunSimulation_PrintsSummaryAndWritesCSV(t *testing.T) {
	resetFlags(t)
	fb := testutil.StaticBackend(t, testutil.CurveReply([]float64{0, 5, 12, 8, 3}, "day 0", "day 1"))
	backendURL = fb.URL()
	verbose = true
	csvPath = filepath.Join(t.TempDir(), "curve.csv")

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, runSimulation(cmd, nil))

	text := out.String()
	require.Contains(t, text, "Peak Infections: 12\n")
	require.Contains(t, text, "Day of Peak: 2\n")
	require.Contains(t, text, "Total Infections: 28\n")
	require.Contains(t, text, "Percentage Infected: 0.03%\n")
	require.Contains(t, text, "Logs:\nday 0\nday 1\n")

	configs := fb.Configs()
	require.Len(t, configs, 1)
	require.Equal(t, true, configs[0]["verbose"])

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	require.Equal(t, "day,infections\n0,0\n1,5\n2,12\n3,8\n4,3\n", string(data))
}

func TestRunSimulation_BackendError(t *testing.T) {
	resetFlags(t)
	fb := testutil.StaticBackend(t, testutil.ErrorReply(http.StatusBadRequest, "invalid seed"))
	backendURL = fb.URL()

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	err := runSimulation(cmd, nil)
	require.EqualError(t, err, "Error: invalid seed")
	require.Empty(t, out.String())
}

func TestListParams(t *testing.T) {
	resetFlags(t)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	require.NoError(t, listParams(cmd, nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, len(models.Fields())+1)
	require.True(t, strings.HasPrefix(lines[0], "KEY"))
	require.Contains(t, out.String(), "Population Size")
}

func TestListParams_YAMLRoundTrips(t *testing.T) {
	resetFlags(t)
	asYAML = true

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	require.NoError(t, listParams(cmd, nil))

	path := writeFile(t, "defaults.yaml", out.String())
	p, err := buildParams(path, nil)
	require.NoError(t, err)
	require.Equal(t, models.DefaultParameters(), p)
}
