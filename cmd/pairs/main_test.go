package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePriceFiles writes AAA.csv and BBB.csv where AAA tracks 2*BBB + 5
// plus stationary noise.
func writePriceFiles(t *testing.T, dir string, n int) {
	t.Helper()
	rng := rand.New(rand.NewSource(3))
	fa, err := os.Create(filepath.Join(dir, "AAA.csv"))
	require.NoError(t, err)
	defer fa.Close()
	fb, err := os.Create(filepath.Join(dir, "BBB.csv"))
	require.NoError(t, err)
	defer fb.Close()

	wa, wb := csv.NewWriter(fa), csv.NewWriter(fb)
	require.NoError(t, wa.Write([]string{"Date", "Close", "Adj Close"}))
	require.NoError(t, wb.Write([]string{"Date", "Close"}))

	start := time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)
	b, noise := 50.0, 0.0
	for i := 0; i < n; i++ {
		b += rng.NormFloat64() * 0.5
		noise = 0.3*noise + rng.NormFloat64()*0.5
		day := start.AddDate(0, 0, i).Format(time.DateOnly)
		a := 2*b + 5 + noise
		require.NoError(t, wa.Write([]string{day, "0", fmt.Sprintf("%.6f", a)}))
		require.NoError(t, wb.Write([]string{day, fmt.Sprintf("%.6f", b)}))
	}
	wa.Flush()
	wb.Flush()
	require.NoError(t, wa.Error())
	require.NoError(t, wb.Error())
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestBacktestCommandCSV(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writePriceFiles(t, dir, 200)
	seriesPath := filepath.Join(dir, "series.csv")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{
		"backtest",
		"--provider", "csv",
		"--csv-dir", dir,
		"--ticker-a", "aaa",
		"--ticker-b", "bbb",
		"--start", "2021-01-01",
		"--end", "2022-01-01",
		"--format", "json",
		"--series-out", seriesPath,
		"--log-level", "error",
	})
	require.NoError(t, root.Execute())

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "AAA", doc["symbol_a"])
	assert.InDelta(t, 2.0, doc["hedge_ratio"].(float64), 0.1)
	assert.Equal(t, "cointegrated", doc["verdict"])

	f, err := os.Open(seriesPath)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	// 2021 holds 200 consecutive days from Jan 4, so every row is in range.
	assert.Len(t, records, 201)
}

func TestBacktestCommandRejectsBadFormat(t *testing.T) {
	chdir(t, t.TempDir())
	root := newRootCmd()
	root.SetArgs([]string{"backtest", "--format", "xml"})
	assert.Error(t, root.Execute())
}

func TestTokenCommand(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PAIRS_SERVER_AUTH_SECRET", "s3cret")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"token", "--subject", "ci"})
	require.NoError(t, root.Execute())
	assert.Regexp(t, `^[\w-]+\.[\w-]+\.[\w-]+\n$`, out.String())
}
