package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gregtusar/pairs/pkg/models"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			Padding(0, 1)
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(18)
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	boxStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// Document is the machine-readable run summary.
type Document struct {
	ID              string    `json:"id,omitempty" yaml:"id,omitempty"`
	SymbolA         string    `json:"symbol_a" yaml:"symbol_a"`
	SymbolB         string    `json:"symbol_b" yaml:"symbol_b"`
	Observations    int       `json:"observations" yaml:"observations"`
	Window          int       `json:"window" yaml:"window"`
	EntryThreshold  float64   `json:"entry_threshold" yaml:"entry_threshold"`
	ExitThreshold   float64   `json:"exit_threshold" yaml:"exit_threshold"`
	HedgeRatio      float64   `json:"hedge_ratio" yaml:"hedge_ratio"`
	Intercept       float64   `json:"intercept" yaml:"intercept"`
	ADFStatistic    *float64  `json:"adf_statistic" yaml:"adf_statistic"`
	PValue          *float64  `json:"p_value" yaml:"p_value"`
	UsedLag         int       `json:"used_lag" yaml:"used_lag"`
	Verdict         string    `json:"verdict" yaml:"verdict"`
	Message         string    `json:"message" yaml:"message"`
	TotalProfit     float64   `json:"total_profit" yaml:"total_profit"`
	SharpeRatio     *float64  `json:"sharpe_ratio" yaml:"sharpe_ratio"`
	DegenerateSteps int       `json:"degenerate_steps" yaml:"degenerate_steps"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
}

func NewDocument(id string, r *models.RunResult) Document {
	return Document{
		ID:              id,
		SymbolA:         r.SymbolA,
		SymbolB:         r.SymbolB,
		Observations:    len(r.Series),
		Window:          r.Params.Window,
		EntryThreshold:  r.Params.EntryThreshold,
		ExitThreshold:   r.Params.ExitThreshold,
		HedgeRatio:      r.HedgeRatio,
		Intercept:       r.Intercept,
		ADFStatistic:    finite(r.Stationarity.Statistic),
		PValue:          finite(r.Stationarity.PValue),
		UsedLag:         r.Stationarity.UsedLag,
		Verdict:         string(r.Stationarity.Verdict),
		Message:         r.Stationarity.Verdict.Message(),
		TotalProfit:     r.Summary.TotalProfit,
		SharpeRatio:     sharpe(r.Summary),
		DegenerateSteps: r.DegenerateSteps,
		CreatedAt:       r.CreatedAt,
	}
}

// WriteSummary writes the run summary to w in the given format.
func WriteSummary(w io.Writer, r *models.RunResult, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewDocument("", r))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument("", r)); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(w, RenderSummary(r))
		return err
	}
}

// RenderSummary renders a terminal box with the hedge ratio, test result,
// risk message, total profit and Sharpe ratio.
func RenderSummary(r *models.RunResult) string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
	}

	verdictStyle := okStyle
	if r.Stationarity.Verdict != models.VerdictCointegrated {
		verdictStyle = warnStyle
	}

	rows := []string{
		titleStyle.Render(fmt.Sprintf("%s / %s", r.SymbolA, r.SymbolB)),
		row("Observations", fmt.Sprintf("%d", len(r.Series))),
		row("Hedge ratio", fmt.Sprintf("%.6f", r.HedgeRatio)),
		row("ADF statistic", formatFloat(r.Stationarity.Statistic, "%.4f")),
		row("ADF p-value", formatFloat(r.Stationarity.PValue, "%.6f")),
		verdictStyle.Render(r.Stationarity.Verdict.Message()),
		row("Total profit", fmt.Sprintf("%.4f", r.Summary.TotalProfit)),
		row("Sharpe ratio", formatSharpe(r.Summary)),
	}
	if r.DegenerateSteps > 0 {
		rows = append(rows, row("Degenerate steps", fmt.Sprintf("%d", r.DegenerateSteps)))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSharpe(s models.BacktestSummary) string {
	if !s.SharpeDefined {
		return "undefined"
	}
	return formatFloat(s.SharpeRatio, "%.4f")
}

func formatFloat(v float64, layout string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf(layout, v)
}

func sharpe(s models.BacktestSummary) *float64 {
	if !s.SharpeDefined {
		return nil
	}
	return finite(s.SharpeRatio)
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
