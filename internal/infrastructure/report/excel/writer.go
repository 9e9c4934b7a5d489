package excel

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/kmoroz/askcorpus/internal/core/domain"
	"github.com/kmoroz/askcorpus/internal/core/usecase"
)

// Writer renders an evaluation report as an xlsx workbook with three
// sheets: per-config aggregates, ablation deltas against the first
// config, and per-item rows.
type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Write(report *domain.EvaluationReport, path string) error {
	if report == nil {
		return fmt.Errorf("nil report")
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}

	metricNames := collectMetricNames(report)

	if err := writeSummary(f, report, metricNames); err != nil {
		return err
	}
	if err := writeAblation(f, report, metricNames); err != nil {
		return err
	}
	if err := writeItems(f, report, metricNames); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, report *domain.EvaluationReport, metricNames []string) error {
	header := []any{"run_id", "config_id", "items"}
	for _, name := range metricNames {
		header = append(header, name)
	}
	for _, cat := range failureCategories() {
		header = append(header, string(cat))
	}
	if err := f.SetSheetRow("Summary", "A1", &header); err != nil {
		return fmt.Errorf("summary header: %w", err)
	}

	for i, cfg := range report.Configs {
		counts := usecase.FailureBreakdown(cfg)
		row := []any{report.RunID, cfg.ConfigID, len(cfg.Items)}
		for _, name := range metricNames {
			row = append(row, cfg.Aggregates[name])
		}
		for _, cat := range failureCategories() {
			row = append(row, counts[cat])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("summary cell: %w", err)
		}
		if err := f.SetSheetRow("Summary", cell, &row); err != nil {
			return fmt.Errorf("summary row %s: %w", cfg.ConfigID, err)
		}
	}
	return nil
}

func writeAblation(f *excelize.File, report *domain.EvaluationReport, metricNames []string) error {
	if _, err := f.NewSheet("Ablation"); err != nil {
		return fmt.Errorf("create ablation sheet: %w", err)
	}

	header := []any{"config_id"}
	for _, name := range metricNames {
		header = append(header, name, name+"_delta")
	}
	if err := f.SetSheetRow("Ablation", "A1", &header); err != nil {
		return fmt.Errorf("ablation header: %w", err)
	}

	for i, row := range usecase.AblationDeltas(report) {
		values := []any{row.ConfigID}
		for _, name := range metricNames {
			values = append(values, row.Metrics[name], row.Deltas[name])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("ablation cell: %w", err)
		}
		if err := f.SetSheetRow("Ablation", cell, &values); err != nil {
			return fmt.Errorf("ablation row %s: %w", row.ConfigID, err)
		}
	}
	return nil
}

func writeItems(f *excelize.File, report *domain.EvaluationReport, metricNames []string) error {
	if _, err := f.NewSheet("Items"); err != nil {
		return fmt.Errorf("create items sheet: %w", err)
	}

	header := []any{"config_id", "question_id", "outcome", "failure", "latency_ms", "error"}
	for _, name := range metricNames {
		header = append(header, name)
	}
	if err := f.SetSheetRow("Items", "A1", &header); err != nil {
		return fmt.Errorf("items header: %w", err)
	}

	line := 2
	for _, cfg := range report.Configs {
		for _, item := range cfg.Items {
			row := []any{
				cfg.ConfigID,
				item.QuestionID,
				string(item.Outcome),
				string(item.Failure),
				float64(item.Latency.Microseconds()) / 1000.0,
				item.Err,
			}
			for _, name := range metricNames {
				row = append(row, item.Metrics[name])
			}
			cell, err := excelize.CoordinatesToCellName(1, line)
			if err != nil {
				return fmt.Errorf("items cell: %w", err)
			}
			if err := f.SetSheetRow("Items", cell, &row); err != nil {
				return fmt.Errorf("items row %s/%s: %w", cfg.ConfigID, item.QuestionID, err)
			}
			line++
		}
	}
	return nil
}

func collectMetricNames(report *domain.EvaluationReport) []string {
	seen := make(map[string]struct{})
	for _, cfg := range report.Configs {
		for name := range cfg.Aggregates {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func failureCategories() []domain.FailureCategory {
	return []domain.FailureCategory{
		domain.FailureNone,
		domain.FailureNoGoldURL,
		domain.FailureLowRank,
		domain.FailureGenerationMismatch,
	}
}
