package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/tax-copilot/internal/core/model"
	"github.com/agenthands/tax-copilot/internal/logging"
)

// NewReportID returns an identifier like rpt_20250115_143052_04217.
func NewReportID(now time.Time) string {
	u := uuid.New()
	suffix := binary.BigEndian.Uint32(u[:4]) % 100000
	return fmt.Sprintf("rpt_%s_%05d", now.Format("20060102_150405"), suffix)
}

// ReportSummary is one row in a report listing: enough to pick a report
// without loading the whole thing.
type ReportSummary struct {
	ReportID         string      `json:"report_id"`
	UserID           string      `json:"user_id"`
	TaxYear          int         `json:"tax_year"`
	GeneratedAt      time.Time   `json:"generated_at"`
	TotalTax         model.Money `json:"total_tax"`
	PotentialSavings model.Money `json:"potential_savings"`
	Strategies       int         `json:"strategies"`
	MissedDeductions int         `json:"missed_deductions"`
}

// ReportStore persists advisory reports under <base>/reports, one JSON
// file per report named after its ID.
type ReportStore struct {
	dir string
	log logging.Logger
}

func NewReportStore(baseDir string, log logging.Logger) (*ReportStore, error) {
	if log == nil {
		log = logging.NewNop()
	}
	dir := filepath.Join(baseDir, "reports")
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	return &ReportStore{dir: dir, log: log}, nil
}

func (s *ReportStore) Save(report *model.AdvisoryReport) error {
	if err := writeJSON(s.Path(report.ReportID), report); err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.ReportID, err)
	}
	return nil
}

// Path returns where the report with the given ID lives on disk.
func (s *ReportStore) Path(reportID string) string {
	return filepath.Join(s.dir, reportID+".json")
}

func (s *ReportStore) Load(reportID string) (*model.AdvisoryReport, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, reportID+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrReportNotFound, reportID)
		}
		return nil, fmt.Errorf("failed to read report %s: %w", reportID, err)
	}

	var report model.AdvisoryReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("corrupted report file %s: %w", reportID, err)
	}
	return &report, nil
}

// List returns summaries sorted by GeneratedAt, newest first. An empty
// userID means no filter. Unreadable files are skipped with a warning.
func (s *ReportStore) List(userID string) ([]ReportSummary, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "rpt_*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	summaries := make([]ReportSummary, 0, len(matches))
	for _, path := range matches {
		id := strings.TrimSuffix(filepath.Base(path), ".json")
		report, err := s.Load(id)
		if err != nil {
			s.log.Warn("skipping unreadable report file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			continue
		}
		if userID != "" && report.UserID != userID {
			continue
		}
		summaries = append(summaries, ReportSummary{
			ReportID:         report.ReportID,
			UserID:           report.UserID,
			TaxYear:          report.TaxYear,
			GeneratedAt:      report.GeneratedAt,
			TotalTax:         report.TaxCalculation.TotalTax,
			PotentialSavings: report.PotentialSavings(),
			Strategies:       len(report.OptimizationReport.Strategies),
			MissedDeductions: len(report.DeductionFinderReport.MissedDeductions),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].GeneratedAt.After(summaries[j].GeneratedAt)
	})
	return summaries, nil
}
