package main

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/tax-copilot/internal/config"
	"github.com/agenthands/tax-copilot/internal/core/model"
	"github.com/agenthands/tax-copilot/internal/logging"
	"github.com/agenthands/tax-copilot/internal/storage"
)

func setupCmdEnv(t *testing.T) {
	t.Helper()
	cfg = config.Default()
	cfg.Storage.Dir = t.TempDir()
	logger = logging.NewNop()
}

func TestIsExitCommand(t *testing.T) {
	for _, input := range []string{"exit", "quit", "bye", "EXIT", "Quit", "BYE"} {
		assert.True(t, isExitCommand(input), "expected %q to end the interview", input)
	}
	for _, input := range []string{"done", "exit now", "", "goodbye"} {
		assert.False(t, isExitCommand(input), "expected %q to be treated as an answer", input)
	}
}

func TestListSessionsEmptyMentionsFilters(t *testing.T) {
	setupCmdEnv(t)
	precheckUser = "ghost"
	precheckYear = 2031

	output := captureOutput(t, func() {
		require.NoError(t, listSessions())
	})

	assert.Contains(t, output, "No sessions found for user 'ghost' for year 2031.")
}

func TestListSessionsShowsSavedSessions(t *testing.T) {
	setupCmdEnv(t)
	precheckUser = ""
	precheckYear = 0

	store, err := storage.NewSessionStore(cfg.Storage.Dir, logger)
	require.NoError(t, err)
	session, err := store.Create("alice", 2024, nil)
	require.NoError(t, err)

	output := captureOutput(t, func() {
		require.NoError(t, listSessions())
	})

	assert.Contains(t, output, "=== Active Sessions ===")
	assert.Contains(t, output, "Session ID: "+session.SessionID)
	assert.Contains(t, output, "User: alice")
	assert.Contains(t, output, "Tax Year: 2024")
	assert.Contains(t, output, "Messages: 0")
}

func TestListReportsEmpty(t *testing.T) {
	setupCmdEnv(t)
	reportsUser = ""

	store, err := storage.NewReportStore(cfg.Storage.Dir, logger)
	require.NoError(t, err)

	output := captureOutput(t, func() {
		require.NoError(t, listReports(store))
	})

	assert.Contains(t, output, "No reports found.")
}

func TestPrintProfileSummary(t *testing.T) {
	profile := &model.TaxProfile{
		UserID:       "alice",
		TaxYear:      2024,
		FilingStatus: model.FilingMarriedFilingJointly,
		State:        "CA",
		Income: model.Income{
			TotalIncome:     model.FromDollars(95000),
			W2Count:         2,
			IRAContribution: model.FromDollars(5000),
		},
		Deductions: model.Deductions{
			StudentLoanInterest: model.FromDollars(1200),
			Itemized:            false,
		},
		Dependents: model.Dependents{
			Count:                  1,
			Ages:                   []int{7},
			ClaimingChildTaxCredit: true,
		},
		CollectedVia:     model.CollectedViaQuestioning,
		SessionID:        "sess_20240115_103000_abc123",
		ConfidenceScores: map[string]float64{"income.total_income": 0.9, "state": 0.6},
		CreatedAt:        time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		UpdatedAt:        time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC),
	}

	output := captureOutput(t, func() {
		printProfileSummary(profile)
	})

	assert.Contains(t, output, "=== Tax Profile: alice_2024 ===")
	assert.Contains(t, output, "Filing Status: married_filing_jointly")
	assert.Contains(t, output, "State: CA")
	assert.Contains(t, output, "Total Income: $95,000.00")
	assert.Contains(t, output, "W-2 Forms: 2")
	assert.Contains(t, output, "IRA Contribution: $5,000.00")
	assert.Contains(t, output, "Student Loan Interest: $1,200.00")
	assert.Contains(t, output, "Itemized: false")
	assert.NotContains(t, output, "Itemized Total")
	assert.Contains(t, output, "Ages: 7")
	assert.Contains(t, output, "Claiming Child Tax Credit: true")
	assert.Contains(t, output, "Collected via: dynamic_questioning")
	assert.Contains(t, output, "Session ID: sess_20240115_103000_abc123")
	assert.Contains(t, output, "income.total_income: 0.90")
	assert.Contains(t, output, "state: 0.60")
}

func TestReviewCommandPrintsDeprecationBanner(t *testing.T) {
	output := captureOutput(t, func() {
		require.NoError(t, reviewCmd.RunE(&cobra.Command{}, nil))
	})

	assert.Contains(t, output, "DEPRECATED: This rule-based review command is no longer supported.")
	assert.Contains(t, output, "tax-copilot precheck --user <user_id> --year <tax_year>")
	assert.Contains(t, output, "tax-copilot profile --user <user_id> --year <tax_year>")
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	origErr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, rOut)
		_, _ = io.Copy(&buf, rErr)
		done <- buf.String()
	}()

	fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = origOut
	os.Stderr = origErr
	return <-done
}
