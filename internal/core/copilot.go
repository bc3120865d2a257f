// Package core wires the interview and advisory agents to shared storage
// and a single LLM client.
package core

import (
	"context"
	"fmt"

	"github.com/agenthands/tax-copilot/internal/config"
	"github.com/agenthands/tax-copilot/internal/core/advisory"
	"github.com/agenthands/tax-copilot/internal/core/model"
	"github.com/agenthands/tax-copilot/internal/core/precheck"
	"github.com/agenthands/tax-copilot/internal/llm"
	"github.com/agenthands/tax-copilot/internal/logging"
	"github.com/agenthands/tax-copilot/internal/storage"
)

type Copilot struct {
	Config      *config.Config
	LLM         llm.Client
	Sessions    *storage.SessionStore
	Profiles    *storage.ProfileStore
	Reports     *storage.ReportStore
	Interviewer *precheck.QuestioningAgent
	Advisor     *advisory.Advisor

	log logging.Logger
}

// New builds a Copilot from configuration, constructing the LLM client
// through the provider factory.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (*Copilot, error) {
	client, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}
	return NewWithClient(cfg, client, log)
}

// NewWithClient builds a Copilot around an existing LLM client. Tests
// pass a mock here.
func NewWithClient(cfg *config.Config, client llm.Client, log logging.Logger) (*Copilot, error) {
	if log == nil {
		log = logging.NewNop()
	}

	dir, err := storage.Dir(cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}
	sessions, err := storage.NewSessionStore(dir, log)
	if err != nil {
		return nil, err
	}
	profiles, err := storage.NewProfileStore(dir, log)
	if err != nil {
		return nil, err
	}
	reports, err := storage.NewReportStore(dir, log)
	if err != nil {
		return nil, err
	}

	log.Debug("tax copilot initialized", map[string]interface{}{
		"provider": cfg.LLM.Provider,
		"model":    client.ModelName(),
		"dir":      dir,
	})

	return &Copilot{
		Config:      cfg,
		LLM:         client,
		Sessions:    sessions,
		Profiles:    profiles,
		Reports:     reports,
		Interviewer: precheck.NewQuestioningAgent(client, sessions, profiles, log),
		Advisor:     advisory.NewAdvisor(client, log),
		log:         log,
	}, nil
}

// ResolveProfile picks the profile to analyze: an explicit profile ID
// wins, then the exact user+year profile, then the user's most recent.
func (c *Copilot) ResolveProfile(userID, profileID string, taxYear int) (*model.TaxProfile, error) {
	if profileID != "" {
		return c.Profiles.LoadByID(profileID)
	}
	if userID == "" {
		return nil, fmt.Errorf("either a user id or a profile id is required")
	}
	if taxYear > 0 {
		return c.Profiles.Load(userID, taxYear)
	}
	return c.Profiles.Latest(userID)
}

// Analyze runs the advisory pipeline on a profile and saves the report
// when requested, returning the report and the path it was saved to.
func (c *Copilot) Analyze(ctx context.Context, profile *model.TaxProfile, interactive, save bool) (*model.AdvisoryReport, string, error) {
	report, err := c.Advisor.AnalyzeProfile(ctx, profile, interactive)
	if err != nil {
		return nil, "", err
	}

	var path string
	if save {
		if err := c.Reports.Save(report); err != nil {
			return nil, "", err
		}
		path = c.Reports.Path(report.ReportID)
	}
	return report, path, nil
}
