package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agenthands/tax-copilot/internal/storage"
)

var (
	precheckUser          string
	precheckYear          int
	precheckSession       string
	precheckList          bool
	precheckForceComplete bool
	precheckProvider      string
)

var precheckCmd = &cobra.Command{
	Use:   "precheck",
	Short: "Collect tax information through an interactive interview",
	Long: `Interactive tax information collection via dynamic questioning.

Start a new interview:
  tax-copilot precheck --user john --year 2024

Resume an existing session:
  tax-copilot precheck --session sess_20240115_103000_abc123

Force complete a stuck session:
  tax-copilot precheck --session sess_xxx --force-complete

List sessions (optionally filtered):
  tax-copilot precheck --list
  tax-copilot precheck --list --user john`,
	RunE: runPrecheck,
}

func init() {
	precheckCmd.Flags().StringVar(&precheckUser, "user", "", "user ID for a new interview")
	precheckCmd.Flags().IntVar(&precheckYear, "year", 0, "tax year for a new interview")
	precheckCmd.Flags().StringVar(&precheckSession, "session", "", "resume an existing session by ID")
	precheckCmd.Flags().BoolVar(&precheckList, "list", false, "list saved sessions")
	precheckCmd.Flags().BoolVar(&precheckForceComplete, "force-complete", false, "force completion of a stuck session (use with --session)")
	precheckCmd.Flags().StringVar(&precheckProvider, "llm-provider", "", "LLM provider override (anthropic, openai, gemini, ollama)")
	rootCmd.AddCommand(precheckCmd)
}

func runPrecheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if precheckList {
		return listSessions()
	}
	if precheckForceComplete {
		return forceCompleteSession(cmd)
	}

	co, err := buildCopilot(ctx, precheckProvider)
	if err != nil {
		return err
	}

	var sessionID string
	if precheckSession != "" {
		resume, err := co.Interviewer.ResumeInterview(precheckSession)
		if err != nil {
			if errors.Is(err, storage.ErrSessionNotFound) {
				return fmt.Errorf("couldn't find interview session %s; start a new one with --user and --year", precheckSession)
			}
			return err
		}
		sessionID = resume.SessionID

		fmt.Printf("\n=== Resuming Interview (Tax Year %d) ===\n", resume.TaxYear)
		fmt.Printf("Session: %s\n", resume.SessionID)
		fmt.Printf("State: %s\n", resume.SessionState)
		fmt.Printf("Messages so far: %d\n\n", resume.MessageCount)
		fmt.Printf("Agent: %s\n\n", resume.LastQuestion)
	} else {
		if precheckUser == "" || precheckYear == 0 {
			return fmt.Errorf("--user and --year are required for a new interview (or --session to resume one)")
		}

		fmt.Printf("\n=== Starting New Interview (Tax Year %d) ===\n\n", precheckYear)
		start, err := co.Interviewer.StartInterview(ctx, precheckUser, precheckYear)
		if err != nil {
			return err
		}
		sessionID = start.SessionID
		fmt.Printf("Agent: %s\n\n", start.FirstQuestion)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			printPauseHint(sessionID)
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if isExitCommand(input) {
			printPauseHint(sessionID)
			break
		}

		turn, err := co.Interviewer.ContinueInterview(ctx, sessionID, input)
		if err != nil {
			if ctx.Err() != nil {
				printPauseHint(sessionID)
				break
			}
			fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
			continue
		}

		fmt.Printf("\nAgent: %s\n\n", turn.AgentResponse)

		if turn.IsComplete {
			if turn.Profile != nil {
				fmt.Println(strings.Repeat("=", 50))
				fmt.Println("Interview Complete!")
				fmt.Println(strings.Repeat("=", 50))
				fmt.Printf("\nYour tax profile has been saved to:\n  %s\n\n", co.Profiles.Path(turn.Profile.ProfileID()))
				fmt.Println("You can now run an analysis:")
				fmt.Printf("  tax-copilot analyze --user %s\n\n", turn.Profile.UserID)
			} else {
				fmt.Println("\nInterview complete, but the profile could not be saved.")
			}
			break
		}
	}
	return scanner.Err()
}

func isExitCommand(input string) bool {
	switch strings.ToLower(input) {
	case "exit", "quit", "bye":
		return true
	}
	return false
}

func printPauseHint(sessionID string) {
	fmt.Printf("\nInterview paused. Resume anytime with:\n  tax-copilot precheck --session %s\n\n", sessionID)
}

func listSessions() error {
	dir, err := storage.Dir(cfg.Storage.Dir)
	if err != nil {
		return err
	}
	store, err := storage.NewSessionStore(dir, logger)
	if err != nil {
		return err
	}

	sessions, err := store.List(precheckUser, precheckYear)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		var filter string
		if precheckUser != "" {
			filter += fmt.Sprintf(" for user '%s'", precheckUser)
		}
		if precheckYear != 0 {
			filter += fmt.Sprintf(" for year %d", precheckYear)
		}
		fmt.Printf("No sessions found%s.\n", filter)
		return nil
	}

	fmt.Println("\n=== Active Sessions ===")
	fmt.Println()
	for _, sess := range sessions {
		fmt.Printf("Session ID: %s\n", sess.SessionID)
		fmt.Printf("  User: %s\n", sess.UserID)
		fmt.Printf("  Tax Year: %d\n", sess.TaxYear)
		fmt.Printf("  State: %s\n", sess.State)
		fmt.Printf("  Updated: %s\n", sess.UpdatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  Messages: %d\n", len(sess.Messages))
		fmt.Println()
	}
	return nil
}

func forceCompleteSession(cmd *cobra.Command) error {
	if precheckSession == "" {
		return fmt.Errorf("--force-complete requires --session")
	}

	co, err := buildCopilot(cmd.Context(), precheckProvider)
	if err != nil {
		return err
	}

	session, err := co.Sessions.Load(precheckSession)
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Force Completing Session %s ===\n\n", precheckSession)
	fmt.Printf("Current state: %s\n", session.State)
	fmt.Printf("Topics covered: %s\n", strings.Join(session.TopicsCovered, ", "))
	fmt.Printf("Topics remaining: %s\n\n", strings.Join(session.TopicsRemaining, ", "))

	fmt.Println("Reorganizing extracted data and building the tax profile...")
	profile, err := co.Interviewer.ForceComplete(cmd.Context(), precheckSession)
	if err != nil {
		return fmt.Errorf("force completion failed: %w", err)
	}

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("Session Force Completed Successfully!")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("\nTax profile saved to:\n  %s\n\n", co.Profiles.Path(profile.ProfileID()))
	return nil
}
