package storage

import (
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

// SessionStore persists interview sessions under <base>/sessions, one
// JSON file per session named after its ID.
type SessionStore struct {
	dir string
	log logging.Logger
}

func NewSessionStore(baseDir string, log logging.Logger) (*SessionStore, error) {
	if log == nil {
		log = logging.NewNop()
	}
	dir := filepath.Join(baseDir, "sessions")
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	return &SessionStore{dir: dir, log: log}, nil
}

// NewSessionID returns an identifier like sess_20250115_143052_a1b2c3d4.
// The timestamp keeps directory listings chronological; the random
// suffix guards against collisions within the same second.
func NewSessionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("sess_%s_%s", now.Format("20060102_150405"), suffix)
}

// Create starts a new session and saves it immediately. An empty topics
// slice selects the standard topic list.
func (s *SessionStore) Create(userID string, taxYear int, topics []string) (*model.Session, error) {
	if len(topics) == 0 {
		topics = model.DefaultTopics()
	}
	session := model.NewSession(NewSessionID(time.Now()), userID, taxYear, topics)
	if err := s.Save(session); err != nil {
		return nil, err
	}
	s.log.Info("created session", map[string]interface{}{
		"session_id": session.SessionID,
		"user_id":    userID,
		"tax_year":   taxYear,
	})
	return session, nil
}

// Save writes the session to disk, touching UpdatedAt first.
func (s *SessionStore) Save(session *model.Session) error {
	session.UpdatedAt = time.Now()
	path := filepath.Join(s.dir, session.SessionID+".json")
	if err := writeJSON(path, session); err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.SessionID, err)
	}
	return nil
}

func (s *SessionStore) Load(sessionID string) (*model.Session, error) {
	path := filepath.Join(s.dir, sessionID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to read session %s: %w", sessionID, err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("corrupted session file %s: %w", sessionID, err)
	}
	return &session, nil
}

func (s *SessionStore) Exists(sessionID string) bool {
	_, err := os.Stat(filepath.Join(s.dir, sessionID+".json"))
	return err == nil
}

func (s *SessionStore) Delete(sessionID string) error {
	path := filepath.Join(s.dir, sessionID+".json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return os.Remove(path)
}

// List returns sessions sorted by UpdatedAt, newest first. A zero
// userID or taxYear means no filter on that field. Corrupted files are
// skipped with a warning rather than failing the whole listing.
func (s *SessionStore) List(userID string, taxYear int) ([]*model.Session, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "sess_*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*model.Session, 0, len(matches))
	for _, path := range matches {
		id := strings.TrimSuffix(filepath.Base(path), ".json")
		session, err := s.Load(id)
		if err != nil {
			s.log.Warn("skipping unreadable session file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			continue
		}
		if userID != "" && session.UserID != userID {
			continue
		}
		if taxYear != 0 && session.TaxYear != taxYear {
			continue
		}
		sessions = append(sessions, session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}
