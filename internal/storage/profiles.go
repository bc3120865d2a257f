package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/agenthands/tax-copilot/internal/core/model"
	"github.com/agenthands/tax-copilot/internal/logging"
)

// ProfileStore persists tax profiles under <base>/profiles, one file per
// user and year named "<user_id>_<tax_year>.json".
type ProfileStore struct {
	dir string
	log logging.Logger
}

func NewProfileStore(baseDir string, log logging.Logger) (*ProfileStore, error) {
	if log == nil {
		log = logging.NewNop()
	}
	dir := filepath.Join(baseDir, "profiles")
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	return &ProfileStore{dir: dir, log: log}, nil
}

// Save writes the profile to disk, touching UpdatedAt first. The profile
// must carry a user ID since it determines the file name.
func (s *ProfileStore) Save(profile *model.TaxProfile) error {
	if profile.UserID == "" {
		return errors.New("cannot save profile: missing user id")
	}
	profile.UpdatedAt = time.Now()
	path := filepath.Join(s.dir, profile.ProfileID()+".json")
	if err := writeJSON(path, profile); err != nil {
		return fmt.Errorf("failed to save profile %s: %w", profile.ProfileID(), err)
	}
	return nil
}

// Path returns where the profile with the given ID lives on disk.
func (s *ProfileStore) Path(profileID string) string {
	return filepath.Join(s.dir, profileID+".json")
}

func (s *ProfileStore) Load(userID string, taxYear int) (*model.TaxProfile, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("%s_%d.json", userID, taxYear))
	profile, err := s.read(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s for year %d", ErrProfileNotFound, userID, taxYear)
	}
	return profile, err
}

// LoadByID loads a profile by its "<user_id>_<tax_year>" identifier.
func (s *ProfileStore) LoadByID(profileID string) (*model.TaxProfile, error) {
	profile, err := s.read(filepath.Join(s.dir, profileID+".json"))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, profileID)
	}
	return profile, err
}

// List returns profiles sorted by UpdatedAt, newest first. An empty
// userID means no filter. Unreadable files are skipped with a warning.
func (s *ProfileStore) List(userID string) ([]*model.TaxProfile, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	profiles := make([]*model.TaxProfile, 0, len(matches))
	for _, path := range matches {
		profile, err := s.read(path)
		if err != nil {
			s.log.Warn("skipping unreadable profile file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			continue
		}
		if userID != "" && profile.UserID != userID {
			continue
		}
		profiles = append(profiles, profile)
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].UpdatedAt.After(profiles[j].UpdatedAt)
	})
	return profiles, nil
}

// Latest returns the most recently updated profile for a user, or
// ErrProfileNotFound if the user has none.
func (s *ProfileStore) Latest(userID string) (*model.TaxProfile, error) {
	profiles, err := s.List(userID)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w: no profiles for user %s", ErrProfileNotFound, userID)
	}
	return profiles[0], nil
}

func (s *ProfileStore) read(path string) (*model.TaxProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var profile model.TaxProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("corrupted profile file %s: %w", filepath.Base(path), err)
	}
	return &profile, nil
}
