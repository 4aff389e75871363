// Package settings persists integration options and short-lived transients
// as JSON values in sqlite.
package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"feedwatch/internal/core"
)

// Option names shared with the rest of the service.
const (
	OptionCatalogID           = "product_catalog_id"
	OptionFeedID              = "feed_id"
	OptionRunningFeedSettings = "running_feed_settings"
	TransientTrackerInfo      = "facebook_config_tracker_info"
)

// Store is a sqlite-backed option store
type Store struct {
	db     *core.Database
	logger *core.Logger
	now    func() time.Time
}

// NewStore creates a store over an already migrated database
func NewStore(db *core.Database, logger *core.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Migrate creates the options table
func (s *Store) Migrate(ctx context.Context) error {
	if err := core.NewMigrationService(s.db, s.logger).Migrate(ctx, Migrations()); err != nil {
		return fmt.Errorf("failed to migrate settings: %w", err)
	}
	return nil
}

// Get decodes the named option into dest. It reports false when the option is unset.
func (s *Store) Get(ctx context.Context, name string, dest any) (bool, error) {
	var raw string
	var expiresAt sql.NullInt64

	err := s.db.QueryRowWithTimeout(ctx,
		`SELECT value, expires_at FROM options WHERE name = ?`, name).Scan(&raw, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get option %s: %w", name, err)
	}

	if expiresAt.Valid && s.now().Unix() >= expiresAt.Int64 {
		if _, err := s.db.ExecWithTimeout(ctx, `DELETE FROM options WHERE name = ?`, name); err != nil {
			s.logger.Error("Failed to delete expired option", "name", name, "error", err)
		}
		return false, nil
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("failed to decode option %s: %w", name, err)
	}
	return true, nil
}

// GetString returns a string option, or "" when unset
func (s *Store) GetString(ctx context.Context, name string) (string, error) {
	var value string
	if _, err := s.Get(ctx, name, &value); err != nil {
		return "", err
	}
	return value, nil
}

// Set stores value under name with no expiry
func (s *Store) Set(ctx context.Context, name string, value any) error {
	return s.put(ctx, name, value, sql.NullInt64{})
}

// SetTransient stores value under name until ttl elapses
func (s *Store) SetTransient(ctx context.Context, name string, value any, ttl time.Duration) error {
	expiresAt := sql.NullInt64{Int64: s.now().Add(ttl).Unix(), Valid: true}
	return s.put(ctx, name, value, expiresAt)
}

// GetTransient is Get for values written with SetTransient
func (s *Store) GetTransient(ctx context.Context, name string, dest any) (bool, error) {
	return s.Get(ctx, name, dest)
}

// Delete removes the named option
func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecWithTimeout(ctx, `DELETE FROM options WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete option %s: %w", name, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, name string, value any, expiresAt sql.NullInt64) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode option %s: %w", name, err)
	}

	_, err = s.db.ExecWithTimeout(ctx, `
		INSERT INTO options (name, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, name, string(raw), expiresAt, s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set option %s: %w", name, err)
	}

	s.logger.Debug("Stored option", "name", name, "transient", expiresAt.Valid)
	return nil
}

// CatalogID returns the connected product catalog id
func (s *Store) CatalogID(ctx context.Context) (string, error) {
	return s.GetString(ctx, OptionCatalogID)
}

// FeedID returns the feed id this integration created
func (s *Store) FeedID(ctx context.Context) (string, error) {
	return s.GetString(ctx, OptionFeedID)
}

// SeedIntegration writes catalog and feed ids that are set in config but not yet stored
func (s *Store) SeedIntegration(ctx context.Context, catalogID, feedID string) error {
	seeds := []struct {
		name  string
		value string
	}{
		{OptionCatalogID, catalogID},
		{OptionFeedID, feedID},
	}

	for _, seed := range seeds {
		if seed.value == "" {
			continue
		}
		current, err := s.GetString(ctx, seed.name)
		if err != nil {
			return err
		}
		if current != "" {
			continue
		}
		if err := s.Set(ctx, seed.name, seed.value); err != nil {
			return err
		}
		s.logger.Info("Seeded integration option", "name", seed.name)
	}

	return nil
}
