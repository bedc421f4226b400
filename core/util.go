package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MaxWriteAttempts bounds how often a service retries a conditional write that lost a race.
const MaxWriteAttempts = 10

var (
	NowFunc = time.Now // mockable

	dateLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano}
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Now returns the current UTC time at the precision the stores keep (milliseconds).
func Now() time.Time {
	return NowFunc().UTC().Truncate(time.Millisecond)
}

// Touch returns Now, moved forward if needed so that it is strictly after prev.
// A document's updated_at stamped this way can guard a ReplaceIf.
func Touch(prev time.Time) time.Time {
	now := Now()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts "2006-01-02" or an RFC3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("invalid date %q", s)
}

// NewID generates a new document ID.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an ID generated by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Getwd finds the project root (the directory holding go.mod).
// go test changes the working directory to the package being tested; fall back to cwd when no root is found.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}

// StrPtr helps build partial updates.
func StrPtr(s string) *string { return &s }
