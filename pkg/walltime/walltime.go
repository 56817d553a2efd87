// Package walltime parses and formats the grid's wall-time duration
// format: DD:HH:MM:SS, with the day field optional (HH:MM:SS also
// accepted). time.ParseDuration uses a different grammar entirely, so
// this package parses the fields itself.
package walltime

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	gridErrors "github.com/sritchie73/bad-boyz-cluster/pkg/errors"
)

// WallTime is a parsed DD:HH:MM:SS duration.
type WallTime struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// Parse accepts "DD:HH:MM:SS" or "HH:MM:SS" and validates field ranges:
// HH in [0,23], MM/SS in [0,59]. Days has no upper bound.
func Parse(s string) (WallTime, error) {
	parts := strings.Split(s, ":")

	var days, hours, minutes, seconds int
	var err error

	switch len(parts) {
	case 4:
		if days, err = parseField(parts[0], 0, -1); err != nil {
			return WallTime{}, gridErrors.InvalidWallTimeFormat(s)
		}
		if hours, err = parseField(parts[1], 0, 23); err != nil {
			return WallTime{}, gridErrors.InvalidWallTimeFormat(s)
		}
		if minutes, err = parseField(parts[2], 0, 59); err != nil {
			return WallTime{}, gridErrors.InvalidWallTimeFormat(s)
		}
		if seconds, err = parseField(parts[3], 0, 59); err != nil {
			return WallTime{}, gridErrors.InvalidWallTimeFormat(s)
		}
	case 3:
		if hours, err = parseField(parts[0], 0, 23); err != nil {
			return WallTime{}, gridErrors.InvalidWallTimeFormat(s)
		}
		if minutes, err = parseField(parts[1], 0, 59); err != nil {
			return WallTime{}, gridErrors.InvalidWallTimeFormat(s)
		}
		if seconds, err = parseField(parts[2], 0, 59); err != nil {
			return WallTime{}, gridErrors.InvalidWallTimeFormat(s)
		}
	default:
		return WallTime{}, gridErrors.InvalidWallTimeFormat(s)
	}

	return WallTime{Days: days, Hours: hours, Minutes: minutes, Seconds: seconds}, nil
}

func parseField(s string, min, max int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < min {
		return 0, fmt.Errorf("field %d below minimum %d", v, min)
	}
	if max >= 0 && v > max {
		return 0, fmt.Errorf("field %d above maximum %d", v, max)
	}
	return v, nil
}

// TotalSeconds returns the total duration in seconds.
func (w WallTime) TotalSeconds() int {
	return ((w.Days*24)+w.Hours)*3600 + w.Minutes*60 + w.Seconds
}

// Duration returns the total duration as a time.Duration.
func (w WallTime) Duration() time.Duration {
	return time.Duration(w.TotalSeconds()) * time.Second
}

// String formats back to canonical DD:HH:MM:SS with zero-padded fields.
func (w WallTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d:%02d", w.Days, w.Hours, w.Minutes, w.Seconds)
}

// FromSeconds builds a WallTime from a total-seconds count.
func FromSeconds(total int) WallTime {
	days := total / 86400
	total -= days * 86400
	hours := total / 3600
	total -= hours * 3600
	minutes := total / 60
	seconds := total - minutes*60
	return WallTime{Days: days, Hours: hours, Minutes: minutes, Seconds: seconds}
}
