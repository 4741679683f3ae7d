// Package domain defines core data structures used throughout the position viewer.
package domain

import "strings"

// Instrument tradable symbol identifier, e.g. GOOG.
type Instrument string

// DefaultInstruments supported set used until the account profile supplies its own.
var DefaultInstruments = []Instrument{"GOOG", "TSLA", "AMZN", "META", "NVDA"}

// String returns the string representation.
func (i Instrument) String() string {
	return string(i)
}

// IsZero reports whether the identifier is empty.
func (i Instrument) IsZero() bool {
	return strings.TrimSpace(string(i)) == ""
}

// ParseInstruments converts a comma separated list into instruments, skipping blanks.
func ParseInstruments(list string) []Instrument {
	var out []Instrument
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, Instrument(part))
	}
	return out
}

// CopyInstruments returns an independent copy of the list.
func CopyInstruments(list []Instrument) []Instrument {
	if list == nil {
		return nil
	}
	out := make([]Instrument, len(list))
	copy(out, list)
	return out
}
