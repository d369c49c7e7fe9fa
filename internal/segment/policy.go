// Package segment splits a chronologically ordered event stream into work
// sessions (separated by inactivity gaps) and subsessions (separated by
// delimiter events such as test terminations).
package segment

import (
	"fmt"
	"strings"
	"time"

	"github.com/blackwell-systems/sensorkit/internal/sensordata"
)

// DefaultGap is the inactivity gap that separates two work sessions.
const DefaultGap = 3 * time.Hour

// Delimiter matches events that mark a subsession boundary. An empty Subtype
// matches any subtype.
type Delimiter struct {
	Type    string
	Subtype string
}

// ParseDelimiter reads "Type" or "Type:Subtype".
func ParseDelimiter(s string) (Delimiter, error) {
	typ, sub, _ := strings.Cut(strings.TrimSpace(s), ":")
	if typ == "" {
		return Delimiter{}, fmt.Errorf("invalid delimiter %q: want Type or Type:Subtype", s)
	}
	return Delimiter{Type: typ, Subtype: sub}, nil
}

// ParseDelimiters parses each entry with ParseDelimiter.
func ParseDelimiters(specs []string) ([]Delimiter, error) {
	out := make([]Delimiter, 0, len(specs))
	for _, s := range specs {
		d, err := ParseDelimiter(s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (d Delimiter) String() string {
	if d.Subtype == "" {
		return d.Type
	}
	return d.Type + ":" + d.Subtype
}

// Matches reports whether e is a delimiter event.
func (d Delimiter) Matches(e sensordata.Event) bool {
	return e.Type == d.Type && (d.Subtype == "" || e.Subtype == d.Subtype)
}

// Direction decides which subsession a delimiter event belongs to.
type Direction int

const (
	// Forward: a delimiter opens the subsession that follows it.
	Forward Direction = iota
	// Backward: a delimiter closes the subsession that precedes it.
	Backward
)

// ParseDirection reads "forward" or "backward".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "forward":
		return Forward, nil
	case "backward":
		return Backward, nil
	}
	return Forward, fmt.Errorf("invalid direction %q: want forward or backward", s)
}

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Policy configures segmentation. A zero Gap disables work-session splitting
// and an empty Delimiters list disables subsession splitting.
type Policy struct {
	// Gap in milliseconds. Two events more than Gap apart start a new work
	// session; events exactly Gap apart stay together.
	Gap        int64
	Delimiters []Delimiter
	Direction  Direction
	// CollapseRepeats folds a delimiter into the current subsession when it
	// has the same subtype as the previous delimiter and no Edit event was
	// seen in between.
	CollapseRepeats bool
}

// DefaultPolicy splits work sessions on 3-hour gaps and subsessions on
// Termination events, collapsing repeats.
func DefaultPolicy() Policy {
	return Policy{
		Gap:             DefaultGap.Milliseconds(),
		Delimiters:      []Delimiter{{Type: sensordata.TypeTermination}},
		Direction:       Forward,
		CollapseRepeats: true,
	}
}

// IsDelimiter reports whether e matches any configured delimiter.
func (p Policy) IsDelimiter(e sensordata.Event) bool {
	for _, d := range p.Delimiters {
		if d.Matches(e) {
			return true
		}
	}
	return false
}
