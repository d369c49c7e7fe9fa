// Package config provides configuration loading and defaults for sensorkit.
package config

import "time"

// DefaultConfigDir is the default location for sensorkit configuration.
const DefaultConfigDir = "~/.config/sensorkit"

// DefaultDBName is the filename for the SQLite run history database.
const DefaultDBName = "sensorkit.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// DefaultTimezone is the zone used for calendar-day arithmetic. The course
// the event logs come from ran on US Eastern time.
const DefaultTimezone = "America/New_York"

// DefaultWorkSession holds the default work-session settings.
var DefaultWorkSession = WorkSession{
	Gap:   3 * time.Hour,
	Reset: "worksession",
}

// DefaultSubsession holds the default subsession settings.
var DefaultSubsession = Subsession{
	Delimiters:      []string{"Termination"},
	Direction:       "forward",
	CollapseRepeats: true,
	Reset:           "worksession",
}

// DefaultEarlyOften holds the default early/often settings.
var DefaultEarlyOften = EarlyOften{
	LateCutoffDays: 4,
	Reset:          "group",
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
}
