package sensordata

import (
	"slices"
	"strings"
)

// Outcomes counts the results reported by one or more test terminations.
type Outcomes struct {
	Successes int `json:"successes"`
	Failures  int `json:"failures"`
	Errors    int `json:"errors"`
}

// ParseOutcomes reads a "|"-joined Subsubtype list such as
// "Success|Failure|Error|". Anything that is neither Success nor Failure
// counts as an error.
func ParseOutcomes(subsubtype string) Outcomes {
	trimmed := strings.Trim(subsubtype, "|")
	if trimmed == "" {
		return Outcomes{}
	}
	var o Outcomes
	for _, outcome := range strings.Split(trimmed, "|") {
		switch outcome {
		case "Success":
			o.Successes++
		case "Failure":
			o.Failures++
		default:
			o.Errors++
		}
	}
	return o
}

// Add accumulates other into o.
func (o *Outcomes) Add(other Outcomes) {
	o.Successes += other.Successes
	o.Failures += other.Failures
	o.Errors += other.Errors
}

// GreenZone reports at least one success with no failures or errors.
func (o Outcomes) GreenZone() bool {
	return o.Successes >= 1 && o.Failures == 0 && o.Errors == 0
}

// SplitTermination expands a Termination/Test event that reports several
// test methods at once into one event per test, all at the same time.
// Any other event is returned unchanged.
func SplitTermination(e Event, header []string) []Event {
	if !e.IsTestTermination() {
		return []Event{e}
	}
	units := strings.Split(strings.Trim(e.UnitName, "|"), "|")
	outcomes := strings.Split(strings.Trim(e.Subsubtype, "|"), "|")
	if len(units) < 2 && len(outcomes) < 2 {
		return []Event{e}
	}

	n := min(len(units), len(outcomes))
	unitCol := slices.Index(header, ColUnitName)
	subsubCol := slices.Index(header, ColSubsubtype)
	unitTypeCol := slices.Index(header, ColUnitType)

	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		split := e
		split.UnitName = units[i]
		split.Subsubtype = outcomes[i]
		split.UnitType = "Method"
		if e.Raw != nil {
			split.Raw = slices.Clone(e.Raw)
			setField(split.Raw, unitCol, split.UnitName)
			setField(split.Raw, subsubCol, split.Subsubtype)
			setField(split.Raw, unitTypeCol, split.UnitType)
		}
		out = append(out, split)
	}
	return out
}

func setField(record []string, i int, value string) {
	if i >= 0 && i < len(record) {
		record[i] = value
	}
}
