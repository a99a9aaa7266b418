package gameanalytics

import (
	"fmt"
	"strings"
)

type Severity int

const (
	SeverityCritical Severity = iota
	SeverityError
	SeverityWarning
	SeverityInfo
	SeverityDebug
)

var severityNames = []string{
	SeverityCritical: "critical",
	SeverityError:    "error",
	SeverityWarning:  "warning",
	SeverityInfo:     "info",
	SeverityDebug:    "debug",
}

type ProgressionStatus int

const (
	ProgressionStart ProgressionStatus = iota
	ProgressionFail
	ProgressionComplete
)

var progressionNames = []string{
	ProgressionStart:    "Start",
	ProgressionFail:     "Fail",
	ProgressionComplete: "Complete",
}

type FlowType int

const (
	FlowSink FlowType = iota
	FlowSource
)

var flowNames = []string{
	FlowSink:   "Sink",
	FlowSource: "Source",
}

type Gender int

const (
	GenderUnknown Gender = iota
	GenderMale
	GenderFemale
)

var genderNames = []string{
	GenderUnknown: "unknown",
	GenderMale:    "male",
	GenderFemale:  "female",
}

// wireName maps v through its keyed table.
func wireName[E ~int](enum string, table []string, v E) (string, error) {
	if v < 0 || int(v) >= len(table) {
		return "", &InvalidEnumValueError{Enum: enum, Value: int(v)}
	}
	return table[v], nil
}

func parseName[E ~int](enum string, table []string, s string) (E, error) {
	for i, name := range table {
		if strings.EqualFold(name, s) {
			return E(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", enum, s)
}

func enumString[E ~int](enum string, table []string, v E) string {
	name, err := wireName(enum, table, v)
	if err != nil {
		return fmt.Sprintf("%s(%d)", enum, int(v))
	}
	return name
}

func (s Severity) WireName() (string, error) { return wireName("Severity", severityNames, s) }
func (s Severity) String() string             { return enumString("Severity", severityNames, s) }

func (p ProgressionStatus) WireName() (string, error) {
	return wireName("ProgressionStatus", progressionNames, p)
}
func (p ProgressionStatus) String() string {
	return enumString("ProgressionStatus", progressionNames, p)
}

func (f FlowType) WireName() (string, error) { return wireName("FlowType", flowNames, f) }
func (f FlowType) String() string             { return enumString("FlowType", flowNames, f) }

func (g Gender) WireName() (string, error) { return wireName("Gender", genderNames, g) }
func (g Gender) String() string             { return enumString("Gender", genderNames, g) }

// ParseSeverity accepts a wire name, case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	return parseName[Severity]("severity", severityNames, s)
}

func ParseProgressionStatus(s string) (ProgressionStatus, error) {
	return parseName[ProgressionStatus]("progression status", progressionNames, s)
}

func ParseFlowType(s string) (FlowType, error) {
	return parseName[FlowType]("flow type", flowNames, s)
}

func ParseGender(s string) (Gender, error) {
	return parseName[Gender]("gender", genderNames, s)
}
