// Package labels maps workflow stages and work types to and from GitHub labels.
package labels

import (
	"strings"

	"github.com/joescharf/flowboard/internal/models"
)

// StagePrefix marks a label as carrying a stage.
const StagePrefix = "status:"

// DefaultStage is used when an issue carries no recognizable stage label.
const DefaultStage = models.StageInception

// ParseStage accepts either a bare stage name or its label form ("status:build").
func ParseStage(v string) (models.Stage, bool) {
	v = strings.TrimPrefix(strings.TrimSpace(v), StagePrefix)
	s := models.Stage(v)
	if !s.Valid() {
		return "", false
	}
	return s, true
}

// StageToLabel formats s as a GitHub label name.
func StageToLabel(s models.Stage) string {
	return StagePrefix + string(s)
}

// IsStageLabel reports whether name uses the stage prefix, known suffix or not.
func IsStageLabel(name string) bool {
	return strings.HasPrefix(name, StagePrefix)
}

// StageFromLabels returns the first known stage among labels, or DefaultStage.
// Stage labels with an unknown suffix are ignored.
func StageFromLabels(labels []models.Label) models.Stage {
	for _, l := range labels {
		if !IsStageLabel(l.Name) {
			continue
		}
		if s, ok := ParseStage(l.Name); ok {
			return s
		}
	}
	return DefaultStage
}

// NextStage returns the stage after s. The terminal stage maps to itself.
func NextStage(s models.Stage) models.Stage {
	all := models.Stages()
	i := s.Rank()
	if i < 0 {
		return DefaultStage
	}
	if i+1 >= len(all) {
		return all[len(all)-1]
	}
	return all[i+1]
}

// ParseWorkType reports whether v names a known work type.
func ParseWorkType(v string) (models.WorkType, bool) {
	wt := models.WorkType(strings.TrimSpace(v))
	if !wt.Valid() {
		return "", false
	}
	return wt, true
}

// WorkTypesFromLabels returns the work types present in labels, in input order.
func WorkTypesFromLabels(labels []models.Label) []models.WorkType {
	out := []models.WorkType{}
	for _, l := range labels {
		if wt, ok := ParseWorkType(l.Name); ok {
			out = append(out, wt)
		}
	}
	return out
}

// ReplaceStage returns names with every stage label removed and the label for s appended.
func ReplaceStage(names []string, s models.Stage) []string {
	out := make([]string, 0, len(names)+1)
	for _, n := range names {
		if n == "" || IsStageLabel(n) {
			continue
		}
		out = append(out, n)
	}
	return append(out, StageToLabel(s))
}

// FirstWorkType returns the first work type among names, if any.
func FirstWorkType(names []string) (models.WorkType, bool) {
	for _, n := range names {
		if wt, ok := ParseWorkType(n); ok {
			return wt, true
		}
	}
	return "", false
}
