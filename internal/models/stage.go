package models

// Stage is one of the ordered workflow states an issue occupies.
type Stage string

const (
	StageInception  Stage = "inception"
	StageDiscussion Stage = "discussion"
	StageBuild      Stage = "build"
	StageReview     Stage = "review"
	StageDone       Stage = "done"
)

var stageOrder = []Stage{StageInception, StageDiscussion, StageBuild, StageReview, StageDone}

// Stages returns every stage in workflow order.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// Rank returns the position of s in workflow order, or -1 if s is unknown.
func (s Stage) Rank() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool { return s.Rank() >= 0 }

// WorkType classifies the kind of work an issue tracks. Several may apply at once.
type WorkType string

const (
	WorkTypeFeature     WorkType = "feature"
	WorkTypeRefactor    WorkType = "refactor"
	WorkTypePerformance WorkType = "performance"
	WorkTypeDepBump     WorkType = "dep-bump"
	WorkTypeBugfix      WorkType = "bugfix"
	WorkTypeDocs        WorkType = "docs"
	WorkTypeChore       WorkType = "chore"
)

var workTypeVocabulary = []WorkType{
	WorkTypeFeature,
	WorkTypeRefactor,
	WorkTypePerformance,
	WorkTypeDepBump,
	WorkTypeBugfix,
	WorkTypeDocs,
	WorkTypeChore,
}

// WorkTypes returns the work type vocabulary.
func WorkTypes() []WorkType {
	out := make([]WorkType, len(workTypeVocabulary))
	copy(out, workTypeVocabulary)
	return out
}

// Valid reports whether w is part of the vocabulary.
func (w WorkType) Valid() bool {
	for _, v := range workTypeVocabulary {
		if v == w {
			return true
		}
	}
	return false
}
