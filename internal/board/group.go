package board

import (
	"github.com/joescharf/flowboard/internal/labels"
	"github.com/joescharf/flowboard/internal/models"
)

// GroupByStage partitions issues into one column per stage, in workflow
// order. Input order is kept within a column and empty columns are included.
// An issue carrying an unknown stage lands in the default stage column.
func GroupByStage(issues []models.IssueSummary) []models.IssueBoardColumn {
	stages := models.Stages()
	columns := make([]models.IssueBoardColumn, len(stages))
	for i, s := range stages {
		columns[i] = models.IssueBoardColumn{Status: s, Issues: []models.IssueSummary{}}
	}
	for _, issue := range issues {
		idx := issue.Status.Rank()
		if idx < 0 {
			idx = labels.DefaultStage.Rank()
		}
		columns[idx].Issues = append(columns[idx].Issues, issue)
	}
	return columns
}

// Flatten returns every issue across columns, in column order.
func Flatten(columns []models.IssueBoardColumn) []models.IssueSummary {
	var out []models.IssueSummary
	for _, c := range columns {
		out = append(out, c.Issues...)
	}
	return out
}
