package catalog

import "strings"

// rowType classifies a raw row in the consolidated startup sheet.
type rowType int

const (
	rowEmpty rowType = iota
	rowSectionLabel
	rowColumnHeader
	rowDataRecord
	rowUnknown
)

// classifyRow detects whether a row is a section label (e.g. "LEGAL"), a
// column-header row, or a data record. The sheet interleaves all three with
// no structural markers, so classification is by shape:
//   - section label: at most 2 non-empty cells and the first cell matches a
//     known label (substring match in either direction)
//   - column header: at least 3 cells contain known header substrings
//   - data record: non-trivial first cell that is not a label, plus at least
//     2 of the first 5 cells carrying more than 3 characters
func classifyRow(row []string) rowType {
	if len(row) == 0 {
		return rowEmpty
	}

	firstCell := strings.ToUpper(strings.TrimSpace(row[0]))
	nonEmpty := 0
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return rowEmpty
	}

	if nonEmpty <= 2 {
		for _, label := range domainLabels {
			if firstCell == label || strings.Contains(firstCell, label) || strings.Contains(label, firstCell) {
				return rowSectionLabel
			}
		}
	}

	headerMatches := 0
	for _, indicator := range headerIndicators {
		for _, cell := range row {
			if strings.Contains(strings.ToLower(cell), indicator) {
				headerMatches++
				break
			}
		}
	}
	if headerMatches >= 3 {
		return rowColumnHeader
	}

	if len(firstCell) > 1 {
		isLabel := false
		for _, label := range domainLabels {
			if firstCell == label {
				isLabel = true
				break
			}
		}
		if !isLabel {
			filled := 0
			for i, c := range row {
				if i >= 5 {
					break
				}
				if len(strings.TrimSpace(c)) > 3 {
					filled++
				}
			}
			if filled >= 2 {
				return rowDataRecord
			}
		}
	}

	return rowUnknown
}
