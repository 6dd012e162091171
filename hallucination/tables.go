package hallucination

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// codeRanges is a valid-section table for one statute/code: a set of
// contiguous numeric ranges plus a set of individually enumerated
// non-contiguous sections (e.g. IPC's 498A).
type codeRanges struct {
	ranges  [][2]int
	singles map[string]bool
}

func (c codeRanges) describe() string {
	var parts []string
	for _, r := range c.ranges {
		if r[0] == r[1] {
			parts = append(parts, strconv.Itoa(r[0]))
		} else {
			parts = append(parts, fmt.Sprintf("%d–%d", r[0], r[1]))
		}
	}
	for s := range c.singles {
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

// contains reports whether section (a bare number like "302" or a suffixed
// section like "498A") is within this code's valid set.
func (c codeRanges) contains(section string) bool {
	if c.singles[strings.ToUpper(section)] {
		return true
	}
	n, err := strconv.Atoi(section)
	if err != nil {
		return false
	}
	for _, r := range c.ranges {
		if n >= r[0] && n <= r[1] {
			return true
		}
	}
	return false
}

// Tables holds the valid-section/article ranges for every statute family the
// detector recognizes.
type Tables struct {
	byCode      map[string]codeRanges
	constitution codeRanges
}

// defaultTables is the built-in fallback, used when no workbook path is
// configured. Authoring the real spreadsheet as a go:embed binary asset
// isn't practical without running the build toolchain (see DESIGN.md); this
// literal table carries the same ranges a workbook would and is kept as the
// always-available default.
func defaultTables() Tables {
	return Tables{
		byCode: map[string]codeRanges{
			"IPC": {
				ranges:  [][2]int{{1, 511}},
				singles: map[string]bool{"498A": true, "376A": true, "376B": true, "376C": true, "376D": true},
			},
			"CRPC": {ranges: [][2]int{{1, 484}}, singles: map[string]bool{}},
			"CPC":  {ranges: [][2]int{{1, 158}}, singles: map[string]bool{}},
			"IT ACT": {
				ranges:  [][2]int{{1, 87}},
				singles: map[string]bool{"66A": true, "66B": true, "66C": true, "66D": true, "66E": true, "66F": true},
			},
			"EVIDENCE ACT": {ranges: [][2]int{{1, 167}}, singles: map[string]bool{}},
		},
		constitution: codeRanges{
			ranges:  [][2]int{{1, 395}},
			singles: map[string]bool{"12A": true, "21A": true, "35A": true, "51A": true, "371A": true, "371B": true},
		},
	}
}

// LoadTables loads valid-range tables from an xlsx workbook at path. Each
// sheet is named after a code (IPC, CRPC, CPC, IT ACT, EVIDENCE ACT,
// CONSTITUTION) and holds two columns per row: a range start and end (equal
// for a single section) or a bare non-numeric section label in the first
// column with an empty second column. An empty path returns the built-in
// default table.
func LoadTables(path string) (Tables, error) {
	if path == "" {
		return defaultTables(), nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("opening statute table workbook: %w", err)
	}
	defer f.Close()

	t := Tables{byCode: make(map[string]codeRanges)}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		cr := codeRanges{singles: make(map[string]bool)}
		for _, row := range rows {
			if len(row) == 0 {
				continue
			}
			start := strings.TrimSpace(row[0])
			end := start
			if len(row) > 1 && strings.TrimSpace(row[1]) != "" {
				end = strings.TrimSpace(row[1])
			}
			startN, errStart := strconv.Atoi(start)
			endN, errEnd := strconv.Atoi(end)
			if errStart == nil && errEnd == nil {
				cr.ranges = append(cr.ranges, [2]int{startN, endN})
			} else {
				cr.singles[strings.ToUpper(start)] = true
			}
		}
		if strings.ToUpper(sheet) == "CONSTITUTION" {
			t.constitution = cr
		} else {
			t.byCode[strings.ToUpper(sheet)] = cr
		}
	}
	return t, nil
}

// ValidateStatute checks a section number against the named code's table.
// Returns (inRange, rangeDescription, known-code).
func (t Tables) ValidateStatute(code, section string) (bool, string, bool) {
	cr, ok := t.byCode[strings.ToUpper(code)]
	if !ok {
		return false, "", false
	}
	return cr.contains(section), cr.describe(), true
}

// ValidateArticle checks an article number against the Constitution table.
func (t Tables) ValidateArticle(article string) (bool, string) {
	return t.constitution.contains(article), t.constitution.describe()
}
