// Copyright 2026 The CPK Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package cpk

// tableView is a thin, name-addressed accessor over a parsed table's
// columns and rows. HEADER, TOC, ETOC and ITOC rows are all read through
// one of these rather than by raw column index, since which columns a
// given table carries (and in what order) varies by game/title.
type tableView struct {
	cols []Column
	rows []Row
}

func newTableView(cols []Column, rows []Row) tableView {
	return tableView{cols: cols, rows: rows}
}

func (t tableView) colIndex(name string) int {
	for i, c := range t.cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (t tableView) rowCount() int { return len(t.rows) }

func (t tableView) uint(row int, name string) (uint64, bool) {
	idx := t.colIndex(name)
	if idx < 0 || row < 0 || row >= len(t.rows) {
		return 0, false
	}
	return t.rows[row][idx].Uint()
}

func (t tableView) str(row int, name string) (string, bool) {
	idx := t.colIndex(name)
	if idx < 0 || row < 0 || row >= len(t.rows) {
		return "", false
	}
	return t.rows[row][idx].String()
}
