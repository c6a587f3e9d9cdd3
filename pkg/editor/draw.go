package editor

import (
	"fmt"

	"github.com/mattn/go-runewidth"

	"github.com/odvcencio/scribe/pkg/ui/backend"
)

var (
	textStyle   = backend.DefaultStyle()
	cursorStyle = backend.DefaultStyle().Reverse(true)
	statusStyle = backend.DefaultStyle().Reverse(true)
	dirStyle    = backend.DefaultStyle().Bold(true)
	selStyle    = backend.DefaultStyle().Reverse(true)
)

// Draw renders the document and the status line into the target.
func (e *Editor) Draw() {
	if e.target == nil || e.width <= 0 || e.height <= 0 {
		return
	}
	rows := e.textHeight()
	for y := 0; y < rows; y++ {
		e.clearRow(y, textStyle)
		switch e.mode {
		case modeBrowse:
			e.drawEntry(y)
		default:
			e.drawLine(y)
		}
	}
	e.drawStatus()
}

func (e *Editor) clearRow(y int, style backend.Style) {
	for x := 0; x < e.width; x++ {
		e.target.SetContent(x, y, ' ', nil, style)
	}
}

func (e *Editor) drawLine(y int) {
	row := e.top + y
	if row >= len(e.buf.lines) {
		e.target.SetContent(0, y, '~', nil, backend.DefaultStyle().Dim(true))
		return
	}
	line := e.buf.lines[row]
	showCursor := row == e.buf.row && e.focused && e.blinkOn

	col := 0
	var comb []rune
	lastX, lastR, lastCursor := -1, rune(0), false
	for i, r := range line {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			if lastX >= 0 {
				comb = append(comb, r)
				e.target.SetContent(lastX, y, lastR, comb, e.cellStyle(lastCursor))
			}
			continue
		}
		x := col - e.left
		col += w
		if x < 0 || x+w > e.width {
			lastX = -1
			continue
		}
		comb = nil
		lastX, lastR, lastCursor = x, r, showCursor && i == e.buf.col
		e.target.SetContent(x, y, r, nil, e.cellStyle(lastCursor))
	}
	if showCursor && e.buf.col == len(line) {
		if x := col - e.left; x >= 0 && x < e.width {
			e.target.SetContent(x, y, ' ', nil, cursorStyle)
		}
	}
}

func (e *Editor) cellStyle(cursor bool) backend.Style {
	if cursor {
		return cursorStyle
	}
	return textStyle
}

func (e *Editor) drawEntry(y int) {
	idx := e.top + y
	if idx >= len(e.browse.entries) {
		return
	}
	entry := e.browse.entries[idx]
	style := textStyle
	if entry.dir {
		style = dirStyle
	}
	if idx == e.browse.selected {
		style = selStyle
	}
	e.drawText(0, y, entry.label(), style)
}

func (e *Editor) drawStatus() {
	y := e.height - 1
	e.clearRow(y, statusStyle)

	name := e.path
	if e.mode == modeBrowse {
		name = e.browse.dir + "/"
	}
	if name == "" {
		name = "[no name]"
	}
	if e.dirty {
		name += " [+]"
	}
	left := " " + name
	if e.status != "" {
		left += "  " + e.status
	}
	right := fmt.Sprintf("Ln %d, Col %d ", e.buf.row+1, e.buf.col+1)

	e.drawText(0, y, runewidth.Truncate(left, e.width, "…"), statusStyle)
	if rw := runewidth.StringWidth(right); runewidth.StringWidth(left)+rw < e.width {
		e.drawText(e.width-rw, y, right, statusStyle)
	}
}

// drawText writes s from column x, clipped to the window width.
func (e *Editor) drawText(x, y int, s string, style backend.Style) {
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > e.width {
			break
		}
		e.target.SetContent(x, y, r, nil, style)
		x += w
	}
}

// displayCol is the cell column of rune index col in line.
func displayCol(line []rune, col int) int {
	return runewidth.StringWidth(string(line[:col]))
}

// runeAt maps a cell column back to a rune index, rounding into wide runes.
func runeAt(line []rune, cell int) int {
	w := 0
	for i, r := range line {
		rw := runewidth.RuneWidth(r)
		if w+rw > cell {
			return i
		}
		w += rw
	}
	return len(line)
}

// pointTo moves the cursor to the window cell (x, y).
func (e *Editor) pointTo(x, y int) {
	row := clamp(e.top+y, 0, len(e.buf.lines)-1)
	e.buf.moveTo(row, runeAt(e.buf.lines[row], e.left+x))
}

func (e *Editor) rowCount() int {
	if e.mode == modeBrowse {
		return len(e.browse.entries)
	}
	return len(e.buf.lines)
}

// scrollToCursor adjusts the viewport so the cursor is visible.
func (e *Editor) scrollToCursor() {
	rows := e.textHeight()
	if rows <= 0 {
		return
	}
	cur := e.buf.row
	if e.mode == modeBrowse {
		cur = e.browse.selected
	}
	if cur < e.top {
		e.top = cur
	} else if cur >= e.top+rows {
		e.top = cur - rows + 1
	}
	if e.mode != modeText || e.width <= 0 {
		return
	}
	x := displayCol(e.buf.line(), e.buf.col)
	if x < e.left {
		e.left = x
	} else if x >= e.left+e.width {
		e.left = x - e.width + 1
	}
}
