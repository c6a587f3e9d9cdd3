package editor

import "strings"

// buffer is a document of rune lines with a cursor. It always holds at
// least one line.
type buffer struct {
	lines    [][]rune
	row, col int
}

func newBuffer(text string) *buffer {
	b := &buffer{}
	b.setText(text)
	return b
}

func (b *buffer) setText(text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	b.lines = make([][]rune, len(parts))
	for i, p := range parts {
		b.lines[i] = []rune(p)
	}
	b.row, b.col = 0, 0
}

func (b *buffer) text() string {
	parts := make([]string, len(b.lines))
	for i, l := range b.lines {
		parts[i] = string(l)
	}
	return strings.Join(parts, "\n")
}

func (b *buffer) line() []rune { return b.lines[b.row] }

func (b *buffer) insert(r rune) {
	l := b.lines[b.row]
	l = append(l[:b.col], append([]rune{r}, l[b.col:]...)...)
	b.lines[b.row] = l
	b.col++
}

func (b *buffer) insertText(text string) {
	for _, r := range text {
		switch r {
		case '\r':
		case '\n':
			b.newline()
		default:
			b.insert(r)
		}
	}
}

func (b *buffer) newline() {
	l := b.lines[b.row]
	head := append([]rune(nil), l[:b.col]...)
	tail := append([]rune(nil), l[b.col:]...)
	b.lines[b.row] = head
	b.lines = append(b.lines[:b.row+1], append([][]rune{tail}, b.lines[b.row+1:]...)...)
	b.row++
	b.col = 0
}

// backspace deletes before the cursor, joining lines at column zero.
func (b *buffer) backspace() bool {
	if b.col > 0 {
		l := b.lines[b.row]
		b.lines[b.row] = append(l[:b.col-1], l[b.col:]...)
		b.col--
		return true
	}
	if b.row == 0 {
		return false
	}
	prev := b.lines[b.row-1]
	b.col = len(prev)
	b.lines[b.row-1] = append(prev, b.lines[b.row]...)
	b.lines = append(b.lines[:b.row], b.lines[b.row+1:]...)
	b.row--
	return true
}

// del deletes under the cursor, joining the next line at end of line.
func (b *buffer) del() bool {
	l := b.lines[b.row]
	if b.col < len(l) {
		b.lines[b.row] = append(l[:b.col], l[b.col+1:]...)
		return true
	}
	if b.row == len(b.lines)-1 {
		return false
	}
	b.lines[b.row] = append(l, b.lines[b.row+1]...)
	b.lines = append(b.lines[:b.row+1], b.lines[b.row+2:]...)
	return true
}

func (b *buffer) moveTo(row, col int) {
	b.row = clamp(row, 0, len(b.lines)-1)
	b.col = clamp(col, 0, len(b.lines[b.row]))
}

func (b *buffer) left() {
	if b.col > 0 {
		b.col--
	} else if b.row > 0 {
		b.row--
		b.col = len(b.lines[b.row])
	}
}

func (b *buffer) right() {
	if b.col < len(b.lines[b.row]) {
		b.col++
	} else if b.row < len(b.lines)-1 {
		b.row++
		b.col = 0
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
