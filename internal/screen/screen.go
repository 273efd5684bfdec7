// Package screen implements the rolling terminal snapshot shared by every
// lane runtime: a stream-tail ring buffer of raw output and a replayed
// screen grid, the two snapshot surfaces the wait/assert evaluator samples.
package screen

import (
	"bytes"
	"crypto/sha256"
	"strings"
	"sync"
)

// Model owns both snapshot surfaces for one scenario. It is not safe to
// construct a second writer against the same Model: exactly one reader
// goroutine (PTY lane) or one remote-control poll loop (visual lane) feeds
// it, per SPEC_FULL.md §5's single-reader ownership rule. Reads are
// synchronized so the evaluator may sample concurrently with that writer.
type Model struct {
	mu sync.RWMutex

	width, height int
	grid          [][]rune
	cursorRow     int
	cursorCol     int

	tail      bytes.Buffer
	tailLimit int

	escBuf []byte // pending partial escape sequence across Write calls
}

// NewModel creates a screen model sized width x height, with a stream-tail
// budget of tailLimitBytes (the "last K kilobytes" of §4.2).
func NewModel(width, height, tailLimitBytes int) *Model {
	m := &Model{
		width:     width,
		height:    height,
		tailLimit: tailLimitBytes,
	}
	m.grid = make([][]rune, height)
	for i := range m.grid {
		m.grid[i] = make([]rune, width)
		for j := range m.grid[i] {
			m.grid[i][j] = ' '
		}
	}
	return m
}

// Write feeds raw child/emulator output into both surfaces. It implements
// io.Writer so it can be handed directly to a PTY reader loop.
func (m *Model) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tail.Write(p)
	if excess := m.tail.Len() - m.tailLimit; m.tailLimit > 0 && excess > 0 {
		m.tail.Next(excess) // drop the oldest excess bytes, keep the tail window
	}

	m.replay(append(m.escBuf, p...))
	return len(p), nil
}

// StreamTail returns the last K bytes of raw output, the default wait/assert
// surface.
func (m *Model) StreamTail() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tail.String()
}

// Screen returns the current visible grid as newline-joined rows, cursor
// positioning stripped but line boundaries retained, per §4.2.
func (m *Model) Screen() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.renderLocked()
}

func (m *Model) renderLocked() string {
	var b strings.Builder
	for i, row := range m.grid {
		b.WriteString(strings.TrimRight(string(row), " "))
		if i < len(m.grid)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// LastNonEmptyLine returns the final non-empty line of the screen grid, the
// surface `wait_mode=line` matches against.
func (m *Model) LastNonEmptyLine() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.grid) - 1; i >= 0; i-- {
		line := strings.TrimRight(string(m.grid[i]), " ")
		if line != "" {
			return line
		}
	}
	return ""
}

// StabilityHash returns a content hash of the current screen grid, used by
// wait_stable to detect "no screen change for a duration" without storing
// full history.
func (m *Model) StabilityHash() [32]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sha256.Sum256([]byte(m.renderLocked()))
}

// replay interprets a chunk of raw terminal output, updating the grid. It
// handles the control sequences needed to approximate a screen: cursor
// movement, line/screen erase, carriage return/linefeed/backspace, and SGR
// (consumed but not rendered — color is out of scope for the text grid).
// Other control bytes and escape sequences it cannot interpret are consumed
// without effect, matching the teacher's ANSI handling discipline of "skip
// unknown, never corrupt data".
func (m *Model) replay(data []byte) {
	i := 0
	for i < len(data) {
		c := data[i]
		switch {
		case c == '\r':
			m.cursorCol = 0
			i++
		case c == '\n':
			m.lineFeed()
			i++
		case c == '\b':
			if m.cursorCol > 0 {
				m.cursorCol--
			}
			i++
		case c == 0x1b: // ESC
			consumed, complete := m.replayEscape(data[i:])
			if !complete {
				m.escBuf = append(m.escBuf[:0], data[i:]...)
				return
			}
			m.escBuf = m.escBuf[:0]
			i += consumed
		case c < 0x20:
			i++ // drop other control bytes
		default:
			r, size := decodeRune(data[i:])
			m.put(r)
			i += size
		}
	}
	m.escBuf = m.escBuf[:0]
}

func decodeRune(b []byte) (rune, int) {
	// The grid is ASCII/Latin-terminal oriented; a byte-for-byte decode is
	// sufficient for the demo-recording domain (shell prompts, command
	// output) and avoids pulling in a UTF-8 state machine here since the
	// stream tail already preserves the raw bytes for anything smarter.
	if b[0] < 0x80 {
		return rune(b[0]), 1
	}
	return rune(b[0]), 1
}

func (m *Model) put(r rune) {
	if m.cursorRow >= len(m.grid) {
		return
	}
	if m.cursorCol >= m.width {
		m.lineFeed()
	}
	m.grid[m.cursorRow][m.cursorCol] = r
	m.cursorCol++
}

func (m *Model) lineFeed() {
	m.cursorCol = 0
	if m.cursorRow < m.height-1 {
		m.cursorRow++
		return
	}
	// scroll
	copy(m.grid, m.grid[1:])
	last := make([]rune, m.width)
	for i := range last {
		last[i] = ' '
	}
	m.grid[m.height-1] = last
}

// replayEscape interprets one ESC-prefixed sequence starting at data[0]=ESC.
// It returns the number of bytes consumed and whether the sequence was
// complete (false means the caller should buffer and wait for more data).
func (m *Model) replayEscape(data []byte) (int, bool) {
	if len(data) < 2 {
		return 0, false
	}
	switch data[1] {
	case '[':
		return m.replayCSI(data)
	case ']':
		return m.replayOSC(data)
	case '(', ')', '*', '+':
		if len(data) < 3 {
			return 0, false
		}
		return 3, true
	default:
		return 2, true
	}
}

func (m *Model) replayCSI(data []byte) (int, bool) {
	i := 2
	for i < len(data) {
		if data[i] >= 0x40 && data[i] <= 0x7e {
			m.applyCSI(string(data[2:i]), data[i])
			return i + 1, true
		}
		i++
	}
	return 0, false
}

func (m *Model) replayOSC(data []byte) (int, bool) {
	i := 2
	for i < len(data) {
		if data[i] == 0x07 {
			return i + 1, true
		}
		if data[i] == 0x1b && i+1 < len(data) && data[i+1] == '\\' {
			return i + 2, true
		}
		i++
	}
	return 0, false
}

func (m *Model) applyCSI(params string, final byte) {
	n := parseCSIParam(params, 1)
	switch final {
	case 'A': // cursor up
		m.cursorRow = max(0, m.cursorRow-n)
	case 'B': // cursor down
		m.cursorRow = min(m.height-1, m.cursorRow+n)
	case 'C': // cursor forward
		m.cursorCol = min(m.width-1, m.cursorCol+n)
	case 'D': // cursor back
		m.cursorCol = max(0, m.cursorCol-n)
	case 'H', 'f': // cursor position row;col (1-indexed)
		row, col := parseCSIPair(params)
		m.cursorRow = clamp(row-1, 0, m.height-1)
		m.cursorCol = clamp(col-1, 0, m.width-1)
	case 'J': // erase in display
		m.eraseDisplay(parseCSIParam(params, 0))
	case 'K': // erase in line
		m.eraseLine(parseCSIParam(params, 0))
	case 'm':
		// SGR (color/attributes): consumed, not rendered into the text grid.
	default:
		// Unhandled CSI final byte: consumed without effect, same policy as
		// the teacher's ANSI converter's default branch.
	}
}

func (m *Model) eraseDisplay(mode int) {
	switch mode {
	case 2, 3:
		for r := range m.grid {
			for c := range m.grid[r] {
				m.grid[r][c] = ' '
			}
		}
	case 0:
		m.eraseLine(0)
		for r := m.cursorRow + 1; r < m.height; r++ {
			for c := range m.grid[r] {
				m.grid[r][c] = ' '
			}
		}
	case 1:
		m.eraseLine(1)
		for r := 0; r < m.cursorRow; r++ {
			for c := range m.grid[r] {
				m.grid[r][c] = ' '
			}
		}
	}
}

func (m *Model) eraseLine(mode int) {
	if m.cursorRow >= len(m.grid) {
		return
	}
	row := m.grid[m.cursorRow]
	switch mode {
	case 0:
		for c := m.cursorCol; c < len(row); c++ {
			row[c] = ' '
		}
	case 1:
		for c := 0; c <= m.cursorCol && c < len(row); c++ {
			row[c] = ' '
		}
	case 2:
		for c := range row {
			row[c] = ' '
		}
	}
}

func parseCSIParam(params string, def int) int {
	first := strings.SplitN(params, ";", 2)[0]
	return parseOneInt(first, def)
}

func parseCSIPair(params string) (int, int) {
	parts := strings.SplitN(params, ";", 2)
	row := parseOneInt(parts[0], 1)
	col := 1
	if len(parts) == 2 {
		col = parseOneInt(parts[1], 1)
	}
	return row, col
}

// parseOneInt parses a decimal CSI parameter, returning def when the
// parameter is absent or malformed (an absent parameter always means the
// sequence's documented default, never zero).
func parseOneInt(s string, def int) int {
	if s == "" {
		return def
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return def
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
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
