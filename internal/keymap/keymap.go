// Package keymap normalizes the key-name tokens screenplay actions use
// (e.g. "enter", "ctrl+c") into a bubbletea tea.KeyMsg (ToTeaMsg) or the
// raw byte sequence a terminal expects (ToANSI, which the visual lane's
// FakeEmulator uses to deliver keys).
package keymap

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Named token aliases accepted in screenplays, case-insensitively.
const (
	Enter     = "enter"
	Tab       = "tab"
	Escape    = "escape"
	Backspace = "backspace"
	Up        = "up"
	Down      = "down"
	Left      = "left"
	Right     = "right"
	Space     = "space"
)

var ctrlKeys = map[byte]tea.KeyType{
	'a': tea.KeyCtrlA, 'b': tea.KeyCtrlB, 'c': tea.KeyCtrlC, 'd': tea.KeyCtrlD,
	'e': tea.KeyCtrlE, 'f': tea.KeyCtrlF, 'g': tea.KeyCtrlG, 'h': tea.KeyCtrlH,
	'j': tea.KeyCtrlJ, 'k': tea.KeyCtrlK, 'l': tea.KeyCtrlL, 'n': tea.KeyCtrlN,
	'o': tea.KeyCtrlO, 'p': tea.KeyCtrlP, 'q': tea.KeyCtrlQ, 'r': tea.KeyCtrlR,
	's': tea.KeyCtrlS, 't': tea.KeyCtrlT, 'u': tea.KeyCtrlU, 'v': tea.KeyCtrlV,
	'w': tea.KeyCtrlW, 'x': tea.KeyCtrlX, 'y': tea.KeyCtrlY, 'z': tea.KeyCtrlZ,
}

// ToTeaMsg converts a normalized key token into the equivalent bubbletea
// key message.
func ToTeaMsg(token string) (tea.Msg, error) {
	norm := strings.ToLower(strings.TrimSpace(token))
	if ctrl, ok := strings.CutPrefix(norm, "ctrl+"); ok && len(ctrl) == 1 {
		if kt, ok := ctrlKeys[ctrl[0]]; ok {
			return tea.KeyMsg{Type: kt}, nil
		}
		return nil, fmt.Errorf("unrecognized ctrl key token %q", token)
	}
	switch norm {
	case Enter:
		return tea.KeyMsg{Type: tea.KeyEnter}, nil
	case Tab:
		return tea.KeyMsg{Type: tea.KeyTab}, nil
	case Escape:
		return tea.KeyMsg{Type: tea.KeyEsc}, nil
	case Backspace:
		return tea.KeyMsg{Type: tea.KeyBackspace}, nil
	case Up:
		return tea.KeyMsg{Type: tea.KeyUp}, nil
	case Down:
		return tea.KeyMsg{Type: tea.KeyDown}, nil
	case Left:
		return tea.KeyMsg{Type: tea.KeyLeft}, nil
	case Right:
		return tea.KeyMsg{Type: tea.KeyRight}, nil
	case Space:
		return tea.KeyMsg{Type: tea.KeySpace}, nil
	default:
		runes := []rune(norm)
		if len(runes) == 1 {
			return tea.KeyMsg{Type: tea.KeyRunes, Runes: runes}, nil
		}
		return nil, fmt.Errorf("unrecognized key token %q", token)
	}
}

// ToANSI converts a normalized key token into the byte sequence a PTY
// master expects on its write side.
func ToANSI(token string) ([]byte, error) {
	norm := strings.ToLower(strings.TrimSpace(token))
	switch norm {
	case Enter:
		return []byte("\r"), nil
	case Tab:
		return []byte("\t"), nil
	case Escape:
		return []byte("\x1b"), nil
	case Backspace:
		return []byte{0x7f}, nil
	case Up:
		return []byte("\x1b[A"), nil
	case Down:
		return []byte("\x1b[B"), nil
	case Right:
		return []byte("\x1b[C"), nil
	case Left:
		return []byte("\x1b[D"), nil
	case Space:
		return []byte(" "), nil
	default:
		if ctrl, ok := strings.CutPrefix(norm, "ctrl+"); ok && len(ctrl) == 1 {
			return []byte{ctrl[0] &^ 0x60}, nil
		}
		if len([]rune(norm)) == 1 {
			return []byte(norm), nil
		}
		return nil, fmt.Errorf("unrecognized key token %q", token)
	}
}
