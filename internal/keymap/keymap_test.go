package keymap

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToTeaMsgNamedKeys(t *testing.T) {
	msg, err := ToTeaMsg("Enter")
	require.NoError(t, err)
	assert.Equal(t, tea.KeyMsg{Type: tea.KeyEnter}, msg)
}

func TestToTeaMsgSingleRune(t *testing.T) {
	msg, err := ToTeaMsg("q")
	require.NoError(t, err)
	assert.Equal(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, msg)
}

func TestToTeaMsgCtrl(t *testing.T) {
	msg, err := ToTeaMsg("ctrl+c")
	require.NoError(t, err)
	assert.Equal(t, tea.KeyMsg{Type: tea.KeyCtrlC}, msg)
}

func TestToTeaMsgRejectsUnknown(t *testing.T) {
	_, err := ToTeaMsg("f13")
	assert.Error(t, err)
}

func TestToANSINamedKeys(t *testing.T) {
	b, err := ToANSI("enter")
	require.NoError(t, err)
	assert.Equal(t, []byte("\r"), b)

	b, err = ToANSI("up")
	require.NoError(t, err)
	assert.Equal(t, []byte("\x1b[A"), b)
}

func TestToANSICtrl(t *testing.T) {
	b, err := ToANSI("ctrl+c")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03}, b)
}

func TestToANSISingleRune(t *testing.T) {
	b, err := ToANSI("q")
	require.NoError(t, err)
	assert.Equal(t, []byte("q"), b)
}
