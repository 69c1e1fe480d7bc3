package interrupt

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedAsker struct {
	answers []string
	err     error
	asked   int
}

func (a *scriptedAsker) Ask(question string) (string, error) {
	a.asked++
	if a.err != nil {
		return "", a.err
	}
	ans := a.answers[0]
	a.answers = a.answers[1:]
	return ans, nil
}

func TestPromptWithoutPendingInterrupt(t *testing.T) {
	asker := &scriptedAsker{}
	c := New(asker, &bytes.Buffer{})

	quit, err := c.Prompt()
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Zero(t, asker.asked, "no question without a pending interrupt")
}

func TestPromptAnswers(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		wantQuit bool
		wantAck  string
	}{
		{name: "y confirms", answer: "y\n", wantQuit: true, wantAck: "Exiting..."},
		{name: "yes confirms", answer: "yes\n", wantQuit: true, wantAck: "Exiting..."},
		{name: "uppercase Y continues", answer: "Y\n", wantQuit: false, wantAck: "Continue..."},
		{name: "n continues", answer: "n\n", wantQuit: false, wantAck: "Continue..."},
		{name: "empty continues", answer: "\n", wantQuit: false, wantAck: "Continue..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := New(&scriptedAsker{answers: []string{tt.answer}}, &out)
			c.Trigger()
			require.True(t, c.Pending())

			quit, err := c.Prompt()
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuit, quit)
			assert.Contains(t, out.String(), tt.wantAck)
			assert.Equal(t, tt.wantQuit, c.Pending(), "declining resets to idle")
		})
	}
}

func TestPromptReadFailureContinues(t *testing.T) {
	c := New(&scriptedAsker{err: errors.New("stdin closed")}, &bytes.Buffer{})
	c.Trigger()

	quit, err := c.Prompt()
	require.NoError(t, err)
	assert.False(t, quit)
	assert.False(t, c.Pending())
}

func TestInterruptEdges(t *testing.T) {
	c := New(&scriptedAsker{}, &bytes.Buffer{})

	c.Trigger()
	c.Trigger()
	select {
	case <-c.Interrupts():
	default:
		t.Fatal("expected a wakeup")
	}
	select {
	case <-c.Interrupts():
		t.Fatal("wakeups do not accumulate")
	default:
	}

	c.Trigger()
	c.Reset()
	assert.False(t, c.Pending())
	select {
	case <-c.Interrupts():
		t.Fatal("reset drops pending wakeups")
	default:
	}
}

func TestLineAsker(t *testing.T) {
	var out bytes.Buffer
	a := NewLineAsker(strings.NewReader("y please\nn\n"), &out)

	ans, err := a.Ask(Question)
	require.NoError(t, err)
	assert.Equal(t, "y please\n", ans)
	assert.Equal(t, "\n"+Question, out.String())

	ans, err = a.Ask(Question)
	require.NoError(t, err)
	assert.Equal(t, "n\n", ans)

	_, err = a.Ask(Question)
	assert.Error(t, err)
}

func TestAnswerModel(t *testing.T) {
	var m tea.Model = answerModel{question: Question}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("yx")})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "y", m.(answerModel).Answer())
	assert.Contains(t, m.View(), Question+"y")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, strings.HasSuffix(m.View(), "\n"))
}

func TestAnswerModelCtrlCAbandons(t *testing.T) {
	var m tea.Model = answerModel{question: Question}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, "", m.(answerModel).Answer())
}
