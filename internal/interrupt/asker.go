package interrupt

import (
	"bufio"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// NewAsker picks an interactive asker when in is a terminal and a plain
// line reader otherwise.
func NewAsker(in *os.File, out io.Writer) Asker {
	if term.IsTerminal(int(in.Fd())) {
		return &TeaAsker{In: in, Out: out}
	}
	return NewLineAsker(in, out)
}

// LineAsker reads one line of input per question.
type LineAsker struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLineAsker returns an asker reading answers from in.
func NewLineAsker(in io.Reader, out io.Writer) *LineAsker {
	return &LineAsker{in: bufio.NewReader(in), out: out}
}

func (a *LineAsker) Ask(question string) (string, error) {
	fmt.Fprintf(a.out, "\n%s", question)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return line, nil
}

// TeaAsker asks with a one-line Bubble Tea program.
type TeaAsker struct {
	In  io.Reader
	Out io.Writer
}

func (a *TeaAsker) Ask(question string) (string, error) {
	prog := tea.NewProgram(answerModel{question: question},
		tea.WithInput(a.In),
		tea.WithOutput(a.Out),
		tea.WithoutSignalHandler(),
	)
	final, err := prog.Run()
	if err != nil {
		return "", err
	}
	m, ok := final.(answerModel)
	if !ok {
		return "", nil
	}
	return m.Answer(), nil
}

// answerModel collects a single line of input. Ctrl+C and Esc abandon the
// question with an empty answer.
type answerModel struct {
	question string
	answer   []rune
	done     bool
}

func (m answerModel) Init() tea.Cmd { return nil }

func (m answerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyEnter:
		m.done = true
		return m, tea.Quit
	case tea.KeyCtrlC, tea.KeyEsc:
		m.answer = nil
		m.done = true
		return m, tea.Quit
	case tea.KeyBackspace:
		if len(m.answer) > 0 {
			m.answer = m.answer[:len(m.answer)-1]
		}
	case tea.KeyRunes, tea.KeySpace:
		m.answer = append(m.answer, key.Runes...)
	}
	return m, nil
}

func (m answerModel) View() string {
	v := "\n" + m.question + string(m.answer)
	if m.done {
		v += "\n"
	}
	return v
}

// Answer returns the collected line.
func (m answerModel) Answer() string { return string(m.answer) }
