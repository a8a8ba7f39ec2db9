package changes

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Change describes a proposed edit shown to a Confirmer.
type Change struct {
	FilePath      string
	LineNumber    int
	OriginalCode  string
	SuggestedCode string
}

// Confirmer decides whether a change may be applied.
type Confirmer interface {
	Confirm(c Change) bool
}

// ConfirmFunc adapts a function into a Confirmer.
type ConfirmFunc func(Change) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(c Change) bool { return f(c) }

// AlwaysConfirm approves every change.
var AlwaysConfirm Confirmer = ConfirmFunc(func(Change) bool { return true })

// NeverConfirm declines every change.
var NeverConfirm Confirmer = ConfirmFunc(func(Change) bool { return false })

// PromptConfirmer asks on Out and reads a y/yes answer from In.
type PromptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPromptConfirmer returns a Confirmer reading answers from in.
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm implements Confirmer. Read errors count as a decline.
func (p *PromptConfirmer) Confirm(c Change) bool {
	fmt.Fprintf(p.out, "\n%s:%d\n", c.FilePath, c.LineNumber)
	for _, l := range strings.Split(strings.TrimRight(c.OriginalCode, "\n"), "\n") {
		fmt.Fprintf(p.out, "- %s\n", l)
	}
	for _, l := range strings.Split(strings.TrimRight(c.SuggestedCode, "\n"), "\n") {
		fmt.Fprintf(p.out, "+ %s\n", l)
	}
	fmt.Fprint(p.out, "Apply this change? [y/N]: ")

	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false
	}
	resp := strings.ToLower(strings.TrimSpace(line))
	return resp == "y" || resp == "yes"
}

// ScriptedConfirmer answers from a fixed sequence, then declines.
type ScriptedConfirmer struct {
	answers []bool
	Asked   []Change
}

// NewScriptedConfirmer returns a Confirmer replaying answers in order.
func NewScriptedConfirmer(answers ...bool) *ScriptedConfirmer {
	return &ScriptedConfirmer{answers: answers}
}

// Confirm implements Confirmer.
func (s *ScriptedConfirmer) Confirm(c Change) bool {
	s.Asked = append(s.Asked, c)
	if len(s.answers) == 0 {
		return false
	}
	ans := s.answers[0]
	s.answers = s.answers[1:]
	return ans
}
