package navigator

import (
	"errors"
	"fmt"
	"io"
)

const plainHelp = "[a]ccept [r]eject [b]atch [u]ndo a[p]ply-pending [q]uit, arrows to move"

// RunPlain drives s from a line-oriented reader, printing to w. It is
// used when no terminal is attached. End of input quits the session.
func RunPlain(s *Session, r io.Reader, w io.Writer) error {
	dec := NewDecoder(r)
	for !s.Done() {
		fmt.Fprintln(w, Header(s))
		fmt.Fprintln(w, IssueView(s))
		fmt.Fprintf(w, "%s\n> ", plainHelp)

		sym, err := dec.Next()
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read input: %w", err)
		}
		fmt.Fprintln(w)
		ev := s.Handle(sym)
		if ev.Message != "" {
			fmt.Fprintln(w, ev.Message)
		}
		if ev.Batch != nil {
			for _, d := range ev.Batch.Details {
				fmt.Fprintf(w, "  %s:%d %s\n", d.FilePath, d.LineNumber, batchStatus(d.Success))
			}
		}
		if ev.Quit {
			break
		}
	}
	fmt.Fprint(w, SummaryView(s.Summary()))
	return nil
}

func batchStatus(ok bool) string {
	if ok {
		return "applied"
	}
	return "failed"
}
