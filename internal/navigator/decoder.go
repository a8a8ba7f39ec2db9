package navigator

import (
	"bufio"
	"errors"
	"io"
)

const esc = 0x1b

// Decoder turns a byte stream into navigator symbols. Single letters map
// to actions; ESC [ A-D sequences map to the arrow keys. Whitespace
// between symbols is ignored.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder wraps r. Passing a *bufio.Reader shares its buffer, so a
// confirmation prompt reading from the same reader stays in step.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next symbol. Unrecognised input yields SymNone. At end
// of input it returns SymQuit with io.EOF.
func (d *Decoder) Next() (Symbol, error) {
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return SymQuit, io.EOF
			}
			return SymNone, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case esc:
			return d.escape(), nil
		}
		sym := letterSymbol(b)
		d.eatNewline()
		return sym, nil
	}
}

func letterSymbol(b byte) Symbol {
	switch b {
	case 'q', 'Q':
		return SymQuit
	case 'a', 'A':
		return SymAccept
	case 'r', 'R':
		return SymReject
	case 'b', 'B':
		return SymToggleBatch
	case 'u', 'U':
		return SymUndo
	case 'p', 'P':
		return SymApplyPending
	}
	return SymNone
}

func (d *Decoder) escape() Symbol {
	b, err := d.r.ReadByte()
	if err != nil || b != '[' {
		if err == nil {
			_ = d.r.UnreadByte()
		}
		return SymNone
	}
	b, err = d.r.ReadByte()
	if err != nil {
		return SymNone
	}
	d.eatNewline()
	switch b {
	case 'A':
		return SymPrevFile
	case 'B':
		return SymNextFile
	case 'C':
		return SymNextIssue
	case 'D':
		return SymPrevIssue
	}
	return SymNone
}

// eatNewline consumes a line terminator that directly follows a symbol
// typed in line-buffered mode.
func (d *Decoder) eatNewline() {
	if p, err := d.r.Peek(1); err == nil && p[0] == '\r' {
		_, _ = d.r.ReadByte()
	}
	if p, err := d.r.Peek(1); err == nil && p[0] == '\n' {
		_, _ = d.r.ReadByte()
	}
}
