package pdbqt

import (
	"bufio"
	"io"
	"strings"
)

// maxLine bounds a single input line
const maxLine = 1 << 20

// Record is one finalized molecule
type Record struct {
	Index int      // position among records finalized from the same batch, from 0
	ID    string   // value of the name line, "" when absent
	Lines []string // payload without framing lines
}

// FileName returns the filesystem-safe output name for r
func (r Record) FileName() string { return FileName(r.ID, r.Lines, r.Index) }

// Bytes renders the payload with each line terminated by '\n'
func (r Record) Bytes() []byte {
	n := 0
	for _, l := range r.Lines {
		n += len(l) + 1
	}
	b := make([]byte, 0, n)
	for _, l := range r.Lines {
		b = append(b, l...)
		b = append(b, '\n')
	}
	return b
}

// EmitFunc receives each finalized record. A non-nil error stops the parse
type EmitFunc func(Record) error

// Parser is the streaming record splitter for one batch; not safe for concurrent use
type Parser struct {
	state State
	buf   []string
	id    string
	index int
	emit  EmitFunc
}

// NewParser returns a parser that hands records to emit
func NewParser(emit EmitFunc) *Parser { return &Parser{emit: emit} }

// State reports the current framing state
func (p *Parser) State() State { return p.state }

// Count is the number of records emitted so far
func (p *Parser) Count() int { return p.index }

// Feed consumes one line without its terminator
func (p *Parser) Feed(line string) error {
	line = strings.TrimRight(line, "\r\n")
	kind := Classify(line)
	tr := transitions[p.state][kind]
	p.state = tr.next

	switch tr.act {
	case drop:
	case open:
		p.reset()
	case reopen:
		if err := p.flush(); err != nil {
			return err
		}
	case appendLn:
		p.buf = append(p.buf, line)
	case nameLn:
		if p.id == "" {
			p.id, _ = nameValue(strings.TrimLeft(line, " \t"))
		}
		p.buf = append(p.buf, line)
	case finalize:
		return p.flush()
	}
	return nil
}

// Close flushes a record left open at end of input
func (p *Parser) Close() error {
	if p.state != InsideRecord {
		return nil
	}
	p.state = OutsideRecord
	return p.flush()
}

// flush emits the open record when it has payload, then clears it
func (p *Parser) flush() error {
	defer p.reset()
	if len(p.buf) == 0 {
		return nil
	}
	rec := Record{Index: p.index, ID: p.id, Lines: p.buf}
	p.index++
	if p.emit == nil {
		return nil
	}
	return p.emit(rec)
}

func (p *Parser) reset() {
	p.buf = nil
	p.id = ""
}

// Scan splits r and returns the number of records emitted
func Scan(r io.Reader, emit EmitFunc) (int, error) {
	p := NewParser(emit)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	for sc.Scan() {
		if err := p.Feed(sc.Text()); err != nil {
			return p.Count(), err
		}
	}
	if err := sc.Err(); err != nil {
		return p.Count(), err
	}
	if err := p.Close(); err != nil {
		return p.Count(), err
	}
	return p.Count(), nil
}
