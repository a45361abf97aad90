// Package pdbqt splits multi-record PDBQT batches into single-molecule records.
//
// A batch is read line by line through a two-state machine. MODEL opens a
// record and ENDMDL closes it; both framing lines are dropped from the output.
// A record left open by a missing ENDMDL is flushed when the next MODEL
// arrives or when input ends. Lines outside any record are ignored
package pdbqt

import "strings"

// State of the record framing machine
type State uint8

const (
	// OutsideRecord is between records
	OutsideRecord State = iota
	// InsideRecord is accumulating a record
	InsideRecord
)

func (s State) String() string {
	if s == InsideRecord {
		return "inside"
	}
	return "outside"
}

// LineKind classifies one input line
type LineKind uint8

const (
	// Payload is any line that is not framing or a name line
	Payload LineKind = iota
	// Begin is a MODEL line
	Begin
	// End is an ENDMDL line
	End
	// Name is a "REMARK  Name = <id>" line
	Name
)

type action uint8

const (
	drop     action = iota // discard the line
	open                   // start a fresh record
	reopen                 // flush the open record, then start a fresh one
	appendLn               // add the line to the record
	nameLn                 // take the id if unset and add the line to the record
	finalize               // emit the record and reset
)

type transition struct {
	next State
	act  action
}

// transitions[state][kind]
var transitions = [2][4]transition{
	OutsideRecord: {
		Payload: {OutsideRecord, drop},
		Begin:   {InsideRecord, open},
		End:     {OutsideRecord, drop},
		Name:    {OutsideRecord, drop},
	},
	InsideRecord: {
		Payload: {InsideRecord, appendLn},
		Begin:   {InsideRecord, reopen},
		End:     {OutsideRecord, finalize},
		Name:    {InsideRecord, nameLn},
	},
}

// Classify returns the kind of line; leading blanks are ignored
func Classify(line string) LineKind {
	s := strings.TrimLeft(line, " \t")
	switch {
	case strings.HasPrefix(s, "ENDMDL"):
		return End
	case strings.HasPrefix(s, "MODEL"):
		return Begin
	}
	if _, ok := nameValue(s); ok {
		return Name
	}
	return Payload
}

// nameValue extracts <id> from "REMARK  Name = <id>".
// The keyword match ignores case and the amount of spacing
func nameValue(s string) (string, bool) {
	if len(s) < 6 || !strings.EqualFold(s[:6], "REMARK") {
		return "", false
	}
	rest := strings.TrimLeft(s[6:], " \t")
	if len(rest) < 4 || !strings.EqualFold(rest[:4], "name") {
		return "", false
	}
	rest = strings.TrimLeft(rest[4:], " \t")
	if !strings.HasPrefix(rest, "=") {
		return "", false
	}
	return strings.TrimSpace(rest[1:]), true
}
