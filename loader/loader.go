// Package loader reads program and input files for the simulator.
//
// Programs are ternary assembly text, one instruction per line, with ';'
// comments and "name:" labels. Input files carry one word per line, written
// either as a decimal integer or as a balanced-ternary digit literal.
package loader

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/ternsim/insts"
	"github.com/sarchlab/ternsim/trit"
)

// Program is a parsed program ready for the sequencer.
type Program struct {
	// Path is the source file the program was read from.
	Path string
	// Instructions is the decoded program in order.
	Instructions []*insts.Instruction
}

// LoadProgram parses a ternary assembly file.
func LoadProgram(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program file: %w", err)
	}

	instructions, err := insts.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Program{
		Path:         path,
		Instructions: instructions,
	}, nil
}

// LoadWords parses an input word file. Lines hold either a decimal integer
// or a balanced-ternary literal of -/0/+ digits; ';' starts a comment.
func LoadWords(path string) ([]trit.Word, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read word file: %w", err)
	}

	var words []trit.Word
	for lineNo, line := range strings.Split(string(data), "\n") {
		if i := strings.Index(line, ";"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		w, err := parseWord(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo+1, err)
		}
		words = append(words, w)
	}
	return words, nil
}

// parseWord accepts either notation. A token made only of trit digits is a
// ternary literal; anything else must parse as a decimal integer.
func parseWord(token string) (trit.Word, error) {
	if isTritLiteral(token) {
		return trit.ParseWord(token)
	}
	v, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return trit.Word{}, fmt.Errorf("invalid word %q", token)
	}
	return trit.FromInt64(v), nil
}

func isTritLiteral(token string) bool {
	for _, ch := range token {
		if ch != '-' && ch != '0' && ch != '+' {
			return false
		}
	}
	return true
}
