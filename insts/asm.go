package insts

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse assembles a ternary assembly listing into instructions. The format is
// one instruction per line, ';' comments, optional "name:" labels, and
// comma-separated operands. Immediates are written "#n"; BR3 and JMP targets
// may be labels or absolute instruction indexes; systolic lane operands are a
// lane index or "*" to let the sequencer pick the default lane.
func Parse(src string) ([]*Instruction, error) {
	type rawLine struct {
		num    int
		tokens []string
	}

	var lines []rawLine
	labels := map[string]int{}

	for num, line := range strings.Split(src, "\n") {
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		for strings.Contains(line, ":") {
			i := strings.IndexByte(line, ':')
			label := strings.TrimSpace(line[:i])
			if label == "" {
				return nil, fmt.Errorf("line %d: empty label", num+1)
			}
			if _, dup := labels[label]; dup {
				return nil, fmt.Errorf("line %d: duplicate label %q", num+1, label)
			}
			labels[label] = len(lines)
			line = strings.TrimSpace(line[i+1:])
		}
		if line == "" {
			continue
		}

		mnemonic, rest, _ := strings.Cut(line, " ")
		tokens := []string{strings.ToUpper(mnemonic)}
		if rest != "" {
			for _, tok := range strings.Split(rest, ",") {
				tokens = append(tokens, strings.TrimSpace(tok))
			}
		}
		lines = append(lines, rawLine{num: num + 1, tokens: tokens})
	}

	target := func(tok string) (int, error) {
		if idx, ok := labels[tok]; ok {
			return idx, nil
		}
		idx, err := strconv.Atoi(tok)
		if err != nil || idx < 0 {
			return 0, fmt.Errorf("bad branch target %q", tok)
		}
		return idx, nil
	}

	var prog []*Instruction
	for _, l := range lines {
		inst, err := parseLine(l.tokens, target)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", l.num, err)
		}
		prog = append(prog, inst)
	}
	return prog, nil
}

func parseLine(tokens []string, target func(string) (int, error)) (*Instruction, error) {
	var op Op
	for candidate, name := range opNames {
		if name == tokens[0] {
			op = candidate
			break
		}
	}
	if op == OpUnknown {
		return nil, fmt.Errorf("unknown mnemonic %q", tokens[0])
	}

	operands := tokens[1:]
	need := func(n int) error {
		if len(operands) != n {
			return fmt.Errorf("%v expects %d operands, got %d", op, n, len(operands))
		}
		return nil
	}

	b := NewInst(op)
	switch op {
	case OpNOP, OpHALT:
		if err := need(0); err != nil {
			return nil, err
		}

	case OpLDI:
		if err := need(2); err != nil {
			return nil, err
		}
		r, err := ParseReg(operands[0])
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(operands[1], "#") {
			return nil, fmt.Errorf("immediate must be written #n, got %q", operands[1])
		}
		imm, err := strconv.ParseInt(operands[1][1:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad immediate %q", operands[1])
		}
		b = b.WithDst(r).WithImm(imm)

	case OpLD1, OpLD2, OpLD3, OpST1, OpST2, OpST3, OpPRM, OpDMT:
		if err := need(1); err != nil {
			return nil, err
		}
		r, err := ParseReg(operands[0])
		if err != nil {
			return nil, err
		}
		b = b.WithDst(r)

	case OpMOV:
		if err := need(2); err != nil {
			return nil, err
		}
		dst, err := ParseReg(operands[0])
		if err != nil {
			return nil, err
		}
		src, err := ParseReg(operands[1])
		if err != nil {
			return nil, err
		}
		b = b.WithDst(dst).WithSrc(src)

	case OpADD, OpSUB, OpMUL, OpDIV:
		if err := need(3); err != nil {
			return nil, err
		}
		s1, err := ParseReg(operands[0])
		if err != nil {
			return nil, err
		}
		s2, err := ParseReg(operands[1])
		if err != nil {
			return nil, err
		}
		dst, err := ParseReg(operands[2])
		if err != nil {
			return nil, err
		}
		b = b.WithSrcs(s1, s2).WithDst(dst)

	case OpBR3:
		if err := need(4); err != nil {
			return nil, err
		}
		cond, err := ParseReg(operands[0])
		if err != nil {
			return nil, err
		}
		tn, err := target(operands[1])
		if err != nil {
			return nil, err
		}
		tz, err := target(operands[2])
		if err != nil {
			return nil, err
		}
		tp, err := target(operands[3])
		if err != nil {
			return nil, err
		}
		b = b.WithCond(cond).WithTargets(tn, tz, tp)

	case OpJMP:
		if err := need(1); err != nil {
			return nil, err
		}
		t, err := target(operands[0])
		if err != nil {
			return nil, err
		}
		b = b.WithTarget(t)

	case OpLDW, OpSTRM, OpDRN:
		if err := need(1); err != nil {
			return nil, err
		}
		if operands[0] == "*" {
			b = b.WithLane(-1)
		} else {
			lane, err := strconv.Atoi(operands[0])
			if err != nil || lane < 0 {
				return nil, fmt.Errorf("bad lane %q", operands[0])
			}
			b = b.WithLane(lane)
		}
	}

	return b.Build(), nil
}
