package codegen

import "strings"

// peepholeRounds caps the scan-until-stable loop. Each pattern strictly
// shrinks the text, so the cap is a safety net rather than a limit hit in
// practice.
const peepholeRounds = 10

// Peephole rewrites short windows of emitted assembly text:
//
//   - a mov whose source and destination register are the same is deleted
//   - "mov $imm, R" immediately followed by "add R, Y" fuses into
//     "add $imm, Y"
//   - "add $0", "sub $0" and "imul $1" are deleted
//
// It returns the rewritten text and the number of rewrites applied.
// Labels, directives and instructions it does not recognize pass through
// untouched.
func Peephole(asm string) (string, int) {
	lines := strings.Split(asm, "\n")
	total := 0
	for round := 0; round < peepholeRounds; round++ {
		var n int
		lines, n = peepholeScan(lines)
		total += n
		if n == 0 {
			break
		}
	}
	return strings.Join(lines, "\n"), total
}

// instruction is one parsed assembly line. Lines that are not
// instructions (labels, directives, blanks) parse to a zero op.
type instruction struct {
	op   string
	args []string
}

func parseInstruction(line string) instruction {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasSuffix(trimmed, ":") || strings.HasPrefix(trimmed, ".") {
		return instruction{}
	}
	op, rest, found := strings.Cut(trimmed, " ")
	if !found {
		return instruction{op: op}
	}
	parts := strings.Split(rest, ",")
	args := make([]string, len(parts))
	for i, p := range parts {
		args[i] = strings.TrimSpace(p)
	}
	return instruction{op: op, args: args}
}

func isRegister(s string) bool  { return strings.HasPrefix(s, "%") }
func isImmediate(s string) bool { return strings.HasPrefix(s, "$") }

func peepholeScan(lines []string) ([]string, int) {
	out := make([]string, 0, len(lines))
	count := 0

	for i := 0; i < len(lines); i++ {
		ins := parseInstruction(lines[i])

		switch {
		case ins.op == "mov" && len(ins.args) == 2 &&
			isRegister(ins.args[0]) && ins.args[0] == ins.args[1]:
			// self move
			count++
			continue

		case (ins.op == "add" || ins.op == "sub") && len(ins.args) == 2 &&
			ins.args[0] == "$0":
			count++
			continue

		case ins.op == "imul" && len(ins.args) == 2 && ins.args[0] == "$1":
			count++
			continue

		case ins.op == "mov" && len(ins.args) == 2 &&
			isImmediate(ins.args[0]) && isRegister(ins.args[1]) && i+1 < len(lines):
			next := parseInstruction(lines[i+1])
			// Dropping the mov is sound only because the emitter never
			// reads the staging register again after the add consumes it.
			if next.op == "add" && len(next.args) == 2 && next.args[0] == ins.args[1] {
				out = append(out, "  add "+ins.args[0]+", "+next.args[1])
				count++
				i++
				continue
			}
		}

		out = append(out, lines[i])
	}
	return out, count
}
