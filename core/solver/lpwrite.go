package solver

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const termsPerLine = 8

// WriteLP writes p in CPLEX LP format so any external MILP engine can
// solve the same model.
func WriteLP(w io.Writer, p *Problem) error {
	bw := bufio.NewWriter(w)
	names := make([]string, len(p.Vars))
	for i, v := range p.Vars {
		names[i] = lpName(v.Name, "x", i)
	}
	if p.Dir == Maximize {
		fmt.Fprintln(bw, "Maximize")
	} else {
		fmt.Fprintln(bw, "Minimize")
	}
	fmt.Fprint(bw, " obj:")
	obj := p.Objective.Merged()
	if len(obj) == 0 && len(names) > 0 {
		fmt.Fprintf(bw, " 0 %s", names[0])
	}
	writeTerms(bw, obj, names)
	if p.Objective.Const != 0 {
		fmt.Fprintf(bw, " %s %s", sign(p.Objective.Const), num(math.Abs(p.Objective.Const)))
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "Subject To")
	for k, r := range p.Rows {
		fmt.Fprintf(bw, " %s:", lpName(r.Name, "c", k))
		if len(r.Coef) == 0 && len(names) > 0 {
			fmt.Fprintf(bw, " 0 %s", names[0])
		}
		writeTerms(bw, r.Coef, names)
		fmt.Fprintf(bw, " %s %s\n", r.Sense, num(r.RHS))
	}

	fmt.Fprintln(bw, "Bounds")
	for i, v := range p.Vars {
		if v.Type == Binary {
			continue
		}
		switch {
		case math.IsInf(v.LB, -1) && math.IsInf(v.UB, 1):
			fmt.Fprintf(bw, " %s free\n", names[i])
		case math.IsInf(v.UB, 1):
			if v.LB != 0 {
				fmt.Fprintf(bw, " %s >= %s\n", names[i], num(v.LB))
			}
		case math.IsInf(v.LB, -1):
			fmt.Fprintf(bw, " -inf <= %s <= %s\n", names[i], num(v.UB))
		default:
			fmt.Fprintf(bw, " %s <= %s <= %s\n", num(v.LB), names[i], num(v.UB))
		}
	}
	if p.NumIntegers() > 0 {
		fmt.Fprintln(bw, "Binary")
		for i, v := range p.Vars {
			if v.Type == Binary {
				fmt.Fprintf(bw, " %s\n", names[i])
			}
		}
	}
	fmt.Fprintln(bw, "End")
	return bw.Flush()
}

func writeTerms(w io.Writer, coef map[int]float64, names []string) {
	for k, id := range sortedIDs(coef) {
		if k > 0 && k%termsPerLine == 0 {
			fmt.Fprint(w, "\n  ")
		}
		c := coef[id]
		if k == 0 && c >= 0 {
			fmt.Fprintf(w, " %s %s", num(c), names[id])
			continue
		}
		fmt.Fprintf(w, " %s %s %s", sign(c), num(math.Abs(c)), names[id])
	}
}

func sign(c float64) string {
	if c < 0 {
		return "-"
	}
	return "+"
}

func num(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	if math.IsInf(v, -1) {
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// lpName keeps the characters the LP format accepts and guarantees a
// non-empty name that does not start with a digit or period.
func lpName(name, prefix string, idx int) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case strings.ContainsRune("!\"#$%&()/,.;?@_`'{}|~", r):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" {
		return prefix + strconv.Itoa(idx)
	}
	if c := out[0]; (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' {
		out = prefix + "_" + out
	}
	return out
}
