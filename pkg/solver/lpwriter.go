/*
Copyright 2025 The optiserve Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package solver

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/optiserve/optiserve/pkg/core"
)

// objectiveRowName is the name given to the objective row in LP output.
const objectiveRowName = "obj"

// WriteLP serializes a canonical model into CPLEX LP format, the problem
// representation glpsol consumes via --lp.
//
// Every declared variable is emitted in the objective row, including
// zero-coefficient ones; LP format declares variables by appearance, and
// a variable mentioned only in the Bounds section would be rejected.
func WriteLP(w io.Writer, m *core.Model) error {
	var b strings.Builder

	b.WriteString("\\ Problem: ")
	b.WriteString(m.Name)
	b.WriteString("\n")

	switch m.Objective.Direction {
	case core.DirectionMaximize:
		b.WriteString("Maximize\n")
	default:
		b.WriteString("Minimize\n")
	}
	writeObjectiveRow(&b, m)

	b.WriteString("Subject To\n")
	for _, c := range m.Constraints {
		if err := writeConstraintRow(&b, m, c); err != nil {
			return err
		}
	}

	writeBounds(&b, m)
	writeIntegrality(&b, m)

	b.WriteString("End\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeObjectiveRow(b *strings.Builder, m *core.Model) {
	b.WriteString(" ")
	b.WriteString(objectiveRowName)
	b.WriteString(":")
	for i, v := range m.Variables {
		writeTerm(b, m.Objective.Coefficients[i], v.Name, i == 0)
	}
	b.WriteString("\n")
}

func writeConstraintRow(b *strings.Builder, m *core.Model, c core.Constraint) error {
	b.WriteString(" ")
	b.WriteString(c.Name)
	b.WriteString(":")

	indices := c.TermIndices()
	if len(indices) == 0 {
		// All coefficients were zero; LP format cannot express an empty
		// row, and such a constraint is vacuous or contradictory anyway.
		return fmt.Errorf("constraint %q has no nonzero terms", c.Name)
	}
	for i, idx := range indices {
		writeTerm(b, c.Terms[idx], m.Variables[idx].Name, i == 0)
	}

	switch c.Operator {
	case core.OpLessEqual:
		b.WriteString(" <= ")
	case core.OpEqual:
		b.WriteString(" = ")
	case core.OpGreaterEqual:
		b.WriteString(" >= ")
	default:
		return fmt.Errorf("constraint %q has unsupported operator %q", c.Name, c.Operator)
	}
	b.WriteString(formatNumber(c.RHS))
	b.WriteString("\n")
	return nil
}

// writeTerm appends one signed linear term, e.g. " + 2.5 x1".
func writeTerm(b *strings.Builder, coeff float64, name string, first bool) {
	sign := "+"
	if math.Signbit(coeff) {
		sign = "-"
		coeff = -coeff
	}
	if first && sign == "+" {
		b.WriteString(" ")
	} else {
		b.WriteString(" ")
		b.WriteString(sign)
		b.WriteString(" ")
	}
	b.WriteString(formatNumber(coeff))
	b.WriteString(" ")
	b.WriteString(name)
}

// writeBounds emits a Bounds section for variables whose bounds differ
// from the LP-format default of [0, +inf).
func writeBounds(b *strings.Builder, m *core.Model) {
	var lines []string
	for _, v := range m.Variables {
		if line := boundLine(v); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return
	}
	b.WriteString("Bounds\n")
	for _, line := range lines {
		b.WriteString(" ")
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func boundLine(v core.Variable) string {
	lowerInf := math.IsInf(v.Lower, -1)
	upperInf := math.IsInf(v.Upper, 1)

	switch {
	case lowerInf && upperInf:
		return v.Name + " free"
	case lowerInf:
		return fmt.Sprintf("-inf <= %s <= %s", v.Name, formatNumber(v.Upper))
	case upperInf:
		if v.Lower == 0 {
			return "" // the default
		}
		return fmt.Sprintf("%s >= %s", v.Name, formatNumber(v.Lower))
	default:
		if v.Lower == v.Upper {
			return fmt.Sprintf("%s = %s", v.Name, formatNumber(v.Lower))
		}
		return fmt.Sprintf("%s <= %s <= %s", formatNumber(v.Lower), v.Name, formatNumber(v.Upper))
	}
}

// writeIntegrality emits General and Binary sections for integral
// variables. GLPK treats Binary as integer with implied [0,1] bounds.
func writeIntegrality(b *strings.Builder, m *core.Model) {
	var generals, binaries []string
	for _, v := range m.Variables {
		switch v.Domain {
		case core.DomainInteger:
			generals = append(generals, v.Name)
		case core.DomainBinary:
			binaries = append(binaries, v.Name)
		}
	}
	writeNameSection(b, "General", generals)
	writeNameSection(b, "Binary", binaries)
}

func writeNameSection(b *strings.Builder, header string, names []string) {
	if len(names) == 0 {
		return
	}
	b.WriteString(header)
	b.WriteString("\n")
	for _, n := range names {
		b.WriteString(" ")
		b.WriteString(n)
		b.WriteString("\n")
	}
}

// formatNumber renders a float with minimal digits that round-trip.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
