// Package render prints the filtered unit snapshot as aligned text columns,
// grouped per unit type. Summary lines go to stderr so piped output stays
// machine-friendly.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mirfatif/systemd-svc-status/src/entity"
)

const colGap = 3

var headers = [5]string{"Loaded", "Active", "SubActive", "FileState", "FilePreset"}

type Options struct {
	// DescFile adds Desc:/File: lines under each row.
	DescFile bool
	// Bold enables ANSI bold for headers; set when stdout is a terminal.
	Bold bool

	Out io.Writer
	Err io.Writer
}

// Table renders units grouped by type, sections in ascending type order, row
// order preserved. totals carries the pre-filter per-type unit counts so the
// summary can show "matched / total".
func Table(units []entity.Unit, totals map[entity.UnitType]int, opts Options) {
	groups := make(map[entity.UnitType][]entity.Unit)
	var keys []string
	for _, u := range units {
		if _, ok := groups[u.Type]; !ok {
			keys = append(keys, string(u.Type))
		}
		groups[u.Type] = append(groups[u.Type], u)
	}
	sort.Strings(keys)

	w := widths(units)

	for _, key := range keys {
		typ := entity.UnitType(key)
		group := groups[typ]

		printSummary(opts, typ, group, totals[typ], w.total())

		printRow(opts.Out, w,
			"Name", headers[0], headers[1], headers[2], headers[3], headers[4])
		fmt.Fprintln(opts.Err, strings.Repeat("-", w.total()))

		for _, u := range group {
			printRow(opts.Out, w, u.Name,
				string(u.Loaded), string(u.Active), string(u.Sub),
				displayFileState(u.FileState), string(u.FilePreset))

			if opts.DescFile {
				printDescFile(opts, u)
			}
		}
		fmt.Fprintln(opts.Err)
	}
}

type colWidths struct {
	name   int
	states [5]int
}

func (w colWidths) total() int {
	t := w.name
	for _, s := range w.states {
		t += colGap + s
	}
	return t
}

func widths(units []entity.Unit) colWidths {
	w := colWidths{name: len("Name")}
	for i, h := range headers {
		w.states[i] = len(h)
	}
	for _, u := range units {
		w.name = max(w.name, len(u.Name))
		w.states[0] = max(w.states[0], len(u.Loaded))
		w.states[1] = max(w.states[1], len(u.Active))
		w.states[2] = max(w.states[2], len(u.Sub))
		w.states[3] = max(w.states[3], len(displayFileState(u.FileState)))
		w.states[4] = max(w.states[4], len(u.FilePreset))
	}
	return w
}

func printRow(out io.Writer, w colWidths, name string, states ...string) {
	fmt.Fprintf(out, "%-*s", w.name, name)
	for i, s := range states {
		fmt.Fprintf(out, "%*s%-*s", colGap, "", w.states[i], s)
	}
	fmt.Fprintln(out)
}

func printSummary(opts Options, typ entity.UnitType, group []entity.Unit, total, lineWidth int) {
	label := strings.ToUpper(string(typ)) + "S: "
	if opts.Bold {
		label = bold(label)
	}
	fmt.Fprintf(opts.Err, "%s%d", label, len(group))
	if total > 0 && total != len(group) {
		fmt.Fprintf(opts.Err, " / %d", total)
	}
	fmt.Fprintln(opts.Err)
	fmt.Fprintln(opts.Err, strings.Repeat("-", lineWidth))

	tallies := []struct {
		header string
		val    func(entity.Unit) string
	}{
		{headers[0], func(u entity.Unit) string { return string(u.Loaded) }},
		{headers[1], func(u entity.Unit) string { return string(u.Active) }},
		{headers[2], func(u entity.Unit) string { return string(u.Sub) }},
		{headers[3], func(u entity.Unit) string { return displayFileState(u.FileState) }},
		{headers[4], func(u entity.Unit) string { return string(u.FilePreset) }},
	}

	for _, t := range tallies {
		counts := make(map[string]int)
		var order []string
		for _, u := range group {
			v := t.val(u)
			if v == "" {
				continue
			}
			if _, ok := counts[v]; !ok {
				order = append(order, v)
			}
			counts[v]++
		}
		if len(order) == 0 {
			continue
		}
		parts := make([]string, 0, len(order))
		for _, v := range order {
			parts = append(parts, fmt.Sprintf("%s: %d", v, counts[v]))
		}
		fmt.Fprintf(opts.Err, "%s: %s\n", t.header, strings.Join(parts, ", "))
	}
	fmt.Fprintln(opts.Err, strings.Repeat("=", lineWidth))
}

func printDescFile(opts Options, u entity.Unit) {
	label := func(s string) string {
		if opts.Bold {
			return bold(s)
		}
		return s
	}
	if u.Description != "" {
		fmt.Fprintf(opts.Out, "%s%s\n", label("Desc: "), u.Description)
	}
	if u.Path != "" {
		fmt.Fprintf(opts.Out, "%s%s\n", label("File: "), u.Path)
	}
	if u.Description != "" || u.Path != "" {
		fmt.Fprintln(opts.Out)
	}
}

// displayFileState abbreviates the -runtime suffix to keep columns narrow.
// Display only; filtering always sees the full value.
func displayFileState(fs entity.FileState) string {
	return strings.ReplaceAll(string(fs), "-runtime", "-rt")
}

func bold(s string) string {
	return "\033[1m" + s + "\033[0m"
}
