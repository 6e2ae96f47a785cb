package main

import (
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/mirfatif/systemd-svc-status/internal/src/query"
	"github.com/mirfatif/systemd-svc-status/src/entity"
)

type options struct {
	help     bool
	user     bool
	descFile bool
	sortBy   query.SortKey
	filter   query.Filter

	// typeGiven distinguishes an absent --type (default: services only)
	// from an explicit one.
	typeGiven bool
}

func newFlagSet() (*flag.FlagSet, *options) {
	opts := &options{}
	fs := flag.NewFlagSet("svc-status", flag.ContinueOnError)
	fs.SortFlags = false

	fs.BoolVarP(&opts.help, "help", "h", false, "Show help")
	fs.BoolVar(&opts.user, "user", false, "Show session services")
	fs.BoolVar(&opts.descFile, "desc-file", false, "Show service description and file")
	fs.String("sort-by", "", "Sort column")
	fs.String("type", "", "Types")
	fs.String("loaded", "", "Loaded states")
	fs.String("active", "", "Active states")
	fs.String("sub-active", "", "Sub-active states")
	fs.String("file-state", "", "File states")
	fs.String("file-preset", "", "File presets")

	return fs, opts
}

func parseOptions(args []string) (*options, error) {
	fs, opts := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.help {
		return opts, nil
	}
	if rest := fs.Args(); len(rest) > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}

	var err error
	if opts.sortBy, err = parseSortKey(fs); err != nil {
		return nil, err
	}

	opts.filter.Types, err = parseList(fs, "type", entity.KnownTypes())
	if err != nil {
		return nil, err
	}
	opts.typeGiven = fs.Changed("type")

	if opts.filter.Loaded, err = parseList(fs, "loaded", entity.KnownLoadStates()); err != nil {
		return nil, err
	}
	if opts.filter.Active, err = parseList(fs, "active", entity.KnownActiveStates()); err != nil {
		return nil, err
	}
	// Sub states are manager-defined and open-ended; any non-empty value
	// is accepted.
	opts.filter.SubActive = splitList[entity.SubState](fs, "sub-active")

	if opts.filter.FileStates, err = parseList(fs, "file-state", entity.KnownFileStates()); err != nil {
		return nil, err
	}
	if opts.filter.FilePresets, err = parseList(fs, "file-preset", entity.KnownFilePresets()); err != nil {
		return nil, err
	}

	return opts, nil
}

func parseSortKey(fs *flag.FlagSet) (query.SortKey, error) {
	v, _ := fs.GetString("sort-by")
	if v == "" {
		return query.SortNone, nil
	}
	for _, k := range query.SortKeys() {
		if query.SortKey(v) == k {
			return k, nil
		}
	}
	return query.SortNone, fmt.Errorf("invalid value for --sort-by: %q", v)
}

func splitList[T ~string](fs *flag.FlagSet, name string) []T {
	v, _ := fs.GetString(name)
	if v == "" {
		return nil
	}
	var out []T
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, T(s))
		}
	}
	return out
}

func parseList[T ~string](fs *flag.FlagSet, name string, known []T) ([]T, error) {
	vals := splitList[T](fs, name)
	for _, v := range vals {
		if !containsVal(known, v) {
			return nil, fmt.Errorf("invalid value for --%s: %q", name, string(v))
		}
	}
	return vals, nil
}

func containsVal[T ~string](known []T, v T) bool {
	for _, k := range known {
		if k == v {
			return true
		}
	}
	return false
}

func usage() string {
	var b strings.Builder
	b.WriteString("\nUsage:\n\tsvc-status [OPTIONS]\n")
	b.WriteString("\nOptions:\n")
	b.WriteString("\t-h|--help                Show help\n")
	b.WriteString("\t--user                   Show session services\n")
	b.WriteString("\t--desc-file              Show service description and file\n")
	b.WriteString("\t--sort-by=<SORT_KEY>     Sort column\n")
	b.WriteString("\t--type=<TYPE>            Types\n")
	b.WriteString("\t--loaded=<LOADED>        Loaded states\n")
	b.WriteString("\t--active=<ACTIVE>        Active states\n")
	b.WriteString("\t--sub-active=<SUB>       Sub-active states\n")
	b.WriteString("\t--file-state=<STATE>     File states\n")
	b.WriteString("\t--file-preset=<PRESET>   File presets\n")
	b.WriteString("\n\tAll filters are comma-separated lists.\n")
	b.WriteString("\tWithout --type only services are listed; --type=all lists every type.\n")

	keys := func(name string, vals []string) {
		b.WriteString(fmt.Sprintf("\n\t%s:\n\t\t%s\n", name, strings.Join(vals, ", ")))
	}
	keys("SORT_KEY", asStrings(query.SortKeys()))
	keys("TYPE", asStrings(entity.KnownTypes()))
	keys("LOADED", asStrings(entity.KnownLoadStates()))
	keys("ACTIVE", asStrings(entity.KnownActiveStates()))
	keys("SUB", []string{"manager-defined; e.g. dead, exited, failed, listening, mounted, plugged, running, waiting"})
	keys("STATE", asStrings(entity.KnownFileStates()))
	keys("PRESET", asStrings(entity.KnownFilePresets()))
	b.WriteString("\n")
	return b.String()
}

func asStrings[T ~string](vals []T) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}
