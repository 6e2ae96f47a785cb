package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mirfatif/systemd-svc-status/internal/src/query"
	"github.com/mirfatif/systemd-svc-status/internal/src/render"
	"github.com/mirfatif/systemd-svc-status/internal/src/sysbus"
	"github.com/mirfatif/systemd-svc-status/src/entity"
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Logger()
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, usage())
		os.Exit(1)
	}
	if opts.help {
		fmt.Print(usage())
		return
	}

	if err := run(context.Background(), opts); err != nil {
		log.Error().Msgf("%v", err)
		if errors.Is(err, sysbus.ErrPermission) {
			log.Error().Msgf("try re-running with elevated privileges (e.g. sudo)")
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options) error {
	scope := sysbus.ScopeSystem
	if opts.user {
		scope = sysbus.ScopeUser
	}

	client, err := sysbus.Connect(ctx, scope)
	if err != nil {
		return err
	}
	defer client.Close()

	all, err := client.Units(ctx)
	if err != nil {
		return err
	}

	totals := make(map[entity.UnitType]int)
	for _, u := range all {
		totals[u.Type]++
	}

	filter := opts.filter
	if !opts.typeGiven {
		// No --type given: services only.
		filter.Types = []entity.UnitType{entity.TypeService}
	}

	units := make([]entity.Unit, 0, len(all))
	for _, u := range all {
		if filter.Pass(u) {
			units = append(units, u)
		}
	}

	// The file properties cost one bus round trip per unit, so they are
	// fetched only for units that already passed the cheap filters.
	kept := units[:0]
	for i := range units {
		if err := client.FileInfo(ctx, &units[i]); err != nil {
			return err
		}
		if filter.PassFile(units[i]) {
			kept = append(kept, units[i])
		}
	}
	units = kept

	query.Sort(units, opts.sortBy)

	tty := isatty.IsTerminal(os.Stdout.Fd())
	render.Table(units, totals, render.Options{
		DescFile: opts.descFile,
		Bold:     tty,
		Out:      os.Stdout,
		Err:      os.Stderr,
	})
	return nil
}
