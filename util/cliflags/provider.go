// Package cliflags exposes the flags given on a command line to koanf,
// so they can override file and environment configuration.
package cliflags

import (
	"errors"
	"fmt"

	"github.com/knadh/koanf/maps"
	"github.com/urfave/cli/v2"
)

// Flags is a koanf.Provider holding the values of explicitly set flags.
type Flags struct {
	values map[string]any
}

// Provider collects the flags set on ctx, from the app and the running
// command. Flags left at their default are not included. Keys are
// renamed by rename if given, and split into nested maps on delim if
// delim is not empty.
func Provider(ctx *cli.Context, delim string, rename func(string) string) *Flags {
	known := map[string]cli.Flag{}
	for _, flag := range append(ctx.App.VisibleFlags(), ctx.Command.VisibleFlags()...) {
		known[flag.Names()[0]] = flag
	}

	values := make(map[string]any)

	for _, name := range ctx.FlagNames() {
		flag, ok := known[name]
		if !ok {
			continue
		}

		value, err := flagValue(ctx, flag)
		if err != nil {
			continue
		}

		key := name
		if rename != nil {
			key = rename(name)
		}
		values[key] = value
	}

	if delim != "" {
		values = maps.Unflatten(values, delim)
	}

	return &Flags{values: values}
}

// ReadBytes is unsupported, flags have no raw form.
func (f *Flags) ReadBytes() ([]byte, error) {
	return nil, errors.New("cliflags: raw bytes are not available")
}

func (f *Flags) Read() (map[string]any, error) {
	return f.values, nil
}

func flagValue(ctx *cli.Context, flag cli.Flag) (any, error) {
	name := flag.Names()[0]

	switch flag.(type) {
	case *cli.StringFlag:
		return ctx.String(name), nil
	case *cli.StringSliceFlag:
		return ctx.StringSlice(name), nil
	case *cli.PathFlag:
		return ctx.Path(name), nil
	case *cli.IntFlag:
		return ctx.Int(name), nil
	case *cli.IntSliceFlag:
		return ctx.IntSlice(name), nil
	case *cli.Int64Flag:
		return ctx.Int64(name), nil
	case *cli.Int64SliceFlag:
		return ctx.Int64Slice(name), nil
	case *cli.BoolFlag:
		return ctx.Bool(name), nil
	case *cli.Float64Flag:
		return ctx.Float64(name), nil
	case *cli.Float64SliceFlag:
		return ctx.Float64Slice(name), nil
	case *cli.DurationFlag:
		return ctx.Duration(name), nil
	}

	return nil, fmt.Errorf("unsupported flag type %T", flag)
}
