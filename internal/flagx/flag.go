// Package flagx contains helpers for sharing one command line between several
// independent flag sets (JSON config lookup, server config, subcommands).
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs returns only the allowed flags (and their values) from args.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      --config=conf.json
//
// The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			// a following non-dash token is this flag's value
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// SplitArgs separates leading flags from the positional tail, e.g.
//
//	-d dsn -S provision -admin alice
//
// with boolFlags [-S] yields flags [-d dsn -S] and positional
// [provision -admin alice]. Like flag.Parse it stops at the first positional
// token or at "--". A flag without '=' consumes the following non-dash token
// as its value unless it is listed in boolFlags. Names are compared without
// leading dashes, so -S and --S match the same entry.
func SplitArgs(args []string, boolFlags ...string) (flags, positional []string) {
	bools := make(map[string]struct{}, len(boolFlags))
	for _, f := range boolFlags {
		bools[strings.TrimLeft(f, "-")] = struct{}{}
	}

	flags = make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			return flags, append([]string{}, args[i+1:]...)
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			return flags, append([]string{}, args[i:]...)
		}

		flags = append(flags, arg)
		if strings.Contains(arg, "=") {
			continue
		}
		if _, ok := bools[strings.TrimLeft(arg, "-")]; ok {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			flags = append(flags, args[i+1])
			i++
		}
	}

	return flags, []string{}
}

// JsonConfigFlags returns the config file path given in args via -c or
// -config, or "" when neither is present. Other arguments are ignored.
func JsonConfigFlags(args []string) string {
	var config string

	args = FilterArgs(args, []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}
