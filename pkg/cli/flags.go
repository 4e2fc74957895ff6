package cli

import "strings"

// parseFlags splits args into "--name=value"/"--name value" long
// flags and the remaining positional arguments, the same manual
// index-loop style the teacher's pkg/cli/entry.go uses instead of the
// standard flag package (subcommands are fixed up front, so there is
// no need for flag's registration machinery).
func parseFlags(args []string) (flags map[string]string, positional []string) {
	flags = map[string]string{}
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "--") {
			positional = append(positional, a)
			continue
		}
		name := strings.TrimPrefix(a, "--")
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			flags[name[:eq]] = name[eq+1:]
			continue
		}
		if i+1 < len(args) {
			flags[name] = args[i+1]
			i++
			continue
		}
		flags[name] = ""
	}
	return flags, positional
}
