package infrastructure

import "strings"

// shellMeta lists characters a POSIX shell would interpret
const shellMeta = " \t\n\r'\"$`\\!*?[](){}|;<>&~#%"

// quoteArg returns arg as a shell word. Only used to show engine command
// lines in logs; exec never goes through a shell.
func quoteArg(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, shellMeta) {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'"'"'`) + "'"
}

// commandLine renders binary and args the way they could be pasted into a
// shell to repeat the invocation
func commandLine(binary string, args []string) string {
	words := make([]string, 0, len(args)+1)
	words = append(words, quoteArg(binary))
	for _, arg := range args {
		words = append(words, quoteArg(arg))
	}
	return strings.Join(words, " ")
}
