package cli

import (
	"fmt"
	"io"
	"strings"
)

// completionFlag describes one flag for the completion scripts. Values, when
// set, are offered as candidates for the flag's argument; File asks for
// file-name completion.
type completionFlag struct {
	Name   string
	Desc   string
	Values []string
	File   bool
	Bool   bool
}

var completionFlags = []completionFlag{
	{Name: "K", Desc: "Index of the term whose bound is known"},
	{Name: "A", Desc: "Shift A of the rising-factorial ratio"},
	{Name: "B", Desc: "Shift B of the rising-factorial ratio"},
	{Name: "r", Desc: "Power of the factorial in the denominator", Values: []string{"0", "1", "2"}},
	{Name: "z", Desc: "Upper bound on |z|"},
	{Name: "tk", Desc: "Upper bound on |T(K)|"},
	{Name: "tol", Desc: "Binary tolerance exponent", Values: []string{"53", "64", "113", "256"}},
	{Name: "max-iter", Desc: "Maximum refinement steps"},
	{Name: "timeout", Desc: "Maximum execution time", Values: []string{"10s", "1m", "5m"}},
	{Name: "json", Desc: "Output in JSON format", Bool: true},
	{Name: "quiet", Desc: "Print only n and the bound", Bool: true},
	{Name: "q", Desc: "Quiet mode", Bool: true},
	{Name: "no-color", Desc: "Disable colored output", Bool: true},
	{Name: "batch", Desc: "YAML or TOML batch file", File: true},
	{Name: "concurrency", Desc: "Batch problems solved at once", Values: []string{"1", "2", "4", "8"}},
	{Name: "server", Desc: "Start HTTP server mode", Bool: true},
	{Name: "port", Desc: "Server port", Values: []string{"8080", "9090"}},
	{Name: "cache-size", Desc: "Server result cache size"},
	{Name: "log-level", Desc: "Log level", Values: []string{"debug", "info", "warn", "error"}},
	{Name: "completion", Desc: "Generate completion script", Values: []string{"bash", "zsh", "fish", "powershell"}},
	{Name: "version", Desc: "Show version information", Bool: true},
}

// GenerateCompletion writes a completion script for shell ("bash", "zsh",
// "fish" or "powershell").
func GenerateCompletion(out io.Writer, shell string) error {
	switch shell {
	case "bash":
		return generateBashCompletion(out)
	case "zsh":
		return generateZshCompletion(out)
	case "fish":
		return generateFishCompletion(out)
	case "powershell", "ps":
		return generatePowerShellCompletion(out)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish, powershell)", shell)
	}
}

func generateBashCompletion(out io.Writer) error {
	var opts []string
	var cases strings.Builder
	for _, f := range completionFlags {
		opts = append(opts, "-"+f.Name)
		switch {
		case f.File:
			fmt.Fprintf(&cases, "        -%s)\n            COMPREPLY=( $(compgen -f -- \"${cur}\") )\n            return 0\n            ;;\n", f.Name)
		case len(f.Values) > 0:
			fmt.Fprintf(&cases, "        -%s)\n            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n            return 0\n            ;;\n", f.Name, strings.Join(f.Values, " "))
		}
	}
	_, err := fmt.Fprintf(out, `# Bash completion script for hypbound
# Add this to your ~/.bashrc or ~/.bash_completion

_hypbound_completions() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"
    opts="-h %s"

    case "${prev}" in
%s    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}

complete -F _hypbound_completions hypbound
`, strings.Join(opts, " "), cases.String())
	return err
}

func generateZshCompletion(out io.Writer) error {
	var args strings.Builder
	for _, f := range completionFlags {
		fmt.Fprintf(&args, " \\\n        '-%s[%s]", f.Name, f.Desc)
		switch {
		case f.File:
			args.WriteString(":file:_files")
		case len(f.Values) > 0:
			fmt.Fprintf(&args, ":value:(%s)", strings.Join(f.Values, " "))
		case !f.Bool:
			args.WriteString(":value:")
		}
		args.WriteString("'")
	}
	_, err := fmt.Fprintf(out, `#compdef hypbound

# Zsh completion script for hypbound
# Place this file in a directory listed in $fpath

_hypbound() {
    _arguments -s%s
}

_hypbound "$@"
`, args.String())
	return err
}

func generateFishCompletion(out io.Writer) error {
	var b strings.Builder
	b.WriteString("# Fish completion script for hypbound\n")
	b.WriteString("# Add this to ~/.config/fish/completions/hypbound.fish\n\n")
	b.WriteString("complete -c hypbound -f\n")
	for _, f := range completionFlags {
		fmt.Fprintf(&b, "complete -c hypbound -o %s -d '%s'", f.Name, f.Desc)
		switch {
		case f.File:
			b.WriteString(" -rF")
		case len(f.Values) > 0:
			fmt.Fprintf(&b, " -xa '%s'", strings.Join(f.Values, " "))
		case !f.Bool:
			b.WriteString(" -x")
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(out, b.String())
	return err
}

func generatePowerShellCompletion(out io.Writer) error {
	var opts, values strings.Builder
	for _, f := range completionFlags {
		fmt.Fprintf(&opts, "        @{Name = '-%s'; Description = '%s' }\n", f.Name, f.Desc)
		if len(f.Values) > 0 {
			fmt.Fprintf(&values, "        '-%s' = @('%s')\n", f.Name, strings.Join(f.Values, "', '"))
		}
	}
	_, err := fmt.Fprintf(out, `# PowerShell completion script for hypbound
# Add this to your $PROFILE

Register-ArgumentCompleter -CommandName 'hypbound' -Native -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)

    $options = @(
%s    )
    $values = @{
%s    }

    $elements = $commandAst.CommandElements
    $prevElement = if ($elements.Count -gt 2) { $elements[-2].ToString() } else { '' }

    if ($values.ContainsKey($prevElement)) {
        $values[$prevElement] | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
        }
        return
    }

    $options | Where-Object { $_.Name -like "$wordToComplete*" } | ForEach-Object {
        [System.Management.Automation.CompletionResult]::new($_.Name, $_.Name, 'ParameterName', $_.Description)
    }
}
`, opts.String(), values.String())
	return err
}
