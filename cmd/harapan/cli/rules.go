package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/harapan-foundation/harapan/internal/rbac"
)

// RulesCLI inspects the route guard configuration.
type RulesCLI struct {
	matrix rbac.Matrix
	rules  []rbac.Rule
}

// NewRulesCLI constructs a new helper instance.
func NewRulesCLI(matrix rbac.Matrix, rules []rbac.Rule) *RulesCLI {
	return &RulesCLI{matrix: matrix, rules: rules}
}

// LintSummary describes the JSON response for lint-rules.
type LintSummary struct {
	OK       bool          `json:"ok"`
	Rules    []string      `json:"rules"`
	Warnings []LintFinding `json:"warnings"`
}

// LintFinding is one reported rule problem.
type LintFinding struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// LintCommand prints the rules and their lint findings. It exits 1 when
// --strict is set and warnings exist.
func (c *RulesCLI) LintCommand(args []string, dashboardPath string, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	fs := pflag.NewFlagSet("lint-rules", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	jsonOutput := fs.BoolP("json", "j", false, "print the result as JSON")
	strict := fs.Bool("strict", false, "exit with status 1 when warnings exist")
	fs.StringVar(&dashboardPath, "dashboard", dashboardPath, "fallback path for insufficient permissions")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	warnings := rbac.LintRules(c.rules, c.matrix, dashboardPath)
	summary := LintSummary{OK: len(warnings) == 0, Rules: make([]string, 0, len(c.rules)), Warnings: make([]LintFinding, 0, len(warnings))}
	for _, rule := range c.rules {
		summary.Rules = append(summary.Rules, rule.String())
	}
	for _, w := range warnings {
		summary.Warnings = append(summary.Warnings, LintFinding{Kind: string(w.Kind), Message: w.Message})
	}

	if *jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			_, _ = fmt.Fprintf(stderr, "lint-rules: encode: %v\n", err)
			return 1
		}
	} else {
		for _, rule := range summary.Rules {
			_, _ = fmt.Fprintln(stdout, rule)
		}
		if summary.OK {
			_, _ = fmt.Fprintln(stdout, "no warnings")
		}
		for _, w := range summary.Warnings {
			_, _ = fmt.Fprintf(stdout, "%s: %s\n", w.Kind, w.Message)
		}
	}
	if *strict && !summary.OK {
		return 1
	}
	return 0
}
