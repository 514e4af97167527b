package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/nbsense/internal/intellisense"
)

var triggersCmd = &cobra.Command{
	Use:   "triggers",
	Short: "Print the trigger set installed on every code cell",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, t := range intellisense.DefaultTriggers() {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
		return nil
	},
}

var flagClassifyShift bool

var classifyCmd = &cobra.Command{
	Use:   "classify <key-code> <line>",
	Short: "Report whether a trigger key issues a request on a line",
	Args:  cobra.ExactArgs(2),
	RunE:  runClassify,
}

func init() {
	classifyCmd.Flags().BoolVar(&flagClassifyShift, "shift", false, "shift is held")
}

func runClassify(cmd *cobra.Command, args []string) error {
	code, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("key code %q: %w", args[0], err)
	}

	ev := intellisense.KeyEvent{KeyCode: code}
	if flagClassifyShift {
		ev.Modifiers = intellisense.ModShift
	}

	var matched *intellisense.Trigger
	for _, t := range intellisense.DefaultTriggers() {
		if t.Matches(ev) {
			matched = &t
			break
		}
	}

	out := cmd.OutOrStdout()
	switch {
	case matched == nil:
		fmt.Fprintln(out, "no trigger")
	case matched.Category != intellisense.CategoryDeclaration:
		fmt.Fprintf(out, "%s: no request\n", matched.Category)
	case intellisense.Classify(code, args[1]):
		fmt.Fprintln(out, "declaration: request")
	default:
		fmt.Fprintln(out, "declaration: skipped")
	}
	return nil
}
