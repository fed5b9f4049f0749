package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	routing "github.com/gabstv/goboots-routing"
)

var cmdParse = &Command{
	UsageLine: "parse [filter...]",
	Short:     "Print how filter strings are parsed.",
	Long: `
Prints the descriptor of every filter string as JSON, one per line.

	'bootsctl parse auth throttle:60,1'
`,
}

func init() {
	cmdParse.Run = runParse
}

func runParse(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "No filter given.\nRun 'bootsctl help parse' for usage.")
		return 2
	}
	if err := writeParsed(os.Stdout, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func writeParsed(w io.Writer, filters []string) error {
	enc := json.NewEncoder(w)
	for _, f := range filters {
		name, params := routing.ParseFilterString(f)
		d := routing.FilterDescriptor{
			Filter:     name,
			Parameters: params,
			Options:    routing.FilterOptions{},
		}
		if err := enc.Encode(d); err != nil {
			return err
		}
	}
	return nil
}
