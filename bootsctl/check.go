package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	routing "github.com/gabstv/goboots-routing"
)

var cmdCheck = &Command{
	UsageLine: "check [config]",
	Short:     "Validate the filters declared in a config file.",
	Long: `
Loads an app config (AppConfig.yaml by default, or $APPCONFIGPATH) and
prints the filters declared for every controller.

Exits with status 1 when the config can't be loaded or a filter is invalid.
`,
}

func init() {
	cmdCheck.Run = runCheck
}

func runCheck(args []string) int {
	app := routing.NewApp()
	if len(args) > 0 {
		app.AppConfigPath = args[0]
	}
	if err := app.LoadConfigFile(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	writeDeclared(os.Stdout, app.Config)
	return 0
}

func writeDeclared(w io.Writer, cfg *routing.AppConfig) {
	names := make([]string, 0, len(cfg.Controllers))
	for k := range cfg.Controllers {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		cc := cfg.Controllers[name]
		fmt.Fprintf(w, "%s\n", name)
		writeFilterList(w, "before", cc.Before)
		writeFilterList(w, "after", cc.After)
	}
}

func writeFilterList(w io.Writer, kind string, list []routing.FilterConfig) {
	for _, fc := range list {
		name, params := routing.ParseFilterString(fc.Filter)
		opts := routing.FilterOptions(fc.Options)
		fmt.Fprintf(w, "  %-6s %-16s params=%v only=%v except=%v on=%v\n",
			kind, name, params, opts.Only(), opts.Except(), opts.On())
	}
}
