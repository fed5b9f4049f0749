package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
)

const usageTpl = `usage: bootsctl command [arguments]

Commands:
{{range .}}
    {{.Name | printf "%-8s"}} {{.Short}}{{end}}

Use "bootsctl help [command]" for more information.
`

const helpTpl = `usage: bootsctl {{.UsageLine}}
{{.Long}}
`

var commands = []*Command{
	cmdParse,
	cmdCheck,
	cmdScaff,
}

type Command struct {
	Run                    func(args []string) int
	UsageLine, Short, Long string
}

func (cmd *Command) Name() string {
	name := cmd.UsageLine
	i := strings.Index(name, " ")
	if i >= 0 {
		name = name[:i]
	}
	return name
}

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		usage()
	}
	if args[0] == "help" {
		help(args[1:])
		return
	}
	for _, cmd := range commands {
		if cmd.Name() == args[0] {
			os.Exit(cmd.Run(args[1:]))
		}
	}
	errorf("unknown command %q\nRun 'bootsctl help' for usage.\n", args[0])
}

func usage() {
	tmpl(os.Stderr, usageTpl, commands)
	os.Exit(2)
}

func help(args []string) {
	if len(args) == 0 {
		tmpl(os.Stdout, usageTpl, commands)
		return
	}
	for _, cmd := range commands {
		if cmd.Name() == args[0] {
			tmpl(os.Stdout, helpTpl, cmd)
			return
		}
	}
	errorf("unknown help topic %q\n", args[0])
}

func tmpl(w io.Writer, text string, data interface{}) {
	t := template.New("top")
	template.Must(t.Parse(text))
	if err := t.Execute(w, data); err != nil {
		panic(err)
	}
}

func errorf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
