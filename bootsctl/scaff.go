package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

var cmdScaff = &Command{
	UsageLine: "scaff [name]",
	Short:     "Create a controller skeleton.",
	Long: `
Creates the starter code of a controller with a before filter.

	'bootsctl scaff Hello' | Creates HelloController
	                       | at controller/HelloController.go
`,
}

const controllerTpl = `package controller

import (
	routing "github.com/gabstv/goboots-routing"
)

type {{.Name}} struct {
	routing.Controller
}

func (c *{{.Name}}) Init() error {
	if err := c.Controller.Init(); err != nil {
		return err
	}
	return c.RegisterBeforeFilter("@before", nil)
}

func (c *{{.Name}}) Before(in *routing.In) *routing.Out {
	// return anything else to stop the execution
	return in.Continue()
}

func (c *{{.Name}}) Index(in *routing.In) *routing.Out {
	return in.OutputString("{{.Name}}")
}
`

func init() {
	cmdScaff.Run = runScaff
}

func runScaff(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "No name given.\nRun 'bootsctl help scaff' for usage.")
		return 2
	}
	name := controllerTypeName(args[0])
	wd, _ := os.Getwd()
	dir := filepath.Join(wd, "controller")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		dir = wd
	}
	path := filepath.Join(dir, name+".go")
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintln(os.Stderr, path+" already exists.")
		return 1
	}
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer f.Close()
	if err := renderController(f, name); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("Controller " + name + " created.")
	return 0
}

func controllerTypeName(name string) string {
	if name == "" {
		return name
	}
	name = strings.ToUpper(name[:1]) + name[1:]
	if !strings.HasSuffix(name, "Controller") {
		name += "Controller"
	}
	return name
}

func renderController(w io.Writer, name string) error {
	t := template.Must(template.New("controller").Parse(controllerTpl))
	return t.Execute(w, map[string]string{"Name": name})
}
