// Command havis renders an automaton definition as Graphviz DOT or JSON.
//
//	havis [-active start:mid] [-format dot|json] [-pdf out.pdf] definition.yaml
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/comalice/hybridx/internal/core"
	"github.com/comalice/hybridx/internal/production"
)

func main() {
	active := flag.String("active", "", "highlight the behaviour parent:child")
	format := flag.String("format", "dot", "output format: dot or json")
	pdf := flag.String("pdf", "", "also render a PDF with the dot tool")
	check := flag.Bool("check", false, "compile the definition before rendering")
	period := flag.Float64("period", 0.001, "control period for -check when the definition states none")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: havis [flags] definition")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if err := run(flag.Arg(0), *active, *format, *pdf, *check, *period); err != nil {
		fmt.Fprintln(os.Stderr, "havis:", err)
		os.Exit(1)
	}
}

func run(path, active, format, pdf string, check bool, period float64) error {
	cfg, err := production.LoadFile(path)
	if err != nil {
		return err
	}
	if check {
		c := core.NewCompiler(core.WithPeriod(period), core.WithLogger(slog.Default()))
		if _, err := c.Compile(cfg); err != nil {
			return err
		}
	}

	var edge production.Edge
	if active != "" {
		from, to, ok := strings.Cut(active, ":")
		if !ok {
			return fmt.Errorf("-active: want parent:child, got %q", active)
		}
		edge = production.Edge{From: from, To: to}
	}

	v := &production.DefaultVisualizer{}
	dot := v.ExportDOT(cfg, edge)
	switch format {
	case "dot":
		fmt.Print(dot)
	case "json":
		data, err := v.ExportJSON(cfg)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	if pdf != "" {
		cmd := exec.Command("dot", "-Tpdf", "-o", pdf)
		cmd.Stdin = bytes.NewBufferString(dot)
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("dot: %w", err)
		}
	}
	return nil
}
