package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"paserati-heap/pkg/driver"
	"paserati-heap/pkg/errors"
	"paserati-heap/pkg/heap"
	"paserati-heap/pkg/source"
)

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiRed   = "\x1b[31m"
)

func main() {
	exprFlag := flag.String("e", "", "Run the given commands (separated by ';') and exit")
	configFlag := flag.String("config", "", "YAML heap configuration file")
	statsFlag := flag.Bool("stats", false, "Print heap statistics before exiting")
	traceFlag := flag.Bool("trace", false, "Print a line for every garbage collection")
	noAutoFlag := flag.Bool("no-auto-gc", false, "Only collect on explicit gc commands")

	flag.Parse()

	cfg := heap.DefaultConfig()
	if *configFlag != "" {
		loaded, err := heap.LoadConfig(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "heapsh: %v\n", err)
			os.Exit(64) // Exit code 64: command line usage error
		}
		cfg = loaded
	}
	if *traceFlag {
		cfg.Trace = true
	}

	stdout := colorable.NewColorableStdout()
	stderr := colorable.NewColorableStderr()
	session := driver.NewSession(driver.Options{Config: cfg, Out: stdout, AutoCollect: !*noAutoFlag})
	if cfg.Trace {
		session.Heap().SetTraceWriter(stderr)
	}
	outColor := isTerminal(os.Stdout)
	errColor := isTerminal(os.Stderr)

	ok := true
	switch {
	case *exprFlag != "":
		code := strings.Join(driver.SplitCommands(*exprFlag), "\n")
		src := source.NewEvalSource(code)
		ok = report(stderr, src, session.Run(src), errColor)
	case flag.NArg() > 1:
		fmt.Fprintf(os.Stderr, "Usage: heapsh [script] or heapsh -e \"commands\"\n")
		os.Exit(64) // Exit code 64: command line usage error
	case flag.NArg() == 1:
		src, errs := session.RunFile(flag.Arg(0))
		ok = report(stderr, src, errs, errColor)
	default:
		runRepl(session, stdout, stderr, outColor, errColor)
	}

	if *statsFlag {
		session.Heap().Stats().Format(stdout)
	}
	if !ok {
		os.Exit(70) // Exit code 70: internal software error
	}
}

// report prints errs against src and reports whether there were none.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func report(w io.Writer, src *source.SourceFile, errs []errors.EngineError, color bool) bool {
	if len(errs) == 0 {
		return true
	}
	content := ""
	if src != nil {
		content = src.Content
	}
	if color {
		fmt.Fprint(w, ansiRed)
		defer fmt.Fprint(w, ansiReset)
	}
	if src != nil && src.IsFile() {
		fmt.Fprintf(w, "%s:\n", src.DisplayPath())
	}
	errors.FprintErrors(w, content, errs)
	return false
}

func runRepl(session *driver.Session, stdout, stderr io.Writer, outColor, errColor bool) {
	reader := bufio.NewReader(os.Stdin)
	prompt := "heap> "
	if outColor {
		prompt = ansiBold + prompt + ansiReset
	}

	fmt.Fprintln(stdout, "heapsh (Ctrl+D to exit, help for commands)")
	for {
		fmt.Fprint(stdout, prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Fprintln(stdout, "\nGoodbye!")
				break
			}
			fmt.Fprintf(stderr, "Error reading input: %s\n", err)
			break
		}
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := session.Exec(line); err != nil {
			report(stderr, source.NewReplSource(line), []errors.EngineError{err}, errColor)
			if session.Poisoned() != nil {
				os.Exit(70)
			}
		}
	}
}
