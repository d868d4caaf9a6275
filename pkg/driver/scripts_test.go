package driver

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"paserati-heap/pkg/heap"
	"paserati-heap/pkg/source"
)

const scriptsDebug = false

// scriptExpectation is what a test script declares about its own run:
// the output lines it must print and, optionally, the error it must stop on.
type scriptExpectation struct {
	Output []string
	Error  string
}

var expectRegex = regexp.MustCompile(`^#\s*(expect|expect_error):\s?(.*)$`)

// parseExpectation collects "# expect: line" and "# expect_error: text"
// comments. An expected line ending in "..." matches by prefix.
func parseExpectation(content string) scriptExpectation {
	var exp scriptExpectation
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		m := expectRegex.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil {
			continue
		}
		switch m[1] {
		case "expect":
			exp.Output = append(exp.Output, strings.TrimRight(m[2], " "))
		case "expect_error":
			exp.Error = strings.TrimSpace(m[2])
		}
	}
	return exp
}

func lineMatches(want, got string) bool {
	if prefix, ok := strings.CutSuffix(want, "..."); ok {
		return strings.HasPrefix(got, prefix)
	}
	return want == got
}

func TestScripts(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.heap"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no scripts found in testdata")
	}
	for _, file := range files {
		t.Run(strings.TrimSuffix(filepath.Base(file), ".heap"), func(t *testing.T) {
			content, err := os.ReadFile(file)
			if err != nil {
				t.Fatal(err)
			}
			exp := parseExpectation(string(content))

			var out bytes.Buffer
			s := NewSession(Options{Config: heap.DefaultConfig(), Out: &out})
			errs := s.Run(source.FromFile(file, string(content)))

			if scriptsDebug {
				t.Logf("output:\n%s", out.String())
			}
			switch {
			case exp.Error == "" && len(errs) > 0:
				t.Fatalf("unexpected error: %v", errs[0])
			case exp.Error != "" && len(errs) == 0:
				t.Fatalf("expected error containing %q, script succeeded", exp.Error)
			case exp.Error != "" && !strings.Contains(errs[0].Error(), exp.Error):
				t.Fatalf("expected error containing %q, got %q", exp.Error, errs[0].Error())
			}

			got := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
			if out.Len() == 0 {
				got = nil
			}
			if len(got) != len(exp.Output) {
				t.Fatalf("expected %d output lines, got %d:\n%s", len(exp.Output), len(got), out.String())
			}
			for i := range got {
				if !lineMatches(exp.Output[i], got[i]) {
					t.Errorf("line %d: expected %q, got %q", i+1, exp.Output[i], got[i])
				}
			}
		})
	}
}
