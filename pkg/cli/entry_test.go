package cli_test

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/dtlc-lang/telescope/pkg/cli"
)

func run(args []string, stdin string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = cli.Run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunNoArgsIsUsageError(t *testing.T) {
	code, _, stderr := run(nil, "")
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if stderr == "" {
		t.Fatal("expected usage text on stderr")
	}
}

func TestRunUnknownSubcommandIsUsageError(t *testing.T) {
	code, _, stderr := run([]string{"bogus"}, "")
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr, "bogus") {
		t.Fatalf("stderr = %q, want it to name the unknown subcommand", stderr)
	}
}

func TestRunHelp(t *testing.T) {
	code, stdout, _ := run([]string{"help"}, "")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout, "telescope") {
		t.Fatalf("stdout = %q, want usage text", stdout)
	}
}

func TestRunElabSuccess(t *testing.T) {
	code, stdout, stderr := run([]string{"elab"}, "U")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0, stderr=%q", code, stderr)
	}
	if strings.TrimSpace(stdout) != "U" {
		t.Fatalf("stdout = %q, want U", stdout)
	}
}

func TestRunElabElaborationErrorExitsOne(t *testing.T) {
	code, _, stderr := run([]string{"elab"}, "y")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1, stderr=%q", code, stderr)
	}
	if stderr == "" {
		t.Fatal("expected an elaboration error on stderr")
	}
}

func TestRunElabParseErrorExitsTwo(t *testing.T) {
	code, _, stderr := run([]string{"elab"}, "->")
	if code != 2 {
		t.Fatalf("exit code = %d, want 2, stderr=%q", code, stderr)
	}
	if stderr == "" {
		t.Fatal("expected a parse error on stderr")
	}
}

func TestRunNfReducesToNormalForm(t *testing.T) {
	code, stdout, stderr := run([]string{"nf"}, `(\x. x) U`)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0, stderr=%q", code, stderr)
	}
	if strings.TrimSpace(stdout) != "U" {
		t.Fatalf("stdout = %q, want U", stdout)
	}
}

func TestRunTypePrintsInferredType(t *testing.T) {
	code, stdout, stderr := run([]string{"type"}, `let id : {A : U} -> A -> A = \x. x; id U`)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0, stderr=%q", code, stderr)
	}
	if strings.TrimSpace(stdout) != "U" {
		t.Fatalf("stdout = %q, want U", stdout)
	}
}

func TestRunMetasWithoutDBIsUsageError(t *testing.T) {
	code, _, stderr := run([]string{"metas"}, "")
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if stderr == "" {
		t.Fatal("expected a usage message on stderr")
	}
}

func TestRunElabReadsFromNamedFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/term.tl"
	if err := os.WriteFile(path, []byte("U"), 0o644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}

	code, stdout, stderr := run([]string{"elab", path}, "")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0, stderr=%q", code, stderr)
	}
	if strings.TrimSpace(stdout) != "U" {
		t.Fatalf("stdout = %q, want U", stdout)
	}
}
