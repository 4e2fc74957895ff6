// Package cli implements telescope's subcommand dispatch: a thin
// switch over the first argument, manual "--flag value" parsing, and
// an os.Exit-code contract (0 success, 1 elaboration error, 2 usage
// error) — the same shape as the teacher's pkg/cli/entry.go, scaled
// down from that file's large multi-command surface (build/test/ext/
// bundle...) to this repository's five subcommands.
package cli

import (
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"google.golang.org/grpc"

	"github.com/dtlc-lang/telescope/internal/config"
	"github.com/dtlc-lang/telescope/internal/cxt"
	"github.com/dtlc-lang/telescope/internal/elab"
	"github.com/dtlc-lang/telescope/internal/meta"
	"github.com/dtlc-lang/telescope/internal/metastore"
	"github.com/dtlc-lang/telescope/internal/nbe"
	"github.com/dtlc-lang/telescope/internal/parser"
	"github.com/dtlc-lang/telescope/internal/printer"
	"github.com/dtlc-lang/telescope/internal/rpcservice"
)

const usage = `telescope: a dependently-typed elaborator core

usage:
  telescope elab   [--config=path.yaml] [file]   elaborate a term, print the core term
  telescope nf     [--config=path.yaml] [file]   print the term's normal form
  telescope type   [--config=path.yaml] [file]   print the term's inferred/checked type
  telescope metas  --db=path [--run=id]           dump a recorded metacontext
  telescope serve  [--addr=:7711] [--config=...]  start the gRPC front-end

exit codes: 0 success, 1 elaboration error, 2 usage error
`

// Run dispatches args[0] to the matching subcommand and returns the
// process exit code; it never calls os.Exit itself, so tests can
// drive it against buffers instead of the real stdin/stdout/stderr.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cmd := args[0]
	rest := args[1:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Fprint(stdout, usage)
		return 0
	}

	flags, positional := parseFlags(rest)

	cfg, err := config.Resolve(flags["config"])
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	cfg.Apply()

	switch cmd {
	case "elab":
		return handleElab(cfg, flags, positional, stdin, stdout, stderr)
	case "nf":
		return handleNf(cfg, flags, positional, stdin, stdout, stderr)
	case "type":
		return handleType(cfg, flags, positional, stdin, stdout, stderr)
	case "metas":
		return handleMetas(cfg, flags, stdout, stderr)
	case "serve":
		return handleServe(cfg, flags, stderr)
	default:
		fmt.Fprintf(stderr, "telescope: unknown subcommand %q\n", cmd)
		fmt.Fprint(stderr, usage)
		return 2
	}
}

// readInput reads the program from positional[0] if given, or from
// stdin otherwise, mirroring the teacher's readInputFromArgs
// stdin-vs-file handling in cmd/funxy/main.go.
func readInput(positional []string, stdin io.Reader) (string, error) {
	if len(positional) > 0 {
		data, err := os.ReadFile(positional[0])
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", positional[0], err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

// printErr writes err to stderr, wrapped in ANSI red when
// colorEnabled says to — the density of color support the teacher's
// own termIsTTY builtin gives its script output, just applied to the
// CLI's own error channel instead.
func printErr(stderr io.Writer, cfg *config.Config, err error) {
	if f, ok := stderr.(*os.File); ok && colorEnabled(cfg, f) {
		fmt.Fprintf(stderr, "\x1b[31m%v\x1b[0m\n", err)
		return
	}
	fmt.Fprintln(stderr, err)
}

func recordIfConfigured(cfg *config.Config, mctx *meta.Metacontext) {
	if cfg.DBPath == "" {
		return
	}
	db, err := metastore.Open(cfg.DBPath)
	if err != nil {
		log.Printf("telescope: metastore open failed: %v", err)
		return
	}
	defer db.Close()
	runID := uuid.New().String()
	if err := metastore.Record(db, runID, mctx, time.Now()); err != nil {
		log.Printf("telescope: metastore record failed: %v", err)
	}
}

func handleElab(cfg *config.Config, flags map[string]string, positional []string, stdin io.Reader, stdout, stderr io.Writer) int {
	source, err := readInput(positional, stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	raw, perr := parser.Parse(source)
	if perr != nil {
		printErr(stderr, cfg, perr)
		return 2
	}

	mctx := meta.New()
	tm, _, eerr := elab.InferTopLams(mctx, cxt.Empty(), raw)
	if eerr != nil {
		printErr(stderr, cfg, eerr)
		return 1
	}

	fmt.Fprintln(stdout, printer.Print(printer.Zonk(mctx, 0, tm), nil))
	recordIfConfigured(cfg, mctx)
	return 0
}

func handleNf(cfg *config.Config, flags map[string]string, positional []string, stdin io.Reader, stdout, stderr io.Writer) int {
	source, err := readInput(positional, stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	raw, perr := parser.Parse(source)
	if perr != nil {
		printErr(stderr, cfg, perr)
		return 2
	}

	mctx := meta.New()
	tm, _, eerr := elab.InferTopLams(mctx, cxt.Empty(), raw)
	if eerr != nil {
		printErr(stderr, cfg, eerr)
		return 1
	}

	zonked := printer.Zonk(mctx, 0, tm)
	normal := nbe.Nf(mctx, zonked)
	fmt.Fprintln(stdout, printer.Print(normal, nil))
	recordIfConfigured(cfg, mctx)
	return 0
}

func handleType(cfg *config.Config, flags map[string]string, positional []string, stdin io.Reader, stdout, stderr io.Writer) int {
	source, err := readInput(positional, stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	raw, perr := parser.Parse(source)
	if perr != nil {
		printErr(stderr, cfg, perr)
		return 2
	}

	mctx := meta.New()
	_, ty, eerr := elab.InferTopLams(mctx, cxt.Empty(), raw)
	if eerr != nil {
		printErr(stderr, cfg, eerr)
		return 1
	}

	fmt.Fprintln(stdout, printer.Print(nbe.Quote(mctx, 0, ty), nil))
	recordIfConfigured(cfg, mctx)
	return 0
}

func handleMetas(cfg *config.Config, flags map[string]string, stdout, stderr io.Writer) int {
	dbPath := flags["db"]
	if dbPath == "" {
		dbPath = cfg.DBPath
	}
	if dbPath == "" {
		fmt.Fprintln(stderr, "telescope metas: --db=path is required (or set db_path in config)")
		return 2
	}

	db, err := metastore.Open(dbPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	defer db.Close()

	rows, err := metastore.Query(db, flags["run"])
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	for _, r := range rows {
		fmt.Fprintf(stdout, "%s\t%s\t%d\t%s\t%s\n", r.RunID, r.CreatedAt, r.Mid, r.Status, r.Rendered)
	}
	return 0
}

func handleServe(cfg *config.Config, flags map[string]string, stderr io.Writer) int {
	addr := flags["addr"]
	if addr == "" {
		addr = ":7711"
	}

	svc, err := rpcservice.New()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	server := grpc.NewServer()
	rpcservice.Register(server, svc)

	logger := log.New(stderr, "telescope: ", log.LstdFlags)
	logger.Printf("serving on %s", addr)
	if err := server.Serve(lis); err != nil {
		logger.Printf("serve error: %v", err)
		return 1
	}
	return 0
}

// colorEnabled decides whether ANSI color codes should wrap CLI
// output, the same termIsTTY-style check the teacher's builtins_term.go
// makes before deciding whether a script's terminal output gets
// colorized: "always"/"never" override the file's own isatty check,
// "auto" (the default) defers to it.
func colorEnabled(cfg *config.Config, f *os.File) bool {
	switch cfg.Color {
	case "always":
		return true
	case "never":
		return false
	default:
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
}

