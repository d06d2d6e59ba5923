// Package shell implements the interactive command loop a memfuzz user
// drives: attach/detach, search/filter/peek/poke/eval/explain, regions,
// hit-list save/load, and undo/redo. It reads a line, splits it into a
// command and its arguments, and dispatches on the command name.
package shell

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"memfuzz/internal/config"
	"memfuzz/internal/errors"
	"memfuzz/internal/localtarget"
	"memfuzz/internal/remotetarget"
	"memfuzz/internal/scan"
	"memfuzz/internal/session"
	"memfuzz/internal/store"
	"memfuzz/internal/target"
	"memfuzz/internal/value"
)

// Shell owns the attached target, the active session, and the optional
// persistence backend, and dispatches one command per input line.
type Shell struct {
	out     io.Writer
	in      *bufio.Scanner
	prompt  string
	tgt     target.MemoryTarget
	sess    *session.Session
	st      *store.Store
	elem    value.Type
	done    bool
	verbose *log.Logger
}

// New builds a shell reading from in and writing to out, using cfg's
// shell preferences for the prompt.
func New(in io.Reader, out io.Writer, cfg config.ShellConfig) *Shell {
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = "memfuzz> "
	}
	return &Shell{
		out:    out,
		in:     bufio.NewScanner(in),
		prompt: prompt,
		sess:   session.New(),
		elem:   value.S32,
	}
}

// AttachStore binds a persistence backend for save/load/hits commands.
func (s *Shell) AttachStore(st *store.Store) { s.st = st }

// SetVerbose enables scan-progress logging through l; a nil logger keeps
// the shell quiet.
func (s *Shell) SetVerbose(l *log.Logger) { s.verbose = l }

func (s *Shell) logf(format string, args ...interface{}) {
	if s.verbose != nil {
		s.verbose.Printf(format, args...)
	}
}

// Run drives the prompt loop until `quit`/EOF. The prompt itself is only
// printed when stdin is a terminal, so piping a script of commands into
// the shell doesn't litter the output with prompt characters.
func (s *Shell) Run(stdinFd uintptr) {
	interactive := isatty.IsTerminal(stdinFd)
	for !s.done {
		if interactive {
			fmt.Fprint(s.out, s.prompt)
		}
		if !s.in.Scan() {
			return
		}
		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}
		s.execute(line)
	}
}

// execute dispatches one command line: split into whitespace-separated
// fields, then switch on the first field.
func (s *Shell) execute(command string) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return
	}
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "help", "h":
		s.help()

	case "attach":
		s.cmdAttach(args)

	case "detach":
		s.cmdDetach()

	case "regions":
		s.cmdRegions()

	case "type":
		s.cmdType(args)

	case "search":
		s.cmdSearch(args)

	case "filter":
		s.cmdFilter(args)

	case "hits":
		s.cmdHits()

	case "peek":
		s.cmdPeek(args)

	case "poke":
		s.cmdPoke(args)

	case "eval":
		s.cmdEval(args)

	case "explain":
		s.cmdExplain(args)

	case "undo":
		if s.sess.Undo() {
			fmt.Fprintln(s.out, "undone")
		} else {
			fmt.Fprintln(s.out, "nothing to undo")
		}

	case "redo":
		if s.sess.Redo() {
			fmt.Fprintln(s.out, "redone")
		} else {
			fmt.Fprintln(s.out, "nothing to redo")
		}

	case "save":
		s.cmdSave(args)

	case "load":
		s.cmdLoad(args)

	case "quit", "q", "exit":
		s.done = true

	default:
		fmt.Fprintf(s.out, "unknown command: %s (type 'help')\n", cmd)
	}
}

func (s *Shell) requireTarget() bool {
	if s.tgt == nil {
		fmt.Fprintln(s.out, "not attached; use 'attach'")
		return false
	}
	return true
}

func (s *Shell) cmdDetach() {
	if s.tgt == nil {
		return
	}
	s.tgt.Close()
	s.tgt = nil
	fmt.Fprintln(s.out, "detached")
}

func (s *Shell) cmdRegions() {
	if !s.requireTarget() {
		return
	}
	regions, err := s.tgt.Regions()
	if err != nil {
		fmt.Fprintln(s.out, "error:", err)
		return
	}
	for _, r := range regions {
		fmt.Fprintf(s.out, "0x%x-0x%x %s %s (%s)\n",
			r.Start, r.End(), r.Prot, humanize.Bytes(r.Size), r.Name)
	}
}

func (s *Shell) cmdType(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: type <s8|u8|s16|u16|s32|u32|s64|u64|f32|f64>")
		return
	}
	t, ok := value.LookupNamedType(args[0])
	if !ok {
		fmt.Fprintf(s.out, "unknown type %q\n", args[0])
		return
	}
	s.elem = t
	fmt.Fprintf(s.out, "element type set to %s\n", t)
}

func (s *Shell) addrType() value.Type {
	if s.tgt != nil && s.tgt.AddressWidth() == 32 {
		return value.U32
	}
	return value.U64
}

func (s *Shell) cmdSearch(args []string) {
	if !s.requireTarget() {
		return
	}
	expr := strings.Join(args, " ")
	compiled, errs := scan.Compile(expr, s.addrType(), s.elem)
	if len(errs) > 0 {
		s.reportErrors(errs)
		return
	}
	s.logf("search: compiled %q, scanning as %s", expr, s.elem)
	start := time.Now()
	hits, err := compiled.Scan(s.tgt)
	if err != nil {
		fmt.Fprintln(s.out, "error:", err)
		return
	}
	s.logf("search: %d hits in %s", len(hits), time.Since(start).Round(time.Millisecond))
	s.sess.NewSearch(hits)
	fmt.Fprintf(s.out, "%d hits\n", len(hits))
}

func (s *Shell) cmdFilter(args []string) {
	if !s.requireTarget() {
		return
	}
	expr := strings.Join(args, " ")
	compiled, errs := scan.Compile(expr, s.addrType(), s.elem)
	if len(errs) > 0 {
		s.reportErrors(errs)
		return
	}
	s.logf("filter: re-checking %d hits", len(s.sess.Hits))
	hits, err := compiled.Filter(s.tgt, s.sess.Hits)
	if err != nil {
		fmt.Fprintln(s.out, "error:", err)
		return
	}
	s.sess.Filter(hits)
	fmt.Fprintf(s.out, "%d hits\n", len(hits))
}

func (s *Shell) cmdHits() {
	for _, h := range s.sess.Hits {
		if len(h.Value) < s.elem.Width() {
			fmt.Fprintf(s.out, "0x%x = <unreadable>\n", h.Address)
			continue
		}
		v := value.Decode(s.elem, h.Value)
		fmt.Fprintf(s.out, "0x%x = %s\n", h.Address, v)
	}
}

func (s *Shell) cmdPeek(args []string) {
	if !s.requireTarget() || len(args) != 1 {
		fmt.Fprintln(s.out, "usage: peek <addr>")
		return
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		fmt.Fprintln(s.out, "error:", err)
		return
	}
	v, err := scan.Peek(s.tgt, addr, s.elem)
	if err != nil {
		fmt.Fprintln(s.out, "error:", err)
		return
	}
	fmt.Fprintln(s.out, v)
}

func (s *Shell) cmdPoke(args []string) {
	if !s.requireTarget() || len(args) != 2 {
		fmt.Fprintln(s.out, "usage: poke <addr> <value>")
		return
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		fmt.Fprintln(s.out, "error:", err)
		return
	}
	_, v, err := scan.Eval(args[1], nil, s.tgt)
	if err != nil {
		fmt.Fprintln(s.out, "error:", err)
		return
	}
	cast, err := v.CastTo(s.elem)
	if err != nil {
		fmt.Fprintln(s.out, "error:", err)
		return
	}
	if err := scan.Poke(s.tgt, addr, cast); err != nil {
		fmt.Fprintln(s.out, "error:", err)
		return
	}
	fmt.Fprintln(s.out, "ok")
}

func (s *Shell) cmdEval(args []string) {
	expr := strings.Join(args, " ")
	var tgt target.MemoryTarget
	if s.tgt != nil {
		tgt = s.tgt
	}
	_, v, err := scan.Eval(expr, nil, tgt)
	if err != nil {
		fmt.Fprintln(s.out, "error:", err)
		return
	}
	fmt.Fprintln(s.out, v)
}

// cmdExplain parses and optimizes expr and prints its RPN form and
// resolved type, without evaluating it — it never touches a
// MemoryTarget, so it is safe to run with no attached target.
func (s *Shell) cmdExplain(args []string) {
	expr := strings.Join(args, " ")
	tree, err := scan.Parse(expr, nil)
	if err != nil {
		fmt.Fprintln(s.out, "error:", err)
		return
	}
	fmt.Fprintf(s.out, "%s : %s\n", tree.Print(), tree.Type)
}

func (s *Shell) cmdSave(args []string) {
	if s.st == nil {
		fmt.Fprintln(s.out, "no store attached")
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: save <name>")
		return
	}
	name := args[0]
	hits := make([]store.HitRecord, len(s.sess.Hits))
	for i, h := range s.sess.Hits {
		hits[i] = store.HitRecord{
			Address:   uint64(h.Address),
			ValueType: s.elem.String(),
			RawValue:  fmt.Sprintf("%x", h.Value),
		}
	}
	if err := s.st.SaveHitList(context.Background(), name, s.sess.ID.String(), "", hits); err != nil {
		fmt.Fprintln(s.out, "error:", err)
		return
	}
	fmt.Fprintln(s.out, "saved")
}

// cmdLoad restores a hit list previously written by `save <name>`,
// replacing the active hit list the way a fresh `search` would —
// symmetric with cmdSave.
func (s *Shell) cmdLoad(args []string) {
	if s.st == nil {
		fmt.Fprintln(s.out, "no store attached")
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: load <name>")
		return
	}
	records, err := s.st.LoadHitList(context.Background(), args[0])
	if err != nil {
		fmt.Fprintln(s.out, "error:", err)
		return
	}
	hits := make([]session.Hit, len(records))
	for i, r := range records {
		raw, err := hex.DecodeString(r.RawValue)
		if err != nil {
			fmt.Fprintln(s.out, "error: corrupt hit list record:", err)
			return
		}
		hits[i] = session.Hit{Address: target.Address(r.Address), Value: raw}
	}
	s.sess.NewSearch(hits)
	fmt.Fprintf(s.out, "%d hits loaded\n", len(hits))
}

// cmdAttach attaches to a local pid or dials a remote agent, depending
// on whether args[0] parses as a number. Any previously attached target
// is closed first, mirroring cmdDetach.
func (s *Shell) cmdAttach(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: attach <pid>|<ws-url>")
		return
	}
	if s.tgt != nil {
		s.tgt.Close()
		s.tgt = nil
	}

	if pid, err := strconv.Atoi(args[0]); err == nil {
		t, err := localtarget.Attach(pid)
		if err != nil {
			fmt.Fprintln(s.out, "error:", err)
			return
		}
		s.tgt = t
		fmt.Fprintf(s.out, "attached to pid %d\n", pid)
		return
	}

	t, err := remotetarget.Dial(args[0])
	if err != nil {
		fmt.Fprintln(s.out, "error:", err)
		return
	}
	s.tgt = t
	fmt.Fprintf(s.out, "connected to %s\n", args[0])
}

// SetTarget binds an already-attached target of any MemoryTarget
// implementation; only the `attach` command constructs a concrete
// target itself (localtarget or remotetarget).
func (s *Shell) SetTarget(t target.MemoryTarget) { s.tgt = t }

func (s *Shell) reportErrors(errs []error) {
	for _, e := range errs {
		fmt.Fprintln(s.out, "error:", e)
	}
}

func (s *Shell) help() {
	fmt.Fprintln(s.out, `commands:
  attach, detach, regions, type <t>
  search <expr>, filter <expr>, hits
  peek <addr>, poke <addr> <expr>
  eval <expr>, explain <expr>
  undo, redo, save <name>, load <name>
  quit`)
}

func parseAddress(s string) (target.Address, error) {
	s = strings.TrimPrefix(s, "0x")
	u, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, errors.New(errors.ParseError, "invalid address %q", s)
	}
	return target.Address(u), nil
}
