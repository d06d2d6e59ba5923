// Command memfuzz is the CLI entrypoint: a thin argument-dispatch layer
// in front of internal/shell. It resolves a short alias to its full
// command name, handles --help/--version up front, then dispatches on
// os.Args[1:].
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"memfuzz/internal/config"
	"memfuzz/internal/localtarget"
	"memfuzz/internal/remotetarget"
	"memfuzz/internal/shell"
	"memfuzz/internal/store"
)

const version = "0.1.0"

var commandAliases = map[string]string{
	"a": "attach",
	"s": "shell",
	"v": "version",
	"h": "help",
}

var verbose bool

func main() {
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		if args[i] == "--verbose" {
			verbose = true
			args = append(args[:i], args[i+1:]...)
			i--
		}
	}
	if len(args) == 0 {
		runShell("", 0, "")
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()

	case "--version", "-v", "version":
		fmt.Println("memfuzz", version)

	case "attach":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: memfuzz attach <pid>")
			os.Exit(1)
		}
		pid, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid pid %q: %v\n", args[1], err)
			os.Exit(1)
		}
		runShell("local", pid, "")

	case "connect":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: memfuzz connect <ws-url>")
			os.Exit(1)
		}
		runShell("remote", 0, args[1])

	case "shell":
		runShell("", 0, "")

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		showUsage()
		os.Exit(1)
	}
}

func runShell(mode string, pid int, url string) {
	cfg, err := config.Load("memfuzz.json")
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if mode != "" {
		cfg.Target.Mode = mode
		cfg.Target.PID = pid
		cfg.Target.URL = url
	}

	sh := shell.New(os.Stdin, os.Stdout, cfg.Shell)
	if verbose {
		sh.SetVerbose(log.New(os.Stderr, "memfuzz: ", log.LstdFlags))
	}

	if st, err := store.Open(cfg.Store.Driver, cfg.Store.DSN); err == nil {
		sh.AttachStore(st)
		defer st.Close()
	} else {
		fmt.Fprintln(os.Stderr, "store:", err)
	}

	switch cfg.Target.Mode {
	case "local":
		if cfg.Target.PID != 0 {
			t, err := localtarget.Attach(cfg.Target.PID)
			if err != nil {
				fmt.Fprintln(os.Stderr, "attach:", err)
				os.Exit(1)
			}
			defer t.Close()
			sh.SetTarget(t)
		}
	case "remote":
		if cfg.Target.URL != "" {
			t, err := remotetarget.Dial(cfg.Target.URL)
			if err != nil {
				fmt.Fprintln(os.Stderr, "connect:", err)
				os.Exit(1)
			}
			defer t.Close()
			sh.SetTarget(t)
		}
	}

	sh.Run(os.Stdin.Fd())
}

func showUsage() {
	fmt.Println(`memfuzz - interactive memory inspection and fuzzing shell

Usage:
  memfuzz [shell]             start an unattached interactive shell
  memfuzz attach <pid>        attach to a local process and start the shell
  memfuzz connect <ws-url>    connect to a remote memory agent and start the shell
  memfuzz version             print the version
  memfuzz help                print this message

Flags:
  --verbose                   log scan progress to stderr

Once in the shell, type 'help' for the command list.`)
}
