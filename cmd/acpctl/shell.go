package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/acp-protocol/acp-go/pkg/log"
	"github.com/acp-protocol/acp-go/pkg/pairing"
)

// shell is the interactive pairing store editor.
type shell struct {
	store pairing.Store
	rl    *readline.Instance
}

func newShell(store pairing.Store) (*shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "acpctl> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &shell{store: store, rl: rl}, nil
}

func (s *shell) run() {
	defer s.rl.Close()

	s.printHelp()

	for {
		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		args := strings.Fields(input)
		switch args[0] {
		case "help":
			s.printHelp()
		case "list":
			s.cmdList()
		case "add":
			s.cmdAdd(args[1:])
		case "remove":
			s.cmdRemove(args[1:])
		case "count":
			s.cmdCount()
		case "log":
			s.cmdLog(args[1:])
		case "exit", "quit":
			return
		default:
			fmt.Fprintf(s.rl.Stdout(), "unknown command %q, try 'help'\n", args[0])
		}
	}
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `Commands:
  list                        Show all pairings
  add <uuid> <hex-key> <perm> Add or update a pairing (perm: admin|user)
  remove <uuid>               Remove a pairing
  count                       Show the number of pairings
  log <path>                  Print a protocol log file
  help                        Show this help
  exit                        Leave the shell`)
}

func (s *shell) cmdList() {
	pairings, err := s.store.List()
	if err != nil {
		fmt.Fprintf(s.rl.Stderr(), "list failed: %v\n", err)
		return
	}
	if len(pairings) == 0 {
		fmt.Fprintln(s.rl.Stdout(), "no pairings")
		return
	}
	for _, p := range pairings {
		fmt.Fprintf(s.rl.Stdout(), "%s  %s  %s\n",
			p.ID, hex.EncodeToString(p.PublicKey[:]), p.Permissions)
	}
}

func (s *shell) cmdAdd(args []string) {
	if len(args) != 3 {
		fmt.Fprintln(s.rl.Stderr(), "usage: add <uuid> <hex-key> <admin|user>")
		return
	}

	id, err := uuid.Parse(args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stderr(), "invalid uuid: %v\n", err)
		return
	}

	key, err := hex.DecodeString(args[1])
	if err != nil {
		fmt.Fprintf(s.rl.Stderr(), "invalid key: %v\n", err)
		return
	}

	var perm pairing.Permission
	switch args[2] {
	case "admin":
		perm = pairing.PermissionAdmin
	case "user":
		perm = pairing.PermissionUser
	default:
		fmt.Fprintf(s.rl.Stderr(), "invalid permission %q\n", args[2])
		return
	}

	p, err := pairing.New(id, key, perm)
	if err != nil {
		fmt.Fprintf(s.rl.Stderr(), "add failed: %v\n", err)
		return
	}
	if err := s.store.Save(p); err != nil {
		fmt.Fprintf(s.rl.Stderr(), "add failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "added %s (%s)\n", id, perm)
}

func (s *shell) cmdRemove(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stderr(), "usage: remove <uuid>")
		return
	}

	id, err := uuid.Parse(args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stderr(), "invalid uuid: %v\n", err)
		return
	}
	if err := s.store.Delete(id); err != nil {
		fmt.Fprintf(s.rl.Stderr(), "remove failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "removed %s\n", id)
}

func (s *shell) cmdCount() {
	n, err := s.store.Count()
	if err != nil {
		fmt.Fprintf(s.rl.Stderr(), "count failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "%d pairing(s)\n", n)
}

func (s *shell) cmdLog(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stderr(), "usage: log <path>")
		return
	}

	f, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stderr(), "open failed: %v\n", err)
		return
	}
	defer f.Close()

	events, err := log.ReadEvents(f)
	if err != nil {
		fmt.Fprintf(s.rl.Stderr(), "read failed: %v\n", err)
		return
	}
	for _, ev := range events {
		s.printEvent(ev)
	}
	fmt.Fprintf(s.rl.Stdout(), "%d event(s)\n", len(events))
}

func (s *shell) printEvent(ev log.Event) {
	out := s.rl.Stdout()
	fmt.Fprintf(out, "%s %-3s %-9s %-7s",
		ev.Timestamp.Format("15:04:05.000"), ev.Direction, ev.Layer, ev.Category)
	if ev.ControllerID != "" {
		fmt.Fprintf(out, " controller=%s", ev.ControllerID)
	}
	if ev.Message != "" {
		fmt.Fprintf(out, " %s", ev.Message)
	}
	if ev.Error != nil {
		fmt.Fprintf(out, " error=%q step=%d code=%#02x",
			ev.Error.Message, ev.Error.Step, ev.Error.Code)
	}
	fmt.Fprintln(out)
}
