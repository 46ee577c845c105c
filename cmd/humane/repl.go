package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/dshills/humane/internal/engine"
	"github.com/dshills/humane/internal/engine/commands"
	"github.com/dshills/humane/internal/engine/document"
	"github.com/dshills/humane/internal/engine/history"
	"github.com/dshills/humane/internal/engine/span"
	"github.com/dshills/humane/internal/engine/style"
)

// errQuit ends the read loop.
var errQuit = errors.New("quit")

// repl reads one command per line and applies it to a session.
type repl struct {
	s   *engine.Session
	out io.Writer
}

type replCommand struct {
	usage string
	help  string
	run   func(r *repl, arg string) error
}

var replCommands map[string]replCommand

func init() {
	replCommands = map[string]replCommand{
		"insert":   {"insert TEXT", "type TEXT at the cursor", (*repl).insert},
		"delete":   {"delete", "delete the selection", execute(func() history.Command { return &commands.DeleteText{} })},
		"cursor":   {"cursor N", "move the cursor", (*repl).cursor},
		"select":   {"select START END", "select [START, END]", (*repl).selectRange},
		"word":     {"word", "select the word at the cursor", execute(func() history.Command { return &commands.SelectWord{} })},
		"left":     {"left", "creep left", execute(func() history.Command { return &commands.Creep{Left: true} })},
		"right":    {"right", "creep right", execute(func() history.Command { return &commands.Creep{} })},
		"leap":     {"leap TEXT", "leap forward to TEXT", leapTo(false)},
		"back":     {"back TEXT", "leap backward to TEXT", leapTo(true)},
		"again":    {"again", "repeat the last leap", execute(func() history.Command { return &commands.Leap{Repeat: true} })},
		"bold":     {"bold", "make the selection bold", execute(overlay(style.Overlay{Bold: style.Bool(true)}))},
		"italic":   {"italic", "make the selection italic", execute(overlay(style.Overlay{Italic: style.Bool(true)}))},
		"plain":    {"plain", "clear bold, italic and underline", execute(overlay(style.Overlay{Bold: style.Bool(false), Italic: style.Bool(false), Underline: style.Bool(false)}))},
		"run":      {"run NAME", "run a named command", (*repl).runNamed},
		"undo":     {"undo", "undo the last command", func(r *repl, _ string) error { return r.s.Undo() }},
		"redo":     {"redo", "redo the last undone command", func(r *repl, _ string) error { return r.s.Redo() }},
		"record":   {"record", "start recording", func(r *repl, _ string) error { r.s.StartRecording(); return nil }},
		"stop":     {"stop", "finish the recording as one command", (*repl).stop},
		"rollback": {"rollback", "undo and drop the recording", func(r *repl, _ string) error { return r.s.RollbackRecording() }},
		"save":     {"save", "write a snapshot", func(r *repl, _ string) error { return r.s.Save() }},
		"flush":    {"flush", "write queued changes", func(r *repl, _ string) error { return r.s.Flush() }},
		"show":     {"show", "print the document", (*repl).show},
		"commands": {"commands", "list named commands", (*repl).listCommands},
		"help":     {"help", "list REPL commands", (*repl).help},
		"quit":     {"quit", "exit", func(*repl, string) error { return errQuit }},
	}
}

// run reads commands from in until EOF, quit or ctx is done.
func (r *repl) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if err := r.exec(line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				r.report(err)
			}
		}
	}
}

// exec runs one line.
func (r *repl) exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	name, arg, _ := strings.Cut(line, " ")
	cmd, ok := replCommands[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("unknown command %q (try help)", name)
	}
	return cmd.run(r, arg)
}

func (r *repl) report(err error) {
	if c, ok := history.AsCancel(err); ok {
		fmt.Fprintln(r.out, c.Explanation)
		return
	}
	fmt.Fprintf(r.out, "error: %v\n", err)
}

func execute(f func() history.Command) func(*repl, string) error {
	return func(r *repl, _ string) error {
		return r.s.Execute(f())
	}
}

func overlay(o style.Overlay) func() history.Command {
	return func() history.Command { return &commands.Style{Overlay: o} }
}

// insert accepts the raw rest of the line or a Go quoted string, which
// allows escapes such as \n.
func (r *repl) insert(arg string) error {
	text := arg
	if strings.HasPrefix(arg, `"`) {
		unq, err := strconv.Unquote(arg)
		if err != nil {
			return fmt.Errorf("bad quoted text: %w", err)
		}
		text = unq
	}
	if text == "" {
		return errors.New("usage: insert TEXT")
	}
	return r.s.Execute(&commands.AddText{Text: text})
}

func (r *repl) cursor(arg string) error {
	pos, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return errors.New("usage: cursor N")
	}
	return r.s.Execute(&commands.SetCursor{Pos: pos})
}

func (r *repl) selectRange(arg string) error {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return errors.New("usage: select START END")
	}
	start, err1 := strconv.Atoi(fields[0])
	end, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return errors.New("usage: select START END")
	}
	return r.s.Execute(&commands.SetSelection{
		Index: document.Selection,
		Range: span.Span{Start: start, End: end},
	})
}

func leapTo(backward bool) func(*repl, string) error {
	return func(r *repl, arg string) error {
		if arg == "" {
			return errors.New("usage: leap TEXT")
		}
		return r.s.Execute(&commands.Leap{Target: arg, Backward: backward})
	}
}

func (r *repl) runNamed(arg string) error {
	name := strings.TrimSpace(arg)
	if name == "" {
		return errors.New("usage: run NAME")
	}
	return r.s.Run(strings.ToUpper(name))
}

func (r *repl) stop(string) error {
	rec, err := r.s.StopRecording()
	if err != nil {
		return err
	}
	if rec != nil {
		fmt.Fprintf(r.out, "recorded %d commands\n", len(rec.Commands))
	}
	return nil
}

// show prints the text with the cursor as | and the selection in [].
func (r *repl) show(string) error {
	r.s.View(func(doc *document.Document) {
		text := []rune(doc.Text())
		sel := doc.Selection(document.Selection).Clamp(doc.Len())
		var b strings.Builder
		for i := 0; i <= len(text); i++ {
			if i == doc.Cursor() {
				b.WriteByte('|')
			}
			if !sel.IsEmpty() && i == sel.Start {
				b.WriteByte('[')
			}
			if i < len(text) {
				b.WriteRune(text[i])
			}
			if !sel.IsEmpty() && i == sel.End {
				b.WriteByte(']')
			}
		}
		fmt.Fprintln(r.out, b.String())
	})
	return nil
}

func (r *repl) listCommands(string) error {
	for _, name := range r.s.Registry().Names() {
		fmt.Fprintln(r.out, name)
	}
	return nil
}

func (r *repl) help(string) error {
	names := make([]string, 0, len(replCommands))
	for name := range replCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := replCommands[name]
		fmt.Fprintf(r.out, "  %-18s %s\n", c.usage, c.help)
	}
	return nil
}
