// Package term is the interactive terminal binding over the session
// service. It renders state and forwards user actions; all workflow
// logic lives in the service.
package term

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"

	"github.com/bryanwahyu/cloudvision/internal/application/session"
	domhistory "github.com/bryanwahyu/cloudvision/internal/domain/history"
)

type UI struct {
	svc  *session.Service
	sink *session.ChannelSink
	in   *bufio.Scanner
	out  io.Writer
	tty  bool

	// last listing; the numbers shown to the user index into it and are
	// invalidated by the next listing or delete
	records []domhistory.Record
}

func New(svc *session.Service, sink *session.ChannelSink, in io.Reader, out io.Writer) *UI {
	ui := &UI{svc: svc, sink: sink, in: bufio.NewScanner(in), out: out}
	if f, ok := out.(*os.File); ok {
		ui.tty = isatty.IsTerminal(f.Fd())
	}
	return ui
}

// Run drives the session until the user quits or input ends.
func (u *UI) Run(ctx context.Context) error {
	if u.sink != nil {
		go func() {
			for line := range u.sink.Lines() {
				fmt.Fprintln(u.out, line)
			}
		}()
	}

	fmt.Fprintln(u.out, "Cloud Image Recognition System")
	for {
		var ok bool
		if u.svc.State() == session.StateLoggedOut {
			ok = u.loginScreen(ctx)
		} else {
			ok = u.mainScreen(ctx)
		}
		if !ok {
			return nil
		}
	}
}

func (u *UI) loginScreen(ctx context.Context) bool {
	fmt.Fprintln(u.out, "Commands: login, signup, quit")
	line, ok := u.prompt("> ")
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "login", "signup":
		cmd := strings.ToLower(strings.TrimSpace(line))
		email, ok := u.prompt("Email: ")
		if !ok {
			return false
		}
		password, ok := u.prompt("Password: ")
		if !ok {
			return false
		}
		var err error
		if cmd == "login" {
			_, err = u.svc.SignIn(ctx, email, password)
		} else {
			_, err = u.svc.SignUp(ctx, email, password)
		}
		if err != nil {
			fmt.Fprintf(u.out, "Error: %v\n", err)
			return true
		}
		fmt.Fprintf(u.out, "Welcome, %s!\n", u.svc.User().Email)
	case "quit", "exit":
		return false
	case "":
	default:
		fmt.Fprintln(u.out, "Unknown command.")
	}
	return true
}

func (u *UI) mainScreen(ctx context.Context) bool {
	line, ok := u.prompt(u.svc.User().Email + "> ")
	if !ok {
		return false
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "select":
		if len(args) == 0 {
			fmt.Fprintln(u.out, "Usage: select <path>")
			return true
		}
		// paths may contain spaces
		path := pathArgument(line, fields[0])
		if _, err := u.svc.SelectImage(path); err != nil {
			fmt.Fprintf(u.out, "Error: %v\n", err)
		}
	case "analyze":
		// progress and errors arrive through the sink; the prompt stays
		// responsive while the worker runs
		if err := u.svc.AnalyzeAndPersistAsync(nil); err != nil {
			fmt.Fprintf(u.out, "Error: %v\n", err)
		}
	case "history":
		u.showHistory(ctx)
	case "show":
		u.showDetails(args)
	case "delete":
		u.deleteRecord(ctx, args)
	case "logout":
		u.records = nil
		u.svc.Logout()
	case "quit", "exit":
		return false
	case "help":
		fmt.Fprintln(u.out, "Commands: select <path>, analyze, history, show <n>, delete <n>, logout, quit")
	default:
		fmt.Fprintln(u.out, "Unknown command. Type 'help' for a list.")
	}
	return true
}

func (u *UI) showHistory(ctx context.Context) {
	records, err := u.svc.LoadHistory(ctx)
	if err != nil {
		fmt.Fprintf(u.out, "Error: %v\n", err)
		return
	}
	u.records = records
	if len(records) == 0 {
		fmt.Fprintln(u.out, "No history found.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(u.out)
	t.AppendHeader(table.Row{"#", "Timestamp", "File"})
	for i, rec := range records {
		t.AppendRow(table.Row{i + 1, rec.Result.Timestamp, rec.Result.OriginalFilename})
	}
	if u.tty {
		t.SetStyle(table.StyleRounded)
	}
	t.Render()
}

func (u *UI) showDetails(args []string) {
	rec, ok := u.pick(args)
	if !ok {
		return
	}
	res := rec.Result

	fmt.Fprintf(u.out, "Analysis: %s\n", res.OriginalFilename)
	fmt.Fprintf(u.out, "Timestamp: %s\n", res.Timestamp)
	fmt.Fprintf(u.out, "Image path: %s\n", res.ImagePath)

	t := table.NewWriter()
	t.SetOutputMirror(u.out)
	t.AppendHeader(table.Row{"Feature", "Value", "Score"})
	for _, l := range res.Labels {
		t.AppendRow(table.Row{"label", l.Description, fmt.Sprintf("%.2f%%", l.Score*100)})
	}
	for _, o := range res.Objects {
		t.AppendRow(table.Row{"object", o.Name, fmt.Sprintf("%.2f%%", o.Score*100)})
	}
	if u.tty {
		t.SetStyle(table.StyleRounded)
	}
	t.Render()

	if strings.TrimSpace(res.Text) != "" {
		fmt.Fprintln(u.out, "Text:")
		fmt.Fprintln(u.out, res.Text)
	} else {
		fmt.Fprintln(u.out, "No text detected.")
	}
	fmt.Fprintf(u.out, "Faces: %d\n", res.Faces)
}

func (u *UI) deleteRecord(ctx context.Context, args []string) {
	rec, ok := u.pick(args)
	if !ok {
		return
	}
	answer, ok := u.prompt(fmt.Sprintf("Delete %s? (y/N) ", rec.Result.OriginalFilename))
	if !ok || !strings.EqualFold(strings.TrimSpace(answer), "y") {
		return
	}
	if err := u.svc.DeleteHistory(ctx, rec); err != nil {
		fmt.Fprintf(u.out, "Error: %v\n", err)
		return
	}
	// old numbers are stale now; force a fresh listing
	u.records = nil
	fmt.Fprintln(u.out, "Item deleted. Run 'history' to refresh the list.")
}

// pathArgument returns everything after the command token, keeping
// interior spaces so paths with spaces survive. The line is trimmed
// first so leading whitespace cannot shield the token.
func pathArgument(line, cmd string) string {
	line = strings.TrimSpace(line)
	return strings.TrimSpace(strings.TrimPrefix(line, cmd))
}

// pick resolves a 1-based index argument against the last listing.
func (u *UI) pick(args []string) (domhistory.Record, bool) {
	if len(u.records) == 0 {
		fmt.Fprintln(u.out, "No listing loaded. Run 'history' first.")
		return domhistory.Record{}, false
	}
	if len(args) == 0 {
		fmt.Fprintln(u.out, "Usage: show|delete <n>")
		return domhistory.Record{}, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(u.records) {
		fmt.Fprintf(u.out, "Pick a number between 1 and %d.\n", len(u.records))
		return domhistory.Record{}, false
	}
	return u.records[n-1], true
}

func (u *UI) prompt(label string) (string, bool) {
	fmt.Fprint(u.out, label)
	if !u.in.Scan() {
		return "", false
	}
	return u.in.Text(), true
}
