package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type call struct {
	name string
	args []string
}

type fakeExec struct {
	loggedIn bool
	calls    []call
	failOn   string
}

func (f *fakeExec) rec(name string, args []string) error {
	f.calls = append(f.calls, call{name: name, args: args})
	if name == f.failOn {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeExec) isLoggedIn() bool                          { return f.loggedIn }
func (f *fakeExec) Register(context.Context) error            { return f.rec("register", nil) }
func (f *fakeExec) Login(context.Context) error               { return f.rec("login", nil) }
func (f *fakeExec) Logout(context.Context) error              { return f.rec("logout", nil) }
func (f *fakeExec) List(_ context.Context, a []string) error  { return f.rec("ls", a) }
func (f *fakeExec) Cd(_ context.Context, a []string) error    { return f.rec("cd", a) }
func (f *fakeExec) Mkdir(_ context.Context, a []string) error { return f.rec("mkdir", a) }
func (f *fakeExec) Stat(_ context.Context, a []string) error  { return f.rec("stat", a) }
func (f *fakeExec) Put(_ context.Context, a []string) error   { return f.rec("put", a) }
func (f *fakeExec) Get(_ context.Context, a []string) error   { return f.rec("get", a) }
func (f *fakeExec) Remove(_ context.Context, a []string) error {
	return f.rec("rm", a)
}
func (f *fakeExec) Move(_ context.Context, a []string) error   { return f.rec("mv", a) }
func (f *fakeExec) Rename(_ context.Context, a []string) error { return f.rec("rename", a) }
func (f *fakeExec) Share(_ context.Context, a []string) error  { return f.rec("share", a) }
func (f *fakeExec) Unshare(_ context.Context, a []string) error {
	return f.rec("unshare", a)
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	old := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, fmt.Sprintln(a...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = old })
	return &lines
}

func TestRunREPL_Dispatch(t *testing.T) {
	captureOutput(t)
	f := &fakeExec{loggedIn: true}
	input := strings.Join([]string{
		"register",
		"login",
		"",
		"ls",
		"l abc",
		"cd dir1",
		"mkdir docs",
		"stat n1",
		"put ./a.txt b.txt",
		"get n1 /tmp/out tok",
		"rm n1",
		"mv n1 /",
		"rename n1 new",
		"share n1 1h",
		"unshare tok",
		"logout",
		"exit",
		"ls never",
	}, "\n")

	runREPL(context.Background(), f, func() string { return "/" }, bufio.NewReader(strings.NewReader(input)))

	want := []call{
		{name: "register"},
		{name: "login"},
		{name: "ls", args: []string{}},
		{name: "ls", args: []string{"abc"}},
		{name: "cd", args: []string{"dir1"}},
		{name: "mkdir", args: []string{"docs"}},
		{name: "stat", args: []string{"n1"}},
		{name: "put", args: []string{"./a.txt", "b.txt"}},
		{name: "get", args: []string{"n1", "/tmp/out", "tok"}},
		{name: "rm", args: []string{"n1"}},
		{name: "mv", args: []string{"n1", "/"}},
		{name: "rename", args: []string{"n1", "new"}},
		{name: "share", args: []string{"n1", "1h"}},
		{name: "unshare", args: []string{"tok"}},
		{name: "logout"},
	}
	if diff := cmp.Diff(want, f.calls, cmp.AllowUnexported(call{})); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRunREPL_ErrorsAreReportedAndLoopContinues(t *testing.T) {
	out := captureOutput(t)
	f := &fakeExec{failOn: "mkdir"}

	runREPL(context.Background(), f, func() string { return "x" }, bufio.NewReader(strings.NewReader("mkdir a\nstat b")))

	if len(f.calls) != 2 || f.calls[1].name != "stat" {
		t.Fatalf("unexpected calls: %+v", f.calls)
	}
	if !strings.Contains(strings.Join(*out, ""), "Error: boom") {
		t.Fatalf("error not printed: %q", *out)
	}
}

func TestRunREPL_HelpAndUnknown(t *testing.T) {
	out := captureOutput(t)
	f := &fakeExec{}

	runREPL(context.Background(), f, func() string { return "" }, bufio.NewReader(strings.NewReader("help\nfrobnicate\n")))

	joined := strings.Join(*out, "")
	if !strings.Contains(joined, helpAnonymous) {
		t.Fatalf("anonymous help missing: %q", joined)
	}
	if !strings.Contains(joined, "Unknown command: frobnicate") {
		t.Fatalf("unknown command not reported: %q", joined)
	}

	*out = nil
	f.loggedIn = true
	runREPL(context.Background(), f, func() string { return "" }, bufio.NewReader(strings.NewReader("help\n")))
	if !strings.Contains(strings.Join(*out, ""), helpLoggedIn) {
		t.Fatalf("logged-in help missing: %q", *out)
	}
}
