package mock

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Environment variables understood by a stub process.
const (
	EnvStubName   = "MCPHOST_STUB_SERVER"
	EnvStubMode   = "MCPHOST_STUB_MODE"
	EnvStubConfig = "MCPHOST_STUB_CONFIG"
)

// RunStubIfRequested turns the current process into a stub tool server when
// EnvStubName is set, and exits when the stub is done. Test packages call it
// first thing in TestMain so the test binary can be spawned as a child server:
//
//	func TestMain(m *testing.M) {
//	    mock.RunStubIfRequested()
//	    os.Exit(m.Run())
//	}
func RunStubIfRequested() {
	name := os.Getenv(EnvStubName)
	if name == "" {
		return
	}
	os.Exit(runStub(name, Mode(os.Getenv(EnvStubMode)), os.Stdin, os.Stdout))
}

// StubCommand returns the command line and environment that start the running
// test binary as a stub server named name.
func StubCommand(name string, mode Mode) (string, []string, map[string]string) {
	env := map[string]string{
		EnvStubName: name,
		EnvStubMode: string(mode),
	}
	return os.Args[0], []string{"-test.run=^$"}, env
}

func runStub(name string, mode Mode, in io.Reader, out io.Writer) int {
	switch mode {
	case ModeExit:
		fmt.Fprintf(os.Stderr, "stub %s exiting on request\n", name)
		return 3
	case ModeSilent:
		_, _ = io.Copy(io.Discard, in)
		return 0
	case ModeNoisy:
		fmt.Fprintf(out, "stub %s booting, this line is not JSON\n", name)
		fmt.Fprintln(out, "[1, 2, 3]")
	case ModeStubborn:
		signal.Ignore(syscall.SIGTERM)
	}

	srv := NewServer(name, DefaultTools(), false)
	if path := os.Getenv(EnvStubConfig); path != "" {
		fromFile, err := NewServerFromFile(path, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "stub %s: %v\n", name, err)
			return 1
		}
		srv = fromFile
	}

	if err := srv.Serve(context.Background(), in, out); err != nil {
		fmt.Fprintf(os.Stderr, "stub %s: %v\n", name, err)
		return 1
	}
	for mode == ModeStubborn {
		time.Sleep(time.Hour)
	}
	return 0
}
