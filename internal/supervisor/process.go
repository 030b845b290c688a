package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"mcphost/pkg/logging"
)

// killWait bounds how long Stop waits for the process to be reaped after SIGKILL.
const killWait = 2 * time.Second

// ProcessRecord is the runtime handle of one spawned tool server: the OS process
// and its three pipes. It is created by the Supervisor and never reused after the
// process exits.
type ProcessRecord struct {
	Name    string
	Command string
	Args    []string
	Cwd     string
	Env     map[string]string

	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *os.File
	startedAt time.Time
	done      chan struct{}
	onExit    func(*ProcessRecord)

	stdoutOnce  sync.Once
	stdoutTaken bool

	mu          sync.RWMutex
	exitCode    *int
	exitErr     error
	stdinClosed bool
	stopping    bool
}

// spawnProcess starts spec (already expanded) as a child with the inherited
// environment plus spec.Env. Stdout and stderr use plain OS pipes so that
// reaping the process never races with readers of its output.
func spawnProcess(name string, spec ServerSpec, onExit func(*ProcessRecord)) (*ProcessRecord, error) {
	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.Cwd
	cmd.Env = mergeEnv(os.Environ(), spec.Env)
	configureProcAttr(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdin.Close()
		stdoutR.Close()
		stdoutW.Close()
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdoutR.Close()
		stdoutW.Close()
		stderrR.Close()
		stderrW.Close()
		return nil, err
	}

	// The child owns the write ends now.
	stdoutW.Close()
	stderrW.Close()

	r := &ProcessRecord{
		Name:      name,
		Command:   spec.Command,
		Args:      spec.Args,
		Cwd:       spec.Cwd,
		Env:       spec.Env,
		cmd:       cmd,
		stdin:     stdin,
		stdout:    stdoutR,
		startedAt: time.Now(),
		done:      make(chan struct{}),
		onExit:    onExit,
	}

	go func() {
		logging.CopyLines(stderrR, logging.LevelDebug, "Server:"+name)
		stderrR.Close()
	}()
	go r.wait()

	return r, nil
}

func (r *ProcessRecord) wait() {
	err := r.cmd.Wait()
	code := -1
	if r.cmd.ProcessState != nil {
		code = r.cmd.ProcessState.ExitCode()
	}

	r.mu.Lock()
	r.exitCode = &code
	r.exitErr = err
	r.stdinClosed = true
	stopping := r.stopping
	stdoutTaken := r.stdoutTaken
	r.mu.Unlock()

	// A reader closes the pipe once it drained it; without one nothing ever will.
	if !stdoutTaken {
		r.closeStdout()
	}

	if stopping {
		logging.Debug("Supervisor", "Server %s exited with code %d after stop", r.Name, code)
	} else {
		logging.Warn("Supervisor", "Server %s exited unexpectedly with code %d: %v", r.Name, code, err)
	}

	close(r.done)
	if r.onExit != nil {
		r.onExit(r)
	}
}

// Stdin returns the input pipe of the process. Writes that fail mark the pipe closed.
func (r *ProcessRecord) Stdin() io.Writer {
	if r == nil || r.stdin == nil {
		return nil
	}
	return &stdinWriter{record: r}
}

// Stdout returns the output pipe of the process. The pipe is closed as soon as
// a read on it fails, which after the process exits means once it is drained.
func (r *ProcessRecord) Stdout() io.Reader {
	if r == nil || r.stdout == nil {
		return nil
	}
	r.mu.Lock()
	r.stdoutTaken = true
	r.mu.Unlock()
	return &stdoutReader{record: r}
}

func (r *ProcessRecord) closeStdout() {
	r.stdoutOnce.Do(func() {
		_ = r.stdout.Close()
	})
}

// PID returns the OS process id.
func (r *ProcessRecord) PID() int {
	if r.cmd == nil || r.cmd.Process == nil {
		return 0
	}
	return r.cmd.Process.Pid
}

// StartedAt returns when the process was spawned.
func (r *ProcessRecord) StartedAt() time.Time {
	return r.startedAt
}

// Running reports whether the process has not exited and no stop was requested.
func (r *ProcessRecord) Running() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.exitCode == nil && !r.stopping
}

// ExitCode returns the exit code once the process has been reaped.
func (r *ProcessRecord) ExitCode() (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.exitCode == nil {
		return 0, false
	}
	return *r.exitCode, true
}

// StdinClosed reports whether the input pipe is closed or closing.
func (r *ProcessRecord) StdinClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stdinClosed
}

// CloseStdin closes the input pipe. Most tool servers exit when they see EOF.
func (r *ProcessRecord) CloseStdin() error {
	r.mu.Lock()
	if r.stdinClosed {
		r.mu.Unlock()
		return nil
	}
	r.stdinClosed = true
	r.mu.Unlock()
	return r.stdin.Close()
}

// Done is closed once the process has been reaped.
func (r *ProcessRecord) Done() <-chan struct{} {
	return r.done
}

// Stop asks the process to terminate, waits up to grace for it to exit and kills
// its process group afterwards. The output pipe is released in every case.
func (r *ProcessRecord) Stop(ctx context.Context, grace time.Duration) error {
	r.mu.Lock()
	r.stopping = true
	r.mu.Unlock()
	defer r.closeStdout()

	select {
	case <-r.done:
		return nil
	default:
	}

	logging.Info("Supervisor", "Stopping server %s (pid %d)", r.Name, r.PID())
	if err := terminateProcess(r.cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
		logging.Debug("Supervisor", "Failed to send termination signal to %s: %v", r.Name, err)
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-r.done:
		logging.Info("Supervisor", "Server %s stopped", r.Name)
		return nil
	case <-timer.C:
		logging.Warn("Supervisor", "Server %s did not exit within %s, killing it", r.Name, grace)
	case <-ctx.Done():
		logging.Warn("Supervisor", "Stop of server %s interrupted, killing it", r.Name)
	}

	if err := killProcess(r.cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill server %s: %w", r.Name, err)
	}

	select {
	case <-r.done:
		return nil
	case <-time.After(killWait):
		return fmt.Errorf("server %s (pid %d) was not reaped after kill", r.Name, r.PID())
	}
}

type stdoutReader struct {
	record *ProcessRecord
}

func (rd *stdoutReader) Read(p []byte) (int, error) {
	n, err := rd.record.stdout.Read(p)
	if err != nil {
		rd.record.closeStdout()
	}
	return n, err
}

type stdinWriter struct {
	record *ProcessRecord
}

func (w *stdinWriter) Write(p []byte) (int, error) {
	n, err := w.record.stdin.Write(p)
	if err != nil {
		w.record.mu.Lock()
		w.record.stdinClosed = true
		w.record.mu.Unlock()
	}
	return n, err
}

// mergeEnv overlays overrides on base. Later entries win in exec, but
// duplicates are dropped to keep the child environment readable.
func mergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}

	out := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key := kv
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				key = kv[:i]
				break
			}
		}
		if _, overridden := overrides[key]; overridden {
			continue
		}
		out = append(out, kv)
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+overrides[k])
	}
	return out
}
