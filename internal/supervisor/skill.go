package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"mcphost/pkg/logging"
)

// SkillRunner is the command that turns a script file into a stdio tool server.
// The script path is appended to Args.
type SkillRunner struct {
	Command string
	Args    []string
}

// DefaultSkillRunner prefers `uv run`, which resolves inline script dependencies,
// and falls back to python3.
func DefaultSkillRunner() SkillRunner {
	if uv, err := exec.LookPath("uv"); err == nil {
		return SkillRunner{Command: uv, Args: []string{"run"}}
	}
	logging.Debug("Supervisor", "uv not found on PATH, skills will run with python3")
	return SkillRunner{Command: "python3"}
}

// StartSkill starts the script at scriptPath as server name using the configured runner.
func (s *Supervisor) StartSkill(ctx context.Context, name, scriptPath string, env map[string]string) (*ProcessRecord, error) {
	absPath, err := filepath.Abs(scriptPath)
	if err != nil {
		return nil, &ConfigurationError{Server: name, Field: "script_path", Message: err.Error()}
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, &ConfigurationError{Server: name, Field: "script_path", Message: fmt.Sprintf("script %s does not exist", absPath)}
	}
	if info.IsDir() {
		return nil, &ConfigurationError{Server: name, Field: "script_path", Message: fmt.Sprintf("%s is a directory", absPath)}
	}

	args := append(append([]string(nil), s.runner.Args...), absPath)
	spec := ServerSpec{
		Command:   s.runner.Command,
		Args:      args,
		Env:       env,
		AutoStart: true,
	}
	return s.StartServer(ctx, name, spec)
}
