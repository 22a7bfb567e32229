package tools

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"runtime"
	"time"

	"ragchat/internal/contextutil"
)

// CommandToolName is the name the model uses to run a shell command.
const CommandToolName = "cmd"

// NewCommandTool returns the shell-command runner.
// Exit status zero yields stdout; any other exit yields stdout and stderr joined by a newline.
func NewCommandTool() Descriptor {
	return Descriptor{
		Name:        CommandToolName,
		Description: "execute an arbitrary CMD command",
		Parameters: Schema{
			Type: "object",
			Properties: map[string]Property{
				"command": {Type: "string", Description: "CMD command to run"},
			},
			Required: []string{"command"},
		},
		Handler: runCommand,
	}
}

func shellArgs(command string) (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C", command}
	}
	return "sh", []string{"-c", command}
}

func runCommand(ctx context.Context, params map[string]any) (string, error) {
	command, err := stringParam(params, "command")
	if err != nil {
		return "", err
	}

	logger := contextutil.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "running command", "command", command)

	name, args := shellArgs(command)
	cmd := exec.CommandContext(ctx, name, args...)
	// Stop waiting on output pipes held open by orphaned children after cancellation.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			logger.InfoContext(ctx, "command exited non-zero", "code", exitErr.ExitCode())
			return stdout.String() + "\n" + stderr.String(), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stdout.String() + "\n" + stderr.String(), ctxErr
		}
		return "", err
	}

	return stdout.String(), nil
}
