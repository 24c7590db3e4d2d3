package deepgram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

func expandCommand(command string, sampleRate int) string {
	return strings.ReplaceAll(command, "{rate}", strconv.Itoa(sampleRate))
}

// commandSource runs a capture command and streams its stdout.
func commandSource(command string) AudioSource {
	return func(ctx context.Context) (io.ReadCloser, error) {
		parts := strings.Fields(command)
		if len(parts) == 0 {
			return nil, errors.New("capture command is empty")
		}
		cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
		out, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("capture stdout: %w", err)
		}
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("start %s: %w", parts[0], err)
		}
		return &commandReader{ReadCloser: out, cmd: cmd}, nil
	}
}

type commandReader struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (r *commandReader) Close() error {
	if r.cmd.Process != nil {
		// Already exited processes report an error here.
		_ = r.cmd.Process.Kill()
	}
	_ = r.ReadCloser.Close()
	if err := r.cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil
		}
		return err
	}
	return nil
}
