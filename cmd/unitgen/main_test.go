package main

import (
	"bufio"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mainCommand prepares main to run in a subprocess with args, since main
// calls os.Exit.
func mainCommand(args ...string) *exec.Cmd {
	cmd := exec.Command(os.Args[0], "-test.run=^TestMainSubprocess$")
	cmd.Env = append(os.Environ(), "BE_UNITGEN_MAIN=1", "UNITGEN_ARGS="+strings.Join(args, "\x1f"))
	return cmd
}

func runMain(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, err := mainCommand(args...).CombinedOutput()
	return string(out), err
}

func TestMainSubprocess(t *testing.T) {
	if os.Getenv("BE_UNITGEN_MAIN") != "1" {
		t.Skip("only runs as a subprocess of TestMain")
	}
	os.Args = []string{"unitgen"}
	if args := os.Getenv("UNITGEN_ARGS"); args != "" {
		os.Args = append(os.Args, strings.Split(args, "\x1f")...)
	}
	main()
}

func TestMain(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantExit int
	}{
		{
			name:     "help command",
			args:     []string{"--help"},
			wantExit: 0,
		},
		{
			name:     "invalid flag",
			args:     []string{"--invalid-flag"},
			wantExit: 1,
		},
		{
			name:     "generate help",
			args:     []string{"generate", "--help"},
			wantExit: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runMain(t, tt.args...)
			if tt.wantExit == 0 {
				assert.NoError(t, err, out)
				return
			}
			var exitError *exec.ExitError
			require.True(t, errors.As(err, &exitError), "expected exit error, got %v", err)
			assert.Equal(t, tt.wantExit, exitError.ExitCode())
		})
	}
}

func TestMainGenerate(t *testing.T) {
	dir := t.TempDir()
	src := `package shapes

//unitgen:derive
type Shape interface{ isShape() }

type Circle struct{}

func (Circle) isShape() {}

//unitgen:derive
type Raw chan int
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shapes.go"), []byte(src), 0o644))

	out, err := runMain(t, "generate", "--source", dir)
	var exitError *exec.ExitError
	require.True(t, errors.As(err, &exitError), out)
	assert.Equal(t, 1, exitError.ExitCode())
	assert.Contains(t, out, "unsupported shape in Raw")
	assert.NoFileExists(t, filepath.Join(dir, "shapes_unit_gen.go"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "shapes.go"), []byte(strings.Split(src, "//unitgen:derive\ntype Raw")[0]), 0o644))
	out, err = runMain(t, "generate", "--source", dir)
	require.NoError(t, err, out)
	assert.FileExists(t, filepath.Join(dir, "shapes_unit_gen.go"))
}

func TestMainStopsOnSIGTERM(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("SIGTERM cannot be sent on windows")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shapes.go"), []byte("package shapes\n"), 0o644))

	cmd := mainCommand("watch", "--source", dir, "--verbose")
	stderr, err := cmd.StderrPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())
	kill := time.AfterFunc(30*time.Second, func() { _ = cmd.Process.Kill() })
	defer kill.Stop()

	lines := bufio.NewScanner(stderr)
	watching := false
	for !watching && lines.Scan() {
		watching = strings.Contains(lines.Text(), "watching")
	}
	require.True(t, watching, "watch did not start")

	drained := make(chan struct{})
	go func() {
		_, _ = io.Copy(io.Discard, stderr)
		close(drained)
	}()
	require.NoError(t, cmd.Process.Signal(syscall.SIGTERM))
	<-drained
	assert.NoError(t, cmd.Wait(), "SIGTERM stops watch cleanly")
}
