package cmdtemplate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gosv/taskmaster/internal/procconfig"
)

func TestBuildPlainCommand(t *testing.T) {
	tpl := New(procconfig.ProgramConfig{
		Command: "/bin/echo",
		Args:    []string{"hi"},
	})
	cmd, err := tpl.Build()
	require.NoError(t, err)
	require.Equal(t, "/bin/echo", cmd.Path)
	require.Equal(t, []string{"/bin/echo", "hi"}, cmd.Args)
	require.Empty(t, cmd.Env)
}

func TestBuildClearsEnvironment(t *testing.T) {
	tpl := New(procconfig.ProgramConfig{
		Command:     "/bin/echo",
		Environment: map[string]string{"FOO": "bar"},
	})
	cmd, err := tpl.Build()
	require.NoError(t, err)
	require.Equal(t, []string{"FOO=bar"}, cmd.Env)
}

func TestBuildRedirectsAppend(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.log")
	require.NoError(t, os.WriteFile(outPath, []byte("existing\n"), 0644))

	tpl := New(procconfig.ProgramConfig{
		Command: "/bin/echo",
		Stdout:  outPath,
	})
	cmd, err := tpl.Build()
	require.NoError(t, err)

	f, ok := cmd.Stdout.(*os.File)
	require.True(t, ok)
	defer f.Close()

	_, err = f.WriteString("next\n")
	require.NoError(t, err)
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, "existing\nnext\n", string(data), "append-mode fd should write past existing content")
}

func TestBuildUsesUmaskShellWrapper(t *testing.T) {
	tpl := New(procconfig.ProgramConfig{
		Command: "/bin/echo",
		Args:    []string{"hi"},
		Umask:   procconfig.Umask{Value: 0o022, Set: true},
	})
	cmd, err := tpl.Build()
	require.NoError(t, err)
	require.Equal(t, "/bin/sh", cmd.Path)
	require.Contains(t, cmd.Args[2], "umask 22")
	require.Equal(t, "/bin/echo", cmd.Args[3])
	require.Equal(t, "hi", cmd.Args[4])
}

func TestBuildNoRedirectUsesDevNull(t *testing.T) {
	tpl := New(procconfig.ProgramConfig{Command: "/bin/echo"})
	cmd, err := tpl.Build()
	require.NoError(t, err)
	require.NotNil(t, cmd.Stdout)
	require.NotNil(t, cmd.Stdin)
}
