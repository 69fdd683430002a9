package registry

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gosv/taskmaster/internal/procconfig"
)

func trueConfig(t *testing.T, replicas int) procconfig.ProgramConfig {
	t.Helper()
	cfg, err := procconfig.Decode(strings.NewReader(`
programs:
  p:
    command: /bin/true
    replicas: ` + strconv.Itoa(replicas) + `
`))
	require.NoError(t, err)
	return cfg.Programs["p"]
}

func TestAddCreatesReplicas(t *testing.T) {
	r := New(nil)
	r.Add("p", trueConfig(t, 3))
	defer r.Remove("p")

	replicas, ok := r.Replicas("p")
	require.True(t, ok)
	require.Len(t, replicas, 3)
	require.Equal(t, "p-0", replicas[0].Name().String())
	require.Equal(t, "p-2", replicas[2].Name().String())
}

func TestRemoveClosesAllReplicas(t *testing.T) {
	r := New(nil)
	r.Add("p", trueConfig(t, 2))
	r.Remove("p")

	require.False(t, r.Has("p"))
}

func TestFindParsesReplicaSpec(t *testing.T) {
	r := New(nil)
	r.Add("web", trueConfig(t, 2))
	defer r.Remove("web")

	sv, err := r.Find("web-1")
	require.NoError(t, err)
	require.Equal(t, 1, sv.Name().Index)

	_, err = r.Find("web-9")
	require.Error(t, err)

	_, err = r.Find("not-a-name")
	require.Error(t, err)
}

func TestExpectedExitCodeLookup(t *testing.T) {
	r := New(nil)
	cfg, err := procconfig.Decode(strings.NewReader(`
programs:
  p:
    command: /bin/true
    exit_code: 2
`))
	require.NoError(t, err)
	r.Add("p", cfg.Programs["p"])
	defer r.Remove("p")

	code, ok := r.ExpectedExitCode("p-0")
	require.True(t, ok)
	require.Equal(t, 2, code)

	_, ok = r.ExpectedExitCode("nope-0")
	require.False(t, ok)
}
