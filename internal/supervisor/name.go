package supervisor

import "fmt"

// Name identifies a supervisor uniquely: its configured program name plus its
// replica index, per spec §3 ProcessName.
type Name struct {
	Program string
	Index   int
}

// String is the display form "{name}-{index}" used in log lines and status
// output.
func (n Name) String() string {
	return fmt.Sprintf("%s-%d", n.Program, n.Index)
}
