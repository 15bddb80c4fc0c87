// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/dap.go/pkg/cli/cmds/basicio"
	_ "github.com/robotalks/dap.go/pkg/cli/cmds/dcm"
)
