package monitors

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/yowainwright/tynamo/internal/core"
)

// ListProcesses enumerates live processes that expose an executable path.
// Processes that exit mid-scan or deny access are skipped.
func ListProcesses(ctx context.Context) ([]core.ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate processes: %w", err)
	}

	results := make([]core.ProcessInfo, 0, len(procs))
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		exe, err := p.ExeWithContext(ctx)
		if err != nil || exe == "" {
			continue
		}

		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}

		results = append(results, core.ProcessInfo{
			PID:     p.Pid,
			Name:    name,
			ExePath: exe,
		})
	}

	return results, nil
}
