// Package preflight runs environment checks before a dub job starts so
// failures surface up front instead of hours into synthesis.
package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"dubforge/internal/config"
)

// minFreeBytes is the workspace headroom a job needs for extracted audio,
// separation stems, and the mux output.
const minFreeBytes = 2 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Workspace directory", cfg.Paths.WorkspaceDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckFreeSpace("Workspace free space", cfg.Paths.WorkspaceDir, minFreeBytes),
	}
	results = append(results, toolResults(cfg)...)
	return results
}

// CheckDirectoryAccess verifies the directory exists and is readable and
// writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minBytes
// available.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%.1f GiB free, need %.1f GiB)",
			path, gib(free), gib(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%.1f GiB free)", path, gib(free))}
}

// Tool describes one external binary the pipeline shells out to.
type Tool struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// ToolStatus reports whether a tool resolved on PATH.
type ToolStatus struct {
	Tool
	Available bool
	Detail    string
}

// CheckTools evaluates the external binaries the pipeline shells out to.
func CheckTools(cfg *config.Config) []ToolStatus {
	tools := []Tool{
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpeg,
			Description: "Required for extraction, time stretch, and muxing",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Tools.FFprobe,
			Description: "Required for media inspection",
		},
		{
			Name:        "TTS",
			Command:     cfg.Tools.TTS,
			Description: "Required for speech synthesis",
		},
		{
			Name:        "Demucs",
			Command:     cfg.Tools.Demucs,
			Description: "Separates background audio; dubs are vocals-only without it",
			Optional:    true,
		},
	}
	statuses := make([]ToolStatus, 0, len(tools))
	for _, tool := range tools {
		tool.Command = strings.TrimSpace(tool.Command)
		status := ToolStatus{Tool: tool}
		switch {
		case tool.Command == "":
			status.Detail = "command not configured"
		default:
			if _, err := exec.LookPath(tool.Command); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", tool.Command)
			} else {
				status.Available = true
			}
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func toolResults(cfg *config.Config) []Result {
	statuses := CheckTools(cfg)
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if status.Available {
			result.Detail = status.Command
		} else if status.Optional {
			result.Passed = true
			result.Detail = status.Detail + " (optional)"
		}
		results = append(results, result)
	}
	return results
}

// Passed reports whether every check in the set succeeded.
func Passed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}

func gib(bytes uint64) float64 {
	return float64(bytes) / float64(1<<30)
}
