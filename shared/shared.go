// Package shared provides common state and logging used across avalonctl.
package shared

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// State represents the configuration and runtime state of the tool.
var State = toolState{} //nolint:gochecknoglobals // Global tool state

// toolState holds the settings resolved from flags and configuration before
// any command runs. All fields are set once during startup and are read-only
// afterwards, so they are safe to read from any goroutine.
type toolState struct {
	APIPort          int           // APIPort is the CGMiner API port.
	Timeout          time.Duration // Timeout is the per-request timeout for device communication.
	Parallel         int           // Parallel bounds concurrent device connections in fleet mode.
	DataPath         string        // DataPath is the directory for downloaded wordlists and other tool data.
	Debug            bool          // Debug specifies whether the tool is running in debug mode.
	Workers          int           // Workers is the search worker count.
	ChunkSize        uint64        // ChunkSize is the number of candidates a worker claims at a time.
	ProgressInterval time.Duration // ProgressInterval is the delay between search progress reports.
}

// Logger is a shared logging instance configured to output logs at InfoLevel with timestamps to os.Stdout.
var Logger = log.NewWithOptions(os.Stdout, log.Options{ //nolint:gochecknoglobals // Global logger instance
	Level:           log.InfoLevel,
	ReportTimestamp: true,
})

// ErrorLogger is a logger instance for logging critical errors with detailed error information.
var ErrorLogger = Logger.With() //nolint:gochecknoglobals // Global error logger instance
