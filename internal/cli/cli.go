package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/choreo/internal/app"
)

// Exit codes.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("choreo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
choreo - Executes serverless function choreographies.

Usage:
  choreo [options] [WORKFLOW_PATH]

Arguments:
  WORKFLOW_PATH
    Path to a YAML or JSON workflow document.

Options:
`)
		flagSet.PrintDefaults()
	}

	workflowFlag := flagSet.String("workflow", "", "Path to the workflow document.")
	wFlag := flagSet.String("w", "", "Path to the workflow document (shorthand).")
	var configPaths stringList
	flagSet.Var(&configPaths, "config", "Engine configuration .hcl file or directory. May be repeated.")
	inputFlag := flagSet.String("input", "", "Path to a JSON file holding the workflow input object.")
	inputJSONFlag := flagSet.String("input-json", "", "Workflow input object as inline JSON.")
	outputFlag := flagSet.String("output", "", "Write the workflow result to this file instead of stdout.")
	execIDFlag := flagSet.String("execution-id", "", "Execution id recorded with invocation events. 'auto' generates one.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	maxBranchesFlag := flagSet.Int("max-branches", 0, "Maximum concurrent branches per fan-out. 0 uses the engine configuration.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	path := ""
	if *workflowFlag != "" {
		path = *workflowFlag
	} else if *wFlag != "" {
		path = *wFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *inputFlag != "" && *inputJSONFlag != "" {
		return nil, false, &ExitError{Code: ExitUsage, Message: "-input and -input-json are mutually exclusive"}
	}

	config, err := app.NewConfig(app.Config{
		WorkflowPath:    path,
		ConfigPaths:     configPaths,
		InputPath:       *inputFlag,
		InputJSON:       *inputJSONFlag,
		OutputPath:      *outputFlag,
		ExecutionID:     *execIDFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPortFlag,
		MaxBranches:     *maxBranchesFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	return config, false, nil
}
