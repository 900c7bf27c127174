package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/modelmirror/internal/app"
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

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("mirror", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
mirror - resolve a declarative configuration document into an instance graph.

Usage:
  mirror [options] [DOC_PATH]

Arguments:
  DOC_PATH
    Path to a .json or .hcl configuration document.

Options:
`)
		flagSet.PrintDefaults()
	}

	docFlag := flagSet.String("doc", "", "Path to the configuration document.")
	dFlag := flagSet.String("d", "", "Path to the configuration document (shorthand).")
	namespaceFlag := flagSet.String("namespace", "", "Singleton namespace for this run. Defaults to MIRROR_NAMESPACE or 'default'.")
	markerFlag := flagSet.String("marker", "", "Instance-request marker key. Defaults to MIRROR_MARKER or '$mirror'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *docFlag != "" {
		path = *docFlag
	} else if *dFlag != "" {
		path = *dFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Document path determined.", "path", path)

	if path == "" {
		slog.Debug("No document path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid log format: %q", *logFormatFlag)}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid log level: %q", *logLevelFlag)}
	}

	cfg, err := app.NewConfig(app.Config{
		DocPath:   path,
		Namespace: *namespaceFlag,
		Marker:    *markerFlag,
		LogFormat: logFormat,
		LogLevel:  logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, false, nil
}
