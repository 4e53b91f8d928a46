package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/bbpatcher/internal/app"
	"github.com/vk/bbpatcher/internal/errs"
	"github.com/vk/bbpatcher/internal/preload"
)

// Exit codes.
const (
	ExitFailure    = 1
	ExitUsage      = 2
	ExitRefusedDRM = 3 // also used for an unknown build refused under --strict
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

// ExitCode maps an error returned by Parse or by the App to a process exit
// code.
func ExitCode(err error) int {
	var exitErr *ExitError
	if err == nil {
		return 0
	}
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch errs.KindOf(err) {
	case errs.KindRefusedDRM, errs.KindRefusedUnknown:
		return ExitRefusedDRM
	default:
		return ExitFailure
	}
}

var commandHelp = map[app.Command]string{
	app.CmdDetect:  "Detect the game version without making changes",
	app.CmdCheck:   "Check if the game is already patched with LAA",
	app.CmdPatch:   "Apply the 4GB (LAA) patch to BattleBrothers.exe",
	app.CmdPreload: "Create the mod preload file (~mod_msu_launcher.zip)",
	app.CmdAll:     "Run both 4GB patch and preload creation",
}

func printUsage(output io.Writer) {
	fmt.Fprint(output, `
bbpatcher - Apply the 4GB patch and build mod preload archives for Battle Brothers.

Usage:
  bbpatcher <command> [options] [GAME_PATH]

Arguments:
  GAME_PATH
    Path to BattleBrothers.exe or the game directory.

Commands:
`)
	for _, c := range app.Commands {
		fmt.Fprintf(output, "  %-9s %s\n", c, commandHelp[c])
	}
	fmt.Fprint(output, `
Run 'bbpatcher <command> -h' for the options of a command.
`)
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	if len(args) == 0 {
		printUsage(output)
		return nil, true, nil
	}
	switch args[0] {
	case "-h", "-help", "--help", "help":
		printUsage(output)
		return nil, true, nil
	}

	cmd := app.Command(args[0])
	if _, ok := commandHelp[cmd]; !ok {
		return nil, false, &ExitError{Code: ExitUsage, Message: fmt.Sprintf("unknown command %q, run 'bbpatcher -h' for usage", args[0])}
	}

	flagSet := flag.NewFlagSet("bbpatcher "+string(cmd), flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprintf(output, "\n%s\n\nUsage:\n  bbpatcher %s [options] [GAME_PATH]\n\nOptions:\n", commandHelp[cmd], cmd)
		flagSet.PrintDefaults()
	}

	pathFlag := flagSet.String("path", "", "Path to BattleBrothers.exe or the game directory.")
	pFlag := flagSet.String("p", "", "Path to BattleBrothers.exe or the game directory (shorthand).")
	sigFlag := flagSet.String("signatures", "", "Additional signature database (HCL) merged with the built-in one.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	noColorFlag := flagSet.Bool("no-color", false, "Disable colored status output.")

	var allowDRM, strict *bool
	if cmd.Patches() {
		allowDRM = flagSet.Bool("allow-drm", false, "Patch a DRM-wrapped executable anyway (the patch may not take effect).")
		strict = flagSet.Bool("strict", false, "Refuse to patch an executable that matches no known build.")
	}
	var modsFlag, outputFlag, compressionFlag *string
	if cmd.Packages() {
		modsFlag = flagSet.String("mods", "", "Mods directory. Defaults to <game>/mods.")
		outputFlag = flagSet.String("output", "", "Archive to write. Defaults to <game>/data/"+preload.ArchiveName+".")
		compressionFlag = flagSet.String("compression", "deflate", "Archive compression. Options: 'deflate' or 'store'.")
	}

	if err := flagSet.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.", "command", cmd)

	path := ""
	if *pathFlag != "" {
		path = *pathFlag
	} else if *pFlag != "" {
		path = *pFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	if path == "" {
		return nil, false, &ExitError{Code: ExitUsage, Message: "a game path is required: pass --path or GAME_PATH"}
	}
	if flagSet.NArg() > 1 || (flagSet.NArg() == 1 && path != flagSet.Arg(0)) {
		return nil, false, &ExitError{Code: ExitUsage, Message: fmt.Sprintf("unexpected arguments: %s", strings.Join(flagSet.Args(), " "))}
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

	cfg := app.Config{
		Command:        cmd,
		GamePath:       path,
		SignaturesPath: *sigFlag,
		LogFormat:      logFormat,
		LogLevel:       logLevel,
		NoColor:        *noColorFlag,
	}
	if cmd.Patches() {
		cfg.AllowDRM = *allowDRM
		cfg.Strict = *strict
	}
	if cmd.Packages() {
		compression, err := preload.ParseCompression(*compressionFlag)
		if err != nil {
			return nil, false, &ExitError{Code: ExitUsage, Message: "invalid compression: " + err.Error()}
		}
		cfg.ModsPath = *modsFlag
		cfg.OutputPath = *outputFlag
		cfg.Compression = compression
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
