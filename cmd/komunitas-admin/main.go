package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/komunitas-inovasi/komunitas/config"
	"github.com/komunitas-inovasi/komunitas/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	// needsConfig loads the application configuration before running.
	needsConfig bool
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Stdout io.Writer
}

func main() {
	logger := bootstrap.InitLogger(slog.LevelInfo, true)

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmdCtx := &commandContext{Ctx: ctx, Logger: logger, Stdout: os.Stdout}
	if cmd.needsConfig {
		cfg, err := bootstrap.LoadConfig()
		if err != nil {
			logger.ErrorContext(ctx, "load config", "error", err)
			stop()
			os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
		}
		cmdCtx.Config = cfg
	}

	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(ctx, "command failed", "command", cmdName, "error", runErr)
		stop()
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"list": {
			name:        "list",
			description: "Log in to the backend and print one page of registrants",
			needsConfig: true,
			run:         runList,
		},
		"export-xlsx": {
			name:        "export-xlsx",
			description: "Export all registrants to an xlsx file",
			needsConfig: true,
			run:         runExportSpreadsheet,
		},
		"export-zip": {
			name:        "export-zip",
			description: "Download every proof of payment into a zip archive",
			needsConfig: true,
			run:         runExportArchive,
		},
		"token-info": {
			name:        "token-info",
			description: "Show subject and expiry of an admin token without verifying it",
			run:         runTokenInfo,
		},
		"list-uploads": {
			name:        "list-uploads",
			description: "List stored property photos and whether a listing references them",
			needsConfig: true,
			run:         runListUploads,
		},
		"reap-uploads": {
			name:        "reap-uploads",
			description: "Remove property photos no listing references",
			needsConfig: true,
			run:         runReapUploads,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: komunitas-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-16s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
