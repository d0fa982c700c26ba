// dmodeltool is a CLI utility for inspecting and converting DMODEL vehicle models.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/dmodel-tools/internal/config"
	"github.com/Faultbox/dmodel-tools/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "dump":
		cmdDump(args)
	case "validate", "check":
		cmdValidate(args)
	case "convert", "export":
		cmdConvert(args)
	case "preview", "render":
		cmdPreview(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	logger.Sync()
}

func printUsage() {
	fmt.Println(`dmodeltool - DMODEL vehicle model utility

Usage:
  dmodeltool <command> [options] <file>...

Commands:
  info <file>                        Show header, counts, bounds and opcode stats
  dump <file>                        List every polygon command
  validate <file>...                 Decode and check triangle indices
  convert [options] <file>...        Convert to OBJ, glTF or GLB
  preview [options] <file>           Render a flat-shaded image

Common options:
  -config <path>    Config file (default ./dmodeltool.yaml)
  -debug            Enable debug logging
  -log-file <path>  Also write logs to a file
  -validate         Reject triangles referencing missing vertices

Convert options:
  -format obj|gltf|glb   -o <dir>   -flip-v=false   -no-materials   -scale <f>

Preview options:
  -size <px>   -view front|side|top|iso   -format webp|png|bmp   -wireframe   -o <file>

Examples:
  dmodeltool info car01.dmodel
  dmodeltool convert -format obj -o out/ car01.dmodel car02.dmodel
  dmodeltool preview -view side -format png car01.dmodel`)
}

// setup parses a subcommand's flags, loads config and starts logging.
func setup(name string, args []string, bind func(*config.Flags)) (*flag.FlagSet, *config.Config) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags := config.BindFlags(fs)
	if bind != nil {
		bind(flags)
	}
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fatal(err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fatal(err)
	}
	logger.Debug("config loaded",
		zap.String("command", name),
		zap.String("export_format", cfg.Export.Format),
		zap.Bool("validate_indices", cfg.Decode.ValidateIndices))
	return fs, cfg
}

// usage prints a one-line usage message and exits.
func usage(line string) {
	fmt.Fprintln(os.Stderr, "Usage: dmodeltool "+line)
	os.Exit(1)
}

// fatal reports err and exits.
func fatal(err error) {
	logger.Error("command failed", zap.Error(err))
	logger.Sync()
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
