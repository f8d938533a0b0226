// psktool is a CLI utility for inspecting and converting skeletal mesh and
// animation files.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/psk-tools/internal/config"
	"github.com/Faultbox/psk-tools/internal/logger"
)

var cfg *config.Config

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded",
		zap.String("root_convention", cfg.Skeleton.RootConvention),
		zap.Bool("strict_versions", cfg.Format.StrictVersions))

	command := args[0]
	args = args[1:]

	switch command {
	case "info":
		err = cmdInfo(args)
	case "dump":
		err = cmdDump(args)
	case "validate", "check":
		err = cmdValidate(args)
	case "anims":
		err = cmdAnims(args)
	case "rewrite":
		err = cmdRewrite(args)
	case "gltf", "export":
		err = cmdGLTF(args)
	case "config":
		err = cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
	}
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`psktool - skeletal mesh (.psk) and animation (.psa) utility

Usage:
  psktool [-config file] [-debug] [-strict] [-root self|negative] <command> [options]

Commands:
  info <file>                   Show chunk table
  dump <file> [chunk]           Dump decoded records (optionally one chunk)
  validate <file>               Check versions, indices, skeleton and key streams
  anims [-pose name [-frame f]] <file.psa>
                                List animation sequences or sample one pose
  rewrite [-version N] <in> <out>
                                Load and save again
  gltf [-json] <file.psk> <out> Export mesh and skeleton to glTF
  config init [path] | show     Write or print the effective config

Examples:
  psktool info hero.psk
  psktool dump hero.psk REFSKELT
  psktool -root negative validate hero.psk
  psktool anims -pose Walk -frame 2.5 hero.psa
  psktool gltf hero.psk hero.glb
  psktool config init`)
}

func usage(text string) {
	fmt.Fprintln(os.Stderr, "Usage: psktool "+text)
	os.Exit(1)
}
