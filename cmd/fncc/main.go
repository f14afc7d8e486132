// Command fncc is the CLI driver for the compiler core in internal/compiler.
// It is a thin cobra-based shell: argument parsing, source reading, leveled
// logging and stage selection all live here, while Compile itself remains a
// pure function with no knowledge of flags, files or loggers (spec.md §6).
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"fncc/internal/compiler"
	"fncc/internal/interp"
	"fncc/internal/printer"
	"fncc/internal/util"
)

var (
	flagTarget  string
	flagOutput  string
	flagExecute string
	flagRuntime string
	flagVerbose bool
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fncc [source-file]",
		Short: "fncc compiles the core expression language to x86-64 NASM assembly",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCompile,
	}
	cmd.Flags().StringVarP(&flagTarget, "target", "t", "asm", "pipeline stage to output: ast|resolved|ssa|asm|exe")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "-", "output path, or - for stdout")
	cmd.Flags().StringVarP(&flagExecute, "execute", "x", "", "run the compiled program with this integer entry argument")
	cmd.Flags().StringVarP(&flagRuntime, "runtime", "r", "", "path to a runtime object to link against (exe target only)")
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging (total compile time)")
	return cmd
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
}

func runCompile(cmd *cobra.Command, args []string) error {
	log := newLogger()

	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	src, err := util.ReadSource(path)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := compiler.Compile(src)
	if err != nil {
		return errors.Wrap(err, "compile")
	}
	log.Debug().Dur("elapsed", time.Since(start)).Msg("pipeline complete")

	if flagRuntime != "" && flagTarget != "exe" {
		log.Warn().Str("runtime", flagRuntime).Msg("--runtime is only meaningful with --target exe")
	}

	var staged string
	switch flagTarget {
	case "ast":
		staged = printer.PrintSurface(res.Surface)
	case "resolved":
		staged = printer.PrintBound(res.Bound)
	case "ssa":
		staged = printer.PrintSSA(res.SSA)
	case "asm":
		staged = res.Asm
	case "exe":
		log.Warn().Msg("--target exe does not invoke an assembler or linker; emitting assembly text only (spec.md §6 treats those as external collaborators)")
		staged = res.Asm
	default:
		return errors.Errorf("unknown --target %q: want ast, resolved, ssa, asm, or exe", flagTarget)
	}

	if flagExecute != "" {
		if flagTarget == "asm" || flagTarget == "exe" {
			return errors.Errorf("--execute requires --target ast, resolved, or ssa; %q has no external assembler/linker wired in this build", flagTarget)
		}
		arg, err := strconv.ParseInt(flagExecute, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "--execute argument %q is not an integer", flagExecute)
		}

		var result int64
		switch flagTarget {
		case "ast":
			result, err = interp.Bound(res.Bound, arg)
		case "resolved":
			result, err = interp.Bound(res.Bound, arg)
		case "ssa":
			result, err = interp.SSA(res.SSA, arg)
		}
		if err != nil {
			return errors.Wrap(err, "execute")
		}
		log.Info().Int64("arg", arg).Int64("result", result).Str("target", flagTarget).Msg("executed")
		staged = fmt.Sprintf("%s\n=> %d\n", staged, result)
	}

	return util.WriteOutput(flagOutput, staged)
}
