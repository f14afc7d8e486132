// Package util collects small helpers shared by cmd/fncc that don't belong
// in any pipeline stage: source reading and output writing. Ported from the
// teacher's util package, trimmed to a single-threaded driver — Compile
// itself is a pure function with no worker pool to feed, so the teacher's
// channel-based writer fan-in has no job to do here.
package util

import (
	"io"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
)

// ReadSource reads source code from path, or from stdin if path is empty or
// "-".
func ReadSource(path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", errors.Wrap(err, "read stdin")
		}
		return string(b), nil
	}
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "read %s", path)
	}
	return string(b), nil
}

// WriteOutput writes contents to path, or to stdout if path is empty or "-".
func WriteOutput(path, contents string) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.WriteString(contents)
		return errors.Wrap(err, "write stdout")
	}
	if err := ioutil.WriteFile(path, []byte(contents), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
