// Command pipelinec is the compiler CLI front end: it discovers a
// pipeline configuration, drives the eight-phase compiler, and writes
// the generated artifacts to a module's output directory.
package main

import (
	"os"

	"github.com/pipelineframework/corepipe/cmd/pipelinec/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		code := cmd.ExitCode()
		if code == 0 {
			code = 1
		}
		os.Exit(code)
	}
}
