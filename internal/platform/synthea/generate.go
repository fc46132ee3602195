package synthea

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// GenerateOptions controls a run of the Synthea jar.
type GenerateOptions struct {
	Jar        string
	Population int
	Seed       int64
	State      string
	OutputDir  string
	Stdout     io.Writer
	Stderr     io.Writer
}

// Args returns the java command line for o.
func (o GenerateOptions) Args() []string {
	return []string{
		"-jar", o.Jar,
		"-p", strconv.Itoa(o.Population),
		"-s", strconv.FormatInt(o.Seed, 10),
		"--exporter.csv.export=true",
		"--exporter.fhir.export=false",
		"--exporter.hospital.fhir.export=false",
		"--exporter.baseDirectory=" + o.OutputDir,
		"--exporter.years_of_history=0",
		o.State,
	}
}

// Generate runs Synthea and returns the directory holding its CSV output.
// Java 11+ must be on PATH.
func Generate(ctx context.Context, o GenerateOptions) (string, error) {
	if _, err := os.Stat(o.Jar); err != nil {
		return "", fmt.Errorf("synthea jar not found at %s: %w", o.Jar, err)
	}
	java, err := exec.LookPath("java")
	if err != nil {
		return "", errors.New("java is required to run Synthea; install Java 11+ and put it on PATH")
	}

	cmd := exec.CommandContext(ctx, java, o.Args()...)
	cmd.Stdout = o.Stdout
	cmd.Stderr = o.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run synthea: %w", err)
	}
	return filepath.Join(o.OutputDir, "csv"), nil
}
