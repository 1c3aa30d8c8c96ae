//go:build ignore

// build.go - Uber Fares Processor build script
// Usage: go run build.go [-target=TARGET]
// Targets: all, processor, test, clean

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

const module = "uberfares"

var (
	rootDir string
	distDir string

	// key = cmd directory, value = output binary name
	executables = map[string]string{
		"processor": "uber-fares-processor",
	}
)

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current directory: %v", err))
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")
}

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	pterm.DefaultHeader.WithFullWidth().Println("Uber Fares Processor - Build System")

	startTime := time.Now()

	var err error
	switch *target {
	case "all":
		if err = runTests(*verbose); err == nil {
			err = buildExecutable("processor", *verbose)
		}
	case "processor":
		err = buildExecutable("processor", *verbose)
	case "test":
		err = runTests(*verbose)
	case "clean":
		err = clean(*verbose)
	default:
		showHelp()
		os.Exit(1)
	}
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	pterm.Success.Printfln("Build completed in %s", time.Since(startTime).Round(time.Millisecond))
}

func showHelp() {
	pterm.Info.Println("Usage: go run build.go -target=<all|processor|test|clean> [-v]")
}

// ldflags stamps version metadata into pkg/contracts
func ldflags() string {
	commit := "unknown"
	if out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output(); err == nil {
		commit = strings.TrimSpace(string(out))
	}
	buildTime := time.Now().UTC().Format(time.RFC3339)
	return fmt.Sprintf("-s -w -X %s/pkg/contracts.BuildTime=%s -X %s/pkg/contracts.GitCommit=%s",
		module, buildTime, module, commit)
}

func buildExecutable(name string, verbose bool) error {
	out, ok := executables[name]
	if !ok {
		return fmt.Errorf("unknown executable: %s", name)
	}
	if runtime.GOOS == "windows" {
		out += ".exe"
	}

	if err := os.MkdirAll(distDir, 0755); err != nil {
		return fmt.Errorf("failed to create dist directory: %w", err)
	}

	pterm.Info.Printfln("Building %s...", name)
	args := []string{"build", "-ldflags", ldflags(), "-o", filepath.Join(distDir, out), "./cmd/" + name}
	if err := runCommand(verbose, "go", args...); err != nil {
		return fmt.Errorf("build %s: %w", name, err)
	}
	pterm.Success.Printfln("Built %s", filepath.Join("dist", out))
	return nil
}

func runTests(verbose bool) error {
	pterm.Info.Println("Running tests...")
	args := []string{"test", "./..."}
	if verbose {
		args = append(args, "-v")
	}
	if err := runCommand(true, "go", args...); err != nil {
		return fmt.Errorf("tests failed: %w", err)
	}
	return nil
}

func clean(verbose bool) error {
	pterm.Info.Println("Cleaning build artifacts...")
	for _, dir := range []string{distDir, filepath.Join(rootDir, "output"), filepath.Join(rootDir, "logs")} {
		if verbose {
			pterm.Debug.Printfln("Removing %s", dir)
		}
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dir, err)
		}
	}
	return nil
}

func runCommand(verbose bool, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = rootDir
	if verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}
