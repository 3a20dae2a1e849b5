//go:build mage

// Package main contains Mage build targets for story-crew developer tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir     = "bin"
	binName    = "story-crew"
	cmdPkg     = "./cmd/story-crew"
	secretsDir = ".secrets"
)

// generatedFiles are the artifacts a pipeline run leaves in the working directory.
var generatedFiles = []string{
	"story_draft.md",
	"story_final.md",
	"training_data.json",
	"calibration.db",
	"calibration.db-shm",
	"calibration.db-wal",
}

// Init creates the secrets directory the CLI reads the API key from.
func Init() error {
	if err := os.MkdirAll(secretsDir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", secretsDir, err)
	}
	fmt.Println("  ", secretsDir)
	fmt.Printf("Write your Anthropic API key to %s/anthropic-api-key.\n", secretsDir)
	return nil
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}
	ldflags := "-X main.version=" + version
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s (%s)\n", out, version)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet over every package.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs Vet and Test.
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Story builds the binary and writes one story on the default theme.
func Story() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "run")
}

// Clean removes the binary and the files left by pipeline runs.
func Clean() error {
	if err := sh.Rm(binDir); err != nil {
		return err
	}
	for _, f := range generatedFiles {
		if err := sh.Rm(f); err != nil {
			return err
		}
	}
	return nil
}

// Stats prints project metrics: Go production/test lines and prompt word count.
func Stats() error {
	prodLines, testLines, err := countGoLines(".")
	if err != nil {
		return err
	}
	promptWords, err := countPromptWords(filepath.Join("internal", "crew", "defaults"))
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Words (crew prompts):           %d\n", promptWords)
	return nil
}

// countGoLines walks root and counts non-blank lines in production and test Go files.
func countGoLines(root string) (prod, test int, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), "_") || d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		n := 0
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			if strings.TrimSpace(scanner.Text()) != "" {
				n++
			}
		}
		if strings.HasSuffix(path, "_test.go") {
			test += n
		} else {
			prod += n
		}
		return nil
	})
	return prod, test, err
}

// countPromptWords counts whitespace-separated tokens in the YAML files under root.
func countPromptWords(root string) (int, error) {
	total := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		total += len(strings.Fields(string(data)))
		return nil
	})
	return total, err
}
