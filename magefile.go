//go:build mage

package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/magefile/mage/sh"
)

// Build builds tally for Linux
func Build() error {
	fmt.Println("Building tally for linux/amd64...")
	env := map[string]string{
		"GOOS":   "linux",
		"GOARCH": "amd64",
	}
	return sh.RunWith(env, "go", "build", "-o", "tally-linux-amd64", "./cmd/tally")
}

// BuildLocal builds tally for the current platform
func BuildLocal() error {
	fmt.Printf("Building tally for %s/%s...\n", runtime.GOOS, runtime.GOARCH)
	return sh.Run("go", "build", "-o", "tally", "./cmd/tally")
}

// Test runs tests
func Test() error {
	fmt.Println("Running tests...")
	return sh.Run("go", "test", "./...")
}

// Vet runs go vet
func Vet() error {
	return sh.Run("go", "vet", "./...")
}

// Clean removes build artifacts
func Clean() error {
	fmt.Println("Cleaning build artifacts...")
	os.Remove("tally")
	os.Remove("tally-linux-amd64")
	return nil
}
