package main

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

func main() {
	bin, err := exec.LookPath("planloom")
	if err != nil {
		fmt.Fprintln(os.Stderr, "pll: planloom not found on PATH")
		os.Exit(1)
	}
	if err := syscall.Exec(bin, append([]string{"planloom"}, os.Args[1:]...), os.Environ()); err != nil {
		fmt.Fprintf(os.Stderr, "pll: %v\n", err)
		os.Exit(1)
	}
}
