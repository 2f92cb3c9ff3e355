// Command brili runs the numified Bril program named on the command line
// through the execution core: decode, run the entry function, enforce the
// heap-empty postcondition, and optionally emit a dynamic-instruction-count
// profile line (spec §6).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"brili/internal/bir"
	"brili/internal/driver"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("brili: ")

	profPath := flag.String("prof", "", "write a total_dyn_inst profile line to PATH instead of discarding it")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		log.Fatal("usage: brili [-prof PATH] PROGRAM.json [ARG ...]")
	}
	programPath := args[0]
	funcArgs := args[1:]

	program, err := bir.Load(programPath)
	if err != nil {
		log.Fatal(err)
	}

	opts := driver.Options{
		Program: program,
		Out:     os.Stdout,
		Args:    funcArgs,
	}

	if *profPath != "" {
		f, err := os.Create(*profPath)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		opts.Profile = true
		opts.ProfileOut = f
	}

	if err := driver.ExecuteMain(opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
