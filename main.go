// Command ghoulc compiles .ghoul source files through the front-end
// passes described by the compiler package, printing diagnostics and
// exiting 1 on any error (spec §7).
package main

import (
	"flag"
	"fmt"
	"os"

	"ghoulc/internal/compiler"
	"ghoulc/internal/target"
)

const version = "0.1.0"

func main() {
	debug := flag.Bool("d", false, "Enable debug output")
	showVersion := flag.Bool("v", false, "Show version")
	triple := flag.String("target", "", "Target triple (defaults to host)")
	flag.BoolVar(debug, "debug", false, "Enable debug output")
	flag.BoolVar(showVersion, "version", false, "Show version")

	flag.Parse()

	if *showVersion {
		fmt.Printf("ghoulc version %s\n", version)
		os.Exit(0)
	}

	files := flag.Args()
	if len(files) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: ghoulc [options] <file.ghoul>...")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	tgt := target.Host()
	if *triple != "" {
		tgt.Triple = *triple
	}

	result := compiler.Compile(compiler.Options{
		Files: files,
		Target: tgt,
		Debug:  *debug,
	})

	if !result.Success {
		os.Exit(1)
	}
}
