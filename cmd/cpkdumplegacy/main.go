// Copyright 2026 The CPK Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	cpk "github.com/cri-tools/cpk"
)

type config struct {
	wantHeader bool
	wantFiles  bool
	extractTo  string
}

func main() {
	dumpCmd := flag.NewFlagSet("dump", flag.ExitOnError)
	dumpHeader := dumpCmd.Bool("header", false, "Print the archive path as JSON (the HEADER table's fields are not printed)")
	dumpFiles := dumpCmd.Bool("files", true, "Dump the resolved file list")
	dumpExtract := dumpCmd.String("extract", "", "Extract every file into this directory")

	verCmd := flag.NewFlagSet("version", flag.ExitOnError)

	if len(os.Args) < 2 {
		showHelp()
	}

	switch os.Args[1] {
	case "dump":
		if len(os.Args) < 3 {
			showHelp()
		}
		dumpCmd.Parse(os.Args[3:])
		cfg := config{
			wantHeader: *dumpHeader,
			wantFiles:  *dumpFiles,
			extractTo:  *dumpExtract,
		}
		parse(os.Args[2], cfg)
	case "version":
		verCmd.Parse(os.Args[2:])
		fmt.Println("You are using version 0.1.0")
	default:
		showHelp()
	}
}

func parse(path string, cfg config) {
	cr, err := cpk.Open(path, &cpk.Options{})
	if err != nil {
		log.Printf("Error while opening file: %s, reason: %s", path, err)
		return
	}
	defer cr.Close()

	if cfg.wantHeader {
		printJSON("header", struct{ Path string }{path})
	}

	files, err := cr.GetFiles()
	if err != nil {
		log.Printf("Error while parsing file: %s, reason: %s", path, err)
		return
	}

	if cfg.wantFiles {
		printJSON("files", files)
	}

	if cfg.extractTo != "" {
		if err := extractTo(cr, cfg.extractTo); err != nil {
			log.Printf("Error while extracting %s: %s", path, err)
		}
	}
}

func extractTo(cr *cpk.CpkReader, dir string) error {
	return cr.ExtractAll(func(f *cpk.CpkFile) io.Writer {
		if f.ITOCOnly {
			return nil
		}
		outPath := filepath.Join(dir, filepath.FromSlash(f.Path()))
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			log.Printf("mkdir %s: %s", outPath, err)
			return nil
		}
		out, err := os.Create(outPath)
		if err != nil {
			log.Printf("create %s: %s", outPath, err)
			return nil
		}
		return out
	})
}

func printJSON(label string, v interface{}) {
	buf, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		log.Printf("%s: JSON marshal error: %s", label, err)
		return
	}
	fmt.Println(string(buf))
}

func showHelp() {
	fmt.Print(
		`
╔═╗╔═╗╦╔═  ┌┬┐┬ ┬┌┬┐┌─┐
║  ╠═╝╠╩╗   │││ ││││├─┘
╚═╝╩  ╩ ╩  ─┴┘└─┘┴ ┴┴

	A CRI Middleware CPK archive inspector.
`)
	fmt.Println("\nAvailable sub-commands: 'dump <path>' or 'version'")
	os.Exit(1)
}
