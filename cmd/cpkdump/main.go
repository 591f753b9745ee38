// Copyright 2026 The CPK Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	cpk "github.com/cri-tools/cpk"
)

var extractDir string

func prettyPrint(v interface{}) string {
	buf, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		log.Println("JSON marshal error:", err)
		return fmt.Sprintf("%+v", v)
	}
	return string(buf)
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func dumpArchive(path string, cmd *cobra.Command) {
	log.Printf("Processing %s", path)

	cr, err := cpk.Open(path, &cpk.Options{})
	if err != nil {
		log.Printf("Error opening %s: %s", path, err)
		return
	}
	defer cr.Close()

	files, err := cr.GetFiles()
	if err != nil {
		log.Printf("Error reading TOC for %s: %s", path, err)
		return
	}

	fmt.Println(prettyPrint(files))
}

func dump(cmd *cobra.Command, args []string) {
	path := args[0]

	if !isDirectory(path) {
		dumpArchive(path, cmd)
		return
	}

	var archives []string
	filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			archives = append(archives, p)
		}
		return nil
	})
	for _, a := range archives {
		dumpArchive(a, cmd)
	}
}

func extractArchive(path, dir string) error {
	cr, err := cpk.Open(path, &cpk.Options{})
	if err != nil {
		return err
	}
	defer cr.Close()

	return cr.ExtractAll(func(f *cpk.CpkFile) io.Writer {
		if f.ITOCOnly {
			log.Printf("skipping ITOC-only entry id=%d", f.ID)
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

func extract(cmd *cobra.Command, args []string) {
	if err := extractArchive(args[0], extractDir); err != nil {
		log.Printf("extract %s: %s", args[0], err)
		os.Exit(1)
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "cpkdump",
		Short: "A CRI Middleware CPK archive inspector",
		Long:  "cpkdump reads CRI Middleware CPK archives and dumps or extracts their contents.",
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("cpkdump 0.1.0")
		},
	}

	dumpCmd := &cobra.Command{
		Use:   "dump <path>",
		Short: "Dump a CPK archive's resolved file list",
		Args:  cobra.ExactArgs(1),
		Run:   dump,
	}

	extractCmd := &cobra.Command{
		Use:   "extract <path>",
		Short: "Extract every file from a CPK archive to --out",
		Args:  cobra.ExactArgs(1),
		Run:   extract,
	}
	extractCmd.Flags().StringVarP(&extractDir, "out", "o", ".", "Directory to extract into")

	rootCmd.AddCommand(versionCmd, dumpCmd, extractCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
