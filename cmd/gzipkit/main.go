// Copyright (c) 2025 The gozipkit Authors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of gozipkit.
//
// gozipkit is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// gozipkit is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with gozipkit.  If not, see <https://www.gnu.org/licenses/>.

// Command gzipkit lists, extracts, creates, and appends ZIP archives, and
// compresses/decompresses standalone gzip streams.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gozipkit/gozipkit/codec"
	"github.com/gozipkit/gozipkit/container"
	"github.com/gozipkit/gozipkit/gzipwrap"
	"github.com/gozipkit/gozipkit/ziparchive"
)

const appVersion = "0.1.0"

var (
	listFlag    = flag.Bool("l", false, "list archive contents")
	extractFlag = flag.Bool("x", false, "extract archive contents")
	createFlag  = flag.Bool("c", false, "create a new archive")
	appendFlag  = flag.Bool("a", false, "append to an existing archive")
	gzipFlag    = flag.Bool("g", false, "gzip a single file (standalone, not ZIP)")
	gunzipFlag  = flag.Bool("d", false, "gunzip a single file (standalone, not ZIP)")

	methodFlag = flag.String("z", "deflate", "compression method for -c/-a: store, deflate, lzma, zstd, lz4, brotli")
	pathFlag   = flag.String("P", "reject", "path policy for -x: reject, strip, allow")
	verifyCRC  = flag.Bool("verify-crc", false, "verify CRC-32 of every extracted entry")
	ignoreBomb = flag.Bool("ignore-zipbomb", false, "disable the expansion-ratio guard")
	forceFlag  = flag.Bool("f", false, "overwrite an existing output file")

	versionFlag = flag.Bool("v", false, "print version and exit")
	helpFlag    = flag.Bool("h", false, "print help and exit")
)

var methodsByName = map[string]uint16{
	"store":   uint16(codec.MethodStore),
	"deflate": uint16(codec.MethodDeflate),
	"lzma":    uint16(codec.MethodLZMA),
	"zstd":    uint16(codec.MethodZstd),
	"lz4":     uint16(codec.MethodLZ4),
	"brotli":  uint16(codec.MethodBrotli),
}

func main() {
	flag.BoolVar(helpFlag, "help", false, "print help and exit")
	flag.Usage = usage
	flag.Parse()

	if *versionFlag {
		fmt.Printf("gzipkit version %s\n", appVersion)
		return
	}
	if *helpFlag {
		usage()
		return
	}

	args := flag.Args()
	var err error
	switch {
	case *listFlag:
		err = runList(args)
	case *extractFlag:
		err = runExtract(args)
	case *createFlag:
		err = runCreateOrAppend(args, true)
	case *appendFlag:
		err = runCreateOrAppend(args, false)
	case *gzipFlag:
		err = runGzip(args)
	case *gunzipFlag:
		err = runGunzip(args)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "gzipkit: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <mode> [options] <args...>\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Modes:\n")
	fmt.Fprintf(os.Stderr, "  -l <archive>                 list archive contents\n")
	fmt.Fprintf(os.Stderr, "  -x <archive> <destdir>       extract archive contents\n")
	fmt.Fprintf(os.Stderr, "  -c <archive> <files...>      create a new archive\n")
	fmt.Fprintf(os.Stderr, "  -a <archive> <files...>      append to an existing archive\n")
	fmt.Fprintf(os.Stderr, "  -g <input> [output]          gzip a file\n")
	fmt.Fprintf(os.Stderr, "  -d <input> [output]          gunzip a file\n")
	fmt.Fprintf(os.Stderr, "  -v                           print version\n")
	fmt.Fprintf(os.Stderr, "  -h, --help                   print this help\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
}

func runList(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("-l requires exactly one archive path")
	}
	a, err := ziparchive.Open(args[0], ziparchive.ModeReadOnly)
	if err != nil {
		return err
	}
	defer a.Close()

	for i := 0; i < a.NumEntries(); i++ {
		st, err := a.Stat(i)
		if err != nil {
			return err
		}
		fmt.Printf("%10d %10d %-8s %s %s\n", st.UncompressedSize, st.CompressedSize,
			methodName(st.Method), st.ModTime.Format("2006-01-02 15:04"), st.Name)
	}
	return nil
}

func runExtract(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("-x requires an archive path and a destination directory")
	}
	policy, err := parsePathPolicy(*pathFlag)
	if err != nil {
		return err
	}

	a, err := ziparchive.Open(args[0], ziparchive.ModeReadOnly)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := container.DefaultExtractConfig()
	cfg.StrictCRC = *verifyCRC
	cfg.IgnoreZipbomb = *ignoreBomb
	a.SetExtractConfig(cfg)

	return ziparchive.ExtractAll(a, args[1], policy)
}

func parsePathPolicy(s string) (ziparchive.PathPolicy, error) {
	switch s {
	case "reject":
		return ziparchive.PathReject, nil
	case "strip":
		return ziparchive.PathStrip, nil
	case "allow":
		return ziparchive.PathAllow, nil
	default:
		return 0, fmt.Errorf("invalid -P value %q: want reject, strip, or allow", s)
	}
}

func runCreateOrAppend(args []string, create bool) error {
	if len(args) < 2 {
		return fmt.Errorf("expected an archive path followed by one or more input files")
	}
	method, ok := methodsByName[strings.ToLower(*methodFlag)]
	if !ok {
		return fmt.Errorf("unknown -z method %q", *methodFlag)
	}
	if !ziparchive.MethodSupported(method) {
		return fmt.Errorf("-z method %q has no compiled-in codec", *methodFlag)
	}

	archivePath := args[0]
	inputs := args[1:]

	mode := ziparchive.ModeCreateAppend
	if create {
		mode = ziparchive.ModeCreate
		if !*forceFlag {
			if _, err := os.Stat(archivePath); err == nil {
				return fmt.Errorf("%s already exists; pass -f to overwrite", archivePath)
			}
		}
	}

	a, err := ziparchive.Open(archivePath, mode)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, in := range inputs {
		data, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(in)
		if _, err := a.Add(name, ziparchive.SourceFromBuffer(data, true), method); err != nil {
			return fmt.Errorf("adding %s: %w", in, err)
		}
	}
	return a.Close()
}

func runGzip(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("-g requires an input file and an optional output file")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	out := gzipOutputPath(args)
	if !*forceFlag {
		if _, err := os.Stat(out); err == nil {
			return fmt.Errorf("%s already exists; pass -f to overwrite", out)
		}
	}

	info, err := os.Stat(args[0])
	var modTime time.Time
	if err == nil {
		modTime = info.ModTime()
	}
	hdr := gzipwrap.Header{Name: filepath.Base(args[0]), ModTime: modTime, OS: 255}
	compressed, err := gzipwrap.CompressHeader(data, -1, hdr)
	if err != nil {
		return err
	}
	return os.WriteFile(out, compressed, 0o644)
}

func gzipOutputPath(args []string) string {
	if len(args) == 2 {
		return args[1]
	}
	return args[0] + ".gz"
}

func runGunzip(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("-d requires an input file and an optional output file")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	out := args[0]
	if len(args) == 2 {
		out = args[1]
	} else if strings.HasSuffix(out, ".gz") {
		out = strings.TrimSuffix(out, ".gz")
	} else {
		return fmt.Errorf("cannot infer output name for %q: pass an explicit output path", args[0])
	}
	if !*forceFlag {
		if _, err := os.Stat(out); err == nil {
			return fmt.Errorf("%s already exists; pass -f to overwrite", out)
		}
	}

	plain, err := gzipwrap.DecompressAuto(data)
	if err != nil {
		return err
	}
	return os.WriteFile(out, plain, 0o644)
}

// methodName renders a numeric ZIP method code for diagnostics.
func methodName(method uint16) string {
	for name, code := range methodsByName {
		if code == method {
			return name
		}
	}
	return strconv.Itoa(int(method))
}
