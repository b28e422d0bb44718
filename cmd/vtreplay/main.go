// Copyright 2025 the libevm authors.
//
// The libevm additions to go-ethereum are free software: you can redistribute
// them and/or modify them under the terms of the GNU Lesser General Public License
// as published by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// The libevm additions are distributed in the hope that they will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU Lesser
// General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see
// <http://www.gnu.org/licenses/>.

// vtreplay replays recorded validation scripts through the validation tracer
// and reports which ones were rejected, and why.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"

	"github.com/ava-labs/libevm/core/rawdb"
	"github.com/ava-labs/libevm/ethdb"
	"github.com/ava-labs/libevm/log"
	"github.com/ava-labs/libevm/metrics"
	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/ava-labs/validationtracer/replay"
	"github.com/ava-labs/validationtracer/storage"
)

var (
	dataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "Database holding contract storage, read beneath each script's own storage",
	}
	dbEngineFlag = &cli.StringFlag{
		Name:  "db.engine",
		Usage: "Backing database implementation to use ('leveldb' or 'pebble')",
		Value: "leveldb",
	}
	cacheFlag = &cli.IntFlag{
		Name:  "cache",
		Usage: "Megabytes of memory allocated to the database and to caching its reads",
		Value: 64,
	}
	jobsFlag = &cli.IntFlag{
		Name:  "jobs",
		Usage: "Number of scripts replayed concurrently",
		Value: runtime.NumCPU(),
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
	metricsFlag = &cli.BoolFlag{
		Name:  "metrics",
		Usage: "Print tracer metrics after replaying",
	}
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Replay scripts and compare outcomes with their expectations",
	ArgsUsage: "<script.toml>...",
	Flags:     []cli.Flag{dataDirFlag, dbEngineFlag, cacheFlag, jobsFlag, metricsFlag},
	Action:    run,
}

var seedCommand = &cli.Command{
	Name:      "seed",
	Usage:     "Write the storage of scripts to the --datadir database",
	ArgsUsage: "<script.toml>...",
	Flags:     []cli.Flag{dataDirFlag, dbEngineFlag, cacheFlag},
	Action:    seed,
}

func main() {
	app := &cli.App{
		Name:     "vtreplay",
		Usage:    "validation tracer replay tool",
		Flags:    []cli.Flag{verbosityFlag},
		Before:   setupLogging,
		Commands: []*cli.Command{runCommand, seedCommand},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(ctx *cli.Context) error {
	var output io.Writer = os.Stderr
	useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
	if useColor {
		output = colorable.NewColorableStderr()
	}
	level := log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(output, level, useColor)))
	return nil
}

// openDatabase returns nil if --datadir is not set.
func openDatabase(ctx *cli.Context, readonly bool) (ethdb.Database, error) {
	dir := ctx.String(dataDirFlag.Name)
	if dir == "" {
		return nil, nil
	}
	const (
		namespace = "vtreplay/db/"
		handles   = 256
	)
	cache := ctx.Int(cacheFlag.Name)

	switch engine := ctx.String(dbEngineFlag.Name); engine {
	case "leveldb":
		return rawdb.NewLevelDBDatabase(dir, cache, handles, namespace, readonly)
	case "pebble":
		return rawdb.NewPebbleDBDatabase(dir, cache, handles, namespace, readonly, false)
	default:
		return nil, fmt.Errorf("unknown --%s %q", dbEngineFlag.Name, engine)
	}
}

func loadScripts(ctx *cli.Context) ([]*replay.Script, error) {
	if ctx.NArg() == 0 {
		return nil, errors.New("no scripts given")
	}
	scripts := make([]*replay.Script, ctx.NArg())
	for i, path := range ctx.Args().Slice() {
		s, err := replay.LoadFile(path)
		if err != nil {
			return nil, err
		}
		scripts[i] = s
	}
	return scripts, nil
}

func seed(ctx *cli.Context) error {
	if !ctx.IsSet(dataDirFlag.Name) {
		return fmt.Errorf("--%s is required", dataDirFlag.Name)
	}
	scripts, err := loadScripts(ctx)
	if err != nil {
		return err
	}
	db, err := openDatabase(ctx, false)
	if err != nil {
		return err
	}
	defer db.Close()

	batch := db.NewBatch()
	for _, s := range scripts {
		if err := s.Seed(batch); err != nil {
			return fmt.Errorf("seeding %q: %w", s.Name, err)
		}
		log.Info("Seeded storage", "script", s.Name, "slots", len(s.Storage))
	}
	return batch.Write()
}

func run(ctx *cli.Context) error {
	if ctx.Bool(metricsFlag.Name) {
		metrics.Enabled = true
	}
	scripts, err := loadScripts(ctx)
	if err != nil {
		return err
	}

	var base ethdb.KeyValueReader
	db, err := openDatabase(ctx, true)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		cached := storage.NewCachedReader(db, ctx.Int(cacheFlag.Name)*1024*1024)
		defer func() {
			s := cached.Stats()
			log.Debug("Storage cache", "gets", s.GetCalls, "misses", s.Misses, "entries", s.EntriesCount)
		}()
		base = cached
	}

	results, err := replay.RunAll(context.Background(), scripts, base, ctx.Int(jobsFlag.Name))
	if err != nil {
		return err
	}

	failed := report(os.Stdout, results)
	if ctx.Bool(metricsFlag.Name) {
		metrics.WriteOnce(metrics.DefaultRegistry, os.Stdout)
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d scripts did not match their expectations", failed, len(results)), 1)
	}
	return nil
}

// report renders a summary table and returns the number of failed scripts.
func report(w io.Writer, results []*replay.Result) (failed int) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Script", "Executed", "Mode", "Stopped", "Gas", "Violation", "Result"})
	table.SetAutoWrapText(false)

	for _, r := range results {
		violation := "-"
		if r.Violation != nil {
			violation = r.Violation.Error()
		}
		verdict := color.GreenString("PASS")
		if !r.Passed() {
			failed++
			verdict = color.RedString("FAIL")
			for _, m := range r.Mismatches {
				log.Warn("Unexpected outcome", "script", r.Name, "mismatch", m)
			}
		}
		table.Append([]string{
			r.Name,
			strconv.Itoa(r.Executed),
			r.Mode.String(),
			strconv.FormatBool(r.Stopped),
			fmt.Sprintf("%d/%d", r.Gas.Used, r.Gas.Limit),
			violation,
			verdict,
		})
	}
	table.Render()
	return failed
}
