package benchmarks

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/sbsim/emu"
	"github.com/sarchlab/sbsim/loader"
	"github.com/sarchlab/sbsim/timing/cache"
	"github.com/sarchlab/sbsim/timing/core"
	"github.com/sarchlab/sbsim/timing/latency"
	"github.com/sarchlab/sbsim/timing/pipeline"
)

// Files a test directory must hold: the two inputs, then the four expected
// outputs in comparison order.
var RegressionFiles = []string{
	"cfg.txt", "memin.txt", "memout.txt", "regout.txt", "traceinst.txt", "traceunit.txt",
}

// ErrInvalidTestDir is returned for a directory missing any regression file.
var ErrInvalidTestDir = errors.New("invalid test directory")

// padLine fills the shorter side of a comparison.
const padLine = "00000000"

// FileMismatch describes the first differing line of one output file.
type FileMismatch struct {
	File string
	// Line is zero-based, as the original tester reports it.
	Line int
	Want string
	Got  string
	// Diff is the full line diff (-want +got).
	Diff string
}

func (m FileMismatch) String() string {
	return fmt.Sprintf("%s at line %d found %q instead of %q", m.File, m.Line, m.Got, m.Want)
}

// RegressionResult is the outcome of one test directory.
type RegressionResult struct {
	Name string
	Dir  string
	// Err is set if the directory is invalid or the simulation failed.
	Err        error
	Mismatches []FileMismatch
	Cycles     uint64
}

// Passed returns true if the run succeeded and every output matched.
func (r RegressionResult) Passed() bool {
	return r.Err == nil && len(r.Mismatches) == 0
}

// RegressionOptions configures RunRegression.
type RegressionOptions struct {
	// Parallelism bounds concurrent simulations (default: GOMAXPROCS)
	Parallelism int
	// DataCache runs every test with the default data cache
	DataCache bool
	// Logger receives one line per finished directory
	Logger logr.Logger
}

// FindTestDirs returns the subdirectories of root in name order.
func FindTestDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read test root: %w", err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// RunRegression simulates every directory in parallel and compares its
// outputs. Results keep the order of dirs. Each simulation owns its core.
func RunRegression(ctx context.Context, dirs []string, opts RegressionOptions) ([]RegressionResult, error) {
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}
	limit := opts.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]RegressionResult, len(dirs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, dir := range dirs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			results[i] = RunTestDir(dir, opts)
			opts.Logger.V(1).Info("test finished",
				"dir", results[i].Name, "passed", results[i].Passed(), "cycles", results[i].Cycles)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunTestDir simulates one test directory and compares its outputs with
// the expected files.
func RunTestDir(dir string, opts RegressionOptions) RegressionResult {
	result := RegressionResult{Name: filepath.Base(dir), Dir: dir}

	for _, name := range RegressionFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			result.Err = fmt.Errorf("%w: missing %s", ErrInvalidTestDir, name)
			return result
		}
	}

	c, err := simulate(dir, opts)
	if c != nil {
		result.Cycles = c.Stats().Cycles
	}
	if err != nil {
		result.Err = err
		return result
	}

	rec := c.Recorder()
	outputs := []struct {
		file  string
		write func(io.Writer) error
	}{
		{"memout.txt", func(w io.Writer) error { return loader.WriteMemout(w, c.Memory()) }},
		{"regout.txt", func(w io.Writer) error { return loader.WriteRegout(w, c.RegFile()) }},
		{"traceinst.txt", func(w io.Writer) error { return loader.WriteTraceInst(w, rec.Instructions()) }},
		{"traceunit.txt", func(w io.Writer) error { return loader.WriteTraceUnit(w, rec.Snapshots()) }},
	}

	for _, out := range outputs {
		var got bytes.Buffer
		if err := out.write(&got); err != nil {
			result.Err = err
			return result
		}

		want, err := readLines(filepath.Join(dir, out.file))
		if err != nil {
			result.Err = err
			return result
		}

		if m := CompareOutput(out.file, want, splitLines(got.String())); m != nil {
			result.Mismatches = append(result.Mismatches, *m)
		}
	}

	return result
}

func simulate(dir string, opts RegressionOptions) (*core.Core, error) {
	config, err := latency.LoadConfig(filepath.Join(dir, "cfg.txt"))
	if err != nil {
		return nil, err
	}

	prog, err := loader.Load(filepath.Join(dir, "memin.txt"))
	if err != nil {
		return nil, err
	}

	memory := emu.NewMemory()
	prog.LoadIntoMemory(memory)

	pipeOpts := []pipeline.PipelineOption{
		pipeline.WithLatencyTable(latency.NewTableWithConfig(config)),
	}
	if opts.DataCache {
		pipeOpts = append(pipeOpts, pipeline.WithDataCache(cache.DefaultConfig()))
	}

	c, err := core.NewCore(emu.NewRegFile(), memory, pipeOpts...)
	if err != nil {
		return nil, err
	}

	return c, c.Run()
}

// CompareOutput compares two output files line by line after trimming and
// lower-casing, padding the shorter one with "00000000". It returns the
// first mismatch, or nil.
func CompareOutput(file string, want, got []string) *FileMismatch {
	w := normalize(want)
	g := normalize(got)

	for len(w) < len(g) {
		w = append(w, padLine)
	}
	for len(g) < len(w) {
		g = append(g, padLine)
	}

	for i := range w {
		if w[i] != g[i] {
			return &FileMismatch{
				File: file,
				Line: i,
				Want: w[i],
				Got:  g[i],
				Diff: cmp.Diff(w, g),
			}
		}
	}
	return nil
}

func normalize(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.ToLower(strings.TrimSpace(l))
	}
	return out
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}
