package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/sbsim/emu"
	"github.com/sarchlab/sbsim/timing/core"
	"github.com/sarchlab/sbsim/timing/pipeline"
)

// Outputs names the files a simulation run writes.
type Outputs struct {
	MemOut    string
	RegOut    string
	TraceInst string
	TraceUnit string
}

// WriteMemout writes every memory word as eight hex digits, one per line.
func WriteMemout(w io.Writer, memory *emu.Memory) error {
	bw := bufio.NewWriter(w)
	for _, word := range memory.Words() {
		if _, err := fmt.Fprintf(bw, "%08x\n", word); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteRegout writes every register with six decimals, one per line.
func WriteRegout(w io.Writer, regFile *emu.RegFile) error {
	bw := bufio.NewWriter(w)
	for _, f := range regFile.F {
		if _, err := fmt.Fprintf(bw, "%.6f\n", f); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteTraceInst writes one line per issued instruction: word, index, unit
// and the issue, read-operands, execute-end and write-result cycles.
func WriteTraceInst(w io.Writer, rows []pipeline.InstructionStatus) error {
	bw := bufio.NewWriter(w)
	for _, r := range rows {
		if _, err := fmt.Fprintf(bw, "%08x %d %s %d %d %d %d\n",
			r.Word, r.Seq, r.Unit, r.Issue, r.Read, r.ExecEnd, r.Write); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteTraceUnit writes one line per cycle the traced unit was busy.
func WriteTraceUnit(w io.Writer, snapshots []pipeline.UnitSnapshot) error {
	bw := bufio.NewWriter(w)
	for _, s := range snapshots {
		if _, err := fmt.Fprintln(bw, s.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFiles writes all four outputs of a finished core.
func WriteFiles(out Outputs, c *core.Core) error {
	rec := c.Recorder()

	writers := []struct {
		path  string
		write func(io.Writer) error
	}{
		{out.MemOut, func(w io.Writer) error { return WriteMemout(w, c.Memory()) }},
		{out.RegOut, func(w io.Writer) error { return WriteRegout(w, c.RegFile()) }},
		{out.TraceInst, func(w io.Writer) error { return WriteTraceInst(w, rec.Instructions()) }},
		{out.TraceUnit, func(w io.Writer) error { return WriteTraceUnit(w, rec.Snapshots()) }},
	}

	for _, wr := range writers {
		if err := writeFile(wr.path, wr.write); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
