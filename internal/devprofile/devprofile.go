// Package devprofile wires hidden developer profiling flags into the
// CLI, for diagnosing slow sweeps over very large trees. Merged from the
// teacher's profile and profiler packages, which duplicated the same
// Profiler under two different registration styles; this keeps the
// simpler direct-struct shape (profiler.go's) since optionset's root
// command has no need for the Flags/Config indirection layer the other
// copy added.
package devprofile

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/spf13/pflag"
)

// Profiler manages runtime profiling for one optionset invocation.
type Profiler struct {
	cpuFile *os.File

	CPUProfile       string
	HeapProfile      string
	AllocsProfile    string
	GoroutineProfile string
	BlockProfile     string
	MutexProfile     string

	MemProfileRate       int
	BlockProfileRate     int
	MutexProfileFraction int
}

// New creates a [Profiler] with all profiles disabled.
func New() *Profiler {
	return &Profiler{}
}

// RegisterFlags adds hidden profiling flags to flags.
func (p *Profiler) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&p.CPUProfile, "cpu-profile", "", "write CPU profile to file")
	flags.StringVar(&p.HeapProfile, "heap-profile", "", "write heap profile to file")
	flags.StringVar(&p.AllocsProfile, "allocs-profile", "", "write allocs profile to file")
	flags.StringVar(&p.GoroutineProfile, "goroutine-profile", "", "write goroutine profile to file")
	flags.StringVar(&p.BlockProfile, "block-profile", "", "write block profile to file")
	flags.StringVar(&p.MutexProfile, "mutex-profile", "", "write mutex profile to file")

	flags.IntVar(&p.MemProfileRate, "mem-profile-rate", 524288, "memory profile rate (bytes per sample)")
	flags.IntVar(&p.BlockProfileRate, "block-profile-rate", 1, "block profile rate (nanoseconds)")
	flags.IntVar(&p.MutexProfileFraction, "mutex-profile-fraction", 1, "mutex profile fraction (1/N sampling)")

	for _, name := range []string{"cpu-profile", "heap-profile", "allocs-profile",
		"goroutine-profile", "block-profile", "mutex-profile",
		"mem-profile-rate", "block-profile-rate", "mutex-profile-fraction"} {
		_ = flags.MarkHidden(name)
	}
}

// Start configures runtime profiling rates and starts CPU profiling if
// enabled.
func (p *Profiler) Start() error {
	runtime.MemProfileRate = p.MemProfileRate
	runtime.SetBlockProfileRate(p.BlockProfileRate)
	runtime.SetMutexProfileFraction(p.MutexProfileFraction)

	if p.CPUProfile == "" {
		return nil
	}

	f, err := os.Create(p.CPUProfile)
	if err != nil {
		return fmt.Errorf("creating CPU profile: %w", err)
	}

	p.cpuFile = f

	if err := pprof.StartCPUProfile(f); err != nil {
		p.cpuFile.Close()
		p.cpuFile = nil

		return fmt.Errorf("starting CPU profile: %w", err)
	}

	return nil
}

// Stop stops CPU profiling and writes all enabled snapshot profiles.
func (p *Profiler) Stop() error {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()

		if err := p.cpuFile.Close(); err != nil {
			return fmt.Errorf("closing CPU profile: %w", err)
		}
	}

	return p.writeSnapshots()
}

func (p *Profiler) writeSnapshots() error {
	profiles := []struct {
		name string
		path string
	}{
		{"heap", p.HeapProfile},
		{"allocs", p.AllocsProfile},
		{"goroutine", p.GoroutineProfile},
		{"block", p.BlockProfile},
		{"mutex", p.MutexProfile},
	}

	for _, prof := range profiles {
		if prof.path == "" {
			continue
		}

		if err := p.writeProfile(prof.name, prof.path); err != nil {
			return fmt.Errorf("write %s profile: %w", prof.name, err)
		}
	}

	return nil
}

func (p *Profiler) writeProfile(name, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s profile: %w", name, err)
	}
	defer f.Close()

	prof := pprof.Lookup(name)
	if prof == nil {
		return fmt.Errorf("unknown profile: %s", name)
	}

	return prof.WriteTo(f, 0)
}
