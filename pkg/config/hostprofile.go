package config

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// HostProfile describes the execution environment used to tune the
// configuration before subsystem startup
type HostProfile struct {
	OS          string
	Arch        string
	CPUs        int
	MemoryBytes uint64
	HasGPU      bool
}

// String returns a short human-readable description of the profile
func (p HostProfile) String() string {
	gpu := "no-gpu"
	if p.HasGPU {
		gpu = "gpu"
	}
	return fmt.Sprintf("%s/%s cpus=%d mem=%dMB %s", p.OS, p.Arch, p.CPUs, p.MemoryBytes/(1024*1024), gpu)
}

// DetectHostProfile inspects the local machine. Memory detection reads
// /proc/meminfo and is best-effort on non-Linux hosts.
func DetectHostProfile() (HostProfile, error) {
	profile := HostProfile{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
		CPUs: runtime.NumCPU(),
	}

	if profile.CPUs <= 0 {
		return profile, fmt.Errorf("could not determine CPU count")
	}

	if runtime.GOOS == "linux" {
		mem, err := readMemTotal("/proc/meminfo")
		if err != nil {
			return profile, fmt.Errorf("failed to read host memory: %w", err)
		}
		profile.MemoryBytes = mem

		if _, err := os.Stat("/dev/nvidia0"); err == nil {
			profile.HasGPU = true
		}
	}

	return profile, nil
}

// readMemTotal parses the MemTotal line from a meminfo-format file
func readMemTotal(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, err
		}
		return kb * 1024, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("MemTotal not found in %s", path)
}

// HostOptimizer mutates a configuration in place based on a host profile
type HostOptimizer struct {
	Profile HostProfile
}

// Apply tunes worker counts, cache sizing, and batch sizes for the
// host. Only fields the profile can actually inform are touched.
func (o HostOptimizer) Apply(cfg *Config) {
	if o.Profile.CPUs > 0 {
		cfg.Processing.Workers = o.Profile.CPUs
	}

	// Scale the cache with available memory: one entry per 4MB,
	// clamped to a sane range.
	if o.Profile.MemoryBytes > 0 {
		size := int(o.Profile.MemoryBytes / (4 * 1024 * 1024))
		if size < 256 {
			size = 256
		}
		if size > 16384 {
			size = 16384
		}
		cfg.Cache.MaxSize = size
	}

	if o.Profile.HasGPU {
		cfg.Embedding.BatchSize = cfg.Embedding.BatchSize * 4
	}
}
