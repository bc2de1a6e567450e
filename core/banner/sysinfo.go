package banner

import (
	"bufio"
	"bytes"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const unknown = "Unknown"

// Info is a snapshot of the host shown in the banner.
type Info struct {
	Hostname   string
	OS         string
	Kernel     string
	Uptime     time.Duration
	CPU        string
	MemUsedMB  uint64
	MemTotalMB uint64
	Dir        string
}

// Collector reads host information from a Linux style /proc and /etc.
type Collector struct {
	Fs afero.Fs
	// Hostname is used when /proc doesn't provide one.
	Hostname func() (string, error)
}

// NewHostCollector reads from the real filesystem.
func NewHostCollector() *Collector {
	return &Collector{Fs: afero.NewOsFs(), Hostname: os.Hostname}
}

// Collect gathers everything it can, missing values are reported as Unknown.
func (c *Collector) Collect(dir string) Info {
	info := Info{
		Hostname: c.hostname(),
		OS:       c.osName(),
		Kernel:   c.readTrimmed("/proc/sys/kernel/osrelease"),
		Uptime:   c.uptime(),
		CPU:      c.cpu(),
		Dir:      dir,
	}
	info.MemTotalMB, info.MemUsedMB = c.memory()

	return info
}

func (c *Collector) readTrimmed(path string) string {
	data, err := afero.ReadFile(c.Fs, path)
	if err != nil {
		return unknown
	}
	if out := strings.TrimSpace(string(data)); out != "" {
		return out
	}
	return unknown
}

func (c *Collector) hostname() string {
	if name := c.readTrimmed("/proc/sys/kernel/hostname"); name != unknown {
		return name
	}
	if c.Hostname != nil {
		if name, err := c.Hostname(); err == nil && name != "" {
			return name
		}
	}
	return unknown
}

func (c *Collector) osName() string {
	data, err := afero.ReadFile(c.Fs, "/etc/os-release")
	if err != nil {
		return unknown
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, ok := cut(scanner.Text(), "=")
		if ok && key == "NAME" {
			return strings.Trim(value, `"'`)
		}
	}
	return unknown
}

func (c *Collector) uptime() time.Duration {
	fields := strings.Fields(c.readTrimmed("/proc/uptime"))
	if len(fields) == 0 {
		return 0
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

func (c *Collector) cpu() string {
	data, err := afero.ReadFile(c.Fs, "/proc/cpuinfo")
	if err != nil {
		return unknown
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, ok := cut(scanner.Text(), ":")
		if ok && strings.TrimSpace(key) == "model name" {
			return strings.TrimSpace(value)
		}
	}
	return unknown
}

// memory returns the total and used memory in megabytes.
func (c *Collector) memory() (total, used uint64) {
	data, err := afero.ReadFile(c.Fs, "/proc/meminfo")
	if err != nil {
		return 0, 0
	}

	values := make(map[string]uint64)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, ok := cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		fields := strings.Fields(value)
		if len(fields) == 0 {
			continue
		}
		if kb, err := strconv.ParseUint(fields[0], 10, 64); err == nil {
			values[key] = kb
		}
	}

	total = values["MemTotal"]
	available, ok := values["MemAvailable"]
	if !ok {
		available = values["MemFree"] + values["Buffers"] + values["Cached"]
	}
	if available > total {
		available = total
	}

	return total / 1024, (total - available) / 1024
}

func cut(s, sep string) (before, after string, found bool) {
	if i := strings.Index(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}
