package netif

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DefaultStatsRoot is where the kernel exposes per-interface attributes.
const DefaultStatsRoot = "/sys/class/net"

// defaultCounterValue is reported for counters that cannot be read.
const defaultCounterValue = "0"

// StatsReader returns the raw value of a named counter of an interface.
type StatsReader interface {
	Read(iface, counter string) string
}

// SysfsStats reads counters from a sysfs-style directory tree laid out
// as <Root>/<iface>/<counter>.
type SysfsStats struct {
	Root string

	log *zap.Logger
}

var _ StatsReader = (*SysfsStats)(nil)

func NewSysfsStats(root string, log *zap.Logger) *SysfsStats {
	if root == "" {
		root = DefaultStatsRoot
	}

	return &SysfsStats{
		Root: root,
		log:  log.Named("stats"),
	}
}

// Read returns the first line of the counter file. If the file cannot be
// read, a warning is logged and "0" is returned.
func (s *SysfsStats) Read(iface, counter string) string {
	path := filepath.Join(s.Root, iface, counter)

	value, err := readFirstLine(path)
	if err != nil {
		s.log.Warn("could not read counter",
			zap.String("path", path),
			zap.Error(err),
		)
		return defaultCounterValue
	}

	return value
}

func readFirstLine(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}

	return "", scanner.Err()
}
