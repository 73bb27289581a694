package device

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/duke-git/lancet/v2/fileutil"
)

// ErrNoHosts indicates a host argument that resolved to nothing.
var ErrNoHosts = errors.New("no valid hosts specified")

// ParseHosts resolves a host argument into an address list. The argument is
// either a comma-separated list or the path of a hosts file with one address
// per line; blank lines and '#' comments are skipped. Order is preserved —
// fleet output is rendered in input order.
func ParseHosts(arg string) ([]string, error) {
	if arg == "" {
		return nil, ErrNoHosts
	}

	if fileutil.IsExist(arg) {
		return parseHostsFile(arg)
	}

	var hosts []string
	for _, h := range strings.Split(arg, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}

	if len(hosts) == 0 {
		return nil, ErrNoHosts
	}

	return hosts, nil
}

func parseHostsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading hosts file %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // Read-only file

	var hosts []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		hosts = append(hosts, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading hosts file %s: %w", path, err)
	}

	if len(hosts) == 0 {
		return nil, ErrNoHosts
	}

	return hosts, nil
}
