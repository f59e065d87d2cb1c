package build

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ARG <name>[=<default>]
var argRe = regexp.MustCompile(`(?i)^ARG\s+(\S+?)(?:=.*)?$`)

// ParseDockerfileArgs returns the ARG names a Dockerfile declares.
// This is a regex-based scan, not a full parser.
func ParseDockerfileArgs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var args []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if m := argRe.FindStringSubmatch(line); m != nil {
			args = append(args, m[1])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return args, nil
}

// CheckContext verifies the build directory holds the Dockerfile and that
// it declares ARG DL_LINK, so a misconfigured context fails before any
// listing is fetched.
func CheckContext(contextDir, dockerfile string) error {
	path := filepath.Join(contextDir, dockerfile)
	args, err := ParseDockerfileArgs(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	for _, a := range args {
		if a == DownloadArg {
			return nil
		}
	}
	return fmt.Errorf("%s does not declare ARG %s", path, DownloadArg)
}
