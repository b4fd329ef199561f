package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadLines reads one entry per line from r. Surrounding whitespace is trimmed and blank
// lines are skipped; paths can contain spaces so lines aren't split any further.
func ReadLines(r io.Reader) ([]string, error) {
	var ret []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			ret = append(ret, s)
		}
	}
	return ret, scanner.Err()
}

// StdinStrings is a type used for positional arguments. If it's a single - the
// entries are read from stdin instead, one per line.
type StdinStrings []string

// Get returns the arguments, reading stdin if requested.
func (s StdinStrings) Get() ([]string, error) {
	return s.get(os.Stdin)
}

func (s StdinStrings) get(stdin io.Reader) ([]string, error) {
	if len(s) == 1 && s[0] == "-" {
		lines, err := ReadLines(stdin)
		if err != nil {
			return nil, fmt.Errorf("error reading stdin: %w", err)
		}
		return lines, nil
	}
	for _, arg := range s {
		if arg == "-" {
			return nil, fmt.Errorf("cannot pass - to read stdin along with other arguments")
		}
	}
	return s, nil
}
