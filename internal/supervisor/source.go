package supervisor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// InterfaceSource provides the names of the interfaces to monitor.
type InterfaceSource interface {
	Interfaces(ctx context.Context) ([]string, error)
}

// StaticSource is a fixed list of interface names.
type StaticSource []string

func (s StaticSource) Interfaces(context.Context) ([]string, error) {
	if len(s) == 0 {
		return nil, ErrInvalidInterfaceCount
	}

	for i, name := range s {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("interface %d: empty name", i+1)
		}
	}

	return append([]string(nil), s...), nil
}

// PromptSource asks the operator for a count and then for that many
// interface names, one per line.
type PromptSource struct {
	In  io.Reader
	Out io.Writer
}

func (s PromptSource) Interfaces(ctx context.Context) ([]string, error) {
	scanner := bufio.NewScanner(s.In)

	readLine := func(prompt string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if _, err := fmt.Fprint(s.Out, prompt); err != nil {
			return "", err
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}

		return strings.TrimSpace(scanner.Text()), nil
	}

	line, err := readLine("Enter number of interfaces to monitor: ")
	if err != nil {
		return nil, fmt.Errorf("failed to read interface count: %w", err)
	}

	count, err := strconv.Atoi(line)
	if err != nil || count < 1 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidInterfaceCount, line)
	}

	names := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		name, err := readLine(fmt.Sprintf("Enter interface name %d: ", i))
		if err != nil {
			return nil, fmt.Errorf("failed to read interface name %d: %w", i, err)
		}

		if name == "" {
			return nil, fmt.Errorf("interface %d: empty name", i)
		}

		names = append(names, name)
	}

	return names, nil
}
