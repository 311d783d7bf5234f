package config

import (
	"fmt"
	"strings"
)

// ConfigInvalid aggregates every structural or semantic problem found while
// validating a configuration, rather than failing on the first one.
type ConfigInvalid struct {
	Problems []string
}

func (e *ConfigInvalid) Error() string {
	return fmt.Sprintf("invalid configuration (%d problem(s)):\n  - %s",
		len(e.Problems), strings.Join(e.Problems, "\n  - "))
}

type problemList struct {
	problems []string
}

func (p *problemList) add(format string, args ...any) {
	p.problems = append(p.problems, fmt.Sprintf(format, args...))
}

func (p *problemList) err() error {
	if len(p.problems) == 0 {
		return nil
	}
	return &ConfigInvalid{Problems: p.problems}
}
