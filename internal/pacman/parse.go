package pacman

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/dust/internal/tracker"
)

// ParseError describes a line of pacman output that could not be parsed.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pacman output line %d: %s (%q)", e.Line, e.Reason, e.Text)
}

// ParsePackageInfo parses `pacman -Qi` output into installed-package records.
//
// The output is a sequence of blocks separated by blank lines, each block a
// set of "Key : Value" fields starting with Name. Continuation lines (wrapped
// values such as long Optional Deps) begin with whitespace and are skipped.
// A line that fits none of those shapes is a ParseError rather than a
// silently dropped field.
func ParsePackageInfo(output []byte) ([]tracker.InstalledPackage, error) {
	var packages []tracker.InstalledPackage
	var current *tracker.InstalledPackage

	flush := func() {
		if current != nil {
			packages = append(packages, *current)
			current = nil
		}
	}

	for i, line := range strings.Split(string(output), "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		// Wrapped value from the previous field.
		if line[0] == ' ' || line[0] == '\t' {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, &ParseError{Line: i + 1, Text: line, Reason: "expected 'Key : Value'"}
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "Name":
			flush()
			if value == "" {
				return nil, &ParseError{Line: i + 1, Text: line, Reason: "empty package name"}
			}
			current = &tracker.InstalledPackage{Name: value}
		case "Description":
			if current == nil {
				return nil, &ParseError{Line: i + 1, Text: line, Reason: "field before any Name"}
			}
			if value == "None" {
				value = ""
			}
			current.Description = value
		case "Install Date":
			if current == nil {
				return nil, &ParseError{Line: i + 1, Text: line, Reason: "field before any Name"}
			}
			current.InstallDate = value
		default:
			// Version, Licenses, Depends On, ... — valid fields we don't track.
			if current == nil {
				return nil, &ParseError{Line: i + 1, Text: line, Reason: "field before any Name"}
			}
		}
	}
	flush()

	return packages, nil
}

// ParseOwner parses `pacman -Qo` output of the form:
//
//	/usr/bin/bash is owned by bash 5.2.026-2
//
// and returns the owning package name.
func ParseOwner(output []byte) (string, error) {
	line := strings.TrimSpace(string(output))
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}

	marker := " is owned by "
	_, rest, ok := strings.Cut(line, marker)
	if !ok {
		return "", fmt.Errorf("unexpected -Qo output: %q", line)
	}

	fields := strings.Fields(rest)
	if len(fields) < 1 || fields[0] == "" {
		return "", fmt.Errorf("no package name in -Qo output: %q", line)
	}
	return fields[0], nil
}
