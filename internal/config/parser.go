// Package config reads OpenSSH client configuration to report which settings
// apply to an instance's host alias.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/treykane/ec2-connect/internal/model"
)

const maxIncludeDepth = 16

// Resolution is the outcome of resolving one alias.
type Resolution struct {
	Host model.HostEntry
	// Matched reports whether any Host block other than a bare "*" applies.
	Matched  bool
	Warnings []string
}

type rawBlock struct {
	patterns []string
	values   map[string][]string
}

// DefaultPath returns ~/.ssh/config.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".ssh", "config"), nil
}

// ResolveDefault resolves alias against ~/.ssh/config.
func ResolveDefault(alias string) (Resolution, error) {
	path, err := DefaultPath()
	if err != nil {
		return Resolution{}, err
	}
	return ResolveFile(path, alias)
}

// ResolveFile resolves alias against the config at path, expanding Include
// directives. Like ssh, the first value obtained for a directive wins.
func ResolveFile(path, alias string) (Resolution, error) {
	blocks, warnings, err := parseRecursive(path, map[string]bool{}, 0)
	if err != nil {
		return Resolution{}, err
	}
	res := Resolution{Host: model.HostEntry{Alias: alias}, Warnings: warnings}
	for _, b := range blocks {
		if !matchesAny(alias, b.patterns) {
			continue
		}
		if !(len(b.patterns) == 1 && b.patterns[0] == "*") {
			res.Matched = true
		}
		apply(&res.Host, b.values)
	}
	if res.Host.HostName == "" {
		res.Host.HostName = alias
	}
	if res.Host.Port == 0 {
		res.Host.Port = 22
	}
	return res, nil
}

func apply(h *model.HostEntry, values map[string][]string) {
	first := func(key string) string {
		if vals := values[key]; len(vals) > 0 {
			return vals[0]
		}
		return ""
	}
	if h.HostName == "" {
		h.HostName = first("hostname")
	}
	if h.User == "" {
		h.User = first("user")
	}
	if h.Port == 0 {
		if p, err := strconv.Atoi(first("port")); err == nil {
			h.Port = p
		}
	}
	if h.IdentityFile == "" {
		if v := first("identityfile"); v != "" {
			h.IdentityFile = expandHome(v)
		}
	}
	if h.ProxyJump == "" {
		h.ProxyJump = first("proxyjump")
	}
}

func parseRecursive(path string, seen map[string]bool, depth int) ([]rawBlock, []string, error) {
	if depth > maxIncludeDepth {
		return nil, nil, fmt.Errorf("include depth exceeded at %s", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, err
	}
	if seen[abs] {
		return nil, []string{fmt.Sprintf("include cycle skipped: %s", abs)}, nil
	}
	seen[abs] = true

	f, err := os.Open(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, []string{fmt.Sprintf("config file not found: %s", abs)}, nil
		}
		return nil, nil, fmt.Errorf("open %s: %w", abs, err)
	}
	defer f.Close()

	var (
		blocks   []rawBlock
		warnings []string
		// Directives before the first Host line apply to every host.
		current = rawBlock{patterns: []string{"*"}, values: map[string][]string{}}
	)
	flush := func() {
		if len(current.values) > 0 {
			blocks = append(blocks, current)
		}
	}

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripInlineComment(strings.TrimSpace(scanner.Text()))
		if line == "" {
			continue
		}
		key, value, ok := splitDirective(line)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s:%d invalid directive", abs, lineNo))
			continue
		}

		switch strings.ToLower(key) {
		case "include":
			flush()
			current = rawBlock{patterns: current.patterns, values: map[string][]string{}}
			for _, pattern := range strings.Fields(value) {
				children, childWarnings := expandInclude(abs, pattern, seen, depth)
				warnings = append(warnings, childWarnings...)
				blocks = append(blocks, children...)
			}
		case "host":
			flush()
			patterns := strings.Fields(value)
			if len(patterns) == 0 {
				warnings = append(warnings, fmt.Sprintf("%s:%d Host missing patterns", abs, lineNo))
				patterns = []string{"*"}
			}
			current = rawBlock{patterns: patterns, values: map[string][]string{}}
		case "match":
			// Match criteria are not evaluated; skip the block entirely.
			flush()
			warnings = append(warnings, fmt.Sprintf("%s:%d Match blocks are ignored", abs, lineNo))
			current = rawBlock{patterns: []string{"!*"}, values: map[string][]string{}}
		default:
			lk := strings.ToLower(key)
			current.values[lk] = append(current.values[lk], value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, warnings, fmt.Errorf("scan %s: %w", abs, err)
	}
	flush()
	return blocks, warnings, nil
}

func expandInclude(parent, pattern string, seen map[string]bool, depth int) ([]rawBlock, []string) {
	incPattern := expandHome(pattern)
	if !filepath.IsAbs(incPattern) {
		incPattern = filepath.Join(filepath.Dir(parent), incPattern)
	}
	matches, err := filepath.Glob(incPattern)
	if err != nil {
		return nil, []string{fmt.Sprintf("%s: bad include pattern %q", parent, pattern)}
	}
	if len(matches) == 0 {
		return nil, []string{fmt.Sprintf("%s: include matched nothing: %q", parent, pattern)}
	}
	sort.Strings(matches)
	var (
		blocks   []rawBlock
		warnings []string
	)
	for _, m := range matches {
		child, childWarnings, err := parseRecursive(m, seen, depth+1)
		warnings = append(warnings, childWarnings...)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("include %s failed: %v", m, err))
			continue
		}
		blocks = append(blocks, child...)
	}
	return blocks, warnings
}

func matchesAny(alias string, patterns []string) bool {
	matched := false
	for _, p := range patterns {
		negated := strings.HasPrefix(p, "!")
		ok, err := filepath.Match(strings.TrimPrefix(p, "!"), alias)
		if err != nil || !ok {
			continue
		}
		if negated {
			return false
		}
		matched = true
	}
	return matched
}

func splitDirective(line string) (key, value string, ok bool) {
	if i := strings.IndexAny(line, " \t="); i > 0 {
		key = strings.TrimSpace(line[:i])
		value = strings.TrimSpace(strings.TrimLeft(line[i:], " \t="))
		value = strings.Trim(value, `"`)
		return key, value, key != "" && value != ""
	}
	return "", "", false
}

func stripInlineComment(line string) string {
	inQuote := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuote = !inQuote
		case '#':
			if !inQuote {
				return strings.TrimSpace(line[:i])
			}
		}
	}
	return strings.TrimSpace(line)
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
