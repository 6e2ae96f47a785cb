// Package ignore reads the watcher's ignore list: one unit name per line,
// lines prefixed REGEX| are patterns, # starts a comment.
package ignore

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
)

const regexPrefix = "REGEX|"

// List matches unit names against the loaded entries. Safe for concurrent
// Match and Reload (the watcher matches while a signal handler reloads).
type List struct {
	path string

	mu    sync.RWMutex
	names map[string]struct{}
	re    *regexp.Regexp
}

func New(path string) *List {
	return &List{path: path, names: map[string]struct{}{}}
}

// Reload re-reads the file, replacing the current entries atomically. A
// missing file clears the list and is not an error.
func (l *List) Reload() error {
	names := make(map[string]struct{})
	var patterns []string

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			l.swap(names, nil)
			return nil
		}
		return fmt.Errorf("open ignore list: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if p, ok := strings.CutPrefix(line, regexPrefix); ok {
			patterns = append(patterns, p)
		} else {
			names[line] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read ignore list: %w", err)
	}

	var re *regexp.Regexp
	if len(patterns) > 0 {
		// Patterns match from the start of the unit name.
		re, err = regexp.Compile("^(?:" + strings.Join(patterns, "|") + ")")
		if err != nil {
			return fmt.Errorf("ignore list pattern: %w", err)
		}
	}

	l.swap(names, re)
	return nil
}

func (l *List) swap(names map[string]struct{}, re *regexp.Regexp) {
	l.mu.Lock()
	l.names = names
	l.re = re
	l.mu.Unlock()
}

func (l *List) Match(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.names[name]; ok {
		return true
	}
	return l.re != nil && l.re.MatchString(name)
}

// Size reports loaded entry counts for logging.
func (l *List) Size() (names int, hasPatterns bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.names), l.re != nil
}
