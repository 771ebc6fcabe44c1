package livetest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/vango-dev/live/pkg/protocol"
)

// ReadScript parses a command script: one JSON command frame per line.
// Blank lines and lines starting with # are skipped.
func ReadScript(r io.Reader) ([]protocol.Command, error) {
	var cmds []protocol.Command
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), protocol.MaxFrameSize)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		cmd, err := protocol.DecodeCommand([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		cmds = append(cmds, cmd)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cmds, nil
}

// LoadScript reads the command script at path.
func LoadScript(path string) ([]protocol.Command, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadScript(f)
}

// Script holds the current commands of a script file and reloads them when
// the file changes.
type Script struct {
	path   string
	logger *slog.Logger

	mu   sync.RWMutex
	cmds []protocol.Command
}

// NewScript loads path.
func NewScript(path string, logger *slog.Logger) (*Script, error) {
	cmds, err := LoadScript(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Script{path: path, logger: logger, cmds: cmds}, nil
}

// Commands returns the current commands.
func (s *Script) Commands() []protocol.Command {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cmds
}

// Replay sends every command to c.
func (s *Script) Replay(c *Client) error {
	for _, cmd := range s.Commands() {
		if err := c.Send(cmd); err != nil {
			return err
		}
	}
	return nil
}

// Watch reloads the script whenever the file is written or replaced and
// then calls onReload with the new commands. A script that fails to parse
// is logged and the previous commands are kept. A script with no commands,
// such as a file truncated mid-save, is skipped. Watch blocks until ctx is
// done.
func (s *Script) Watch(ctx context.Context, onReload func([]protocol.Command)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Editors replace files, so watch the directory.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return err
	}
	target := filepath.Clean(s.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			cmds, err := LoadScript(s.path)
			if err != nil {
				s.logger.Warn("script reload failed", "path", s.path, "error", err)
				continue
			}
			if len(cmds) == 0 {
				s.logger.Debug("script empty, keeping previous commands", "path", s.path)
				continue
			}
			s.mu.Lock()
			s.cmds = cmds
			s.mu.Unlock()
			s.logger.Info("script reloaded", "path", s.path, "commands", len(cmds))
			if onReload != nil {
				onReload(cmds)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("script watcher", "error", err)
		}
	}
}
