// Package scripting wraps a single gopher-lua state used for NPC AI
// behavior and drop-table weighting — the two capabilities spec.md §9
// treats as publisher-specific ("Polymorphism of game-data services").
// Grounded on the teacher's internal/scripting/engine.go: load every
// *.lua file from a directory, then call a named global function with
// scalar arguments and read back its results (see ai.go, drop_table.go).
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine owns one *lua.LState. gopher-lua states are not safe for
// concurrent use; callers on the single-threaded simulation goroutine are
// the only callers, matching the concurrency model in spec.md §5.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine loads every *.lua file directly under scriptsDir (ai/ and
// drop_table/ subdirectories if present) into one shared state. A missing
// directory is not an error — it just means no scripts are installed and
// the default Go capability implementations in internal/data apply.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	e := &Engine{vm: vm, log: log}

	if _, err := os.Stat(scriptsDir); os.IsNotExist(err) {
		return e, nil
	}

	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, err
	}
	for _, sub := range []string{"ai", "drop_table"} {
		dir := filepath.Join(scriptsDir, sub)
		if _, err := os.Stat(dir); err == nil {
			if err := e.loadDir(dir); err != nil {
				vm.Close()
				return nil, err
			}
		}
	}
	return e, nil
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read script dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load script %s: %w", path, err)
		}
		e.log.Debug("loaded script", zap.String("path", path))
	}
	return nil
}

func (e *Engine) Close() {
	e.vm.Close()
}

// HasGlobal reports whether name is defined as a callable global, so a
// caller can fall back to a default Go implementation when no script
// supplies the hook.
func (e *Engine) HasGlobal(name string) bool {
	fn := e.vm.GetGlobal(name)
	return fn != lua.LNil
}
