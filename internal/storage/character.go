package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ironrose/server/internal/components"
	"gopkg.in/yaml.v3"
)

// CharacterStorage persists one YAML file per character under a realm
// directory, keyed by character name. Names are globally unique because
// callers check Exists before saving a new character; Save overwrites.
type CharacterStorage struct {
	dir string
}

func NewCharacterStorage(realmDir string) *CharacterStorage {
	return &CharacterStorage{dir: filepath.Join(realmDir, "characters")}
}

func (s *CharacterStorage) path(name string) string {
	return filepath.Join(s.dir, name+".yaml")
}

func (s *CharacterStorage) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

func (s *CharacterStorage) TryLoad(name string) (components.Character, error) {
	raw, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return components.Character{}, ErrNotFound
		}
		return components.Character{}, fmt.Errorf("read character %s: %w", name, err)
	}
	var c components.Character
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return components.Character{}, fmt.Errorf("parse character %s: %w", name, err)
	}
	return c, nil
}

func (s *CharacterStorage) Save(c components.Character) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create realm dir: %w", err)
	}
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal character %s: %w", c.Info.Name, err)
	}
	if err := os.WriteFile(s.path(c.Info.Name), out, 0o600); err != nil {
		return fmt.Errorf("write character %s: %w", c.Info.Name, err)
	}
	return nil
}

func (s *CharacterStorage) Delete(name string) error {
	err := os.Remove(s.path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete character %s: %w", name, err)
	}
	return nil
}
