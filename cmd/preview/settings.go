package main

import (
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// previewSettings is the persisted tool state. Settings are global, not
// per-user.
type previewSettings struct {
	Effect  string `yaml:"effect"`  // last selected effect group
	Quality string `yaml:"quality"` // low | medium | high
}

func defaultSettings() previewSettings {
	return previewSettings{Quality: "medium"}
}

const (
	settingsObject   = "preview"
	settingsProperty = "state"
)

// settingsStore loads and saves the previewer settings through gdata. A nil
// manager degrades to in-memory defaults without error.
type settingsStore struct {
	manager  *gdata.Manager
	settings previewSettings
}

func newSettingsStore(manager *gdata.Manager) *settingsStore {
	s := &settingsStore{manager: manager, settings: defaultSettings()}
	if err := s.load(); err != nil {
		log.Printf("[Settings] failed to load settings: %v (using defaults)", err)
	}
	return s
}

func (s *settingsStore) load() error {
	if s.manager == nil {
		return nil
	}
	if !s.manager.ObjectPropExists(settingsObject, settingsProperty) {
		return nil
	}
	data, err := s.manager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	var loaded previewSettings
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if loaded.Quality == "" {
		loaded.Quality = defaultSettings().Quality
	}
	s.settings = loaded
	return nil
}

func (s *settingsStore) save() {
	if s.manager == nil {
		return
	}
	data, err := yaml.Marshal(s.settings)
	if err != nil {
		log.Printf("[Settings] failed to marshal settings: %v", err)
		return
	}
	if err := s.manager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		log.Printf("[Settings] failed to save settings: %v", err)
	}
}

func (s *settingsStore) setEffect(name string) {
	if s.settings.Effect == name {
		return
	}
	s.settings.Effect = name
	s.save()
}

func (s *settingsStore) setQuality(q string) {
	if s.settings.Quality == q {
		return
	}
	s.settings.Quality = q
	s.save()
}
