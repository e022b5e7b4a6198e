package config

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"brainzzz/internal/growth"
)

const (
	actionSectionPrefix = "action."
	taskSectionPrefix   = "task."
)

// loadINI maps [run], [genome], [growth], [evolution], [storage] and [log]
// onto cfg. Any [action.<name>] section replaces the growth action list and
// any [task.<name>] section replaces the task list.
func loadINI(path string, cfg *Config) error {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, path)
	if err != nil {
		return fmt.Errorf("failed to load config file '%s': %w", path, err)
	}

	targets := []struct {
		name string
		dst  any
	}{
		{"run", &cfg.Run},
		{"genome", &cfg.Genome},
		{"growth", &cfg.Growth},
		{"evolution", &cfg.Evolution},
		{"storage", &cfg.Storage},
		{"log", &cfg.Log},
	}
	for _, t := range targets {
		if err := file.Section(t.name).MapTo(t.dst); err != nil {
			return fmt.Errorf("failed to map [%s] section: %w", t.name, err)
		}
	}

	var (
		actions []growth.Rule
		tasks   []TaskConfig
	)
	for _, section := range file.Sections() {
		name := section.Name()
		switch {
		case strings.HasPrefix(name, actionSectionPrefix):
			rule := growth.Rule{Name: growth.Action(strings.TrimPrefix(name, actionSectionPrefix))}
			if prev, ok := cfg.Growth.Rule(rule.Name); ok {
				rule = prev
			}
			if err := section.MapTo(&rule); err != nil {
				return fmt.Errorf("failed to map [%s] section: %w", name, err)
			}
			actions = append(actions, rule)
		case strings.HasPrefix(name, taskSectionPrefix):
			tc := TaskConfig{Name: strings.TrimPrefix(name, taskSectionPrefix), Weight: 1}
			if err := section.MapTo(&tc); err != nil {
				return fmt.Errorf("failed to map [%s] section: %w", name, err)
			}
			tasks = append(tasks, tc)
		}
	}
	if len(actions) > 0 {
		cfg.Growth.Actions = actions
	}
	if len(tasks) > 0 {
		cfg.Tasks = tasks
	}
	return nil
}
