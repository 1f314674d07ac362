package infra

import (
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

const holdDefault = "default"

// holdValue is a hold duration in YAML: a number of seconds, or "default"
// for the global-default sentinel.
type holdValue int32

func (h holdValue) MarshalYAML() (any, error) {
	if int32(h) == domain.DefaultDurationSentinel {
		return holdDefault, nil
	}
	return int32(h), nil
}

func (h *holdValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Value == holdDefault {
		*h = holdValue(domain.DefaultDurationSentinel)
		return nil
	}
	n, err := strconv.ParseInt(node.Value, 10, 32)
	if err != nil || n <= 0 {
		return fmt.Errorf("line %d: hold must be a positive number of seconds or %q, got %q",
			node.Line, holdDefault, node.Value)
	}
	*h = holdValue(n)
	return nil
}

type transferEntry struct {
	App  string    `yaml:"app"`
	Hold holdValue `yaml:"hold"`
}

type transferDocument struct {
	LockedApps []transferEntry `yaml:"locked_apps"`
}

// ExportYAML writes every registry entry to w.
func ExportYAML(reg domain.LockedAppRegistry, w io.Writer) (int, error) {
	entries, err := reg.List()
	if err != nil {
		return 0, err
	}

	doc := transferDocument{LockedApps: make([]transferEntry, 0, len(entries))}
	for _, e := range entries {
		doc.LockedApps = append(doc.LockedApps, transferEntry{App: e.AppID, Hold: holdValue(e.HoldDurationSeconds)})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return 0, fmt.Errorf("encode yaml: %w", err)
	}
	return len(entries), enc.Close()
}

// ImportResult summarizes an import.
type ImportResult struct {
	Set     int
	Removed int
}

// ImportYAML applies the entries in r to the registry. With replace, apps
// missing from the document are unlocked.
func ImportYAML(reg domain.LockedAppRegistry, r io.Reader, replace bool) (ImportResult, error) {
	var doc transferDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return ImportResult{}, fmt.Errorf("decode yaml: %w", err)
	}

	keep := make(map[string]bool, len(doc.LockedApps))
	for _, e := range doc.LockedApps {
		if e.App == "" {
			return ImportResult{}, fmt.Errorf("entry with empty app id")
		}
		keep[e.App] = true
	}

	var res ImportResult
	for _, e := range doc.LockedApps {
		if err := reg.SetDuration(e.App, int32(e.Hold)); err != nil {
			return res, err
		}
		res.Set++
	}

	if replace {
		existing, err := reg.List()
		if err != nil {
			return res, err
		}
		for _, e := range existing {
			if keep[e.AppID] {
				continue
			}
			if err := reg.Remove(e.AppID); err != nil {
				return res, err
			}
			res.Removed++
		}
	}
	return res, nil
}
