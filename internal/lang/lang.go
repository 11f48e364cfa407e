// Package lang loads localized server message templates from per-language
// YAML files. Templates carry {name}, {victim} and {state} placeholders.
package lang

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Table holds the message templates for one language. Immutable after Load.
type Table struct {
	AnnounceFreeze   string `yaml:"announce_freeze"`
	AnnounceUnfreeze string `yaml:"announce_unfreeze"`
	AnnounceRemove   string `yaml:"announce_remove"`
	AnnounceMute     string `yaml:"announce_mute"`
	AnnounceGlobal   string `yaml:"announce_global"`
	GlobalLocked     string `yaml:"global_locked"`
	CaptchaChallenge string `yaml:"captcha_challenge"`
	CaptchaPassed    string `yaml:"captcha_passed"`
	CaptchaFailed    string `yaml:"captcha_failed"`
}

// Load reads <dir>/<language>.yaml into a Table.
func Load(dir, language string) (*Table, error) {
	path := filepath.Join(dir, language+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lang file %s: %w", path, err)
	}
	t := defaults()
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parse lang file %s: %w", path, err)
	}
	return t, nil
}

func defaults() *Table {
	return &Table{
		AnnounceFreeze:   "{victim} has been frozen by {name}",
		AnnounceUnfreeze: "{victim} has been unfrozen by {name}",
		AnnounceRemove:   "{victim} has been removed by {name}",
		AnnounceMute:     "{victim} has been muted by {name}",
		AnnounceGlobal:   "global chat has been turned {state} by {name}",
		GlobalLocked:     "global chat is locked",
		CaptchaChallenge: "a bot check has begun, answer it in local chat",
		CaptchaPassed:    "bot check passed",
		CaptchaFailed:    "wrong answer",
	}
}

// Sub substitutes {key} placeholders in a template.
func Sub(template string, pairs ...string) string {
	r := make([]string, 0, len(pairs))
	for i := 0; i+1 < len(pairs); i += 2 {
		r = append(r, "{"+pairs[i]+"}", pairs[i+1])
	}
	return strings.NewReplacer(r...).Replace(template)
}
