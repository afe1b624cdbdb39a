package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type ScriptLanguage int

const (
	LanguageRhai ScriptLanguage = iota
	LanguageJavascript
	LanguageLua
)

func (l ScriptLanguage) String() string {
	switch l {
	case LanguageRhai:
		return "rhai"
	case LanguageJavascript:
		return "javascript"
	case LanguageLua:
		return "lua"
	default:
		return fmt.Sprintf("ScriptLanguage(%d)", int(l))
	}
}

// Script is a hook source tagged with its language. Every language can be
// declared; whether it can run is decided by the script dispatcher.
type Script struct {
	Language ScriptLanguage
	Content  string
}

type rawScript struct {
	Language string  `yaml:"language"`
	Content  *string `yaml:"content"`
}

func (s *Script) UnmarshalYAML(node *yaml.Node) error {
	var raw rawScript
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Content == nil {
		return fmt.Errorf("line %d: script requires content", node.Line)
	}

	var lang ScriptLanguage
	switch raw.Language {
	case "rhai":
		lang = LanguageRhai
	case "javascript":
		lang = LanguageJavascript
	case "lua":
		lang = LanguageLua
	default:
		return fmt.Errorf("line %d: unknown script language %q", node.Line, raw.Language)
	}

	*s = Script{Language: lang, Content: *raw.Content}
	return nil
}

func (c *CallSequence) UnmarshalYAML(node *yaml.Node) error {
	var steps []string
	if err := node.Decode(&steps); err != nil {
		return fmt.Errorf("line %d: call sequence must be a list of request names: %w", node.Line, err)
	}
	c.Steps = steps
	return nil
}
