package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type BodyType int

const (
	BodyJSON BodyType = iota
	BodyGraphQL
	BodyXML
	BodyText
	BodyFormURLEncoded
	BodyMultipart
)

var bodyTypeNames = map[BodyType]string{
	BodyJSON:           "json",
	BodyGraphQL:        "graphql",
	BodyXML:            "xml",
	BodyText:           "text",
	BodyFormURLEncoded: "form-urlencoded",
	BodyMultipart:      "multipart",
}

func (t BodyType) String() string {
	if name, ok := bodyTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("BodyType(%d)", int(t))
}

func parseBodyType(s string) (BodyType, bool) {
	for t, name := range bodyTypeNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

// RequestBody is a discriminated union keyed by Type:
//   - BodyJSON: Content
//   - BodyGraphQL: Query and optional Variables
//   - BodyXML, BodyText, BodyFormURLEncoded: Raw
//   - BodyMultipart: Parts
type RequestBody struct {
	Type      BodyType
	Content   any
	Query     string
	Variables any
	Raw       string
	Parts     []MultipartPart
}

// HasVariables reports whether a GraphQL body declared variables.
func (b *RequestBody) HasVariables() bool {
	return b.Variables != nil
}

type rawBody struct {
	Type      string          `yaml:"type"`
	Content   yaml.Node       `yaml:"content"`
	Query     *string         `yaml:"query"`
	Variables any             `yaml:"variables"`
	Parts     []MultipartPart `yaml:"parts"`
}

func (b *RequestBody) UnmarshalYAML(node *yaml.Node) error {
	var raw rawBody
	if err := node.Decode(&raw); err != nil {
		return err
	}

	t, ok := parseBodyType(raw.Type)
	if !ok {
		return fmt.Errorf("line %d: unknown body type %q", node.Line, raw.Type)
	}

	hasContent := raw.Content.Kind != 0
	body := RequestBody{Type: t}

	switch t {
	case BodyJSON:
		if !hasContent {
			return fmt.Errorf("line %d: json body requires content", node.Line)
		}
		var content any
		if err := raw.Content.Decode(&content); err != nil {
			return fmt.Errorf("line %d: json content: %w", node.Line, err)
		}
		body.Content = Normalize(content)
	case BodyGraphQL:
		if raw.Query == nil {
			return fmt.Errorf("line %d: graphql body requires query", node.Line)
		}
		body.Query = *raw.Query
		body.Variables = Normalize(raw.Variables)
	case BodyXML, BodyText, BodyFormURLEncoded:
		if !hasContent || raw.Content.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: %s body requires string content", node.Line, t)
		}
		body.Raw = raw.Content.Value
	case BodyMultipart:
		if raw.Parts == nil {
			return fmt.Errorf("line %d: multipart body requires parts", node.Line)
		}
		body.Parts = raw.Parts
	}

	*b = body
	return nil
}

type PartKind int

const (
	PartField PartKind = iota
	PartFile
)

func (k PartKind) String() string {
	switch k {
	case PartField:
		return "field"
	case PartFile:
		return "file"
	default:
		return fmt.Sprintf("PartKind(%d)", int(k))
	}
}

// MultipartPart is either a text field (Name, Value) or a file
// (Name, Path and an optional MimeType).
type MultipartPart struct {
	Kind     PartKind
	Name     string
	Value    string
	Path     string
	MimeType *string
}

type rawPart struct {
	Kind     string  `yaml:"kind"`
	Name     string  `yaml:"name"`
	Value    *string `yaml:"value"`
	Path     *string `yaml:"path"`
	MimeType *string `yaml:"mime_type"`
}

func (p *MultipartPart) UnmarshalYAML(node *yaml.Node) error {
	var raw rawPart
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Name == "" {
		return fmt.Errorf("line %d: multipart part requires a name", node.Line)
	}

	switch raw.Kind {
	case "field":
		if raw.Value == nil {
			return fmt.Errorf("line %d: multipart field %q requires value", node.Line, raw.Name)
		}
		*p = MultipartPart{Kind: PartField, Name: raw.Name, Value: *raw.Value}
	case "file":
		if raw.Path == nil {
			return fmt.Errorf("line %d: multipart file %q requires path", node.Line, raw.Name)
		}
		*p = MultipartPart{Kind: PartFile, Name: raw.Name, Path: *raw.Path, MimeType: raw.MimeType}
	default:
		return fmt.Errorf("line %d: unknown multipart kind %q", node.Line, raw.Kind)
	}
	return nil
}
