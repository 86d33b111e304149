package corpus

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Frontmatter represents the document-level settings block.
// Unknown fields cause parse errors (use Meta for extensions).
type Frontmatter struct {
	Title string `yaml:"title" toml:"title"`
	// Skip suppresses every block in the document.
	Skip bool `yaml:"skip" toml:"skip"`
	// TimeoutMs is the default timeout for the document's blocks.
	TimeoutMs int      `yaml:"timeout_ms" toml:"timeout_ms"`
	Tags      []string `yaml:"tags" toml:"tags"`
	// Meta is the extension point for custom fields.
	Meta map[string]any `yaml:"meta" toml:"meta"`
}

// Frontmatter formats.
const (
	FormatNone = ""
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// FrontmatterResult holds the result of frontmatter extraction.
type FrontmatterResult struct {
	Config *Frontmatter
	// Body is the document text after the frontmatter block.
	Body string
	// BodyLine is the 1-based document line on which Body starts.
	BodyLine int
	// Format is FormatYAML, FormatTOML or FormatNone.
	Format string
}

// HasFrontmatter reports whether a frontmatter block was found.
func (r *FrontmatterResult) HasFrontmatter() bool {
	return r.Format != FormatNone
}

var knownFrontmatterFields = map[string]bool{
	"title":      true,
	"skip":       true,
	"timeout_ms": true,
	"tags":       true,
	"meta":       true,
}

// ExtractFrontmatter splits a leading YAML (---) or TOML (+++) block from text.
// An opening delimiter without a matching closing line is not frontmatter.
// On a decoding error the result still carries the body and an empty Config,
// so callers can continue with the rest of the document.
func ExtractFrontmatter(text string) (*FrontmatterResult, error) {
	result := &FrontmatterResult{
		Config:   &Frontmatter{},
		Body:     text,
		BodyLine: 1,
	}

	lines := strings.SplitAfter(text, "\n")
	if len(lines) == 0 {
		return result, nil
	}

	delim := strings.TrimRight(lines[0], " \t\r\n")
	var format string
	switch delim {
	case "---":
		format = FormatYAML
	case "+++":
		format = FormatTOML
	default:
		return result, nil
	}

	closing := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t\r\n") == delim {
			closing = i
			break
		}
	}
	if closing < 0 {
		return result, nil
	}

	raw := strings.Join(lines[1:closing], "")
	result.Format = format
	result.Body = strings.Join(lines[closing+1:], "")
	result.BodyLine = closing + 2

	var (
		config *Frontmatter
		err    error
	)
	if format == FormatYAML {
		config, err = parseFrontmatterYAML(raw)
	} else {
		config, err = parseFrontmatterTOML(raw)
	}
	if err != nil {
		return result, err
	}
	if config.TimeoutMs < 0 {
		return result, &FrontmatterParseError{
			Line:    1,
			Message: fmt.Sprintf("invalid timeout_ms value: %d, must be >= 0", config.TimeoutMs),
		}
	}

	result.Config = config
	return result, nil
}

// parseFrontmatterYAML parses YAML content with strict field validation.
func parseFrontmatterYAML(content string) (*Frontmatter, error) {
	// First, decode into a map to check for unknown fields
	var rawMap map[string]any
	if err := yaml.Unmarshal([]byte(content), &rawMap); err != nil {
		return nil, &FrontmatterParseError{
			Line:    1,
			Message: fmt.Sprintf("invalid YAML: %v", err),
		}
	}

	for field := range rawMap {
		if !knownFrontmatterFields[field] {
			return nil, &UnknownFieldError{Field: field}
		}
	}

	var config Frontmatter
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return nil, &FrontmatterParseError{
			Line:    1,
			Message: fmt.Sprintf("failed to parse frontmatter: %v", err),
		}
	}
	return &config, nil
}

// parseFrontmatterTOML parses TOML content, rejecting unknown fields.
func parseFrontmatterTOML(content string) (*Frontmatter, error) {
	var config Frontmatter
	dec := toml.NewDecoder(strings.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) && len(strict.Errors) > 0 {
			key := strict.Errors[0].Key()
			return nil, &UnknownFieldError{Field: strings.Join(key, ".")}
		}
		return nil, &FrontmatterParseError{
			Line:    1,
			Message: fmt.Sprintf("invalid TOML: %v", err),
		}
	}
	return &config, nil
}

// FrontmatterParseError represents a frontmatter parsing error.
type FrontmatterParseError struct {
	Document string
	Line     int
	Message  string
}

func (e *FrontmatterParseError) Error() string {
	if e.Document != "" {
		if e.Line > 0 {
			return fmt.Sprintf("%s:%d: %s", e.Document, e.Line, e.Message)
		}
		return fmt.Sprintf("%s: %s", e.Document, e.Message)
	}
	return e.Message
}

// UnknownFieldError represents an error for unknown frontmatter fields.
type UnknownFieldError struct {
	Document string
	Field    string
}

func (e *UnknownFieldError) Error() string {
	msg := fmt.Sprintf("unknown field %q in frontmatter, use \"meta\" field for custom fields", e.Field)
	if e.Document != "" {
		return fmt.Sprintf("%s: %s", e.Document, msg)
	}
	return msg
}
