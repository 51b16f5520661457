package purl

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// FromMaven builds a maven identifier from either "group:artifact:version"
// coordinates or a pom <dependency> fragment.
func FromMaven(input string) (Identifier, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Identifier{}, fmt.Errorf("%w: must not be empty", ErrInvalidIdentifier)
	}

	if !strings.HasPrefix(input, "<") {
		parts := strings.Split(input, ":")
		if len(parts) < 3 {
			return Identifier{}, fmt.Errorf("%w: expected group:artifact:version, got %q", ErrInvalidIdentifier, input)
		}
		return New("maven", parts[1], WithNamespace(parts[0]), WithVersion(parts[2]))
	}

	values, err := firstElementTexts(input, "groupId", "artifactId", "version", "type")
	if err != nil {
		return Identifier{}, fmt.Errorf("%w: unable to parse as XML: %w", ErrInvalidIdentifier, err)
	}

	artifactID, ok := values["artifactId"]
	if !ok {
		return Identifier{}, fmt.Errorf("%w: missing required <artifactId>", ErrInvalidIdentifier)
	}

	var opts []Option
	if groupID, ok := values["groupId"]; ok {
		opts = append(opts, WithNamespace(groupID))
	}
	if version, ok := values["version"]; ok {
		opts = append(opts, WithVersion(version))
	}
	if typ, ok := values["type"]; ok {
		opts = append(opts, WithQualifier("type", typ))
	}

	return New("maven", artifactID, opts...)
}

// firstElementTexts returns the trimmed text of the first element for each tag
func firstElementTexts(doc string, tags ...string) (map[string]string, error) {
	wanted := make(map[string]bool, len(tags))
	for _, t := range tags {
		wanted[t] = true
	}

	found := make(map[string]string, len(tags))
	decoder := xml.NewDecoder(strings.NewReader(doc))
	current := ""
	var text strings.Builder

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return found, nil
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if _, done := found[name]; wanted[name] && !done && current == "" {
				current = name
				text.Reset()
			}
		case xml.CharData:
			if current != "" {
				text.Write(t)
			}
		case xml.EndElement:
			if current != "" && t.Name.Local == current {
				if v := strings.TrimSpace(text.String()); v != "" {
					found[current] = v
				}
				current = ""
			}
		}
	}
}
