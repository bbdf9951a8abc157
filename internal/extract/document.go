package extract

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/epistemia/internal/model"
)

// Format is an input document encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the decoder from a file extension. Unknown extensions are JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadDocument reads, decodes and normalizes an input document
func LoadDocument(path string) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: read %s", path)
	}

	doc, err := DecodeDocument(data, FormatFor(path))
	if err != nil {
		return nil, eris.Wrapf(err, "extract: decode %s", path)
	}
	return doc, nil
}

// DecodeDocument decodes a document. A bare claim list is accepted as a
// document with no subject.
func DecodeDocument(data []byte, format Format) (*model.Document, error) {
	var doc model.Document

	switch format {
	case FormatYAML:
		var probe interface{}
		if err := yaml.Unmarshal(data, &probe); err != nil {
			return nil, eris.Wrap(err, "invalid YAML")
		}
		if _, isList := probe.([]interface{}); isList {
			if err := yaml.Unmarshal(data, &doc.Claims); err != nil {
				return nil, eris.Wrap(err, "invalid claim list")
			}
		} else if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, eris.Wrap(err, "invalid document")
		}

	default:
		trimmed := strings.TrimSpace(string(data))
		if strings.HasPrefix(trimmed, "[") {
			if err := json.Unmarshal(data, &doc.Claims); err != nil {
				return nil, eris.Wrap(err, "invalid claim list")
			}
		} else if err := json.Unmarshal(data, &doc); err != nil {
			return nil, eris.Wrap(err, "invalid document")
		}
	}

	Normalize(&doc)
	return &doc, nil
}

// Normalize assigns missing claim ids and strips markup from evidence text
// in place
func Normalize(doc *model.Document) {
	for i := range doc.Claims {
		c := &doc.Claims[i]
		if c.ID == "" {
			c.ID = fmt.Sprintf("claim-%d", i+1)
		}
		c.Text = strings.TrimSpace(c.Text)
		normalizeEvidence(&c.Evidence)
	}
}

func normalizeEvidence(ev *model.EvidenceSet) {
	for i := range ev.PrimaryDocument {
		ev.PrimaryDocument[i].Snippet = StripMarkup(ev.PrimaryDocument[i].Snippet)
	}
	for i := range ev.Wikidata {
		ev.Wikidata[i].Snippet = StripMarkup(ev.Wikidata[i].Snippet)
	}
	for i := range ev.Wikipedia {
		p := &ev.Wikipedia[i]
		p.Snippet = StripMarkup(p.Snippet)
		p.Sentence = StripMarkup(p.Sentence)
	}
	for i := range ev.Grokipedia {
		p := &ev.Grokipedia[i]
		p.Snippet = StripMarkup(p.Snippet)
		p.Sentence = StripMarkup(p.Sentence)
	}
}
