package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const autocompleteKey = "autocomplete"

var schemaMarkerKeys = map[string]struct{}{
	"type":       {},
	"properties": {},
	"enum":       {},
	"$ref":       {},
	"items":      {},
}

// Parse decodes a JSON or YAML schema document. Top-level entries that look
// like a schema become definitions; other mappings are treated as groups whose
// entries are addressed as `#/group/Name`. A top-level `autocomplete` mapping
// supplies option lists. Property order follows the document.
func Parse(raw []byte) (*Document, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, errors.New("schema: document is empty")
	}

	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("schema: parse document: %w", err)
	}
	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil, errors.New("schema: document root must be a mapping")
	}

	defs := make(map[string]Schema)
	lists := make(map[string][]any)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]

		if key == autocompleteKey && !looksLikeSchema(value) {
			if err := value.Decode(&lists); err != nil {
				return nil, fmt.Errorf("schema: decode autocomplete lists: %w", err)
			}
			continue
		}
		if looksLikeSchema(value) {
			def, err := schemaFromNode(value, key)
			if err != nil {
				return nil, err
			}
			defs[key] = def
			continue
		}
		if value.Kind != yaml.MappingNode {
			continue
		}
		for j := 0; j+1 < len(value.Content); j += 2 {
			name := value.Content[j].Value
			child := value.Content[j+1]
			if !looksLikeSchema(child) {
				continue
			}
			def, err := schemaFromNode(child, key+"/"+name)
			if err != nil {
				return nil, err
			}
			defs[key+"/"+name] = def
		}
	}

	if len(defs) == 0 {
		return nil, errors.New("schema: document does not contain any definitions")
	}
	return NewDocument(defs).WithAutocomplete(lists), nil
}

func looksLikeSchema(node *yaml.Node) bool {
	if node == nil || node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if _, ok := schemaMarkerKeys[node.Content[i].Value]; ok {
			return true
		}
	}
	return false
}

func schemaFromNode(node *yaml.Node, location string) (Schema, error) {
	var out Schema
	if node.Kind != yaml.MappingNode {
		return out, fmt.Errorf("schema: %s: expected mapping", location)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]
		where := location + "." + key

		switch key {
		case "$ref":
			out.Ref = strings.TrimSpace(value.Value)
		case "type":
			out.Type = strings.TrimSpace(value.Value)
		case "format":
			out.Format = value.Value
		case "title":
			out.Title = value.Value
		case "help":
			out.Help = value.Value
		case "description":
			out.Description = value.Value
		case "underlying_type":
			out.UnderlyingType = strings.TrimSpace(value.Value)
		case "auto_complete":
			out.AutoComplete = value.Value
		case "default":
			if err := value.Decode(&out.Default); err != nil {
				return out, fmt.Errorf("schema: %s: %w", where, err)
			}
		case "enum":
			if err := value.Decode(&out.Enum); err != nil {
				return out, fmt.Errorf("schema: %s: %w", where, err)
			}
		case "required":
			// Property-level boolean markers are ignored; only the list form
			// participates in required-ness.
			if value.Kind == yaml.SequenceNode {
				if err := value.Decode(&out.Required); err != nil {
					return out, fmt.Errorf("schema: %s: %w", where, err)
				}
			}
		case "properties":
			if value.Kind != yaml.MappingNode {
				return out, fmt.Errorf("schema: %s: expected mapping", where)
			}
			out.Properties = make(map[string]Schema, len(value.Content)/2)
			for j := 0; j+1 < len(value.Content); j += 2 {
				name := value.Content[j].Value
				prop, err := schemaFromNode(value.Content[j+1], where+"."+name)
				if err != nil {
					return out, err
				}
				out.Properties[name] = prop
				out.Order = append(out.Order, name)
			}
		case "items":
			item, err := schemaFromNode(value, where)
			if err != nil {
				return out, err
			}
			out.Items = &item
		case "orm_no_update", "read_only_after_create":
			// Presence sets the flag whatever its value.
			out.ReadOnlyAfterCreate = Bool(true)
		case "server_populate", "server_populated":
			out.ServerPopulated = flagFromNode(value)
		case "ui_update_only":
			out.UIUpdateOnly = flagFromNode(value)
		case "hide", "hidden":
			out.Hidden = flagFromNode(value)
		case "button":
			out.Button = flagFromNode(value)
		}
	}
	return out, nil
}

// flagFromNode treats any non-false scalar (and any structured value) as a set
// flag, matching documents that use `orm_no_update: "yes"` or a mapping of
// flag options.
func flagFromNode(node *yaml.Node) *bool {
	if node.Kind != yaml.ScalarNode {
		return Bool(true)
	}
	if parsed, err := strconv.ParseBool(strings.TrimSpace(node.Value)); err == nil {
		return Bool(parsed)
	}
	trimmed := strings.TrimSpace(node.Value)
	return Bool(trimmed != "" && trimmed != "null" && trimmed != "~")
}
