package lockfile

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// parseBerry reads a yarn 2+ lockfile. The file is YAML; entries are decoded
// through yaml.Node so file order survives.
func parseBerry(content string) (*YarnFile, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	out := &YarnFile{Berry: true}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return out, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &SyntaxError{Line: root.Line, Msg: "lockfile root is not a mapping"}
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		if keyNode.Value == "__metadata" {
			continue
		}
		if valNode.Kind != yaml.MappingNode {
			return nil, &SyntaxError{Line: keyNode.Line, Msg: fmt.Sprintf("entry %q is not a mapping", keyNode.Value)}
		}
		fields := map[string]any{}
		if err := valNode.Decode(&fields); err != nil {
			return nil, &SyntaxError{Line: valNode.Line, Msg: err.Error()}
		}
		var specs []string
		for _, s := range strings.Split(keyNode.Value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				specs = append(specs, s)
			}
		}
		out.Entries = append(out.Entries, YarnEntry{Specs: specs, Fields: fields, Line: keyNode.Line})
	}
	return out, nil
}
