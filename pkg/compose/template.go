// pkg/compose/template.go

package compose

import (
	"bytes"
	"context"
	"fmt"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_err"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_io"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/shared"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Template is the hand-authored base compose file. Services keep the author's
// order; version, volumes and networks are carried through verbatim.
type Template struct {
	Version  *yaml.Node
	Services *Mapping
	Volumes  *yaml.Node
	Networks *yaml.Node
}

// DefaultTemplate is used when no base template exists.
func DefaultTemplate() *Template {
	t := &Template{}
	t.backfill()
	return t
}

func defaultNetworks() *yaml.Node {
	n := emptyMapNode()
	n.Content = append(n.Content, strNode(shared.NetworkName), nullNode())
	return n
}

// backfill supplies the keys a base template may omit.
func (t *Template) backfill() {
	if t.Version == nil {
		t.Version = strNode(shared.DefaultComposeVersion)
	}
	if t.Services == nil {
		t.Services = NewMapping()
	}
	if t.Volumes == nil {
		t.Volumes = emptyMapNode()
	}
	if t.Networks == nil {
		t.Networks = defaultNetworks()
	}
}

// Clone deep-copies the template.
func (t *Template) Clone() *Template {
	c := &Template{
		Version:  cloneNode(t.Version),
		Volumes:  cloneNode(t.Volumes),
		Networks: cloneNode(t.Networks),
	}
	if t.Services != nil {
		c.Services = t.Services.Clone()
	}
	return c
}

// LoadTemplate reads the base template at path. A missing file yields
// DefaultTemplate; an empty file is treated as an empty mapping.
func LoadTemplate(ctx context.Context, path string) (*Template, error) {
	log := otelzap.Ctx(ctx)

	data, ok, err := microns_io.ReadFileIfExists(ctx, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Debug("No base template, using defaults", zap.String("path", path))
		return DefaultTemplate(), nil
	}

	t, err := ParseTemplate(data)
	if err != nil {
		return nil, microns_err.NewIOError("parse", path, err)
	}
	log.Debug("Base template loaded",
		zap.String("path", path),
		zap.Int("services", t.Services.Len()))
	return t, nil
}

// ParseTemplate decodes a base template document. Top-level keys other than
// version, services, volumes and networks are not carried into the manifest.
func ParseTemplate(data []byte) (*Template, error) {
	t := &Template{}
	if len(bytes.TrimSpace(data)) == 0 {
		t.backfill()
		return t, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	// A document holding only comments decodes to a zero node.
	if doc.Kind == 0 {
		t.backfill()
		return t, nil
	}
	root, err := expandAliases(&doc)
	if err != nil {
		return nil, err
	}
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			t.backfill()
			return t, nil
		}
		root = root.Content[0]
	}
	if isNull(root) {
		t.backfill()
		return t, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("base template root must be a mapping, got %s", kindName(root))
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, root.Content[i+1]
		switch key {
		case "version":
			t.Version = value
		case "services":
			services, err := mappingFromNode(value)
			if err != nil {
				return nil, fmt.Errorf("services: %w", err)
			}
			t.Services = services
		case "volumes":
			t.Volumes = value
		case "networks":
			t.Networks = value
		}
	}

	t.backfill()
	return t, nil
}
