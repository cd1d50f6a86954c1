// pkg/compose/generator.go

package compose

import (
	"strings"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/registry"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/shared"
	"gopkg.in/yaml.v3"
)

// Manifest is the generated compose document.
type Manifest struct {
	Version  *yaml.Node
	Services *Mapping
	Volumes  *yaml.Node
	Networks *yaml.Node
}

// ServiceEntry is one generated service. Build is set for managed services,
// Image for infra services. Unset optionals are left out of the manifest.
type ServiceEntry struct {
	ContainerName string
	Restart       string
	BuildContext  string
	Image         string
	Networks      []string
	Ports         registry.Optional[[]string]
	Environment   registry.Optional[registry.Environment]
	Volumes       registry.Optional[[]string]
}

// ContainerName is the container name generated for a registered service.
func ContainerName(service string) string {
	return shared.ContainerPrefix + service
}

// BuildContext is the build context of a managed service, relative to the
// project root.
func BuildContext(service string) string {
	return shared.ServicesBuildRoot + "/" + service
}

// ManagedEntry builds the manifest entry for a managed service.
func ManagedEntry(svc registry.ManagedService) ServiceEntry {
	return ServiceEntry{
		ContainerName: ContainerName(svc.Name),
		Restart:       shared.RestartPolicy,
		BuildContext:  BuildContext(svc.Name),
		Networks:      []string{shared.NetworkName},
		Volumes:       svc.Volumes,
	}
}

// InfraEntry builds the manifest entry for an infra service.
func InfraEntry(svc registry.InfraService) ServiceEntry {
	return ServiceEntry{
		ContainerName: ContainerName(svc.Name),
		Restart:       shared.RestartPolicy,
		Image:         svc.Image,
		Networks:      []string{shared.NetworkName},
		Ports:         svc.Ports,
		Environment:   svc.Environment,
		Volumes:       svc.Volumes,
	}
}

// Node renders the entry with keys in canonical order.
func (e ServiceEntry) Node() *yaml.Node {
	n := emptyMapNode()
	add := func(key string, value *yaml.Node) {
		n.Content = append(n.Content, strNode(key), value)
	}

	add("container_name", strNode(e.ContainerName))
	add("restart", strNode(e.Restart))
	if e.BuildContext != "" {
		build := emptyMapNode()
		build.Content = append(build.Content, strNode("context"), strNode(e.BuildContext))
		add("build", build)
	} else {
		add("image", strNode(e.Image))
	}
	add("networks", seqNode(e.Networks))
	if ports, ok := e.Ports.Get(); ok {
		add("ports", seqNode(ports))
	}
	if env, ok := e.Environment.Get(); ok {
		add("environment", environmentNode(env))
	}
	if volumes, ok := e.Volumes.Get(); ok {
		add("volumes", seqNode(volumes))
	}
	return n
}

func environmentNode(env registry.Environment) *yaml.Node {
	if env.Form == registry.EnvList {
		return seqNode(env.Entries)
	}
	n := emptyMapNode()
	for _, v := range env.Vars {
		n.Content = append(n.Content, strNode(v.Key), scalarNode(v.Value))
	}
	return n
}

func scalarNode(v registry.EnvValue) *yaml.Node {
	switch v.Kind {
	case registry.ScalarNull:
		return nullNode()
	case registry.ScalarBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: v.Text}
	case registry.ScalarNumber:
		tag := "!!int"
		if strings.ContainsAny(v.Text, ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.Text}
	default:
		return strNode(v.Text)
	}
}

// Generate merges reg into a copy of tmpl. Managed services are placed first,
// then infra services, each in registry order. A name already present in the
// template services is overwritten in place; new names are appended. tmpl is
// not modified.
func Generate(tmpl *Template, reg *registry.Registry) *Manifest {
	if tmpl == nil {
		tmpl = DefaultTemplate()
	}
	base := tmpl.Clone()
	base.backfill()

	m := &Manifest{
		Version:  base.Version,
		Services: base.Services,
		Volumes:  base.Volumes,
		Networks: base.Networks,
	}
	if reg == nil {
		return m
	}

	for _, svc := range reg.Managed {
		m.Services.Set(svc.Name, ManagedEntry(svc).Node())
	}
	for _, svc := range reg.Infra {
		m.Services.Set(svc.Name, InfraEntry(svc).Node())
	}
	return m
}

// Node renders the manifest with top-level keys version, services, volumes,
// networks in that order.
func (m *Manifest) Node() *yaml.Node {
	doc := emptyMapNode()
	doc.Content = append(doc.Content,
		strNode("version"), m.Version,
		strNode("services"), m.Services.Node(),
		strNode("volumes"), m.Volumes,
		strNode("networks"), m.Networks,
	)
	return doc
}
