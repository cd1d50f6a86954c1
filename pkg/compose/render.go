// pkg/compose/render.go

package compose

import (
	"bytes"
	"context"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_err"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_io"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/shared"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Render serializes m as YAML with a two-space indent. Equal manifests render
// to identical bytes.
func Render(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m.Node()); err != nil {
		return nil, microns_err.NewInternalError("render compose manifest", err)
	}
	if err := enc.Close(); err != nil {
		return nil, microns_err.NewInternalError("render compose manifest", err)
	}
	return buf.Bytes(), nil
}

// WriteManifest replaces the manifest at path, creating parent directories.
func WriteManifest(ctx context.Context, path string, text []byte) error {
	if err := microns_io.WriteFileAtomic(ctx, path, text, shared.FilePermStandard); err != nil {
		return err
	}
	otelzap.Ctx(ctx).Info("Compose manifest written",
		zap.String("path", path),
		zap.Int("bytes", len(text)))
	return nil
}
