package bundle

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Manifest 描述一个模块包
//
//	id: Feature2.wasm
//	version: 1.0.0
//	bootstrapper: true
//	configuration:
//	  feature2:
//	    title: Counter
type Manifest struct {
	ID            string         `yaml:"id"`
	Version       string         `yaml:"version"`
	Bootstrapper  *bool          `yaml:"bootstrapper,omitempty"`
	Configuration map[string]any `yaml:"configuration,omitempty"`
}

// HasBootstrapper 未声明时默认为 true
func (m *Manifest) HasBootstrapper() bool {
	return m.Bootstrapper == nil || *m.Bootstrapper
}

// ParseManifest 解析 YAML 清单，id 为空时使用 fallbackID
func ParseManifest(data []byte, fallbackID string) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("bundle: failed to parse manifest: %w", err)
	}
	if m.ID == "" {
		m.ID = fallbackID
	}
	if fallbackID != "" && m.ID != fallbackID {
		return nil, fmt.Errorf("bundle: manifest id '%s' does not match module '%s'", m.ID, fallbackID)
	}
	return &m, nil
}

// Marshal 序列化为 YAML
func (m *Manifest) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}
