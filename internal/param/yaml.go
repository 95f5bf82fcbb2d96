package param

import "gopkg.in/yaml.v3"

// DumpSchemas marshals a box's declared-parameter schema to YAML, the format
// a config front-end (spf13/viper) reads defaults and overrides from.
func DumpSchemas(b *Box) ([]byte, error) {
	return yaml.Marshal(b.Schemas())
}

// LoadDefaults parses a YAML document of {name: raw_value} pairs and applies
// each to the box via SetRaw, returning the first error encountered.
func LoadDefaults(b *Box, doc []byte) error {
	var raw map[string]string
	if err := yaml.Unmarshal(doc, &raw); err != nil {
		return err
	}
	for name, val := range raw {
		if err := b.SetRaw(name, val); err != nil {
			return err
		}
	}
	return nil
}
