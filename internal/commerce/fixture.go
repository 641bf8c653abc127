package commerce

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/sample.yaml
var sampleYAML []byte

// SampleDataset returns the embedded demo data.
func SampleDataset() (Dataset, error) {
	var d Dataset
	if err := yaml.Unmarshal(sampleYAML, &d); err != nil {
		return Dataset{}, fmt.Errorf("parse sample dataset: %w", err)
	}
	return d, nil
}
