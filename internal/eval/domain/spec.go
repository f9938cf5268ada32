package domain

import (
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/faisalx96/llm-eval-sub000/internal/common/evalerrors"
)

// TargetSpec is one model/configuration variant of a JobSpec. A spec with
// several targets expands into one job per target before scheduling.
type TargetSpec struct {
	Name   string                 `yaml:"name"`
	Model  string                 `yaml:"model"`
	Params map[string]interface{} `yaml:"params"`
}

// JobSpec is the declarative input to the coordinator. It is immutable after
// construction. The dataset may be referenced by name, to be resolved once
// and shared, or items may be given inline.
type JobSpec struct {
	Name    string `yaml:"name"`
	Dataset string `yaml:"dataset"`
	// Inline items, used when no dataset reference is given.
	Items   []Item       `yaml:"items"`
	Metrics []string     `yaml:"metrics"`
	Targets []TargetSpec `yaml:"targets"`
	// Free-form options, decoded into Options.
	Options map[string]interface{} `yaml:"options"`
}

func (s *JobSpec) Validate() error {
	if s.Name == "" {
		return errors.WithStack(&evalerrors.ErrInvalidArgument{
			Name:    "Name",
			Value:   s.Name,
			Message: "not provided",
		})
	}
	if s.Dataset == "" && len(s.Items) == 0 {
		return errors.WithStack(&evalerrors.ErrInvalidArgument{
			Name:    "Dataset",
			Value:   s.Dataset,
			Message: "either a dataset reference or inline items must be provided",
		})
	}
	if len(s.Metrics) == 0 {
		return errors.WithStack(&evalerrors.ErrInvalidArgument{
			Name:    "Metrics",
			Value:   s.Metrics,
			Message: "no metrics provided",
		})
	}
	return nil
}

// DecodeOptions decodes the spec's free-form options map into typed Options,
// filling in defaults. Duration fields accept strings such as "30s".
func (s *JobSpec) DecodeOptions() (Options, error) {
	opts := DefaultOptions()
	if len(s.Options) == 0 {
		return opts, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &opts,
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return opts, errors.WithStack(err)
	}
	if err := decoder.Decode(s.Options); err != nil {
		return opts, errors.Wrapf(err, "invalid options for job spec %q", s.Name)
	}
	return opts, nil
}

// SpecFile is the on-disk shape of a batch of job specs.
type SpecFile struct {
	Specs []*JobSpec `yaml:"specs"`
}

// LoadSpecsFile reads a yaml spec file from disk.
func LoadSpecsFile(path string) ([]*JobSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read spec file %s", path)
	}
	var file SpecFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(err, "failed to parse spec file %s", path)
	}
	if len(file.Specs) == 0 {
		return nil, errors.WithStack(&evalerrors.ErrInvalidArgument{
			Name:    "Specs",
			Value:   path,
			Message: "no job specs found",
		})
	}
	for _, spec := range file.Specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
	}
	return file.Specs, nil
}
