package datasource

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/faisalx96/llm-eval-sub000/internal/common/evalerrors"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/domain"
)

// FileResolver resolves dataset names to yaml files in a directory,
// name "foo" mapping to <dir>/foo.yaml.
type FileResolver struct {
	Dir string
}

func NewFileResolver(dir string) *FileResolver {
	return &FileResolver{Dir: dir}
}

type datasetFile struct {
	Items []domain.Item `yaml:"items"`
}

func (r *FileResolver) Resolve(_ context.Context, name string) (*Handle, error) {
	path := filepath.Join(r.Dir, name+".yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.WithStack(&evalerrors.ErrNotFound{
			Type:    "dataset",
			Value:   name,
			Message: "no file " + path,
		})
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to read dataset %s", path)
	}
	var file datasetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(err, "failed to parse dataset %s", path)
	}
	if len(file.Items) == 0 {
		return nil, errors.WithStack(&evalerrors.ErrInvalidArgument{
			Name:    "dataset",
			Value:   name,
			Message: "dataset is empty",
		})
	}
	return NewHandle(name, file.Items), nil
}
