package loaders

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type BinaryLoader struct{}

func (bl *BinaryLoader) Load(path string, params interface{}) (*Resource, error) {
	buf, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return &Resource{
		Name:     resourceName(path, params),
		FullPath: path,
		DataSize: uint64(len(buf)),
		Type:     ResourceTypeBinary,
		Data:     buf,
	}, nil
}

func (bl *BinaryLoader) Unload(res *Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return buf, nil
}

// resourceName takes the name from params when the caller passed one, the
// file name otherwise.
func resourceName(path string, params interface{}) string {
	if p, ok := params.(map[string]string); ok && p["name"] != "" {
		return p["name"]
	}
	return filepath.Base(path)
}
