package loaders

import (
	"github.com/pkg/errors"
)

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic uint32 = 0x07230203

var ErrInvalidSPIRV = errors.New("invalid SPIR-V module")

type ShaderLoader struct{}

// Load reads a compiled shader. The resource data is the module as []uint32.
func (sl *ShaderLoader) Load(path string, params interface{}) (*Resource, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	code, err := BytesToBytecode(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return &Resource{
		Name:     resourceName(path, params),
		FullPath: path,
		DataSize: uint64(len(data)),
		Type:     ResourceTypeShader,
		Data:     code,
	}, nil
}

func (sl *ShaderLoader) Unload(res *Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}

// BytesToBytecode converts little endian bytes to SPIR-V words.
func BytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Wrapf(ErrInvalidSPIRV, "size %d is not a multiple of 4", len(b))
	}
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}
	if byteCode[0] != SPIRVMagic {
		return nil, errors.Wrapf(ErrInvalidSPIRV, "bad magic 0x%08x", byteCode[0])
	}
	return byteCode, nil
}
