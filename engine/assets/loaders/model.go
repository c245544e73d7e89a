package loaders

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ModelVertex matches the renderer vertex layout.
type ModelVertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Color    mgl32.Vec3
}

// Model is a triangle list read from an OBJ file.
type Model struct {
	Name     string
	Vertices []ModelVertex
}

type ModelLoader struct{}

func (ml *ModelLoader) Load(path string, params interface{}) (*Resource, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	model, err := ParseOBJ(path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	model.Name = resourceName(path, params)
	return &Resource{
		Name:     model.Name,
		FullPath: path,
		DataSize: uint64(len(data)),
		Type:     ResourceTypeModel,
		Data:     model,
	}, nil
}

func (ml *ModelLoader) Unload(res *Resource) error {
	res.Data = nil
	return nil
}

// ParseOBJ reads positions, normals and faces. Polygons are triangulated as
// fans and the vertex color is the normal. Texture coordinates are accepted
// but not kept. name is only used in error messages.
func ParseOBJ(name string, r io.Reader) (*Model, error) {
	var (
		positions []mgl32.Vec3
		normals   []mgl32.Vec3
		texCount  int
		model     = &Model{}
	)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseVec3(fields[1:])
			if err != nil {
				return nil, errors.Wrapf(err, "%s:%d", name, line)
			}
			positions = append(positions, v)
		case "vn":
			n, err := parseVec3(fields[1:])
			if err != nil {
				return nil, errors.Wrapf(err, "%s:%d", name, line)
			}
			normals = append(normals, n)
		case "vt":
			texCount++
		case "f":
			if len(fields) < 4 {
				return nil, errors.Errorf("%s:%d: face needs at least 3 vertices, got %d", name, line, len(fields)-1)
			}
			face := make([]ModelVertex, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				v, err := faceVertex(ref, positions, normals, texCount)
				if err != nil {
					return nil, errors.Wrapf(err, "%s:%d", name, line)
				}
				face = append(face, v)
			}
			for i := 1; i+1 < len(face); i++ {
				model.Vertices = append(model.Vertices, face[0], face[i], face[i+1])
			}
		default:
			// o, g, s, mtllib and usemtl carry nothing the renderer uses.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", name)
	}
	return model, nil
}

func parseVec3(fields []string) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	if len(fields) < 3 {
		return v, errors.Errorf("expected 3 components, got %d", len(fields))
	}
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return v, errors.Wrapf(err, "component %d", i)
		}
		v[i] = float32(f)
	}
	return v, nil
}

// faceVertex resolves one of the p, p/t, p//n or p/t/n forms.
func faceVertex(ref string, positions, normals []mgl32.Vec3, texCount int) (ModelVertex, error) {
	var v ModelVertex
	parts := strings.Split(ref, "/")
	if len(parts) > 3 {
		return v, errors.Errorf("malformed face vertex %q", ref)
	}

	p, err := resolveIndex(parts[0], len(positions))
	if err != nil {
		return v, errors.Wrapf(err, "position of %q", ref)
	}
	v.Position = positions[p]

	if len(parts) > 1 && parts[1] != "" {
		if _, err := resolveIndex(parts[1], texCount); err != nil {
			return v, errors.Wrapf(err, "texture coordinate of %q", ref)
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		n, err := resolveIndex(parts[2], len(normals))
		if err != nil {
			return v, errors.Wrapf(err, "normal of %q", ref)
		}
		v.Normal = normals[n]
	}
	v.Color = v.Normal
	return v, nil
}

// resolveIndex turns a 1-based or negative (relative to the end) OBJ index
// into a slice index.
func resolveIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(err, "bad index %q", s)
	}
	switch {
	case i > 0 && i <= count:
		return i - 1, nil
	case i < 0 && -i <= count:
		return count + i, nil
	}
	return 0, errors.Errorf("index %d out of range (%d defined)", i, count)
}
