package mesh

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
)

// LoadOBJ reads a Wavefront OBJ file. The mesh is named after the file.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New("opening obj file failed").
			WithTag("path", path).
			Wrap(err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ParseOBJ(name, f)
}

// ParseOBJ reads vertex and face records. Polygons are fan triangulated, negative
// indices count back from the last vertex and v/vt/vn tokens use the position index.
// Every other record is ignored.
func ParseOBJ(name string, r io.Reader) (*Mesh, error) {
	m := New(name, nil, nil)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseVertex(fields)
			if err != nil {
				return nil, errors.New("invalid vertex record").
					WithType(ErrTypeInvalidMesh).
					WithTag("mesh", name).
					WithTag("line", line).
					Wrap(err)
			}
			m.Vertices = append(m.Vertices, v)

		case "f":
			face, err := parseFace(fields, len(m.Vertices))
			if err != nil {
				return nil, errors.New("invalid face record").
					WithType(ErrTypeInvalidMesh).
					WithTag("mesh", name).
					WithTag("line", line).
					Wrap(err)
			}
			for i := 1; i+1 < len(face); i++ {
				m.Indices = append(m.Indices, face[0], face[i], face[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New("reading obj failed").
			WithTag("mesh", name).
			Wrap(err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func parseVertex(fields []string) (mgl64.Vec3, error) {
	if len(fields) < 4 {
		return mgl64.Vec3{}, errors.Newf("expected 3 coordinates, found %d", len(fields)-1)
	}

	var v mgl64.Vec3
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return mgl64.Vec3{}, err
		}
		v[i] = f
	}
	return v, nil
}

func parseFace(fields []string, vertexCount int) ([]uint32, error) {
	if len(fields) < 4 {
		return nil, errors.Newf("expected at least 3 face vertices, found %d", len(fields)-1)
	}

	face := make([]uint32, 0, len(fields)-1)
	for _, token := range fields[1:] {
		pos, _, _ := strings.Cut(token, "/")
		i, err := strconv.Atoi(pos)
		if err != nil {
			return nil, err
		}

		switch {
		case i > 0:
			i--
		case i < 0:
			i += vertexCount
		default:
			return nil, errors.New("vertex index 0")
		}
		if i < 0 || i >= vertexCount {
			return nil, errors.Newf("vertex index %s out of range", pos)
		}
		face = append(face, uint32(i))
	}
	return face, nil
}
