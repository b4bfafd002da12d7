package builder

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/o0olele/octree-voxel/geometry"
	"github.com/o0olele/octree-voxel/mesh"
	"github.com/o0olele/octree-voxel/octree"
)

// Save writes tree to filename behind a FileHeader.
func Save(tree *octree.Tree, filename string) error {
	var buf bytes.Buffer

	header := FileHeader{
		Magic:   FileMagic,
		Version: FileVersion,
	}
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		return errors.New("writing file header failed").Wrap(err)
	}
	if err := Encode(&buf, tree); err != nil {
		return err
	}

	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return errors.New("writing file failed").
			WithTag("filename", filename).
			Wrap(err)
	}
	return nil
}

// Load reads a tree saved by Save. Files without the magic are read as a bare stream.
func Load(filename string) (*octree.Tree, error) {
	data, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return nil, errors.New("file not found").
			WithType(ErrTypeNotFound).
			WithTag("filename", filename).
			Wrap(err)
	}
	if err != nil {
		return nil, errors.New("reading file failed").
			WithTag("filename", filename).
			Wrap(err)
	}

	tree, _, err := decodeFile(data)
	if err != nil {
		return nil, errors.New("loading tree failed").
			WithType(errors.Type(err)).
			WithTag("filename", filename).
			Wrap(err)
	}
	return tree, nil
}

// decodeFile returns the tree and the envelope version, 0 for a bare stream.
func decodeFile(data []byte) (*octree.Tree, uint32, error) {
	if len(data) < 8 || binary.LittleEndian.Uint32(data) != FileMagic {
		tree, err := Unmarshal(data)
		return tree, 0, err
	}

	version := binary.LittleEndian.Uint32(data[4:])
	if version != FileVersion {
		return nil, version, errors.New("unsupported file version").
			WithType(ErrTypeCorruptHeader).
			WithTag("version", version)
	}
	tree, err := Unmarshal(data[8:])
	return tree, version, err
}

// Stat loads filename and describes it.
func Stat(filename string) (FileInfo, error) {
	fi, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return FileInfo{}, errors.New("file not found").
			WithType(ErrTypeNotFound).
			WithTag("filename", filename).
			Wrap(err)
	}
	if err != nil {
		return FileInfo{}, errors.New("stat failed").
			WithTag("filename", filename).
			Wrap(err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return FileInfo{}, errors.New("reading file failed").
			WithTag("filename", filename).
			Wrap(err)
	}
	tree, version, err := decodeFile(data)
	if err != nil {
		return FileInfo{}, err
	}

	return FileInfo{
		Filename:  filename,
		FileSize:  fi.Size(),
		Version:   version,
		VoxelSize: tree.VoxelSize,
		Bounds:    tree.Bounds(),
		Stats:     tree.Stats(),
		ModTime:   fi.ModTime(),
	}, nil
}

// BuildConfig describes one build written to OutputFile.
type BuildConfig struct {
	Bounds     geometry.AABB `json:"bounds"`
	VoxelSize  float64       `json:"voxel_size"`
	MaxDepth   int           `json:"max_depth"`
	Parallel   bool          `json:"parallel"`
	Meshes     []*mesh.Mesh  `json:"meshes"`
	OBJFiles   []string      `json:"obj_files"`
	OutputFile string        `json:"output_file"`

	// Progress is called after each mesh of a sequential build.
	Progress func(done, total int) `json:"-"`
}

// BuildAndSave builds the tree described by config and saves it.
func BuildAndSave(ctx context.Context, config BuildConfig) (*octree.Tree, error) {
	b := NewBuilder(config.Bounds, config.VoxelSize, config.MaxDepth)
	b.SetParallel(config.Parallel)
	b.SetProgress(config.Progress)
	b.AddMesh(config.Meshes...)

	for _, filename := range config.OBJFiles {
		m, err := mesh.LoadOBJ(filename)
		if err != nil {
			return nil, err
		}
		b.AddMesh(m)
	}

	tree, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}
	if err := Save(tree, config.OutputFile); err != nil {
		return nil, err
	}
	return tree, nil
}

// BatchBuild runs every config in order and stops at the first failure.
func BatchBuild(ctx context.Context, configs []BuildConfig) error {
	for i, config := range configs {
		logs.WithTag("index", i).
			WithTag("output", config.OutputFile).
			Info("batch build")

		if _, err := BuildAndSave(ctx, config); err != nil {
			return errors.New("batch build failed").
				WithType(errors.Type(err)).
				WithTag("index", i).
				WithTag("output", config.OutputFile).
				Wrap(err)
		}
	}
	return nil
}
