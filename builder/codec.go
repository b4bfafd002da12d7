package builder

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/o0olele/octree-voxel/geometry"
	"github.com/o0olele/octree-voxel/octree"
)

const (
	directionEncode = "encode"
	directionDecode = "decode"
)

// WriteHeader writes the voxel size and the root cube of tree.
func WriteHeader(w io.Writer, tree *octree.Tree) error {
	bounds := tree.Bounds()
	center := bounds.Center()
	h := streamHeader{
		VoxelSize: float32(tree.VoxelSize),
		CenterX:   float32(center[0]),
		CenterY:   float32(center[1]),
		CenterZ:   float32(center[2]),
		CubeSize:  float32(bounds.Size()[0]),
	}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return errors.New("writing header failed").Wrap(err)
	}
	return nil
}

// WriteNode writes node and its subtree in pre-order.
func WriteNode(w io.Writer, node *octree.Node) error {
	var leaf byte
	if node.IsLeaf() {
		leaf = 1
	}
	if _, err := w.Write([]byte{leaf, byte(node.State)}); err != nil {
		return errors.New("writing node failed").Wrap(err)
	}
	if node.IsLeaf() {
		return nil
	}
	for i := range node.Children {
		if err := WriteNode(w, &node.Children[i]); err != nil {
			return err
		}
	}
	return nil
}

// Encode writes tree to w.
func Encode(w io.Writer, tree *octree.Tree) error {
	if tree == nil || tree.Root == nil {
		return errors.New("nil tree").WithType(ErrTypeInvalidConfig)
	}

	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)
	if err := WriteHeader(bw, tree); err != nil {
		return err
	}
	if err := WriteNode(bw, tree.Root); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return errors.New("flushing stream failed").Wrap(err)
	}

	instrumentCodecBytes(directionEncode, cw.n)
	return nil
}

// Decode reads a tree written by Encode. Any error discards the whole tree.
func Decode(r io.Reader) (*octree.Tree, error) {
	d := decoder{r: bufio.NewReader(r)}
	tree, err := d.decode()
	instrumentCodecBytes(directionDecode, d.n)
	if err != nil {
		instrumentCodecError(err)
		return nil, err
	}
	return tree, nil
}

// Marshal encodes tree into a byte slice.
func Marshal(tree *octree.Tree) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a tree from data.
func Unmarshal(data []byte) (*octree.Tree, error) {
	return Decode(bytes.NewReader(data))
}

type decoder struct {
	r     *bufio.Reader
	n     int64
	buf   [2]byte
	depth int
}

func (d *decoder) decode() (*octree.Tree, error) {
	var h streamHeader
	if err := binary.Read(d.r, binary.LittleEndian, &h); err != nil {
		return nil, truncated("header", 0, err)
	}
	d.n += int64(binary.Size(h))

	if !validDimension(h.CubeSize) {
		return nil, errors.New("invalid cube size").
			WithType(ErrTypeCorruptHeader).
			WithTag("cube_size", h.CubeSize)
	}
	if !validDimension(h.VoxelSize) {
		return nil, errors.New("invalid voxel size").
			WithType(ErrTypeCorruptHeader).
			WithTag("voxel_size", h.VoxelSize)
	}
	center := mgl64.Vec3{float64(h.CenterX), float64(h.CenterY), float64(h.CenterZ)}
	for _, c := range center {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, errors.New("invalid center").
				WithType(ErrTypeCorruptHeader).
				WithTag("center", center)
		}
	}

	size := float64(h.CubeSize)
	root := octree.NewNode(geometry.FromCenterSize(center, mgl64.Vec3{size, size, size}))
	if err := d.readNode(root, 0); err != nil {
		return nil, err
	}
	return &octree.Tree{
		Root:      root,
		VoxelSize: float64(h.VoxelSize),
		MaxDepth:  decodedDepth(size, float64(h.VoxelSize), d.depth),
	}, nil
}

func (d *decoder) readNode(node *octree.Node, depth int) error {
	n, err := io.ReadFull(d.r, d.buf[:])
	d.n += int64(n)
	if err != nil {
		return truncated("node", depth, err)
	}

	leaf, state := d.buf[0], octree.VoxelState(d.buf[1])
	if leaf > 1 {
		return errors.New("invalid leaf flag").
			WithType(ErrTypeCorruptData).
			WithTag("flag", leaf).
			WithTag("depth", depth)
	}
	if !state.Valid() {
		return errors.New("unknown state").
			WithType(ErrTypeCorruptData).
			WithTag("state", uint8(state)).
			WithTag("depth", depth)
	}

	node.State = state
	if leaf == 1 {
		d.depth = max(d.depth, depth)
		return nil
	}
	if depth >= octree.MaxStreamDepth {
		return errors.New("tree too deep").
			WithType(ErrTypeCorruptData).
			WithTag("max_depth", octree.MaxStreamDepth)
	}

	node.Split()
	for i := range node.Children {
		if err := d.readNode(&node.Children[i], depth+1); err != nil {
			return err
		}
	}
	return nil
}

// decodedDepth is the depth at which leaves reach the voxel size, never less
// than the deepest leaf in the stream and never more than MaxDepth.
func decodedDepth(cubeSize, voxelSize float64, deepest int) int {
	depth := 0
	if r := math.Round(math.Log2(cubeSize / voxelSize)); r > 0 {
		depth = int(math.Min(r, MaxDepth))
	}
	return min(max(depth, deepest), MaxDepth)
}

func truncated(part string, depth int, err error) error {
	return errors.New("unexpected end of stream").
		WithType(ErrTypeTruncatedStream).
		WithTag("part", part).
		WithTag("depth", depth).
		Wrap(err)
}

func validDimension(v float32) bool {
	f := float64(v)
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
