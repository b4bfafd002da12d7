package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/o0olele/octree-voxel/builder"
	"github.com/o0olele/octree-voxel/geometry"
	"github.com/o0olele/octree-voxel/mesh"
	"github.com/o0olele/octree-voxel/octree"
	"github.com/o0olele/octree-voxel/voxel"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
)

func cubeMesh(name string, half float64) *mesh.Mesh {
	var vertices []mgl64.Vec3
	for i := 0; i < 8; i++ {
		v := mgl64.Vec3{-half, -half, -half}
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				v[axis] = half
			}
		}
		vertices = append(vertices, v)
	}
	return mesh.New(name, vertices, []uint32{
		0, 2, 3, 0, 3, 1,
		4, 5, 7, 4, 7, 6,
		0, 1, 5, 0, 5, 4,
		2, 6, 7, 2, 7, 3,
		0, 4, 6, 0, 6, 2,
		1, 3, 7, 1, 7, 5,
	})
}

func bounds(half float64) geometry.AABB {
	return geometry.AABB{
		Min: mgl64.Vec3{-half, -half, -half},
		Max: mgl64.Vec3{half, half, half},
	}
}

type testServer struct {
	*httptest.Server
	api *Server
	dir string
}

func newTestServer(t *testing.T) *testServer {
	dir := t.TempDir()
	s := NewServer(Config{DataDir: dir, MaxGridCells: 1 << 12})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, api: s, dir: dir}
}

func (s *testServer) do(t *testing.T, method, path string, body any, out any) int {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func (s *testServer) build(t *testing.T) TreeInfo {
	var info TreeInfo
	status := s.do(t, "POST", "/api/build", BuildRequest{
		Name:      "cube",
		Bounds:    bounds(2),
		VoxelSize: 0.25,
		MaxDepth:  4,
		Meshes:    []*mesh.Mesh{cubeMesh("cube", 0.5)},
	}, &info)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, info.ID)
	return info
}

func TestBuildAndQuery(t *testing.T) {
	s := newTestServer(t)
	info := s.build(t)
	require.Equal(t, "cube", info.Name)
	require.NotNil(t, info.Build)
	require.Equal(t, 12, info.Build.Triangles)
	require.Equal(t, bounds(2), info.Bounds)

	var got TreeInfo
	require.Equal(t, http.StatusOK, s.do(t, "GET", "/api/trees/"+info.ID, nil, &got))
	require.Equal(t, info.ID, got.ID)

	var list []TreeInfo
	require.Equal(t, http.StatusOK, s.do(t, "GET", "/api/trees", nil, &list))
	require.Len(t, list, 1)

	var classify ClassifyResponse
	require.Equal(t, http.StatusOK, s.do(t, "GET", "/api/trees/"+info.ID+"/classify?x=0&y=0&z=0", nil, &classify))
	require.Equal(t, octree.Solid, classify.State)

	require.Equal(t, http.StatusOK, s.do(t, "GET", "/api/trees/"+info.ID+"/classify?x=1.9&y=1.9&z=1.9", nil, &classify))
	require.Equal(t, octree.Empty, classify.State)

	var batch ClassifyBatchResponse
	status := s.do(t, "POST", "/api/trees/"+info.ID+"/classify", ClassifyBatchRequest{
		Points: []mgl64.Vec3{{0, 0, 0}, {1.9, 1.9, 1.9}, {9, 9, 9}},
	}, &batch)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []octree.VoxelState{octree.Solid, octree.Empty, octree.Empty}, batch.States)

	var ray RaycastResponse
	status = s.do(t, "POST", "/api/trees/"+info.ID+"/raycast", RaycastRequest{
		Origin:    mgl64.Vec3{-3, 0.1, 0.1},
		Direction: mgl64.Vec3{1, 0, 0},
	}, &ray)
	require.Equal(t, http.StatusOK, status)
	require.True(t, ray.Hit)
	require.GreaterOrEqual(t, ray.Ray.Distance, 2.0)
	require.LessOrEqual(t, ray.Ray.Distance, 2.5)

	status = s.do(t, "POST", "/api/trees/"+info.ID+"/raycast", RaycastRequest{
		Origin:    mgl64.Vec3{-3, 1.5, 1.5},
		Direction: mgl64.Vec3{1, 0, 0},
	}, &ray)
	require.Equal(t, http.StatusOK, status)
	require.False(t, ray.Hit)
	require.Nil(t, ray.Ray)

	var export octree.TreeExport
	require.Equal(t, http.StatusOK, s.do(t, "GET", "/api/trees/"+info.ID+"/octree", nil, &export))
	require.NotNil(t, export.Root)
	require.Equal(t, info.Stats, export.Stats)

	var grid voxel.VoxelGrid
	require.Equal(t, http.StatusOK, s.do(t, "GET", "/api/trees/"+info.ID+"/grid?step=0.5", nil, &grid))
	require.EqualValues(t, 8, grid.Size.X)
	require.Len(t, grid.States, 512)
	require.Equal(t, octree.Solid, grid.States[grid.Index(grid.WorldToVoxel(mgl64.Vec3{0.1, 0.1, 0.1}))])
}

func TestCarveSaveLoad(t *testing.T) {
	s := newTestServer(t)
	info := s.build(t)

	var carve CarveResponse
	status := s.do(t, "POST", "/api/trees/"+info.ID+"/carve", CarveRequest{
		Center: mgl64.Vec3{0, 0, 0},
		Radius: 0.3,
	}, &carve)
	require.Equal(t, http.StatusOK, status)
	require.Positive(t, carve.Changed)

	var classify ClassifyResponse
	s.do(t, "GET", "/api/trees/"+info.ID+"/classify?x=0&y=0&z=0", nil, &classify)
	require.Equal(t, octree.Empty, classify.State)

	solid := octree.Solid
	status = s.do(t, "POST", "/api/trees/"+info.ID+"/carve", CarveRequest{
		Center: mgl64.Vec3{1.625, 1.625, 1.625},
		Radius: 0.2,
		State:  &solid,
	}, &carve)
	require.Equal(t, http.StatusOK, status)
	s.do(t, "GET", "/api/trees/"+info.ID+"/classify?x=1.625&y=1.625&z=1.625", nil, &classify)
	require.Equal(t, octree.Solid, classify.State)

	var file builder.FileInfo
	status = s.do(t, "POST", "/api/trees/"+info.ID+"/save", SaveRequest{Filename: "../cube.voxo"}, &file)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "cube.voxo", file.Filename)
	require.Equal(t, builder.FileVersion, file.Version)
	require.FileExists(t, filepath.Join(s.dir, "cube.voxo"))

	require.Equal(t, http.StatusOK, s.do(t, "GET", "/api/files/info?filename=cube.voxo", nil, &file))
	require.Equal(t, carve.Stats, file.Stats)

	var loaded TreeInfo
	status = s.do(t, "POST", "/api/load", LoadRequest{Filename: "cube.voxo"}, &loaded)
	require.Equal(t, http.StatusCreated, status)
	require.NotEqual(t, info.ID, loaded.ID)
	require.Equal(t, "cube.voxo", loaded.Name)
	require.Nil(t, loaded.Build)
	require.Equal(t, carve.Stats, loaded.Stats)
	require.Equal(t, info.MaxDepth, loaded.MaxDepth)
	require.Equal(t, info.VoxelSize, loaded.VoxelSize)

	s.do(t, "GET", "/api/trees/"+loaded.ID+"/classify?x=0&y=0&z=0", nil, &classify)
	require.Equal(t, octree.Empty, classify.State)

	require.Equal(t, http.StatusNoContent, s.do(t, "DELETE", "/api/trees/"+info.ID, nil, nil))

	var errRes ErrorResponse
	require.Equal(t, http.StatusNotFound, s.do(t, "GET", "/api/trees/"+info.ID, nil, &errRes))
	require.Equal(t, builder.ErrTypeNotFound, errRes.Type)
}

func TestBuildOBJ(t *testing.T) {
	s := newTestServer(t)

	var info TreeInfo
	status := s.do(t, "POST", "/api/build", BuildRequest{
		VoxelSize: 0.1,
		MaxDepth:  3,
		Parallel:  true,
		Workers:   2,
		OBJ: []OBJSource{{
			Name: "tetra",
			Data: "v 0 0 0\nv 1 0 0\nv 0 1 0\nv 0 0 1\nf 1 3 2\nf 1 2 4\nf 1 4 3\nf 2 3 4\n",
		}},
	}, &info)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, 4, info.Build.Triangles)
	require.InDelta(t, 1.0, info.Bounds.Size()[0], 1e-9)
	require.True(t, info.Bounds.Center().ApproxEqual(mgl64.Vec3{0.5, 0.5, 0.5}))
}

func TestErrors(t *testing.T) {
	s := newTestServer(t)
	info := s.build(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, "garbage.voxo"), []byte{1, 2, 3}, 0644))
	deep := s.api.Registry().Add("deep", octree.New(bounds(1), 1.0/(1<<16), 16), nil)

	tests := []struct {
		name    string
		method  string
		path    string
		body    any
		status  int
		errType string
	}{
		{
			name:   "invalid depth",
			method: "POST", path: "/api/build",
			body:   BuildRequest{Bounds: bounds(1), VoxelSize: 0.1, MaxDepth: 0},
			status: http.StatusBadRequest, errType: builder.ErrTypeInvalidConfig,
		},
		{
			name:   "depth over limit",
			method: "POST", path: "/api/build",
			body:   BuildRequest{Bounds: bounds(1), VoxelSize: 0.1, MaxDepth: DefaultMaxDepth + 1},
			status: http.StatusBadRequest, errType: builder.ErrTypeInvalidConfig,
		},
		{
			name:   "carve too deep",
			method: "POST", path: "/api/trees/" + deep.ID + "/carve",
			body:   CarveRequest{Radius: 0.5},
			status: http.StatusBadRequest, errType: builder.ErrTypeInvalidConfig,
		},
		{
			name:   "invalid mesh",
			method: "POST", path: "/api/build",
			body: BuildRequest{
				Bounds: bounds(1), VoxelSize: 0.1, MaxDepth: 3,
				Meshes: []*mesh.Mesh{mesh.New("bad", []mgl64.Vec3{{0, 0, 0}}, []uint32{0, 1, 2})},
			},
			status: http.StatusBadRequest, errType: builder.ErrTypeInvalidMesh,
		},
		{
			name:   "invalid obj",
			method: "POST", path: "/api/build",
			body: BuildRequest{
				Bounds: bounds(1), VoxelSize: 0.1, MaxDepth: 3,
				OBJ: []OBJSource{{Name: "bad", Data: "v 0 0\n"}},
			},
			status: http.StatusBadRequest, errType: builder.ErrTypeInvalidMesh,
		},
		{
			name:   "invalid classifier",
			method: "POST", path: "/api/build",
			body:   BuildRequest{Bounds: bounds(1), VoxelSize: 0.1, MaxDepth: 3, TouchDistance: -1},
			status: http.StatusBadRequest, errType: builder.ErrTypeInvalidConfig,
		},
		{
			name:   "invalid json",
			method: "POST", path: "/api/build",
			body:   "{",
			status: http.StatusBadRequest, errType: builder.ErrTypeInvalidConfig,
		},
		{
			name:   "missing coordinate",
			method: "GET", path: "/api/trees/" + info.ID + "/classify?x=1&y=2",
			status: http.StatusBadRequest, errType: builder.ErrTypeInvalidConfig,
		},
		{
			name:   "unknown tree",
			method: "GET", path: "/api/trees/nope/classify?x=0&y=0&z=0",
			status: http.StatusNotFound, errType: builder.ErrTypeNotFound,
		},
		{
			name:   "carve without radius",
			method: "POST", path: "/api/trees/" + info.ID + "/carve",
			body:   CarveRequest{},
			status: http.StatusBadRequest, errType: builder.ErrTypeInvalidConfig,
		},
		{
			name:   "grid too large",
			method: "GET", path: "/api/trees/" + info.ID + "/grid?step=0.01",
			status: http.StatusBadRequest, errType: builder.ErrTypeInvalidConfig,
		},
		{
			name:   "invalid step",
			method: "GET", path: "/api/trees/" + info.ID + "/grid?step=abc",
			status: http.StatusBadRequest, errType: builder.ErrTypeInvalidConfig,
		},
		{
			name:   "load missing file",
			method: "POST", path: "/api/load",
			body:   LoadRequest{Filename: "missing.voxo"},
			status: http.StatusNotFound, errType: builder.ErrTypeNotFound,
		},
		{
			name:   "load corrupt file",
			method: "POST", path: "/api/load",
			body:   LoadRequest{Filename: "garbage.voxo"},
			status: http.StatusBadRequest, errType: builder.ErrTypeTruncatedStream,
		},
		{
			name:   "save without filename",
			method: "POST", path: "/api/trees/" + info.ID + "/save",
			body:   SaveRequest{},
			status: http.StatusBadRequest, errType: builder.ErrTypeInvalidConfig,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var res ErrorResponse
			require.Equal(t, test.status, s.do(t, test.method, test.path, test.body, &res))
			require.Equal(t, test.errType, res.Type)
			require.NotEmpty(t, res.Error)
		})
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)

	req, err := http.NewRequest("OPTIONS", s.URL+"/api/build", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsPathFormatter(t *testing.T) {
	tests := []struct {
		status   int
		path     string
		expected string
	}{
		{http.StatusOK, "/api/build", "/api/build"},
		{http.StatusOK, "/api/trees", "/api/trees"},
		{http.StatusOK, "/api/trees/abc", "/api/trees/{id}"},
		{http.StatusOK, "/api/trees/abc/classify", "/api/trees/{id}/classify"},
		{http.StatusNotFound, "/api/trees/abc", ""},
		{http.StatusBadRequest, "/api/build", ""},
		{http.StatusMethodNotAllowed, "/api/build", ""},
	}

	for _, test := range tests {
		t.Run(test.path, func(t *testing.T) {
			require.Equal(t, test.expected, MetricsPathFormatter(test.status, test.path))
		})
	}
}

func TestContentKey(t *testing.T) {
	a := withContentKey(cubeMesh("cube", 0.5))
	b := withContentKey(cubeMesh("cube", 0.5))
	c := withContentKey(cubeMesh("cube", 0.6))

	require.Equal(t, a.Name, b.Name)
	require.NotEqual(t, a.Name, c.Name)
	require.Contains(t, a.Name, "cube#")

	unnamed := cubeMesh("", 0.5)
	require.Same(t, unnamed, withContentKey(unnamed))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	first := r.Add("a", octree.New(bounds(1), 0.5, 2), nil)
	second := r.Add("b", octree.New(bounds(1), 0.5, 2), nil)
	require.Equal(t, 2, r.Len())

	list := r.List()
	require.Len(t, list, 2)
	require.ElementsMatch(t, []string{first.ID, second.ID}, []string{list[0].ID, list[1].ID})

	err := r.Write(first.ID, func(tree *octree.Tree) error {
		tree.Paint(mgl64.Vec3{}, 0.4, octree.Solid)
		return nil
	})
	require.NoError(t, err)

	info, err := r.Info(first.ID)
	require.NoError(t, err)
	require.Positive(t, info.Stats.Solid)

	require.NoError(t, r.Delete(first.ID))
	require.Error(t, r.Delete(first.ID))
	require.Equal(t, 1, r.Len())
}
