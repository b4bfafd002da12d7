// Package api serves octree builds and queries over HTTP.
package api

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/mux"
	"github.com/o0olele/octree-voxel/builder"
	"github.com/o0olele/octree-voxel/mesh"
	"github.com/o0olele/octree-voxel/octree"
	"github.com/o0olele/octree-voxel/query"
	"github.com/o0olele/octree-voxel/voxel"
	"github.com/rs/cors"
	"github.com/segmentio/encoding/json"
)

const (
	DefaultMaxGridCells = 1 << 21
	DefaultMaxDepth     = 12
	DefaultMaxBodySize  = 64 << 20
)

// Config configures a Server.
type Config struct {
	// DataDir is where trees are saved to and loaded from.
	DataDir       string
	MeshCacheSize int
	MaxGridCells  int
	// MaxDepth caps the depth of built trees and of trees carved through the API.
	MaxDepth    int
	MaxBodySize int64
	// Workers is the default worker count of parallel builds.
	Workers int
}

// Server is the HTTP API. It keeps built and loaded trees in memory.
type Server struct {
	config   Config
	registry *Registry
	cache    *mesh.Cache
	router   *mux.Router
}

func NewServer(config Config) *Server {
	if config.DataDir == "" {
		config.DataDir = "."
	}
	if config.MeshCacheSize <= 0 {
		config.MeshCacheSize = mesh.DefaultCacheSize
	}
	if config.MaxGridCells <= 0 {
		config.MaxGridCells = DefaultMaxGridCells
	}
	if config.MaxDepth <= 0 {
		config.MaxDepth = DefaultMaxDepth
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}

	s := &Server{
		config:   config,
		registry: NewRegistry(),
		cache:    mesh.NewCache(config.MeshCacheSize),
		router:   mux.NewRouter(),
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/build", s.handleBuild).Methods("POST")
	api.HandleFunc("/load", s.handleLoad).Methods("POST")
	api.HandleFunc("/files/info", s.handleFileInfo).Methods("GET")
	api.HandleFunc("/trees", s.handleListTrees).Methods("GET")
	api.HandleFunc("/trees/{id}", s.handleGetTree).Methods("GET")
	api.HandleFunc("/trees/{id}", s.handleDeleteTree).Methods("DELETE")
	api.HandleFunc("/trees/{id}/octree", s.handleOctree).Methods("GET")
	api.HandleFunc("/trees/{id}/classify", s.handleClassify).Methods("GET")
	api.HandleFunc("/trees/{id}/classify", s.handleClassifyBatch).Methods("POST")
	api.HandleFunc("/trees/{id}/raycast", s.handleRaycast).Methods("POST")
	api.HandleFunc("/trees/{id}/carve", s.handleCarve).Methods("POST")
	api.HandleFunc("/trees/{id}/grid", s.handleGrid).Methods("GET")
	api.HandleFunc("/trees/{id}/save", s.handleSave).Methods("POST")
	return s
}

func (s *Server) Registry() *Registry {
	return s.registry
}

// Handler returns the router wrapped with CORS.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(s.router)
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if req.MaxDepth > s.config.MaxDepth {
		writeError(w, errors.New("max depth over server limit").
			WithType(builder.ErrTypeInvalidConfig).
			WithTag("max_depth", req.MaxDepth).
			WithTag("limit", s.config.MaxDepth))
		return
	}

	classifier, err := newClassifier(req)
	if err != nil {
		writeError(w, err)
		return
	}

	workers := req.Workers
	if workers == 0 {
		workers = s.config.Workers
	}

	b := builder.NewBuilder(req.Bounds, req.VoxelSize, req.MaxDepth).
		SetParallel(req.Parallel).
		SetWorkers(workers).
		SetClassifier(classifier).
		SetMeshCache(s.cache)

	for _, m := range req.Meshes {
		if m != nil {
			b.AddMesh(withContentKey(m))
		}
	}
	for _, src := range req.OBJ {
		m, err := mesh.ParseOBJ(src.Name, strings.NewReader(src.Data))
		if err != nil {
			writeError(w, err)
			return
		}
		b.AddMesh(withContentKey(m))
	}

	tree, err := b.Build(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	stats := b.Stats()
	writeJSON(w, http.StatusCreated, s.registry.Add(req.Name, tree, &stats))
}

func newClassifier(req BuildRequest) (*voxel.Classifier, error) {
	var opts []voxel.ClassifierOption
	if req.Touching != nil {
		opts = append(opts, voxel.WithTouching(*req.Touching))
	}
	if req.TouchDistance != 0 {
		opts = append(opts, voxel.WithTouchDistance(req.TouchDistance))
	}
	if req.Coarse {
		opts = append(opts, voxel.WithCoarse(true))
	}
	return voxel.NewClassifier(opts...)
}

func (s *Server) handleListTrees(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	info, err := s.registry.Info(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteTree(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Delete(mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOctree(w http.ResponseWriter, r *http.Request) {
	var data []byte
	err := s.registry.Read(mux.Vars(r)["id"], func(tree *octree.Tree) error {
		var err error
		data, err = tree.ToJSON()
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	point, err := parsePoint(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var res ClassifyResponse
	err = s.registry.Read(mux.Vars(r)["id"], func(tree *octree.Tree) error {
		res = ClassifyResponse{
			Point: point,
			State: tree.Classify(point),
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClassifyBatch(w http.ResponseWriter, r *http.Request) {
	var req ClassifyBatchRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	var res ClassifyBatchResponse
	err := s.registry.Read(mux.Vars(r)["id"], func(tree *octree.Tree) error {
		q, err := query.NewVoxelQuery(tree)
		if err != nil {
			return err
		}
		res.States, err = q.ClassifyBatch(r.Context(), req.Points)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRaycast(w http.ResponseWriter, r *http.Request) {
	var req RaycastRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	var res RaycastResponse
	err := s.registry.Read(mux.Vars(r)["id"], func(tree *octree.Tree) error {
		q, err := query.NewVoxelQuery(tree)
		if err != nil {
			return err
		}
		if hit, ok := q.Raycast(req.Origin, req.Direction, req.MaxDistance); ok {
			res = RaycastResponse{Hit: true, Ray: &hit}
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCarve(w http.ResponseWriter, r *http.Request) {
	var req CarveRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if !(req.Radius > 0) {
		writeError(w, errors.New("radius must be positive").
			WithType(builder.ErrTypeInvalidConfig).
			WithTag("radius", req.Radius))
		return
	}
	state := octree.Empty
	if req.State != nil {
		state = *req.State
	}
	if !state.Valid() {
		writeError(w, errors.New("invalid state").
			WithType(builder.ErrTypeInvalidConfig).
			WithTag("state", uint8(state)))
		return
	}

	var res CarveResponse
	err := s.registry.Write(mux.Vars(r)["id"], func(tree *octree.Tree) error {
		if tree.MaxDepth > s.config.MaxDepth {
			return errors.New("tree too deep to carve").
				WithType(builder.ErrTypeInvalidConfig).
				WithTag("max_depth", tree.MaxDepth).
				WithTag("limit", s.config.MaxDepth)
		}
		res.Changed = tree.Paint(req.Center, req.Radius, state)
		res.Stats = tree.Stats()
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	var step float64
	if v := r.URL.Query().Get("step"); v != "" {
		var err error
		if step, err = strconv.ParseFloat(v, 64); err != nil {
			writeError(w, errors.New("invalid step").
				WithType(builder.ErrTypeInvalidConfig).
				WithTag("step", v).
				Wrap(err))
			return
		}
	}

	var grid *voxel.VoxelGrid
	err := s.registry.Read(mux.Vars(r)["id"], func(tree *octree.Tree) error {
		if step == 0 {
			step = tree.VoxelSize
		}
		if step > 0 {
			size := tree.Bounds().Size().Mul(1 / step)
			if cells := size[0] * size[1] * size[2]; cells > float64(s.config.MaxGridCells) {
				return errors.New("grid too large").
					WithType(builder.ErrTypeInvalidConfig).
					WithTag("cells", cells).
					WithTag("max", s.config.MaxGridCells)
			}
		}

		var err error
		grid, err = voxel.Sample(tree, tree.Bounds(), step)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	filename, err := s.path(req.Filename)
	if err != nil {
		writeError(w, err)
		return
	}

	err = s.registry.Read(mux.Vars(r)["id"], func(tree *octree.Tree) error {
		return builder.Save(tree, filename)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	info, err := builder.Stat(filename)
	if err != nil {
		writeError(w, err)
		return
	}
	info.Filename = filepath.Base(filename)
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	filename, err := s.path(req.Filename)
	if err != nil {
		writeError(w, err)
		return
	}

	tree, err := builder.Load(filename)
	if err != nil {
		writeError(w, err)
		return
	}

	name := req.Name
	if name == "" {
		name = filepath.Base(filename)
	}
	info := s.registry.Add(name, tree, nil)

	logs.WithTag("id", info.ID).
		WithTag("filename", filename).
		WithTag("nodes", info.Stats.Nodes).
		Info("tree loaded")
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleFileInfo(w http.ResponseWriter, r *http.Request) {
	filename, err := s.path(r.URL.Query().Get("filename"))
	if err != nil {
		writeError(w, err)
		return
	}

	info, err := builder.Stat(filename)
	if err != nil {
		writeError(w, err)
		return
	}
	info.Filename = filepath.Base(filename)
	writeJSON(w, http.StatusOK, info)
}

// path resolves a client filename inside the data directory.
func (s *Server) path(filename string) (string, error) {
	base := filepath.Base(filename)
	if filename == "" || base == "." || base == ".." || base == string(filepath.Separator) {
		return "", errors.New("invalid filename").
			WithType(builder.ErrTypeInvalidConfig).
			WithTag("filename", filename)
	}
	return filepath.Join(s.config.DataDir, base), nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.New("invalid JSON").
			WithType(builder.ErrTypeInvalidConfig).
			Wrap(err)
	}
	return nil
}

func parsePoint(r *http.Request) (mgl64.Vec3, error) {
	var p mgl64.Vec3
	for i, name := range []string{"x", "y", "z"} {
		v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
		if err != nil {
			return p, errors.Newf("invalid %s coordinate", name).
				WithType(builder.ErrTypeInvalidConfig).
				Wrap(err)
		}
		p[i] = v
	}
	return p, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logs.Warn(errors.New("writing response failed").Wrap(err))
	}
}

func statusCode(err error) int {
	if builder.IsCorruptData(err) {
		return http.StatusBadRequest
	}
	switch errors.Type(err) {
	case builder.ErrTypeInvalidConfig, builder.ErrTypeInvalidMesh:
		return http.StatusBadRequest
	case builder.ErrTypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusCode(err)
	if status == http.StatusInternalServerError {
		logs.Warn(err)
	}
	writeJSON(w, status, ErrorResponse{
		Error: err.Error(),
		Type:  errors.Type(err),
	})
}
