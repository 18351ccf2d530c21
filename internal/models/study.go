package models

import (
	"path/filepath"
	"strings"
)

// ModelType classifies a 3D asset by its file extension
type ModelType string

const (
	ModelTypeMeshSurface      ModelType = "mesh-surface"        // .stl
	ModelTypePointCloudOrMesh ModelType = "point-cloud-or-mesh" // .ply
	ModelTypeGaussianSplat    ModelType = "gaussian-splat"      // .splat, .ksplat
)

// SplatRotationX compensates for the splat renderer's flipped Y-up convention.
const SplatRotationX = 3.14159

// SplatScale is the uniform default scale applied to splat scenes.
const SplatScale = 10

// Vec3 is an [x, y, z] triple, serialized as a JSON array
type Vec3 [3]float64

// StudySummary is a study entry in the study listing
type StudySummary struct {
	ID         string `json:"id" example:"case-001"`
	Name       string `json:"name" example:"case-001"`
	Path       string `json:"path" example:"/samples/case-001"`
	ModelCount int    `json:"modelCount" example:"2"`
}

// Study is the full study detail returned to viewers
type Study struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Models      []Model      `json:"models"`
	Annotations []Annotation `json:"annotations"`
	Videos      []Video      `json:"videos"`
}

// Model is one mesh, point cloud or splat asset inside a study
type Model struct {
	ID       string    `json:"id" example:"molar.stl"`
	Name     string    `json:"name" example:"molar.stl"`
	URL      string    `json:"url" example:"http://192.168.1.20:3001/samples/case-001/molar.stl"`
	Type     ModelType `json:"type" example:"mesh-surface"`
	Opacity  float64   `json:"opacity" example:"1"`
	Visible  bool      `json:"visible" example:"true"`
	Position Vec3      `json:"position"`
	Rotation Vec3      `json:"rotation"`
	Scale    Vec3      `json:"scale"`
}

var modelExtensions = map[string]ModelType{
	".stl":    ModelTypeMeshSurface,
	".ply":    ModelTypePointCloudOrMesh,
	".splat":  ModelTypeGaussianSplat,
	".ksplat": ModelTypeGaussianSplat,
}

// ModelTypeFromFilename infers the asset type from the extension alone.
// The second return value is false for unrecognized files.
func ModelTypeFromFilename(filename string) (ModelType, bool) {
	t, ok := modelExtensions[strings.ToLower(filepath.Ext(filename))]
	return t, ok
}

// IsModelFile reports whether filename has a recognized model extension
func IsModelFile(filename string) bool {
	_, ok := ModelTypeFromFilename(filename)
	return ok
}

// NewModel builds a model record with the type-dependent default transform
func NewModel(filename, url string, modelType ModelType) Model {
	m := Model{
		ID:       filename,
		Name:     filename,
		URL:      url,
		Type:     modelType,
		Opacity:  1,
		Visible:  true,
		Position: Vec3{0, 0, 0},
		Rotation: Vec3{0, 0, 0},
		Scale:    Vec3{1, 1, 1},
	}
	if modelType == ModelTypeGaussianSplat {
		m.Rotation = Vec3{SplatRotationX, 0, 0}
		m.Scale = Vec3{SplatScale, SplatScale, SplatScale}
	}
	return m
}
