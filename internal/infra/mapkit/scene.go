package mapkit

import (
	"sync"

	"github.com/yanqian/genui-analytics/internal/domain/render"
)

// Scene records what the renderer asked of the map so the page script can replay it.
type Scene struct {
	mu          sync.Mutex
	region      render.Region
	annotations []render.Annotation
	overlays    []render.CircleOverlay
}

// SceneData is the JSON form of a Scene.
type SceneData struct {
	Region      render.Region          `json:"region"`
	Annotations []render.Annotation    `json:"annotations"`
	Overlays    []render.CircleOverlay `json:"overlays"`
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{}
}

func (s *Scene) Region() render.Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.region
}

func (s *Scene) SetRegion(r render.Region) {
	s.mu.Lock()
	s.region = r
	s.mu.Unlock()
}

func (s *Scene) AddAnnotation(a render.Annotation) error {
	s.mu.Lock()
	s.annotations = append(s.annotations, a)
	s.mu.Unlock()
	return nil
}

func (s *Scene) AddOverlay(o render.CircleOverlay) error {
	s.mu.Lock()
	s.overlays = append(s.overlays, o)
	s.mu.Unlock()
	return nil
}

// Data snapshots the scene.
func (s *Scene) Data() SceneData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SceneData{
		Region:      s.region,
		Annotations: append([]render.Annotation{}, s.annotations...),
		Overlays:    append([]render.CircleOverlay{}, s.overlays...),
	}
}

var _ render.Map = (*Scene)(nil)
