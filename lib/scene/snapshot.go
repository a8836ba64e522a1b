package scene

type Snapshot struct {
	ActiveZone    int            `json:"activeZone"`
	TargetVisible bool           `json:"targetVisible"`
	Zones         []ZoneSnapshot `json:"zones"`
}

type ZoneSnapshot struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	ModelURL string `json:"modelUrl,omitempty"`
	VideoURL string `json:"videoUrl,omitempty"`

	Visible  bool       `json:"visible"`
	Position [3]float32 `json:"position"`
	Rotation [4]float32 `json:"rotation"`
	Scale    [3]float32 `json:"scale"`

	// Texture crop for the video material.
	Repeat [2]float64 `json:"repeat"`
	Offset [2]float64 `json:"offset"`

	AnimationTime       float64 `json:"animationTime,omitempty"`
	AnimationDuration   float64 `json:"animationDuration,omitempty"`
	AnimationGeneration uint64  `json:"animationGeneration,omitempty"`

	Video           PlayState `json:"video,omitempty"`
	VideoGeneration uint64    `json:"videoGeneration,omitempty"`
}

// Snapshot copies the scene. active and targetVisible come from the
// switchboard driving it.
func (s *Scene) Snapshot(active int, targetVisible bool) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ActiveZone:    active,
		TargetVisible: targetVisible,
		Zones:         make([]ZoneSnapshot, 0, len(s.zones)),
	}
	for _, z := range s.zones {
		n := z.Node
		zs := ZoneSnapshot{
			Index:    z.Index,
			Name:     z.Name,
			ModelURL: z.ModelURL,
			VideoURL: z.VideoURL,
			Visible:  n.visible,
			Position: [3]float32{n.position.X, n.position.Y, n.position.Z},
			Rotation: [4]float32{n.rotation.X, n.rotation.Y, n.rotation.Z, n.rotation.W},
			Scale:    [3]float32{n.scale.X, n.scale.Y, n.scale.Z},
		}
		zs.Repeat, zs.Offset = TextureCrop(z.AspectRatio)
		if z.Mixer != nil {
			zs.AnimationTime = z.Mixer.elapsed.Seconds()
			zs.AnimationDuration = z.Mixer.Duration.Seconds()
			zs.AnimationGeneration = z.Mixer.generation
		}
		if z.Video != nil {
			zs.Video = z.Video.state
			if zs.Video == "" {
				zs.Video = Stopped
			}
			zs.VideoGeneration = z.Video.generation
		}
		snap.Zones = append(snap.Zones, zs)
	}
	return snap
}

// TextureCrop centers a video of the given aspect ratio vertically on its
// display surface.
func TextureCrop(aspect float64) (repeat, offset [2]float64) {
	return [2]float64{1, aspect}, [2]float64{0, (1 - aspect) / 2}
}
