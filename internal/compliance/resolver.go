package compliance

import (
	"time"

	"github.com/ppe-watch/compliance/internal/config"
	"github.com/ppe-watch/compliance/internal/geom"
	"github.com/ppe-watch/compliance/internal/track"
	"github.com/ppe-watch/compliance/internal/zones"
)

// Observation is one detected person in one frame, with the equipment
// candidates visible in that frame.
type Observation struct {
	TrackID    int64
	Box        geom.BoundingBox
	Helmets    []geom.BoundingBox
	Vests      []geom.BoundingBox
	Visibility float64
	FrameIdx   int64
	Timestamp  time.Time
}

// Decision is the resolver's verdict for one observation. HasHelmet and
// HasVest are the post-correction values; RawHelmet and RawVest carry
// what geometry alone saw this frame.
type Decision struct {
	TrackID         int64
	FrameIdx        int64
	Timestamp       time.Time
	Zone            string
	Zoned           bool
	HasHelmet       bool
	HasVest         bool
	RawHelmet       bool
	RawVest         bool
	HelmetRecovered bool
	VestRecovered   bool
	Violation       ViolationType
}

// Resolver combines geometric verification, zone assignment, and
// occlusion-tolerant history lookback into per-observation decisions.
// Not safe for concurrent use; each camera session owns one resolver.
type Resolver struct {
	store    *track.Store
	polygons []zones.Polygon

	headRatio       float64
	helmetThreshold float64
	vestThreshold   float64
	maxGapFrames    int64
	visibilityFloor float64
	vestRecovery    bool
	helmetRecovery  bool
}

// NewResolver builds a resolver over the given track store and zone set,
// taking its thresholds from cfg.
func NewResolver(store *track.Store, polygons []zones.Polygon, cfg *config.TuningConfig) *Resolver {
	return &Resolver{
		store:           store,
		polygons:        polygons,
		headRatio:       cfg.GetHeadRatio(),
		helmetThreshold: cfg.GetHelmetIoUThreshold(),
		vestThreshold:   cfg.GetVestIoUThreshold(),
		maxGapFrames:    cfg.GetMaxGapFrames(),
		visibilityFloor: cfg.GetVisibilityFloor(),
		vestRecovery:    cfg.GetVestRecovery(),
		helmetRecovery:  cfg.GetHelmetRecovery(),
	}
}

// Resolve decides helmet and vest presence for one observation and
// records the raw geometric result in the track's history. The history
// push happens on every call, zoned or not, so lookback stays current
// even while a person stands outside all zones.
func (r *Resolver) Resolve(obs Observation) Decision {
	rawHelmet := geom.HasHelmet(obs.Box, obs.Helmets, r.headRatio, r.helmetThreshold)
	rawVest := geom.HasVest(obs.Box, obs.Vests, r.vestThreshold)

	helmet, vest := rawHelmet, rawVest
	helmetRecovered, vestRecovered := false, false

	if !vest && r.vestRecovery {
		if _, ok := r.store.FindRecent(obs.TrackID, obs.FrameIdx, r.maxGapFrames, func(sn track.Snapshot) bool {
			return sn.HasVest && sn.VisibilityScore > r.visibilityFloor
		}); ok {
			vest = true
			vestRecovered = true
		}
	}
	if !helmet && r.helmetRecovery {
		if _, ok := r.store.FindRecent(obs.TrackID, obs.FrameIdx, r.maxGapFrames, func(sn track.Snapshot) bool {
			return sn.HasHelmet && sn.VisibilityScore > r.visibilityFloor
		}); ok {
			helmet = true
			helmetRecovered = true
		}
	}

	// Raw values go into history, not corrected ones. Feeding a
	// recovered flag back in would let a single sighting renew its own
	// recovery window forever.
	r.store.Update(obs.TrackID, track.Snapshot{
		FrameIdx:        obs.FrameIdx,
		HasHelmet:       rawHelmet,
		HasVest:         rawVest,
		VisibilityScore: obs.Visibility,
	})

	zone, zoned := zones.Assign(obs.Box.Centroid(), r.polygons)

	return Decision{
		TrackID:         obs.TrackID,
		FrameIdx:        obs.FrameIdx,
		Timestamp:       obs.Timestamp,
		Zone:            zone,
		Zoned:           zoned,
		HasHelmet:       helmet,
		HasVest:         vest,
		RawHelmet:       rawHelmet,
		RawVest:         rawVest,
		HelmetRecovered: helmetRecovered,
		VestRecovered:   vestRecovered,
		Violation:       ViolationFromFlags(helmet, vest),
	}
}
