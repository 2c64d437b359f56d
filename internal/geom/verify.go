package geom

// Default thresholds for equipment verification. Callers can override them
// through the tuning config; these are the values the detection models were
// validated against.
const (
	DefaultHeadRatio = 0.35
	DefaultHelmetIoU = 0.10
	DefaultVestIoU   = 0.15
)

// HasHelmet reports whether any helmet box overlaps the person's head region
// with IoU strictly above threshold. Invalid candidate boxes contribute no
// overlap.
func HasHelmet(person BoundingBox, helmets []BoundingBox, headRatio, threshold float64) bool {
	head := HeadRegion(person, headRatio)
	for _, h := range helmets {
		if !h.Valid() {
			continue
		}
		if IoU(h, head) > threshold {
			return true
		}
	}
	return false
}

// HasVest reports whether any vest box overlaps the full person box with IoU
// strictly above threshold.
func HasVest(person BoundingBox, vests []BoundingBox, threshold float64) bool {
	for _, v := range vests {
		if !v.Valid() {
			continue
		}
		if IoU(v, person) > threshold {
			return true
		}
	}
	return false
}
