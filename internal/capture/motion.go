package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion detection tuning.
const (
	// BlurKernel is the Gaussian kernel edge, in pixels.
	BlurKernel = 21
	// PixelDelta is the grey level change that counts a pixel as changed.
	PixelDelta = 25
	// DefaultMotionThreshold is the percentage of changed pixels that
	// counts as motion.
	DefaultMotionThreshold = 1.0
)

// MotionDetector compares each frame to the previous one and reports the
// share of pixels that changed.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	prev      gocv.Mat
	primed    bool
}

// NewMotionDetector returns a detector that reports motion when more than
// threshold percent of pixels change. Non-positive thresholds fall back to
// DefaultMotionThreshold.
func NewMotionDetector(threshold float64) *MotionDetector {
	if threshold <= 0 {
		threshold = DefaultMotionThreshold
	}
	return &MotionDetector{threshold: threshold, prev: gocv.NewMat()}
}

// Detect returns whether frame moved relative to the previous frame and the
// changed pixel percentage. The first frame after construction or Reset
// only primes the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	if frame == nil || frame.Empty() {
		return false, 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(BlurKernel, BlurKernel), 0, 0, gocv.BorderDefault)

	defer blurred.CopyTo(&m.prev)
	if !m.primed || m.prev.Rows() != blurred.Rows() || m.prev.Cols() != blurred.Cols() {
		m.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prev, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, PixelDelta, 255, gocv.ThresholdBinary)

	total := mask.Rows() * mask.Cols()
	if total == 0 {
		return false, 0
	}
	changed := float64(gocv.CountNonZero(mask)) / float64(total) * 100
	return changed > m.threshold, changed
}

// Threshold returns the motion threshold in percent.
func (m *MotionDetector) Threshold() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threshold
}

// SetThreshold ignores non-positive values.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases the baseline frame. The detector stays usable.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.prev.Empty() {
		m.prev.Close()
		m.prev = gocv.NewMat()
	}
	m.primed = false
}
