package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/thumbstick/internal/log"
)

// ScriptName is the MediaPipe helper the detector talks to over stdio.
const ScriptName = "hand_landmarks.py"

// IdleShutdown is how long the helper process may sit unused before it is stopped.
const IdleShutdown = 30 * time.Second

// ErrScriptNotFound is returned when the MediaPipe helper cannot be located.
var ErrScriptNotFound = errors.New("detector: " + ScriptName + " not found")

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
//
// Wire format: each request is a 4-byte big-endian length followed by a JPEG
// frame; each response is one JSON line {"hands": [...]}.
type MediaPipeDetector struct {
	config     Config
	scriptPath string
	logger     *slog.Logger

	mu        sync.Mutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	started   bool
	idleTimer *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	scriptPath := findScript()
	if scriptPath == "" {
		return nil, ErrScriptNotFound
	}

	return &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
		logger:     log.With("component", "mediapipe"),
	}, nil
}

// Detect analyzes a frame and returns detected hand landmarks.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	if frame == nil || frame.Empty() {
		return nil, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(data)))

	if _, err := d.stdin.Write(header); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	hands, err := parseResponse(line)
	if err != nil {
		return nil, err
	}

	d.resetIdleTimer()
	return hands, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	python := findVenvPython()
	if python == "" {
		python = "python3"
	}

	d.cmd = exec.Command(python, d.scriptPath,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection", strconv.FormatFloat(d.config.MinConfidence, 'f', 2, 64),
		"--min-tracking", strconv.FormatFloat(d.config.MinTrackingConf, 'f', 2, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.logger.Info("mediapipe helper started", "python", python, "script", d.scriptPath)

	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil
	d.logger.Info("mediapipe helper stopped")

	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(IdleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.shutdown(); err != nil {
			d.logger.Warn("idle shutdown", "error", err)
		}
	})
}

func parseResponse(line []byte) ([]HandLandmarks, error) {
	var response struct {
		Hands []jsonHand `json:"hands"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	result := make([]HandLandmarks, 0, len(response.Hands))
	for _, h := range response.Hands {
		if len(h.Points) < NumLandmarks {
			continue
		}
		result = append(result, h.toHandLandmarks())
	}
	return result, nil
}

// searchPaths lists candidate locations for a file relative to the working
// directory, the executable and ~/.thumbstick.
func searchPaths(rel string) []string {
	var execDir string
	if execPath, err := os.Executable(); err == nil {
		execDir = filepath.Dir(execPath)
	}

	return []string{
		rel,
		filepath.Join("..", rel),
		filepath.Join("..", "..", rel),
		filepath.Join(execDir, rel),
		filepath.Join(os.Getenv("HOME"), ".thumbstick", rel),
	}
}

func firstExisting(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

func findScript() string {
	return firstExisting(searchPaths(filepath.Join("scripts", ScriptName)))
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	return firstExisting(searchPaths(filepath.Join("venv", "bin", "python")))
}

// jsonHand represents the JSON structure from the Python service.
type jsonHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

func (h jsonHand) toHandLandmarks() HandLandmarks {
	lm := HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	copy(lm.Points[:], h.Points)
	return lm
}
