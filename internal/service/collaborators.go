package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"map_survey_backend/internal/config"
	"map_survey_backend/internal/model"
	"map_survey_backend/internal/util"
	"map_survey_backend/pkg/logger"
	"map_survey_backend/pkg/monitoring"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// External collaborators. Each is a python process invoked with arguments;
// the last non-empty line of stdout is parsed as JSON. A non-zero exit or a
// malformed line surfaces as an error and the caller must not persist any
// triggering state.

type DatasetGenerator interface {
	Generate(ctx context.Context, topic string, index int) (*model.GeneratedDataset, error)
}

type Grader interface {
	Grade(ctx context.Context, pid, dataset string) (*model.GradeResult, error)
}

type Comparator interface {
	Compare(ctx context.Context, pid1, pid2, dataset string) (*model.CompareResult, error)
}

// ScriptCollaborators runs the three collaborator scripts via os/exec.
type ScriptCollaborators struct {
	mu  sync.RWMutex
	cfg config.GradingConfig
}

func NewScriptCollaborators(cfg config.GradingConfig) *ScriptCollaborators {
	return &ScriptCollaborators{cfg: cfg}
}

// UpdateConfig swaps the script configuration, used by config hot reload.
func (s *ScriptCollaborators) UpdateConfig(cfg config.GradingConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *ScriptCollaborators) config() config.GradingConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *ScriptCollaborators) run(ctx context.Context, script string, args ...string) ([]byte, error) {
	cfg := s.config()
	start := time.Now()

	cmd := exec.CommandContext(ctx, cfg.PythonBin, append([]string{filepath.Join(cfg.ScriptsDir, script)}, args...)...)
	cmd.Dir = cfg.ScriptsDir

	out, err := cmd.Output()
	if err != nil {
		monitoring.ObserveCollaborator(script, "error", start)
		if exitErr, ok := err.(*exec.ExitError); ok {
			logger.Log.Error("collaborator failed",
				zap.String("script", script),
				zap.ByteString("stderr", exitErr.Stderr))
		}
		return nil, fmt.Errorf("%s: %w", script, err)
	}

	monitoring.ObserveCollaborator(script, "ok", start)
	return out, nil
}

// lastLine returns the final non-empty line of collaborator output; python
// warnings printed before the JSON payload are ignored.
func lastLine(out []byte) []byte {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if line := bytes.TrimSpace(lines[i]); len(line) > 0 {
			return line
		}
	}
	return []byte("{}")
}

func (s *ScriptCollaborators) Generate(ctx context.Context, topic string, index int) (*model.GeneratedDataset, error) {
	out, err := s.run(ctx, s.config().GeneratorScript, topic, strconv.Itoa(index))
	if err != nil {
		return nil, err
	}

	if bytes.Contains(out, []byte("skipped")) {
		logger.Log.Info("dataset generator skipped", zap.String("topic", topic), zap.Int("index", index))
		return nil, util.ErrGeneratorSkipped
	}

	var payload model.GeneratedDataset
	if err := json.Unmarshal(lastLine(out), &payload); err != nil {
		return nil, fmt.Errorf("dataset generator returned bad JSON: %w", err)
	}
	if payload.Meta.Topic == "" || payload.Entries == nil {
		return nil, fmt.Errorf("generator payload missing required fields")
	}
	return &payload, nil
}

func (s *ScriptCollaborators) Grade(ctx context.Context, pid, dataset string) (*model.GradeResult, error) {
	out, err := s.run(ctx, s.config().GraderScript, pid, dataset)
	if err != nil {
		return nil, err
	}

	var res model.GradeResult
	if err := json.Unmarshal(lastLine(out), &res); err != nil {
		return nil, fmt.Errorf("invalid grader output: %w", err)
	}
	if res.Accuracy.Zero() {
		return nil, fmt.Errorf("invalid grader output: missing accuracy field")
	}
	return &res, nil
}

func (s *ScriptCollaborators) Compare(ctx context.Context, pid1, pid2, dataset string) (*model.CompareResult, error) {
	out, err := s.run(ctx, s.config().ComparerScript, pid1, pid2, dataset)
	if err != nil {
		return nil, err
	}

	var res model.CompareResult
	if err := json.Unmarshal(lastLine(out), &res); err != nil {
		return nil, fmt.Errorf("invalid comparison output: %w", err)
	}
	if res.Accuracy.Zero() {
		return nil, fmt.Errorf("invalid comparison output: missing accuracy field")
	}
	return &res, nil
}
