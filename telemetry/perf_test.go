package telemetry

import (
	"testing"
	"time"

	"github.com/pthm-cable/brine/solver"
)

func TestPerfCollectorEmptyWindow(t *testing.T) {
	p := NewPerfCollector(10)
	s := p.Stats()

	if s.AvgFrameDuration != 0 || s.FramesPerSecond != 0 {
		t.Errorf("empty window produced stats %+v", s)
	}
	if s.PhaseAvg == nil || s.PhasePct == nil {
		t.Error("empty window stats must carry initialized maps")
	}
}

func TestPerfCollectorRecordsPhases(t *testing.T) {
	p := NewPerfCollector(10)

	p.StartFrame()
	p.StartPhase(solver.PhasePredict)
	time.Sleep(2 * time.Millisecond)
	p.StartPhase(solver.PhaseConstraint)
	time.Sleep(2 * time.Millisecond)
	p.EndFrame()

	s := p.Stats()
	if s.AvgFrameDuration <= 0 {
		t.Fatalf("avg frame duration %v", s.AvgFrameDuration)
	}
	for _, phase := range []string{solver.PhasePredict, solver.PhaseConstraint} {
		if s.PhaseAvg[phase] <= 0 {
			t.Errorf("phase %q has no recorded time", phase)
		}
	}
	if s.FramesPerSecond <= 0 {
		t.Errorf("fps %v", s.FramesPerSecond)
	}
}

func TestPerfCollectorWindowCaps(t *testing.T) {
	p := NewPerfCollector(4)

	for frame := 0; frame < 10; frame++ {
		p.StartFrame()
		p.StartPhase(solver.PhasePredict)
		p.EndFrame()
	}

	if p.sampleCount != 4 {
		t.Errorf("sample count %d, want window size 4", p.sampleCount)
	}
	if p.writeIndex < 0 || p.writeIndex >= 4 {
		t.Errorf("write index %d out of window", p.writeIndex)
	}
}

func TestPerfCollectorClampsWindowSize(t *testing.T) {
	p := NewPerfCollector(0)
	if p.windowSize != 60 {
		t.Errorf("window size %d, want fallback 60", p.windowSize)
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	p := NewPerfCollector(10)

	p.StartFrame()
	p.StartPhase(solver.PhaseGridBuild)
	time.Sleep(time.Millisecond)
	p.EndFrame()

	row := p.Stats().ToCSV(42)
	if row.WindowEnd != 42 {
		t.Errorf("window_end %d, want 42", row.WindowEnd)
	}
	if row.AvgFrameUS <= 0 {
		t.Errorf("avg_frame_us %d", row.AvgFrameUS)
	}
	if row.GridBuildPct <= 0 {
		t.Errorf("grid_build_pct %v with only a grid build phase", row.GridBuildPct)
	}
}
