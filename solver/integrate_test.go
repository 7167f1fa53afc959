package solver

import (
	"math"
	"testing"
)

func TestPredictFromRest(t *testing.T) {
	params := testParams()
	pos := []Vec{V3(1, 1.5, 1)}
	s, _ := newTestSolver(t, pos, params, 1)

	s.predict(0, 1)

	wantVy := params.DT * -params.Gravity
	if s.pt.Vel[0][1] != wantVy {
		t.Errorf("v.y after predict = %v, want %v", s.pt.Vel[0][1], wantVy)
	}
	if s.pt.Vel[0][0] != 0 || s.pt.Vel[0][2] != 0 {
		t.Error("gravity must only affect the y component")
	}

	want := pos[0].Add(s.pt.Vel[0].Scale(params.DT))
	if s.pt.Pred[0] != want {
		t.Errorf("pred after predict = %v, want %v", s.pt.Pred[0], want)
	}
}

func TestFinalizeVelocityFromPositions(t *testing.T) {
	params := testParams()
	pos := []Vec{V3(1, 1, 1)}
	s, _ := newTestSolver(t, pos, params, 1)

	// Pretend the constraint moved the prediction
	s.pt.Pred[0] = V3(1.01, 0.98, 1)

	s.finalizeVelocity(0, 1)

	want := s.pt.Pred[0].Sub(s.pt.Pos[0]).Scale(1 / params.DT)
	got := s.pt.Vel[0]
	for lane := 0; lane < 3; lane++ {
		if math.Abs(float64(got[lane]-want[lane])) > 1e-5 {
			t.Errorf("lane %d: velocity %v, want %v", lane, got[lane], want[lane])
		}
	}
}

func TestFinalizeCommitRenderW(t *testing.T) {
	pos := []Vec{V3(0.3, 0.4, 0.5), V3(1.2, 1.4, 1.9)}
	s, _ := newTestSolver(t, pos, testParams(), 1)

	// Garbage in the padding lane must not survive into render output
	s.pt.Pred[0][3] = -7
	s.pt.Render[1][3] = 0.25

	s.finalizeCommit(0, 2)

	for i := range pos {
		if s.pt.Render[i][3] != 1 {
			t.Errorf("particle %d: render w = %v, want 1", i, s.pt.Render[i][3])
		}
		if s.pt.Pos[i] != s.pt.Pred[i] {
			t.Errorf("particle %d: committed position %v != predicted %v",
				i, s.pt.Pos[i], s.pt.Pred[i])
		}
		for lane := 0; lane < 3; lane++ {
			if s.pt.Render[i][lane] != s.pt.Pos[i][lane] {
				t.Errorf("particle %d lane %d: render %v != position %v",
					i, lane, s.pt.Render[i][lane], s.pt.Pos[i][lane])
			}
		}
	}
}
