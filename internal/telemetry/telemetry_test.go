package telemetry

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
	"time"
)

func decodeTree(t *testing.T, data []byte) any {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestGenerateState(t *testing.T) {
	start := time.Unix(1000, 0)
	gen := NewGenerator(start)
	st := gen.Generate(start)

	if st.Gamemode != "soccar" {
		t.Errorf("expected soccar, got %s", st.Gamemode)
	}
	// at t=0 the ball sits at (1000, 0, 200)
	if math.Abs(st.BallPhys.Pos[0]-1000) > 1e-9 || math.Abs(st.BallPhys.Pos[1]) > 1e-9 || math.Abs(st.BallPhys.Pos[2]-200) > 1e-9 {
		t.Errorf("unexpected ball position %v", st.BallPhys.Pos)
	}
	if len(st.Cars) != 2 || st.Cars[0].TeamNum != TeamBlue || st.Cars[1].TeamNum != TeamOrange {
		t.Fatalf("unexpected cars: %+v", st.Cars)
	}
	if st.Cars[0].Phys.Pos[0] != st.BallPhys.Pos[0]-300 {
		t.Errorf("blue car should trail the ball")
	}
	if len(st.BoostPadStates) != len(st.BoostPadLocations) {
		t.Errorf("pad states %d vs locations %d", len(st.BoostPadStates), len(st.BoostPadLocations))
	}

	later := gen.Generate(start.Add(time.Second))
	if later.BallPhys.Pos == st.BallPhys.Pos {
		t.Errorf("expected ball to move")
	}
	if later.CustomInfo[1][1] != "10" {
		t.Errorf("expected step 10 after one second, got %s", later.CustomInfo[1][1])
	}
}

func TestSummarizeGeneratedState(t *testing.T) {
	start := time.Unix(0, 0)
	data, err := json.Marshal(NewGenerator(start).Generate(start))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := Summarize(decodeTree(t, data))
	if s.Gamemode != "soccar" || s.Cars != 2 || s.Blue != 1 || s.Orange != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if !s.HasBall || s.Ball[0] != 1000 || s.Ball[2] != 200 {
		t.Errorf("unexpected ball: %+v", s.Ball)
	}
	if s.PadsTotal != 5 {
		t.Errorf("expected 5 pads, got %d", s.PadsTotal)
	}
	if len(s.CustomInfo) != 3 || s.CustomInfo[0][0] != "Episode" {
		t.Errorf("unexpected custom info: %v", s.CustomInfo)
	}
}

func TestSummarizeTolerant(t *testing.T) {
	v := decodeTree(t, []byte(`{
		"gamemode": "HOOPS",
		"ball_phys": {"pos": [1, "x", 3]},
		"cars": [{"team_num": 1, "is_demoed": true}, "junk"],
		"boost_pads": [{"is_active": false}, {}],
		"custom_info": [["Reward", 1.5], ["short"]]
	}`))
	s := Summarize(v)
	if s.Gamemode != "hoops" {
		t.Errorf("expected lower-cased gamemode, got %s", s.Gamemode)
	}
	if s.HasBall {
		t.Errorf("malformed ball position should be ignored")
	}
	if s.Cars != 2 || s.Orange != 1 || s.Demoed != 1 {
		t.Errorf("unexpected car counts: %+v", s)
	}
	if s.PadsTotal != 2 || s.PadsActive != 1 {
		t.Errorf("unexpected pads: %d/%d", s.PadsActive, s.PadsTotal)
	}
	if len(s.CustomInfo) != 1 || s.CustomInfo[0] != [2]string{"Reward", "1.5"} {
		t.Errorf("unexpected custom info: %v", s.CustomInfo)
	}

	if got := Summarize([]any{1, 2}); got.Gamemode != "" || got.Cars != 0 {
		t.Errorf("non-object should summarize to zero value, got %+v", got)
	}
	if got := Summarize(map[string]any{}); got.Gamemode != DefaultGamemode {
		t.Errorf("expected default gamemode, got %q", got.Gamemode)
	}
}
