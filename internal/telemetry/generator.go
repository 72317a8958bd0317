package telemetry

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// demoPadLocations is a subset of the soccar boost pads.
var demoPadLocations = []Vec3{
	{0, -4240, 70}, {-1792, -4184, 70}, {1792, -4184, 70},
	{-3072, -4096, 73}, {3072, -4096, 73},
}

// Generator produces synthetic game states: the ball circles midfield and
// one car per team trails it.
type Generator struct {
	Episode int
	start   time.Time
}

// NewGenerator creates a generator whose clock starts at start.
func NewGenerator(start time.Time) *Generator {
	return &Generator{Episode: 1, start: start}
}

// Generate returns the state at wall time now.
func (g *Generator) Generate(now time.Time) GameState {
	t := now.Sub(g.start).Seconds()

	ballX := math.Cos(t) * 1000
	ballY := math.Sin(t) * 1000
	ballZ := 200 + math.Sin(t*2)*100
	fwd := Vec3{1, 0, 0}
	back := Vec3{-1, 0, 0}
	up := Vec3{0, 0, 1}

	blue := Car{
		TeamNum: TeamBlue,
		Phys: PhysState{
			Pos:     Vec3{ballX - 300, ballY - 300, 20},
			Forward: &fwd,
			Up:      &up,
		},
		BoostAmount: 50 + math.Sin(t)*50,
		OnGround:    true,
		IsBoosting:  math.Sin(t) > 0,
		Rewards:     []Reward{{Name: "ball_touch", Value: 0.1}, {Name: "goal_distance", Value: -0.05}},
		TotalReward: 0.05,
	}
	orange := Car{
		TeamNum: TeamOrange,
		Phys: PhysState{
			Pos:     Vec3{ballX + 300, ballY + 300, 20},
			Forward: &back,
			Up:      &up,
		},
		BoostAmount: 75,
		OnGround:    true,
		Rewards:     []Reward{{Name: "ball_touch", Value: 0.2}, {Name: "goal_distance", Value: -0.03}},
		TotalReward: 0.17,
	}

	states := make([]bool, len(demoPadLocations))
	for i := range states {
		// pads respawn on a staggered four second cycle
		states[i] = int(t+float64(i))%4 != 0
	}

	return GameState{
		BallPhys: PhysState{
			Pos:     Vec3{ballX, ballY, ballZ},
			Vel:     Vec3{-math.Sin(t) * 500, math.Cos(t) * 500, math.Cos(t*2) * 200},
			AngVel:  Vec3{1, 2, 3},
			Forward: &fwd,
			Up:      &up,
		},
		Cars:              []Car{blue, orange},
		BoostPadLocations: demoPadLocations,
		BoostPadStates:    states,
		Gamemode:          DefaultGamemode,
		CustomInfo: [][2]string{
			{"Episode", strconv.Itoa(g.Episode)},
			{"Step", strconv.Itoa(int(t * 10))},
			{"Source", fmt.Sprintf("demo@%s", g.start.UTC().Format(time.RFC3339))},
		},
	}
}
