// Game state structs matching the RocketSim visualizer datagram format
package telemetry

// Vec3 is an x, y, z triple in Unreal units.
type Vec3 [3]float64

// PhysState is the physics state of the ball or a car.
type PhysState struct {
	Pos     Vec3  `json:"pos"`
	Vel     Vec3  `json:"vel"`
	AngVel  Vec3  `json:"ang_vel"`
	Forward *Vec3 `json:"forward,omitempty"`
	Up      *Vec3 `json:"up,omitempty"`
}

// Controls are the inputs a car applied on the last tick.
type Controls struct {
	Throttle  float64 `json:"throttle"`
	Steer     float64 `json:"steer"`
	Pitch     float64 `json:"pitch"`
	Yaw       float64 `json:"yaw"`
	Roll      float64 `json:"roll"`
	Boost     bool    `json:"boost"`
	Jump      bool    `json:"jump"`
	Handbrake bool    `json:"handbrake"`
}

// Reward is one named reward term for a player.
type Reward struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Car is the state of one player car.
type Car struct {
	CarID       *int      `json:"car_id,omitempty"`
	TeamNum     int       `json:"team_num"`
	Phys        PhysState `json:"phys"`
	Controls    *Controls `json:"controls,omitempty"`
	BoostAmount float64   `json:"boost_amount"`
	OnGround    bool      `json:"on_ground"`
	IsDemoed    bool      `json:"is_demoed"`
	IsBoosting  bool      `json:"is_boosting"`
	Rewards     []Reward  `json:"rewards,omitempty"`
	TotalReward float64   `json:"total_reward"`
}

// GameState is one full datagram.
type GameState struct {
	BallPhys          PhysState   `json:"ball_phys"`
	Cars              []Car       `json:"cars"`
	BoostPadLocations []Vec3      `json:"boost_pad_locations,omitempty"`
	BoostPadStates    []bool      `json:"boost_pad_states,omitempty"`
	Gamemode          string      `json:"gamemode"`
	CustomInfo        [][2]string `json:"custom_info,omitempty"`
}

// Team numbers.
const (
	TeamBlue   = 0
	TeamOrange = 1
)

// DefaultGamemode is assumed when a datagram carries none.
const DefaultGamemode = "soccar"
