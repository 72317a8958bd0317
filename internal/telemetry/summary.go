package telemetry

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Summary is a schema-tolerant digest of one decoded game state. Missing or
// mistyped fields leave the zero value instead of failing.
type Summary struct {
	Gamemode   string
	Ball       Vec3
	HasBall    bool
	Cars       int
	Blue       int
	Orange     int
	Demoed     int
	PadsActive int
	PadsTotal  int
	CustomInfo [][2]string
}

// Summarize digests a generic JSON tree as produced by encoding/json.
func Summarize(v any) Summary {
	var s Summary
	root, ok := v.(map[string]any)
	if !ok {
		return s
	}

	s.Gamemode = DefaultGamemode
	if gm, ok := root["gamemode"].(string); ok && gm != "" {
		s.Gamemode = strings.ToLower(gm)
	}

	if ball, ok := root["ball_phys"].(map[string]any); ok {
		s.Ball, s.HasBall = toVec3(ball["pos"])
	}

	if cars, ok := root["cars"].([]any); ok {
		s.Cars = len(cars)
		for _, c := range cars {
			car, ok := c.(map[string]any)
			if !ok {
				continue
			}
			if team, ok := toFloat(car["team_num"]); ok {
				switch int(team) {
				case TeamBlue:
					s.Blue++
				case TeamOrange:
					s.Orange++
				}
			}
			if demoed, _ := car["is_demoed"].(bool); demoed {
				s.Demoed++
			}
		}
	}

	if states, ok := root["boost_pad_states"].([]any); ok {
		s.PadsTotal = len(states)
		for _, st := range states {
			if active, _ := st.(bool); active {
				s.PadsActive++
			}
		}
	} else if pads, ok := root["boost_pads"].([]any); ok {
		s.PadsTotal = len(pads)
		for _, p := range pads {
			pad, _ := p.(map[string]any)
			active, present := pad["is_active"].(bool)
			if !present || active {
				s.PadsActive++
			}
		}
	}

	if info, ok := root["custom_info"].([]any); ok {
		for _, entry := range info {
			pair, ok := entry.([]any)
			if !ok || len(pair) < 2 {
				continue
			}
			s.CustomInfo = append(s.CustomInfo, [2]string{toString(pair[0]), toString(pair[1])})
		}
	}
	return s
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toVec3(v any) (Vec3, bool) {
	arr, ok := v.([]any)
	if !ok || len(arr) != 3 {
		return Vec3{}, false
	}
	var out Vec3
	for i, e := range arr {
		f, ok := toFloat(e)
		if !ok {
			return Vec3{}, false
		}
		out[i] = f
	}
	return out, true
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
