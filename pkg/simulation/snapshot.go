package simulation

import (
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/drone"
)

// Snapshot is the read-only state handed to renderers after each tick.
type Snapshot struct {
	SessionID  string         `json:"sessionId"`
	Tick       uint64         `json:"tick"`
	Time       float64        `json:"time"` // simulated seconds
	Steps      int            `json:"steps"`
	Drones     []drone.View   `json:"drones"`
	Phases     map[string]int `json:"phases"`
	Collisions int            `json:"collisions"`
}

// Snapshot projects the current session state.
func (s *Session) Snapshot() *Snapshot {
	snap := &Snapshot{
		SessionID: s.id.String(),
		Tick:      s.ticks,
		Time:      s.elapsed,
		Steps:     s.stepper.Steps(),
		Drones:    s.fleet.Views(),
		Phases:    make(map[string]int, 4),
	}
	for _, v := range snap.Drones {
		snap.Phases[v.Phase]++
		if v.Collision {
			snap.Collisions++
		}
	}
	return snap
}

// ToProto converts the snapshot into the protobuf envelope returned to actor queries.
func (snap *Snapshot) ToProto() (*structpb.Struct, error) {
	drones := make([]any, 0, len(snap.Drones))
	for _, v := range snap.Drones {
		drones = append(drones, map[string]any{
			"name":        v.Name,
			"phase":       v.Phase,
			"x":           v.Position.X,
			"y":           v.Position.Y,
			"heading":     v.Heading,
			"height":      v.Height,
			"speed":       v.Speed,
			"power":       v.Power,
			"destination": v.Destination,
			"waypoint":    v.Waypoint,
			"collision":   v.Collision,
		})
	}
	phases := make(map[string]any, len(snap.Phases))
	for k, n := range snap.Phases {
		phases[k] = n
	}
	return structpb.NewStruct(map[string]any{
		"sessionId":  snap.SessionID,
		"tick":       float64(snap.Tick),
		"time":       snap.Time,
		"steps":      snap.Steps,
		"drones":     drones,
		"phases":     phases,
		"collisions": snap.Collisions,
	})
}

// FromProto rebuilds a snapshot from its protobuf envelope.
func FromProto(p *structpb.Struct) *Snapshot {
	fields := p.AsMap()
	snap := &Snapshot{
		SessionID:  asString(fields["sessionId"]),
		Tick:       uint64(asFloat(fields["tick"])),
		Time:       asFloat(fields["time"]),
		Steps:      int(asFloat(fields["steps"])),
		Collisions: int(asFloat(fields["collisions"])),
		Phases:     make(map[string]int),
	}
	if phases, ok := fields["phases"].(map[string]any); ok {
		for k, n := range phases {
			snap.Phases[k] = int(asFloat(n))
		}
	}
	list, _ := fields["drones"].([]any)
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		var v drone.View
		v.Name = asString(m["name"])
		v.Phase = asString(m["phase"])
		v.Position.X = asFloat(m["x"])
		v.Position.Y = asFloat(m["y"])
		v.Heading = asFloat(m["heading"])
		v.Height = asFloat(m["height"])
		v.Speed = asFloat(m["speed"])
		v.Power = asFloat(m["power"])
		v.Destination = asString(m["destination"])
		v.Waypoint = asString(m["waypoint"])
		v.Collision, _ = m["collision"].(bool)
		snap.Drones = append(snap.Drones, v)
	}
	return snap
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
