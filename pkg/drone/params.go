package drone

// Params are the physical constants shared by every drone of a session.
type Params struct {
	MaxPower         float64 `json:"maxPower"`
	InitialPower     float64 `json:"initialPower"`
	ChargingSpeed    float64 `json:"chargingSpeed"`    // power units per second while charging
	TakeoffSpeed     float64 `json:"takeoffSpeed"`     // height units per second, up and down
	HoveringHeight   float64 `json:"hoveringHeight"`   // height at which ascent ends
	PowerConsumption float64 `json:"powerConsumption"` // power units per second while airborne
	MaxSpeed         float64 `json:"maxSpeed"`         // cruise speed, distance units per second
	SafetyReserve    float64 `json:"safetyReserve"`

	// Set from the session configuration, not the drone block.
	LandingRadius        float64 `json:"-"`
	CollisionCoefficient float64 `json:"-"`
	// ApplyCollisionForce makes the accumulated repulsion displace cruising
	// drones. When false the force only raises the collision flag.
	ApplyCollisionForce bool `json:"-"`
}

// DefaultParams returns the reference constants.
func DefaultParams() Params {
	return Params{
		MaxPower:             100,
		InitialPower:         50,
		ChargingSpeed:        5,
		TakeoffSpeed:         2,
		HoveringHeight:       10,
		PowerConsumption:     0.5,
		MaxSpeed:             50,
		SafetyReserve:        20,
		LandingRadius:        90,
		CollisionCoefficient: 100,
	}
}

// SafetyMargin is the power level under which an airborne drone must descend:
// the reserve plus what the descent itself costs per unit of takeoff speed.
func (p Params) SafetyMargin() float64 {
	return p.SafetyReserve + p.PowerConsumption/p.TakeoffSpeed
}
