package pipeline

// State is a stage of a run. States only move forward; Failed is terminal
// and reachable from any state.
type State int

const (
	Idle State = iota
	ResolvingCanary
	BuildingCanary
	ResolvingChannels
	BuildingChannels
	Publishing
	Done
	Failed
)

var stateNames = map[State]string{
	Idle:              "idle",
	ResolvingCanary:   "resolving-canary",
	BuildingCanary:    "building-canary",
	ResolvingChannels: "resolving-channels",
	BuildingChannels:  "building-channels",
	Publishing:        "publishing",
	Done:              "done",
	Failed:            "failed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool { return s == Done || s == Failed }
