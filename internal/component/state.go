package component

// State is a component's position in its lifecycle.
type State int32

const (
	NotLoaded State = iota
	Loading
	Loaded
	Unloading
)

func (s State) String() string {
	switch s {
	case NotLoaded:
		return "not_loaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Unloading:
		return "unloading"
	default:
		return "unknown"
	}
}

// CanTransition reports whether from -> to is a legal step. The cycle is
// NotLoaded -> Loading -> Loaded -> Unloading -> NotLoaded, plus
// Loading -> NotLoaded for a load that never took effect.
func CanTransition(from, to State) bool {
	switch from {
	case NotLoaded:
		return to == Loading
	case Loading:
		return to == Loaded || to == NotLoaded
	case Loaded:
		return to == Unloading
	case Unloading:
		return to == NotLoaded
	}
	return false
}
