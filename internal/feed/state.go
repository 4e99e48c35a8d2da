package feed

// State of the feed connection.
//
//	Disconnected -> Subscribing -> Subscribed -> Reconnecting -> Subscribing
type State int32

const (
	Disconnected State = iota
	Subscribing
	Subscribed
	Reconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Subscribing:
		return "subscribing"
	case Subscribed:
		return "subscribed"
	case Reconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}
