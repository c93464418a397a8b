package network

// State is the connection lifecycle.
//
//	Disconnected -> Connecting -> Connected -> Reconnecting -> Connecting ...
//	Reconnecting -> Disconnected once attempts run out
//	Connected -> Disconnected on an explicit Disconnect
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
)

// String is the status line shown to the player.
func (s State) String() string {
	switch s {
	case Connecting:
		return "Connecting..."
	case Connected:
		return "Connected"
	case Reconnecting:
		return "Reconnecting..."
	default:
		return "Disconnected"
	}
}
