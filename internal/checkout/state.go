package checkout

// State is a step of one checkout attempt. The gateway path is split into
// its four sequential phases.
type State string

const (
	StateIdle                State = "IDLE"
	StateValidatingSelection State = "VALIDATING_SELECTION"
	StateValidatingProfile   State = "VALIDATING_PROFILE"
	StateCODPath             State = "COD_PATH"
	StateGatewayKey          State = "GATEWAY_KEY"
	StateGatewayOrder        State = "GATEWAY_ORDER"
	StateGatewayCollect      State = "GATEWAY_COLLECT"
	StateGatewayVerify       State = "GATEWAY_VERIFY"
	StatePlacingOrder        State = "PLACING_ORDER"
	StateSucceeded           State = "SUCCESS"
	StateFailed              State = "FAILED"
)

var transitions = map[State][]State{
	StateIdle:                {StateValidatingSelection},
	StateValidatingSelection: {StateValidatingProfile, StateFailed},
	StateValidatingProfile:   {StateCODPath, StateGatewayKey, StateIdle, StateFailed},
	StateCODPath:             {StatePlacingOrder},
	StateGatewayKey:          {StateGatewayOrder, StateFailed},
	StateGatewayOrder:        {StateGatewayCollect, StateFailed},
	StateGatewayCollect:      {StateGatewayVerify, StateIdle, StateFailed},
	StateGatewayVerify:       {StatePlacingOrder, StateFailed},
	StatePlacingOrder:        {StateSucceeded, StateFailed},
}

func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// InFlight reports whether the initiating control must stay disabled.
func (s State) InFlight() bool {
	return s != StateIdle && !s.IsTerminal()
}

func (s State) String() string {
	return string(s)
}
