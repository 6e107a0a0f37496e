package component

// Cooldown blocks new attacks until Frames ticks have passed. The cooldown
// system removes it when it runs out.
type Cooldown struct {
	Frames int
}

var CooldownComponent = NewComponent[Cooldown]()
