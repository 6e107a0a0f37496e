package component

// Agent holds the attack tuning of an AI attacker.
type Agent struct {
	Name            string
	Category        string
	BasedOnTarget   bool
	DesiredDistance float64
	VisionRange     float64
	AttackRange     float64
	CooldownTicks   int
	MoveSpeed       float64
}

var AgentComponent = NewComponent[Agent]()
