package generation

type Phase string

const (
	PhaseLoad      Phase = "load"
	PhasePredicate Phase = "predicate"
	PhaseDocuments Phase = "documents"
	PhaseRetrieve  Phase = "retrieve"
	PhasePrompt    Phase = "prompt"
	PhaseGenerate  Phase = "generate"
	PhaseScore     Phase = "score"
	PhasePersist   Phase = "persist"
)

const (
	generateCeiling = 90
	// percent stays below the ceiling until the provider returns
	generateRampCap = generateCeiling - 1
)

type phaseInfo struct {
	floor   int
	label   string
	message string
}

var phases = map[Phase]phaseInfo{
	PhaseLoad:      {2, "loading submission", "Loading submission..."},
	PhasePredicate: {8, "loading predicate device", "Submission loaded. Fetching predicate device data..."},
	PhaseDocuments: {15, "loading supporting documents", "Scanning uploaded and AI-reviewed documents..."},
	PhaseRetrieve:  {25, "retrieving guidance", "Retrieving relevant FDA regulatory guidance..."},
	PhasePrompt:    {30, "building prompt", "Building 510(k) submission prompt..."},
	PhaseGenerate:  {30, "generating draft", "Generating submission draft..."},
	PhaseScore:     {95, "running compliance check", "AI generation complete. Running compliance check..."},
	PhasePersist:   {100, "saving document", "Saving generated document..."},
}

// Floor is the percent reported when the phase is entered.
func (p Phase) Floor() int { return phases[p].floor }

func (p Phase) label() string {
	if info, ok := phases[p]; ok {
		return info.label
	}
	return string(p)
}

// rampPercent maps received provider output onto the Generate band.
func rampPercent(received, expected int) int {
	if expected <= 0 {
		expected = 1
	}
	floor := PhaseGenerate.Floor()
	pct := floor + (generateCeiling-floor)*received/expected
	if pct > generateRampCap {
		pct = generateRampCap
	}
	if pct < floor {
		pct = floor
	}
	return pct
}
