package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/supervisor_route.txt
	supervisorRouteRaw string

	//go:embed template/supervisor_compose.txt
	supervisorComposeRaw string

	//go:embed template/researcher.txt
	researcherRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	SupervisorRoute   string
	SupervisorCompose string
	Researcher        string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		SupervisorRoute:   strings.TrimSpace(supervisorRouteRaw),
		SupervisorCompose: strings.TrimSpace(supervisorComposeRaw),
		Researcher:        strings.TrimSpace(researcherRaw),
	}
}
