package models

// Stats is the per-account usage summary served by the stats endpoint.
type Stats struct {
	Datasets         int            `json:"datasets"`
	AnalysesByStatus map[string]int `json:"analyses_by_status"`
	ChatTurns        int            `json:"chat_turns"`
}
