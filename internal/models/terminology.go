package models

// TerminologyResult is one NAMASTE term with its ICD-11 mapping.
type TerminologyResult struct {
	ID          string `json:"id"`
	TermName    string `json:"termName"`
	NamasteCode string `json:"namasteCode"`
	ICD11Code   string `json:"icd11Code"`
	Description string `json:"description"`
}

// AnalyticsData is how often a term occurs.
type AnalyticsData struct {
	Term  string  `json:"term"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

type DashboardStats struct {
	TotalPatients    int64 `json:"totalPatients"`
	TotalTermsMapped int64 `json:"totalTermsMapped"`
	TotalConceptMaps int64 `json:"totalConceptMaps"`
	TotalCodeSystems int64 `json:"totalCodeSystems"`
	RecentProblems   int64 `json:"recentProblems"`
}

// ChatMessage is one turn of a chatbot conversation.
type ChatMessage struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Role      string `json:"role"`
	Timestamp string `json:"timestamp,omitempty"`
}

type ChatRequest struct {
	Message             string        `json:"message"`
	ConversationHistory []ChatMessage `json:"conversationHistory"`
}

type ChatResponse struct {
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}
