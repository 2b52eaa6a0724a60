package fhirfly

// Term is a NAMASTE term with its ICD-11 code, as returned by search.
type Term struct {
	ID          string `json:"id"`
	TermName    string `json:"termName"`
	NamasteCode string `json:"namasteCode"`
	ICD11Code   string `json:"icd11Code"`
	Description string `json:"description"`
}

type User struct {
	AbhaID string `json:"abhaId"`
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
	User      User   `json:"user"`
}

// TranslationRequest names code systems by URL or name.
type TranslationRequest struct {
	SourceCodeSystem string `json:"source_codesystem"`
	TargetCodeSystem string `json:"target_codesystem"`
	SourceCode       string `json:"source_code"`
}

type TranslationResponse struct {
	TargetCode  *string `json:"target_code"`
	Equivalence *string `json:"equivalence"`
	Found       bool    `json:"found"`
}

// MappingResult is the ICD-11 code for one NAMASTE code. ICD11Code is
// Unknown when no mapping exists.
type MappingResult struct {
	NamasteCode string `json:"namasteCode"`
	ICD11Code   string `json:"icd11Code"`
	Message     string `json:"message"`
}

type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Key     string `json:"key"`
}
