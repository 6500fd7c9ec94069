package dto

import "text2sql-be/internal/entity"

type AskRequest struct {
	Message   string `json:"message" validate:"required,min=1"`
	SessionID string `json:"session_id"`
	// Model picks a registered model by name; empty uses the default.
	Model string `json:"model"`
}

type AskResponse struct {
	RunID          string   `json:"run_id"`
	SessionID      string   `json:"session_id"`
	Answer         string   `json:"answer"`
	SelectedTables []string `json:"selected_tables"`
	SQLStatements  []string `json:"sql_statements"`
	Attempts       int      `json:"attempts"`
}

type ModelInfo struct {
	Name             string `json:"name"`
	Default          bool   `json:"default"`
	StructuredOutput bool   `json:"structured_output"`
	Streaming        bool   `json:"streaming"`
}

type SessionResponse struct {
	ID    string        `json:"id"`
	Turns []entity.Turn `json:"turns"`
}
