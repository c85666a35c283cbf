package models

// QuestionCard is one prompt of the guided training questionnaire
type QuestionCard struct {
	ID          int64  `json:"id" yaml:"id"`
	Category    string `json:"category" yaml:"category"`
	Content     string `json:"content" yaml:"content"`
	Placeholder string `json:"placeholder" yaml:"placeholder"`
	Position    int    `json:"position" yaml:"position"`
}
