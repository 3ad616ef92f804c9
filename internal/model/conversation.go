package model

type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Answer struct {
	Text    string  `json:"answer"`
	HTML    string  `json:"answer_html,omitempty"`
	Sources []Chunk `json:"sources"`
}
