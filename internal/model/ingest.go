package model

type IngestResult struct {
	Success    bool       `json:"success"`
	Message    string     `json:"message"`
	Statistics Statistics `json:"statistics"`
}

type IngestRecord struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	FileName  string `json:"file_name"`
	FileKey   string `json:"file_key"`
	Pages     int    `json:"pages"`
	Words     int    `json:"words"`
	Chunks    int    `json:"chunks"`
	Ctime     int64  `json:"ctime"`
}
