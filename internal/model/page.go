package model

// PageRecord is the text extracted from one PDF page. Index is 1-based and
// refers to the page position in the source file.
type PageRecord struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
}

type Statistics struct {
	TotalPages          int     `json:"total_pages"`
	TotalWords          int     `json:"total_words"`
	AverageWordsPerPage float64 `json:"average_words_per_page"`
}

// ComputeStatistics derives totals over pages. The average is 0 when there
// are no pages.
func ComputeStatistics(pages []PageRecord) Statistics {
	st := Statistics{TotalPages: len(pages)}
	for _, p := range pages {
		st.TotalWords += p.WordCount
	}
	if st.TotalPages > 0 {
		st.AverageWordsPerPage = float64(st.TotalWords) / float64(st.TotalPages)
	}
	return st
}
