package skill

//
// CategoryScore summarises the answers recorded under one
// (domain, category) pair.
//
type CategoryScore struct {
	TotalQuestions int `json:"total_questions"`
	CorrectAnswers int `json:"correct_answers"`
}

// Scores is the full aggregation of a screener store.
type Scores map[Domain]map[Category]CategoryScore

//
// ScoreCategory counts the questions recorded under a (domain,
// category) pair and how many of them were answered correctly.
// pure over the store snapshot.
//
func ScoreCategory(st ScreenerStore, domain Domain, category Category) CategoryScore {
	score := CategoryScore{}
	for _, v := range st.CategoryValues(domain, category) {
		score.TotalQuestions++
		score.CorrectAnswers += v
	}
	return score
}

//
// ScoreAll summarises every (domain, category) pair present in the
// store. categories only appear in the store once at least one
// answer classified into them, so every summary has a non-zero
// question count.
//
func ScoreAll(st ScreenerStore) Scores {
	scores := Scores{}
	for domain, categories := range st {
		scores[domain] = map[Category]CategoryScore{}
		for category := range categories {
			scores[domain][category] = ScoreCategory(st, domain, category)
		}
	}
	return scores
}
