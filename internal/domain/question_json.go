package domain

import "encoding/json"

type questionJSON struct {
	ID             string `json:"_id"`
	Company        string `json:"company"`
	Question       string `json:"question"`
	Link           string `json:"link"`
	Level          string `json:"level"`
	SolvedByAditya bool   `json:"solvedByAditya"`
	SolvedByAnanya bool   `json:"solvedByAnanya"`
	Winner         *User  `json:"winner"`
}

// MarshalJSON flattens the per-user flags into named fields.
func (q Question) MarshalJSON() ([]byte, error) {
	return json.Marshal(questionJSON{
		ID:             q.ID,
		Company:        q.Company,
		Question:       q.Question,
		Link:           q.Link,
		Level:          q.Level,
		SolvedByAditya: q.SolvedBy[UserA],
		SolvedByAnanya: q.SolvedBy[UserB],
		Winner:         q.Winner,
	})
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var raw questionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*q = Question{
		ID:       raw.ID,
		Company:  raw.Company,
		Question: raw.Question,
		Link:     raw.Link,
		Level:    raw.Level,
		SolvedBy: [2]bool{UserA: raw.SolvedByAditya, UserB: raw.SolvedByAnanya},
		Winner:   raw.Winner,
	}
	return nil
}
