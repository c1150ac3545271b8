package espn

import (
	"bytes"
	"encoding/json"
	"strconv"
)

type scoreboardResponse struct {
	Events []eventDTO `json:"events"`
}

type eventDTO struct {
	ID           string           `json:"id"`
	Status       statusDTO        `json:"status"`
	Competitions []competitionDTO `json:"competitions"`
}

type statusDTO struct {
	Clock  flexFloat `json:"clock"`
	Period flexFloat `json:"period"`
	Type   struct {
		State string `json:"state"`
	} `json:"type"`
}

type competitionDTO struct {
	Competitors []competitorDTO `json:"competitors"`
	Status      statusDTO       `json:"status"`
}

type competitorDTO struct {
	HomeAway string    `json:"homeAway"`
	Score    flexFloat `json:"score"`
	Team     struct {
		ID           string `json:"id"`
		Abbreviation string `json:"abbreviation"`
		DisplayName  string `json:"displayName"`
	} `json:"team"`
}

// flexFloat acepta número, string numérico, "" o null.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}
