package workouts

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Owner is the optional owning user of a row. Rows imported from the legacy
// json files have no owner until they are claimed.
type Owner struct {
	id uuid.NullUUID
}

func OwnedBy(userID uuid.UUID) Owner {
	return Owner{id: uuid.NullUUID{UUID: userID, Valid: userID != uuid.Nil}}
}

func NoOwner() Owner {
	return Owner{}
}

func (o Owner) UserID() (uuid.UUID, bool) {
	return o.id.UUID, o.id.Valid
}

func (o Owner) IsSet() bool {
	return o.id.Valid
}

// NullUUID is the database representation, NULL when there is no owner.
func (o Owner) NullUUID() uuid.NullUUID {
	return o.id
}

func (o Owner) String() string {
	if !o.id.Valid {
		return "<none>"
	}
	return o.id.UUID.String()
}

func (o Owner) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.id)
}

func (o *Owner) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &o.id)
}

var errInvalidAmount = errors.New("sets, reps and weight must be strings or numbers")

// Amount is a sets / reps / weight value. It is opaque text end to end: a JSON
// number is kept in its literal form ("40.50" stays "40.50"), nothing is
// converted to a numeric type.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*a = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(strings.TrimSpace(s))
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*a = Amount(n.String())
	default:
		return errInvalidAmount
	}
	return nil
}

func (a Amount) IsEmpty() bool {
	return strings.TrimSpace(string(a)) == ""
}

type Exercise struct {
	ID        int    `json:"id"`
	WorkoutID int    `json:"workoutId"`
	Name      string `json:"name"`
	Sets      Amount `json:"sets"`
	Reps      Amount `json:"reps"`
	Weight    Amount `json:"weight"`
}

type Workout struct {
	ID        int        `json:"id"`
	Owner     Owner      `json:"userId"`
	Date      string     `json:"date"`
	CreatedAt time.Time  `json:"createdAt"`
	Exercises []Exercise `json:"exercises"`
}

type SaveWorkoutRequest struct {
	Date      string     `json:"date"`
	Exercises []Exercise `json:"exercises"`
}
