package risk

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	LevelHigh     = "HIGH RISK"
	LevelModerate = "Moderate Risk"
	LevelLow      = "Low Risk"

	// NotAnswered is the response recorded for a question left blank.
	NotAnswered = "N/A"
)

var (
	ErrUnknownQuestion = errors.New("unknown risk question")
	ErrUnknownOption   = errors.New("unknown option for risk question")
)

//go:embed questionnaire.yaml
var questionnaireYAML []byte

type Option struct {
	Answer string  `yaml:"answer" json:"answer"`
	Points float64 `yaml:"points" json:"points"`
}

type Question struct {
	Key     string   `yaml:"key" json:"key"`
	Label   string   `yaml:"label" json:"label"`
	Options []Option `yaml:"options" json:"options"`
}

type level struct {
	Name            string   `yaml:"name"`
	Min             *float64 `yaml:"min"`
	Recommendations []string `yaml:"recommendations"`
}

type table struct {
	Questions []Question `yaml:"questions"`
	Levels    []level    `yaml:"levels"`
}

var questionnaire = mustLoad(questionnaireYAML)

func mustLoad(data []byte) table {
	t, err := loadTable(data)
	if err != nil {
		panic(fmt.Sprintf("risk: invalid questionnaire: %v", err))
	}
	return t
}

func loadTable(data []byte) (table, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return table{}, err
	}
	if len(t.Questions) == 0 || len(t.Levels) == 0 {
		return table{}, errors.New("questionnaire needs questions and levels")
	}
	if t.Levels[len(t.Levels)-1].Min != nil {
		return table{}, errors.New("last level must be the catch-all")
	}
	return t, nil
}

// Answers maps a question key to the chosen option.
type Answers map[string]string

// Row is one line of the score breakdown, in questionnaire order.
type Row struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	Response string  `json:"response"`
	Points   float64 `json:"points"`
}

// Entry is the persisted form of one answered question.
type Entry struct {
	Response string  `json:"response" yaml:"response"`
	Score    float64 `json:"score" yaml:"score"`
}

// Record is what gets stored on the user as the assessment record.
type Record map[string]Entry

type Result struct {
	Total           float64  `json:"total"`
	Level           string   `json:"level"`
	Breakdown       []Row    `json:"breakdown"`
	Recommendations []string `json:"recommendations"`
	Record          Record   `json:"record"`
}

// Questions returns the questionnaire in display order.
func Questions() []Question {
	out := make([]Question, len(questionnaire.Questions))
	copy(out, questionnaire.Questions)
	return out
}

// Score sums the weight of every answer. Blank or unrecognised answers add nothing.
func Score(answers Answers) Result {
	res := Result{
		Breakdown: make([]Row, 0, len(questionnaire.Questions)),
		Record:    make(Record, len(questionnaire.Questions)),
	}

	for _, q := range questionnaire.Questions {
		response := strings.TrimSpace(answers[q.Key])
		if response == "" {
			response = NotAnswered
		}
		pts, _ := q.points(response)

		res.Total += pts
		res.Breakdown = append(res.Breakdown, Row{Key: q.Key, Label: q.Label, Response: response, Points: pts})
		res.Record[q.Key] = Entry{Response: response, Score: pts}
	}

	lv := levelFor(res.Total)
	res.Level = lv.Name
	res.Recommendations = append([]string(nil), lv.Recommendations...)
	return res
}

// Level buckets a total into its label.
func Level(total float64) string {
	return levelFor(total).Name
}

func levelFor(total float64) level {
	for _, lv := range questionnaire.Levels {
		if lv.Min == nil || total >= *lv.Min {
			return lv
		}
	}
	return questionnaire.Levels[len(questionnaire.Levels)-1]
}

// Validate reports the first answer that names an unknown question or option.
func Validate(answers Answers) error {
	for key, answer := range answers {
		q, ok := lookup(key)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownQuestion, key)
		}
		answer = strings.TrimSpace(answer)
		if answer == "" || answer == NotAnswered {
			continue
		}
		if _, ok := q.points(answer); !ok {
			return fmt.Errorf("%w %s: %q", ErrUnknownOption, key, answer)
		}
	}
	return nil
}

// FromRecord recovers the answers behind a stored record.
func FromRecord(rec Record) Answers {
	answers := make(Answers, len(rec))
	for key, e := range rec {
		if e.Response == "" || e.Response == NotAnswered {
			continue
		}
		answers[key] = e.Response
	}
	return answers
}

func lookup(key string) (Question, bool) {
	for _, q := range questionnaire.Questions {
		if q.Key == key {
			return q, true
		}
	}
	return Question{}, false
}

func (q Question) points(answer string) (float64, bool) {
	for _, o := range q.Options {
		if o.Answer == answer {
			return o.Points, true
		}
	}
	return 0, false
}
