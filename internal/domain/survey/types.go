// Package survey holds the respondent session model: demographics, the
// per-image Likert ledger, the group partitioner, and the pure transition
// reducer that drives START → SURVEY → FINISH.
//
// Nothing in this package performs I/O. Network calls (group allocation,
// submission) and persistence live behind ports and are sequenced by
// internal/app.Controller using the Effects returned from Reduce.
package survey

import (
	"fmt"
	"strings"
)

// Phase is the position of a session in the linear flow.
type Phase string

const (
	PhaseStart  Phase = "START"
	PhaseSurvey Phase = "SURVEY"
	PhaseFinish Phase = "FINISH"
)

// Valid reports whether p is one of the three known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseStart, PhaseSurvey, PhaseFinish:
		return true
	}
	return false
}

// Choice is one option of a closed demographic enumeration.
// Label is the wire value the collection endpoint expects.
type Choice struct {
	Code    string
	Label   string
	Aliases []string
}

// DemographicField names one of the three demographic questions.
type DemographicField string

const (
	FieldGender DemographicField = "gender"
	FieldAge    DemographicField = "age"
	FieldJob    DemographicField = "job"
)

// DemographicFields lists the questions in display order.
var DemographicFields = []DemographicField{FieldGender, FieldAge, FieldJob}

var genderChoices = []Choice{
	{Code: "male", Label: "남성", Aliases: []string{"m"}},
	{Code: "female", Label: "여성", Aliases: []string{"f"}},
}

var ageChoices = []Choice{
	{Code: "10s", Label: "10대", Aliases: []string{"teen"}},
	{Code: "20s", Label: "20대"},
	{Code: "30s", Label: "30대"},
	{Code: "40s", Label: "40대"},
	{Code: "50s", Label: "50대"},
	{Code: "60plus", Label: "60대 이상", Aliases: []string{"60s", "60+"}},
}

var jobChoices = []Choice{
	{Code: "student", Label: "학생"},
	{Code: "office", Label: "사무직"},
	{Code: "field", Label: "현장직"},
	{Code: "self-employed", Label: "자영업", Aliases: []string{"self"}},
	{Code: "unemployed", Label: "무직"},
	{Code: "other", Label: "기타"},
}

// Choices returns the closed option set for a demographic field.
func Choices(f DemographicField) ([]Choice, error) {
	switch f {
	case FieldGender:
		return genderChoices, nil
	case FieldAge:
		return ageChoices, nil
	case FieldJob:
		return jobChoices, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, string(f))
}

// ParseChoice resolves user input (code, alias, or label, case-insensitive)
// to the wire label for field f.
func ParseChoice(f DemographicField, input string) (string, error) {
	choices, err := Choices(f)
	if err != nil {
		return "", err
	}
	in := strings.TrimSpace(input)
	for _, c := range choices {
		if strings.EqualFold(in, c.Code) || in == c.Label {
			return c.Label, nil
		}
		for _, a := range c.Aliases {
			if strings.EqualFold(in, a) {
				return c.Label, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s=%q", ErrInvalidDemographic, f, input)
}

// isChoice reports whether label is a wire value of field f.
func isChoice(f DemographicField, label string) bool {
	choices, err := Choices(f)
	if err != nil {
		return false
	}
	for _, c := range choices {
		if c.Label == label {
			return true
		}
	}
	return false
}

// Demographics are collected in START and frozen once the survey begins.
type Demographics struct {
	Gender string `json:"gender"`
	Age    string `json:"age"`
	Job    string `json:"job"`
}

// Get returns the value of field f.
func (d Demographics) Get(f DemographicField) string {
	switch f {
	case FieldGender:
		return d.Gender
	case FieldAge:
		return d.Age
	case FieldJob:
		return d.Job
	}
	return ""
}

func (d *Demographics) set(f DemographicField, v string) {
	switch f {
	case FieldGender:
		d.Gender = v
	case FieldAge:
		d.Age = v
	case FieldJob:
		d.Job = v
	}
}

// Complete reports whether all three fields hold a valid option.
func (d Demographics) Complete() bool {
	for _, f := range DemographicFields {
		if !isChoice(f, d.Get(f)) {
			return false
		}
	}
	return true
}

// Stratum is the sampling stratum key (gender × age).
func (d Demographics) Stratum() string {
	return d.Gender + "/" + d.Age
}

// Likert is a rating on the closed 1..5 ordinal scale.
type Likert int

const (
	LikertMin Likert = 1
	LikertMax Likert = 5
)

// ParseLikert validates v and returns it as a Likert value.
func ParseLikert(v int) (Likert, error) {
	l := Likert(v)
	if !l.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRating, v)
	}
	return l, nil
}

// Valid reports whether l lies in [1,5].
func (l Likert) Valid() bool {
	return l >= LikertMin && l <= LikertMax
}

// Field names one of the five per-image rating questions.
type Field string

const (
	FieldAesthetics Field = "aesthetics"
	FieldStability  Field = "stability"
	FieldIdentity   Field = "identity"
	FieldDepression Field = "depression"
	FieldBoredom    Field = "boredom"
)

// Fields lists the rating questions in the order they are asked.
var Fields = []Field{FieldAesthetics, FieldStability, FieldIdentity, FieldDepression, FieldBoredom}

var fieldLabels = map[Field]string{
	FieldAesthetics: "심미성 (아름다움)",
	FieldStability:  "안정성 (편안함)",
	FieldIdentity:   "정체성 (특색있음)",
	FieldDepression: "우울함",
	FieldBoredom:    "지루함",
}

// Label returns the question text shown to respondents.
func (f Field) Label() string {
	return fieldLabels[f]
}

// ParseField resolves a rating question name.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := fieldLabels[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
	return f, nil
}

// Response is the rating record for one assigned image.
// A nil rating means the question has not been answered yet.
type Response struct {
	ImageID    string  `json:"imageId"`
	Aesthetics *Likert `json:"aesthetics"`
	Stability  *Likert `json:"stability"`
	Identity   *Likert `json:"identity"`
	Depression *Likert `json:"depression"`
	Boredom    *Likert `json:"boredom"`
}

// NewResponse returns an unanswered record for imageID.
func NewResponse(imageID string) Response {
	return Response{ImageID: imageID}
}

func (r *Response) slot(f Field) **Likert {
	switch f {
	case FieldAesthetics:
		return &r.Aesthetics
	case FieldStability:
		return &r.Stability
	case FieldIdentity:
		return &r.Identity
	case FieldDepression:
		return &r.Depression
	case FieldBoredom:
		return &r.Boredom
	}
	return nil
}

// Rating returns the value of f and whether it has been set.
func (r Response) Rating(f Field) (Likert, bool) {
	p := r.slot(f)
	if p == nil || *p == nil {
		return 0, false
	}
	return **p, true
}

// Answered counts the rating fields that are set.
func (r Response) Answered() int {
	n := 0
	for _, f := range Fields {
		if _, ok := r.Rating(f); ok {
			n++
		}
	}
	return n
}

// Complete reports whether all five ratings are set.
func (r Response) Complete() bool {
	return r.Answered() == len(Fields)
}

// clone copies the response so pointer fields are not shared.
func (r Response) clone() Response {
	out := Response{ImageID: r.ImageID}
	for _, f := range Fields {
		if v, ok := r.Rating(f); ok {
			vv := v
			*out.slot(f) = &vv
		}
	}
	return out
}
