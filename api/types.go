package api

import (
	"encoding/json"
	"time"

	"github.com/vigia-dou/vigia/errors"
	"github.com/vigia-dou/vigia/schedule"
	"github.com/vigia-dou/vigia/settings"
)

// Delivery limits enforced by the backend. Search responses report how
// many results were emailed in full and how many overflowed to links.
const (
	// MaxEmailedResults is the most results a notification email carries.
	MaxEmailedResults = 20
	// MaxAttachments is the most PDF attachments a notification email carries.
	MaxAttachments = 6
	// MaxAttachmentBytes caps the combined attachment payload per email.
	MaxAttachmentBytes = 25 * 1024 * 1024
)

// apiError is the backend's error envelope.
type apiError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (e *apiError) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Detail
}

// loginRequest is the credential exchange payload.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse carries the bearer token and the operator identity.
type loginResponse struct {
	AccessToken string `json:"access_token"`
	User        struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"user"`
}

// changePasswordRequest is the password rotation payload.
type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// stringList tolerates the backend sending a single term as a bare
// string instead of a one-element array.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*s = stringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = stringList(many)
	return nil
}

// jobWire is the scheduled-job record as the backend spells it.
type jobWire struct {
	ID                 *int64     `json:"id,omitempty"`
	SearchQuery        stringList `json:"search_query"`
	Schedule           string     `json:"schedule"`
	Weekdays           []string   `json:"weekdays,omitempty"`
	LookbackDays       int        `json:"quant_dias"`
	NotifyEmail        string     `json:"email_envio,omitempty"`
	Active             bool       `json:"active"`
	LastModifiedBy     string     `json:"ultima_alteracao_por,omitempty"`
	LastModifiedAtWire string     `json:"ultima_alteracao_em,omitempty"`
}

// jobToWire converts a schedule.Job into its wire form. The audit
// fields travel too so the backend can persist them.
func jobToWire(job *schedule.Job) jobWire {
	w := jobWire{
		SearchQuery:  stringList(job.SearchTerms),
		Schedule:     job.TriggerTime,
		LookbackDays: job.LookbackDays,
		NotifyEmail:  job.NotifyEmail,
		Active:       job.Active,
	}
	if job.ID != 0 {
		id := job.ID
		w.ID = &id
	}
	for _, d := range job.Weekdays {
		w.Weekdays = append(w.Weekdays, string(d))
	}
	if job.LastModifiedBy != "" {
		w.LastModifiedBy = job.LastModifiedBy
	}
	if !job.LastModifiedAt.IsZero() {
		w.LastModifiedAtWire = job.LastModifiedAt.Format(time.RFC3339)
	}
	return w
}

// jobFromWire converts the backend record back into a schedule.Job.
func jobFromWire(w jobWire) (*schedule.Job, error) {
	job := &schedule.Job{
		SearchTerms:    []string(w.SearchQuery),
		TriggerTime:    w.Schedule,
		LookbackDays:   w.LookbackDays,
		NotifyEmail:    w.NotifyEmail,
		Active:         w.Active,
		LastModifiedBy: w.LastModifiedBy,
	}
	if w.ID != nil {
		job.ID = *w.ID
	}
	for _, name := range w.Weekdays {
		d, err := schedule.ParseWeekday(name)
		if err != nil {
			return nil, errors.Wrapf(err, "job %d", job.ID)
		}
		job.Weekdays = append(job.Weekdays, d)
	}
	if w.LastModifiedAtWire != "" {
		// Audit timestamp formats vary across backend versions; an
		// unparseable value is kept out rather than failing the decode.
		if ts, err := time.Parse(time.RFC3339, w.LastModifiedAtWire); err == nil {
			job.LastModifiedAt = ts
		}
	}
	return job, nil
}

// jobListWire is the wrapped job listing with server-side counters.
type jobListWire struct {
	Jobs          []jobWire `json:"jobs"`
	TotalJobs     *int      `json:"total_jobs"`
	ActiveJobs    *int      `json:"jobs_ativos"`
	InactiveJobs  *int      `json:"jobs_inativos"`
	LastExecution string    `json:"ultima_execucao"`
}

// decodeJobCollection accepts both listing shapes the backend has
// shipped: a wrapped object with counters and a bare array. Counters
// from the wrapped form are authoritative; missing ones are recomputed.
func decodeJobCollection(data []byte) (*schedule.Collection, error) {
	coll := &schedule.Collection{}

	var wires []jobWire
	if err := json.Unmarshal(data, &wires); err == nil {
		for _, w := range wires {
			job, err := jobFromWire(w)
			if err != nil {
				return nil, err
			}
			coll.Jobs = append(coll.Jobs, job)
		}
		coll.Recount()
		return coll, nil
	}

	var wrapped jobListWire
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, errors.Wrap(err, "decode job listing")
	}
	for _, w := range wrapped.Jobs {
		job, err := jobFromWire(w)
		if err != nil {
			return nil, err
		}
		coll.Jobs = append(coll.Jobs, job)
	}
	coll.LastExecution = wrapped.LastExecution
	if wrapped.TotalJobs != nil && wrapped.ActiveJobs != nil && wrapped.InactiveJobs != nil {
		coll.TotalJobs = *wrapped.TotalJobs
		coll.ActiveJobs = *wrapped.ActiveJobs
		coll.InactiveJobs = *wrapped.InactiveJobs
	} else {
		coll.Recount()
	}
	return coll, nil
}

// settingsWire is the system configuration as the backend spells it.
type settingsWire struct {
	PrimaryEmail  string   `json:"email_principal"`
	AlertEmails   []string `json:"emails_aviso"`
	LastChangedBy string   `json:"ultima_alteracao_por,omitempty"`
	LastChangedAt string   `json:"ultima_alteracao_em,omitempty"`
	AccessedBy    string   `json:"acessado_por,omitempty"`
}

func settingsToWire(s *settings.Settings) settingsWire {
	return settingsWire{
		PrimaryEmail:  s.PrimaryEmail,
		AlertEmails:   s.AlertEmails,
		LastChangedBy: s.LastChangedBy,
		LastChangedAt: s.LastChangedAt,
		AccessedBy:    s.AccessedBy,
	}
}

func settingsFromWire(w settingsWire) *settings.Settings {
	return &settings.Settings{
		PrimaryEmail:  w.PrimaryEmail,
		AlertEmails:   w.AlertEmails,
		LastChangedBy: w.LastChangedBy,
		LastChangedAt: w.LastChangedAt,
		AccessedBy:    w.AccessedBy,
	}
}

// SearchRequest is an on-demand search submission.
type SearchRequest struct {
	SearchTerms []string `json:"search_query"`
	FromDate    string   `json:"from_date"`
	ToDate      string   `json:"to_date"`
	NotifyEmail string   `json:"email_envio,omitempty"`
}

// SearchResult is the backend's report of a completed search. Older
// backend versions return "resultados", newer ones "resultados_totais"
// plus the emailed/overflow split.
type SearchResult struct {
	Status       string `json:"status"`
	Results      *int   `json:"resultados,omitempty"`
	TotalResults *int   `json:"resultados_totais,omitempty"`
	Emailed      *int   `json:"enviados,omitempty"`
	Overflow     *int   `json:"excedentes,omitempty"`
	Message      string `json:"message,omitempty"`
}

// TotalFound returns the result count regardless of response vintage.
func (r *SearchResult) TotalFound() int {
	if r.TotalResults != nil {
		return *r.TotalResults
	}
	if r.Results != nil {
		return *r.Results
	}
	return 0
}

// EmailedCount returns how many results were delivered in full, falling
// back to the total when the backend predates the split reporting.
func (r *SearchResult) EmailedCount() int {
	if r.Emailed != nil {
		return *r.Emailed
	}
	return r.TotalFound()
}

// OverflowCount returns how many results were delivered as links only.
func (r *SearchResult) OverflowCount() int {
	if r.Overflow != nil {
		return *r.Overflow
	}
	return 0
}
