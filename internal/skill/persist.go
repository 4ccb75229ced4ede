package skill

import (
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

//
// Backend is the slice of the relational store this package needs.
// filters are column -> value equality matches; responses come back
// as parsed json rows. implementations do not retry - failures
// propagate to the caller untouched.
//
type Backend interface {
	Select(table string, filter map[string]string) (gjson.Result, error)
	Insert(table string, records interface{}) (gjson.Result, error)
	Update(table string, patch map[string]interface{}, filter map[string]string) (gjson.Result, error)
	Upsert(table string, records interface{}, conflict string) (gjson.Result, error)
}

// tables written by the adapter
const (
	usersTable          = "users"
	skillScoresTable    = "skill_scores"
	categoryScoresTable = "category_scores"
)

// Adapter persists screener results through a Backend.
type Adapter struct {
	be Backend
}

// NewAdapter wraps a backend in the persistence operations.
func NewAdapter(be Backend) *Adapter {
	return &Adapter{be: be}
}

//
// InitializeUser registers a placeholder user keyed only by email
// and returns the store-assigned user id. beta-test measure until
// real authentication is integrated - callers must stop before any
// persistence when this fails.
//
func (a *Adapter) InitializeUser(email string) (string, error) {
	res, err := a.be.Insert(usersTable, map[string]interface{}{"email": email})
	if err != nil {
		return "", errors.Wrap(err, "cannot initialise user")
	}
	userID := res.Get("0.user_id").String()
	if userID == "" {
		return "", errors.New("user insert returned no user_id")
	}
	log.Infof("user initialised with id: %s", userID)
	return userID, nil
}

//
// UpsertSkillValue writes one skill value keyed by
// (user, skill name). an existing row is updated in place, so
// re-processing the same webhook converges to the latest value
// instead of duplicating rows.
//
func (a *Adapter) UpsertSkillValue(userID, skillNameID string, value int) error {
	filter := map[string]string{
		"user_id":       userID,
		"skill_name_id": skillNameID,
	}
	existing, err := a.be.Select(skillScoresTable, filter)
	if err != nil {
		return errors.Wrapf(err, "cannot check for existing skill %s", skillNameID)
	}
	if len(existing.Array()) > 0 {
		_, err = a.be.Update(skillScoresTable, map[string]interface{}{"skill_value": value}, filter)
		return errors.Wrapf(err, "cannot update skill %s", skillNameID)
	}
	_, err = a.be.Insert(skillScoresTable, map[string]interface{}{
		"user_id":       userID,
		"skill_name_id": skillNameID,
		"skill_value":   value,
	})
	return errors.Wrapf(err, "cannot insert skill %s", skillNameID)
}

//
// UploadSkillValues upserts every value in the store for one user,
// transforming each code into its storage display form first.
// stops on the first backend failure.
//
func (a *Adapter) UploadSkillValues(userID string, st ScreenerStore) error {
	for domain, categories := range st {
		for category, skills := range categories {
			for code, value := range skills {
				name := TransformSkillName(code)
				if err := a.UpsertSkillValue(userID, name, value); err != nil {
					return errors.Wrapf(err, "uploading %s/%s", domain, category)
				}
			}
		}
	}
	return nil
}

//
// InsertCategoryScores writes all category summaries for one user
// as a single batch, upserting on (user_id, domain, category) so a
// re-processed webhook replaces its summaries rather than
// accumulating duplicate rows.
//
func (a *Adapter) InsertCategoryScores(userID string, scores Scores) error {
	records := []map[string]interface{}{}
	for domain, categories := range scores {
		for category, score := range categories {
			record := map[string]interface{}{
				"user_id":         userID,
				"domain":          string(domain),
				"category":        string(category),
				"total_questions": score.TotalQuestions,
				"correct_answers": score.CorrectAnswers,
			}
			if id, ok := CategoryID(category); ok {
				record["category_id"] = id
			}
			records = append(records, record)
		}
	}
	if len(records) == 0 {
		return nil
	}
	_, err := a.be.Upsert(categoryScoresTable, records, "user_id,domain,category")
	return errors.Wrap(err, "cannot insert category scores")
}
