package services

import (
	"sort"

	"github.com/kipkoechg/theory_coach/database"
	"github.com/kipkoechg/theory_coach/models"
)

// ResolveQuestions returns the deduplicated question bank for a state and
// language, one row per qid. The default-language bank is always the
// baseline so coverage is never lost; translations overlay it where they
// exist. Collisions between variants of the same qid are settled by an
// explicit ranking: a state-specific row beats an ALL-scope row, then a
// row in the requested language beats the default, and among equally
// ranked rows the most recently updated one wins.
func ResolveQuestions(state, language string) ([]models.Question, error) {
	code, err := normalizeState(state)
	if err != nil {
		return nil, err
	}
	lang := NormalizeLanguage(language)

	deduped := make(map[string]models.Question)
	overlay := func(batch []models.Question) {
		for _, question := range batch {
			current, ok := deduped[question.QID]
			if !ok || beats(question, current, code, lang) {
				deduped[question.QID] = question
			}
		}
	}

	var defaults []models.Question
	err = database.DB.
		Where("(state_scope = ? OR state_scope = ?) AND language = ?", code, models.ScopeAll, DefaultLanguage).
		Find(&defaults).Error
	if err != nil {
		return nil, err
	}
	overlay(defaults)

	if lang != DefaultLanguage {
		var translated []models.Question
		err = database.DB.
			Where("(state_scope = ? OR state_scope = ?) AND language = ?", code, models.ScopeAll, lang).
			Find(&translated).Error
		if err != nil {
			return nil, err
		}
		overlay(translated)
	}

	resolved := make([]models.Question, 0, len(deduped))
	for _, question := range deduped {
		resolved = append(resolved, question)
	}
	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].QID < resolved[j].QID
	})
	return resolved, nil
}

// questionRank orders qid variants: scope specificity dominates, then a
// language match. A state-specific default-language row therefore always
// outranks a translated ALL-scope row.
func questionRank(q models.Question, state, language string) int {
	rank := 0
	if q.StateScope == state {
		rank += 2
	}
	if q.Language == language {
		rank++
	}
	return rank
}

// beats reports whether candidate should replace current for the same qid.
// Equal ranks fall back to updated_at (newest wins), then primary key, so
// the result is a total order independent of storage iteration order.
func beats(candidate, current models.Question, state, language string) bool {
	cr, xr := questionRank(candidate, state, language), questionRank(current, state, language)
	if cr != xr {
		return cr > xr
	}
	if !candidate.UpdatedAt.Equal(current.UpdatedAt) {
		return candidate.UpdatedAt.After(current.UpdatedAt)
	}
	return candidate.ID.String() > current.ID.String()
}
