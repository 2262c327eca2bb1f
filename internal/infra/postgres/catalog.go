package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"trivia-session-service/internal/catalog"
	"trivia-session-service/internal/domain"
)

// CatalogLoader reads question sets from Postgres. Rows come in the loose
// choice_a..choice_d shape and pass through catalog.Canonicalize exactly
// once on the way out.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) ListSets(ctx context.Context) ([]domain.QuestionSet, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT s.id, s.name, COUNT(q.id)
		FROM question_sets s
		LEFT JOIN questions q ON q.question_set_id = s.id
		GROUP BY s.id, s.name
		ORDER BY s.name`)
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	defer rows.Close()

	var sets []domain.QuestionSet
	for rows.Next() {
		var set domain.QuestionSet
		if err := rows.Scan(&set.ID, &set.Name, &set.Count); err != nil {
			return nil, fmt.Errorf("scan set: %w", err)
		}
		sets = append(sets, set)
	}
	return sets, rows.Err()
}

func (l *CatalogLoader) SetByName(ctx context.Context, name string) (domain.QuestionSet, error) {
	var set domain.QuestionSet
	err := l.pool.QueryRow(ctx, `
		SELECT s.id, s.name,
		       (SELECT COUNT(*) FROM questions q WHERE q.question_set_id = s.id)
		FROM question_sets s WHERE s.name = $1`, name).
		Scan(&set.ID, &set.Name, &set.Count)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionSet{}, domain.ErrSetNotFound
	}
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("set by name: %w", err)
	}
	return set, nil
}

const questionColumns = `id, content, choice_a, choice_b, choice_c, choice_d, correct_answer, time_limit, points`

func (l *CatalogLoader) QuestionsForSet(ctx context.Context, setID string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE question_set_id = $1 ORDER BY id`, setID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		q, ok, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		if ok {
			questions = append(questions, q)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		// Distinguish an unknown set from a legitimately empty one.
		var exists bool
		if err := l.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM question_sets WHERE id = $1)`, setID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check set: %w", err)
		}
		if !exists {
			return nil, domain.ErrSetNotFound
		}
	}
	return questions, nil
}

func (l *CatalogLoader) DefaultSet(ctx context.Context) (domain.QuestionSet, []domain.Question, error) {
	set, err := l.SetByName(ctx, catalog.DefaultSetName)
	if err != nil {
		return domain.QuestionSet{}, nil, err
	}
	questions, err := l.QuestionsForSet(ctx, set.ID)
	if err != nil {
		return domain.QuestionSet{}, nil, err
	}
	return set, questions, nil
}

func (l *CatalogLoader) QuestionByID(ctx context.Context, questionID string) (domain.Question, error) {
	row := l.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, questionID)
	q, ok, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Question{}, domain.ErrQuestionNotFound
		}
		return domain.Question{}, err
	}
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(row rowScanner) (domain.Question, bool, error) {
	var (
		raw              catalog.RawQuestion
		choiceC, choiceD *string
	)
	err := row.Scan(&raw.ID, &raw.Content, &raw.ChoiceA, &raw.ChoiceB, &choiceC, &choiceD,
		&raw.CorrectAnswer, &raw.TimeLimit, &raw.Points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Question{}, false, err
		}
		return domain.Question{}, false, fmt.Errorf("scan question: %w", err)
	}
	if choiceC != nil {
		raw.ChoiceC = *choiceC
	}
	if choiceD != nil {
		raw.ChoiceD = *choiceD
	}
	q, ok := catalog.Canonicalize(raw)
	return q, ok, nil
}
