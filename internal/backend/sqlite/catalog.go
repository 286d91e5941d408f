package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"bizquiz/internal/wire"
)

func (s *Store) ListBusinesses(ctx context.Context) ([]wire.Business, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, types FROM businesses ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list businesses")
	}
	defer rows.Close()

	businesses := []wire.Business{}
	for rows.Next() {
		var business wire.Business
		if err := rows.Scan(&business.ID, &business.Types); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan business")
		}
		businesses = append(businesses, business)
	}
	return businesses, rows.Err()
}

func (s *Store) CreateBusiness(ctx context.Context, label string) (wire.Business, error) {
	label = strings.TrimSpace(label)
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO businesses (types, created_at_unix) VALUES (?, ?)`,
		label, time.Now().UTC().UnixNano(),
	)
	if err != nil {
		return wire.Business{}, constraintError(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return wire.Business{}, err
	}
	return wire.Business{ID: int(id), Types: label}, nil
}

// DeleteBusiness removes the business and, through the foreign key, its questions.
func (s *Store) DeleteBusiness(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM businesses WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete business %d", id)
	}
	return affectedOrNotFound(result)
}

const questionColumns = `q.id, q.question, q.option_a, q.option_b, q.option_c, q.option_d,
	q.option_a_score, q.option_b_score, q.option_c_score, q.option_d_score,
	q.answer, q.lang, b.id, b.types`

func (s *Store) ListQuestions(ctx context.Context, businessID int, lang string) ([]wire.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions q JOIN businesses b ON b.id = q.business_id`
	var (
		conditions []string
		args       []any
	)
	if businessID > 0 {
		conditions = append(conditions, `q.business_id = ?`)
		args = append(args, businessID)
	}
	if lang != "" {
		// Questions stored without a language are served for every language.
		conditions = append(conditions, `(q.lang = ? OR q.lang = '')`)
		args = append(args, lang)
	}
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, ` AND `)
	}
	query += ` ORDER BY q.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list questions")
	}
	defer rows.Close()

	questions := []wire.Question{}
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

func (s *Store) CreateQuestion(ctx context.Context, question wire.NewQuestion) (wire.Question, error) {
	scores := question.Scores()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO questions (
			business_id, question, option_a, option_b, option_c, option_d,
			option_a_score, option_b_score, option_c_score, option_d_score,
			answer, lang, created_at_unix
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		question.BusinessID,
		strings.TrimSpace(question.Question),
		strings.TrimSpace(question.OptionA),
		strings.TrimSpace(question.OptionB),
		strings.TrimSpace(question.OptionC),
		strings.TrimSpace(question.OptionD),
		nullInt(scores[0]), nullInt(scores[1]), nullInt(scores[2]), nullInt(scores[3]),
		strings.TrimSpace(question.Answer),
		question.Lang,
		time.Now().UTC().UnixNano(),
	)
	if err != nil {
		return wire.Question{}, constraintError(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return wire.Question{}, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+questionColumns+` FROM questions q JOIN businesses b ON b.id = q.business_id WHERE q.id = ?`, id)
	return scanQuestion(row)
}

func (s *Store) DeleteQuestion(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete question %d", id)
	}
	return affectedOrNotFound(result)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row scanner) (wire.Question, error) {
	var (
		id       int
		text     string
		options  [4]string
		scores   [4]sql.NullInt64
		answer   string
		lang     string
		business wire.Business
	)
	err := row.Scan(
		&id, &text, &options[0], &options[1], &options[2], &options[3],
		&scores[0], &scores[1], &scores[2], &scores[3],
		&answer, &lang, &business.ID, &business.Types,
	)
	if err != nil {
		return wire.Question{}, eris.Wrap(err, "sqlite: scan question")
	}

	var weights [4]*int
	for idx, score := range scores {
		if score.Valid {
			value := int(score.Int64)
			weights[idx] = &value
		}
	}
	return wire.QuestionFromOptions(id, text, options, weights, answer, &business, lang), nil
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}
