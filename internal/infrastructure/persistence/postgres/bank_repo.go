package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/quiz"
)

// BankRepository loads and seeds the question bank.
type BankRepository struct {
	conn *Connection
}

// NewBankRepository creates a new BankRepository.
func NewBankRepository(conn *Connection) *BankRepository {
	return &BankRepository{conn: conn}
}

// LoadBank reads all questions and the final exam composition.
func (r *BankRepository) LoadBank(ctx context.Context) (*quiz.MapBank, error) {
	sql, args, err := psql.Select("topic", "question", "options", "answer", "hint", "explanation", "difficulty").
		From("quiz_questions").
		OrderBy("topic", "position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Pool().Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	defer rows.Close()

	topics := make(map[string][]quiz.Question)
	for rows.Next() {
		var (
			topic      string
			q          quiz.Question
			options    []byte
			difficulty string
		)
		if err := rows.Scan(&topic, &q.Text, &options, &q.Answer, &q.Hint, &q.Explanation, &difficulty); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("question options of %s: %w", topic, err)
		}
		q.Difficulty = quiz.Difficulty(difficulty)
		topics[topic] = append(topics[topic], q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	finalRows, err := r.conn.Pool().Query(ctx, "SELECT topic, question_index FROM final_exam ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to load final exam: %w", err)
	}
	final, err := pgx.CollectRows(finalRows, func(row pgx.CollectableRow) (quiz.FinalRef, error) {
		var ref quiz.FinalRef
		err := row.Scan(&ref.Topic, &ref.Index)
		return ref, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan final exam: %w", err)
	}

	return quiz.NewMapBank(topics, final), nil
}

// SeedBank writes bank into empty tables. It returns false if questions already exist.
func (r *BankRepository) SeedBank(ctx context.Context, bank quiz.Bank) (bool, error) {
	seeded := false

	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		var count int
		if err := tx.QueryRow(ctx, "SELECT count(*) FROM quiz_questions").Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		for _, topic := range bank.Topics() {
			for i, q := range bank.Questions(topic) {
				options, err := json.Marshal(q.Options)
				if err != nil {
					return err
				}
				sql, args, err := psql.Insert("quiz_questions").
					Columns("topic", "position", "question", "options", "answer", "hint", "explanation", "difficulty").
					Values(topic, i, q.Text, options, q.Answer, q.Hint, q.Explanation, string(q.Difficulty)).
					ToSql()
				if err != nil {
					return err
				}
				if _, err := tx.Exec(ctx, sql, args...); err != nil {
					return fmt.Errorf("insert question %s/%d: %w", topic, i, err)
				}
			}
		}

		for pos, ref := range bank.FinalExam() {
			if _, err := tx.Exec(ctx,
				"INSERT INTO final_exam (position, topic, question_index) VALUES ($1, $2, $3)",
				pos, ref.Topic, ref.Index,
			); err != nil {
				return fmt.Errorf("insert final exam ref %d: %w", pos, err)
			}
		}

		seeded = true
		return nil
	})
	if IsUniqueViolation(err) {
		// другой экземпляр успел засеять банк первым
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to seed question bank: %w", err)
	}
	return seeded, nil
}
