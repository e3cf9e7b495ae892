package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"stream-notify/internal/domain/entity"
	"stream-notify/internal/repository"
)

type PersonRepo struct{ db Querier }

func NewPersonRepo(db Querier) repository.PersonRepository {
	return &PersonRepo{db: db}
}

func (repo *PersonRepo) Get(ctx context.Context, id int64) (*entity.Person, error) {
	const query = `
SELECT id, account_id, display_name, email, avatar_id, locked
FROM people
WHERE id = $1
LIMIT 1`
	var person entity.Person
	err := repo.db.QueryRowContext(ctx, query, id).Scan(
		&person.ID, &person.AccountID, &person.DisplayName,
		&person.Email, &person.AvatarID, &person.Locked,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &person, nil
}

func (repo *PersonRepo) FindByIDs(ctx context.Context, ids []int64) (entity.RecipientIndex, error) {
	if len(ids) == 0 {
		return entity.RecipientIndex{}, nil
	}

	// パフォーマンス最適化: ID数に合わせてプレースホルダを組み立てる
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
SELECT id, account_id, display_name, email, avatar_id, locked
FROM people
WHERE id IN (%s)`, strings.Join(placeholders, ", "))

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("FindByIDs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	index := make(entity.RecipientIndex, len(ids))
	for rows.Next() {
		var person entity.Person
		if err := rows.Scan(
			&person.ID, &person.AccountID, &person.DisplayName,
			&person.Email, &person.AvatarID, &person.Locked,
		); err != nil {
			return nil, fmt.Errorf("FindByIDs: %w", err)
		}
		index[person.ID] = &person
	}
	return index, rows.Err()
}
