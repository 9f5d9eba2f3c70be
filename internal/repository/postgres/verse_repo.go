package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tadabbur-search-api/internal/models"
	"github.com/tadabbur-search-api/internal/repository"
)

// VerseRepository implements repository.VerseRepository for PostgreSQL.
// The verses table carries a folded Arabic column and a folded-and-stemmed
// translation column, matching the forms the search terms arrive in: bare
// folded Arabic and snowball-stemmed English.
type VerseRepository struct {
	db *sqlx.DB
}

// NewVerseRepository creates a new PostgreSQL verse repository.
func NewVerseRepository(db *sqlx.DB) repository.VerseRepository {
	return &VerseRepository{db: db}
}

var _ repository.VerseRepository = (*VerseRepository)(nil)

// FindCandidates returns verses whose folded Arabic text or stemmed English
// translation contains any term, or whose root set overlaps the given roots.
func (r *VerseRepository) FindCandidates(ctx context.Context, terms []string, roots []string, suraNo int) ([]models.Verse, error) {
	if len(terms) == 0 && len(roots) == 0 {
		return []models.Verse{}, nil
	}

	var conds []string
	var args []interface{}

	if len(terms) > 0 {
		patterns := make([]string, len(terms))
		for i, t := range terms {
			patterns[i] = "%" + t + "%"
		}
		args = append(args, pq.Array(patterns))
		n := len(args)
		conds = append(conds, fmt.Sprintf("(text_folded LIKE ANY($%d) OR translation_folded LIKE ANY($%d))", n, n))
	}

	if len(roots) > 0 {
		args = append(args, pq.Array(roots))
		conds = append(conds, fmt.Sprintf("roots && $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT verse_id, sura_no, aya_no, juz_no, text_uthmani, text_imlaei, translation_en, roots
		FROM verses
		WHERE (%s)`, strings.Join(conds, " OR "))

	if suraNo > 0 {
		args = append(args, suraNo)
		query += fmt.Sprintf(" AND sura_no = $%d", len(args))
	}
	query += " ORDER BY sura_no, aya_no"

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidate verses: %w", err)
	}
	defer rows.Close()

	var results []models.Verse
	for rows.Next() {
		var v models.Verse
		if err := rows.Scan(&v.VerseID, &v.SuraNo, &v.AyaNo, &v.JuzNo,
			&v.TextUthmani, &v.TextImlaei, &v.TranslationEn, pq.Array(&v.Roots)); err != nil {
			return nil, fmt.Errorf("scan candidate verse: %w", err)
		}
		results = append(results, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate verses: %w", err)
	}

	if results == nil {
		results = []models.Verse{}
	}
	return results, nil
}
