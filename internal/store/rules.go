package store

import "fmt"

// SaveEscalationRule inserts or updates a rule.
func (s *Store) SaveEscalationRule(r *EscalationRule) (*EscalationRule, error) {
	if r.ID == 0 {
		result, err := s.db.Exec(`INSERT INTO escalation_rules
			(name, priority, min_complexity, categories, keywords, target_team, enabled)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.Name, r.Priority, r.MinComplexity, marshalStrings(r.Categories),
			marshalStrings(r.Keywords), r.TargetTeam, r.Enabled)
		if err != nil {
			return nil, fmt.Errorf("save escalation rule: %w", err)
		}
		id, _ := result.LastInsertId()
		r.ID = id
		return r, nil
	}
	_, err := s.db.Exec(`UPDATE escalation_rules SET
		name = ?, priority = ?, min_complexity = ?, categories = ?, keywords = ?,
		target_team = ?, enabled = ?
		WHERE id = ?`,
		r.Name, r.Priority, r.MinComplexity, marshalStrings(r.Categories),
		marshalStrings(r.Keywords), r.TargetTeam, r.Enabled, r.ID)
	if err != nil {
		return nil, fmt.Errorf("update escalation rule: %w", err)
	}
	return r, nil
}

// ListEscalationRules returns enabled rules in evaluation order
// (priority descending, then id for a stable tie-break).
func (s *Store) ListEscalationRules() ([]EscalationRule, error) {
	rows, err := s.db.Query(`SELECT id, name, priority, min_complexity, categories, keywords,
		target_team, enabled, created_at
		FROM escalation_rules WHERE enabled = 1
		ORDER BY priority DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EscalationRule
	for rows.Next() {
		var r EscalationRule
		var categories, keywords string
		if err := rows.Scan(&r.ID, &r.Name, &r.Priority, &r.MinComplexity, &categories,
			&keywords, &r.TargetTeam, &r.Enabled, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Categories = unmarshalStrings(categories)
		r.Keywords = unmarshalStrings(keywords)
		out = append(out, r)
	}
	return out, rows.Err()
}
