package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type UserOperations struct{}

func (o *UserOperations) CreateUser(ctx context.Context, u *User) error {
	_, err := GetDB().ExecContext(ctx, InsertUser, u.ID, u.Email, u.PasswordHash, u.Role)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (o *UserOperations) GetUserByID(ctx context.Context, id string) (*User, error) {
	u := &User{}
	err := GetDB().QueryRowContext(ctx, GetUserByID, id).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (o *UserOperations) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u := &User{}
	err := GetDB().QueryRowContext(ctx, GetUserByEmail, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

type JobOperations struct{}

func (o *JobOperations) CreateJob(ctx context.Context, j *PrintJob) error {
	_, err := GetDB().ExecContext(ctx, InsertJob,
		j.ID, j.SubmitterID, j.SubmitterEmail, j.SubmitterRole, j.SlotID,
		j.FilesJSON, j.Copies, j.ColorMode, j.Sided, j.Stapled,
		j.Instructions, j.Status, j.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (o *JobOperations) GetJobByID(ctx context.Context, id string) (*PrintJob, error) {
	j := &PrintJob{}
	err := GetDB().QueryRowContext(ctx, GetJobByID, id).Scan(
		&j.ID, &j.SubmitterID, &j.SubmitterEmail, &j.SubmitterRole, &j.SlotID,
		&j.FilesJSON, &j.Copies, &j.ColorMode, &j.Sided, &j.Stapled,
		&j.Instructions, &j.Status, &j.SubmittedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}

// UpdateJobStatus writes the status column and nothing else.
func (o *JobOperations) UpdateJobStatus(ctx context.Context, id string, status string) error {
	result, err := GetDB().ExecContext(ctx, UpdateJobStatus, status, id)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (o *JobOperations) DeleteJob(ctx context.Context, id string) error {
	_, err := GetDB().ExecContext(ctx, DeleteJob, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

func (o *JobOperations) CountJobsByStatuses(ctx context.Context, statuses []string) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	args := make([]interface{}, 0, len(statuses))
	for _, s := range statuses {
		args = append(args, s)
	}

	var count int
	query := fmt.Sprintf(CountJobsByStatuses, placeholders)
	err := GetDB().QueryRowContext(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

func (o *JobOperations) ListJobs(ctx context.Context, filter JobFilter) ([]*PrintJob, error) {
	var conditions []string
	var args []interface{}

	if len(filter.Statuses) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(filter.Statuses)), ", ")
		conditions = append(conditions, "status IN ("+placeholders+")")
		for _, s := range filter.Statuses {
			args = append(args, s)
		}
	}
	if filter.SubmitterID != "" {
		conditions = append(conditions, "submitter_id = ?")
		args = append(args, filter.SubmitterID)
	}

	query := "SELECT id, submitter_id, submitter_email, submitter_role, slot_id, files_json, copies, color_mode, sided, stapled, instructions, status, submitted_at FROM print_jobs"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	if filter.OrderAsc {
		query += " ORDER BY submitted_at ASC"
	} else {
		query += " ORDER BY submitted_at DESC"
	}

	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

func scanJobs(rows *sql.Rows) ([]*PrintJob, error) {
	var jobs []*PrintJob
	for rows.Next() {
		j := &PrintJob{}
		if err := rows.Scan(
			&j.ID, &j.SubmitterID, &j.SubmitterEmail, &j.SubmitterRole, &j.SlotID,
			&j.FilesJSON, &j.Copies, &j.ColorMode, &j.Sided, &j.Stapled,
			&j.Instructions, &j.Status, &j.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

type CounterOperations struct{}

// ReadModifyWrite reads the counter under key, applies fn and writes back
// the result, all inside one transaction. It returns the value fn observed.
// With the single-connection pool this is a serialised compare-and-swap;
// concurrent callers queue on the connection rather than conflict.
func (o *CounterOperations) ReadModifyWrite(ctx context.Context, key string, fn func(int64) (int64, error)) (int64, error) {
	tx, err := GetDB().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin counter transaction: %w", err)
	}
	defer tx.Rollback()

	var current int64
	err = tx.QueryRowContext(ctx, GetCounter, key).Scan(&current)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to read counter %s: %w", key, err)
	}

	next, err := fn(current)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, UpsertCounter, key, next); err != nil {
		return 0, fmt.Errorf("failed to write counter %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit counter %s: %w", key, err)
	}

	return current, nil
}

func (o *CounterOperations) Get(ctx context.Context, key string) (int64, error) {
	var value int64
	err := GetDB().QueryRowContext(ctx, GetCounter, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get counter %s: %w", key, err)
	}
	return value, nil
}

type SettingsOperations struct{}

func (o *SettingsOperations) GetSetting(ctx context.Context, key string) (*Setting, error) {
	s := &Setting{Key: key}
	err := GetDB().QueryRowContext(ctx, GetSetting, key).Scan(&s.Value, &s.Encrypted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return s, nil
}

func (o *SettingsOperations) SetSetting(ctx context.Context, key, value string, encrypted bool) error {
	_, err := GetDB().ExecContext(ctx, SetSetting, key, value, encrypted, value, encrypted)
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}

func (o *SettingsOperations) DeleteSetting(ctx context.Context, key string) error {
	_, err := GetDB().ExecContext(ctx, DeleteSetting, key)
	if err != nil {
		return fmt.Errorf("failed to delete setting: %w", err)
	}
	return nil
}

var (
	Users    = &UserOperations{}
	Jobs     = &JobOperations{}
	Counters = &CounterOperations{}
	Settings = &SettingsOperations{}
)
